package parser

import (
	"reflect"
	"testing"
)

func TestParseAnalysis(t *testing.T) {
	text := `**Technical Feedback:** The answer covers goroutines
but misses the memory model.

**Communication Feedback:** Clear and structured.

**Strengths:**
- Good examples
- Concise

**Areas to Improve:**
1. Mention happens-before
2) Discuss sync.Mutex

**Overall Rating:** 72/100`

	got := ParseAnalysis(text)
	if got.TechnicalFeedback != "The answer covers goroutines\nbut misses the memory model." {
		t.Errorf("technical = %q", got.TechnicalFeedback)
	}
	if got.CommunicationFeedback != "Clear and structured." {
		t.Errorf("communication = %q", got.CommunicationFeedback)
	}
	if want := []string{"Good examples", "Concise"}; !reflect.DeepEqual(got.Strengths, want) {
		t.Errorf("strengths = %q, want %q", got.Strengths, want)
	}
	if want := []string{"Mention happens-before", "Discuss sync.Mutex"}; !reflect.DeepEqual(got.AreasToImprove, want) {
		t.Errorf("areas = %q, want %q", got.AreasToImprove, want)
	}
	if got.Rating != 72 {
		t.Errorf("rating = %d, want 72", got.Rating)
	}
}

func TestParseAnalysisRating(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"Overall Rating: 85", 85},
		{"overall rating: 250", 100},
		{"Overall Rating: none given", 0},
		{"no labels at all", 0},
		{"### Overall Rating:\n64 out of 100", 64},
	}
	for _, tt := range tests {
		if got := ParseAnalysis(tt.input).Rating; got != tt.want {
			t.Errorf("ParseAnalysis(%q).Rating = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestParseAnalysisPlainLists(t *testing.T) {
	got := ParseAnalysis("Strengths: Calm delivery and\nclear structure.\nAreas of improvement: none")
	if want := []string{"Calm delivery and clear structure."}; !reflect.DeepEqual(got.Strengths, want) {
		t.Errorf("strengths = %q, want %q", got.Strengths, want)
	}
	if want := []string{"none"}; !reflect.DeepEqual(got.AreasToImprove, want) {
		t.Errorf("areas = %q, want %q", got.AreasToImprove, want)
	}
	if got.Strengths == nil || ParseAnalysis("").AreasToImprove == nil {
		t.Error("expected non-nil lists")
	}
}
