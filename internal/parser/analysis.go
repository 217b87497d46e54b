package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pavelanni/prepmate/internal/model"
)

type analysisField int

const (
	fieldNone analysisField = iota
	fieldTechnical
	fieldCommunication
	fieldStrengths
	fieldImprove
	fieldRating
)

var analysisLabels = []struct {
	label string
	field analysisField
}{
	{"technical feedback", fieldTechnical},
	{"communication feedback", fieldCommunication},
	{"strengths", fieldStrengths},
	{"areas to improve", fieldImprove},
	{"areas of improvement", fieldImprove},
	{"overall rating", fieldRating},
}

var (
	firstNumberRegex = regexp.MustCompile(`\d+`)
	listBulletRegex  = regexp.MustCompile(`^(?:[-*•]|\d+[.)])\s*`)
)

// ParseAnalysis reads an analyze_interview response laid out as labelled sections
// ("Technical Feedback:", "Communication Feedback:", "Strengths:", "Areas to Improve:",
// "Overall Rating:"). Labels may be decorated with markdown. The rating is clamped to
// 0..100; a missing rating is 0.
func ParseAnalysis(text string) model.AnswerFeedback {
	fields := make(map[analysisField][]string)
	current := fieldNone

	for _, line := range splitLines(text) {
		if field, rest, ok := analysisLabel(line); ok {
			current = field
			fields[field] = append(fields[field], rest)
			continue
		}
		if current != fieldNone {
			fields[current] = append(fields[current], line)
		}
	}

	fb := model.AnswerFeedback{
		TechnicalFeedback:     joinTrimmed(fields[fieldTechnical]),
		CommunicationFeedback: joinTrimmed(fields[fieldCommunication]),
		Strengths:             listItems(fields[fieldStrengths]),
		AreasToImprove:        listItems(fields[fieldImprove]),
	}
	if m := firstNumberRegex.FindString(joinTrimmed(fields[fieldRating])); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil {
			fb.Rating = min(max(n, 0), 100)
		}
	}
	return fb
}

func analysisLabel(line string) (analysisField, string, bool) {
	clean := strings.TrimLeft(strings.TrimSpace(line), "#*- ")
	clean = strings.ReplaceAll(clean, "**", "")
	colon := strings.Index(clean, ":")
	if colon < 0 {
		return fieldNone, "", false
	}
	label := strings.ToLower(strings.TrimSpace(clean[:colon]))
	for _, l := range analysisLabels {
		if label == l.label {
			return l.field, strings.TrimSpace(clean[colon+1:]), true
		}
	}
	return fieldNone, "", false
}

// listItems returns bulleted or numbered entries, or the whole text as one entry when
// it is not a list.
func listItems(lines []string) []string {
	items := []string{}
	var plain []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if loc := listBulletRegex.FindStringIndex(trimmed); loc != nil {
			if item := cleanInline(trimmed[loc[1]:]); item != "" {
				items = append(items, item)
			}
			continue
		}
		plain = append(plain, trimmed)
	}
	if len(items) == 0 && len(plain) > 0 {
		items = append(items, cleanInline(strings.Join(plain, " ")))
	}
	return items
}
