package parser

import (
	"reflect"
	"strings"
	"testing"
)

const sampleCourse = `# SUMMARY
A short tour of recursion.

# CHAPTERS
## 1. Base Cases
Every recursion needs a base case.

## Recursive Step
The function calls itself
on a smaller input.

## Chapter 7: Tail Calls
Some languages optimise tail calls.

# FLASHCARDS
- Question: What is a base case?
- Answer: The input that stops recursion.

- Question: What is a stack overflow?
- Answer: Running out of call stack
because recursion never ends.

# MCQs (Multiple Choice Questions)
- Question: Which structure backs recursive calls?
- Options:
a) Queue
b) Heap
c) Stack
d) Tree
- Correct Answer: c

- Question: What does factorial(0) return?
- Options:
a) 0
b) 1
- Correct Answer: b

# Q&A PAIRS
- Question: When should you prefer iteration?
- Answer: When recursion depth could be large.
`

func TestParseFullCourse(t *testing.T) {
	got := Parse(sampleCourse)

	if got.Summary != "A short tour of recursion." {
		t.Errorf("summary = %q", got.Summary)
	}

	wantTitles := []string{"1. Base Cases", "Recursive Step", "Chapter 7: Tail Calls"}
	if len(got.Chapters) != len(wantTitles) {
		t.Fatalf("expected %d chapters, got %d", len(wantTitles), len(got.Chapters))
	}
	for i, ch := range got.Chapters {
		if ch.Title != wantTitles[i] {
			t.Errorf("chapter %d title = %q, want %q", i, ch.Title, wantTitles[i])
		}
		if ch.OrderNumber != i+1 {
			t.Errorf("chapter %d order = %d, want %d", i, ch.OrderNumber, i+1)
		}
	}
	if got.Chapters[1].Content != "The function calls itself\non a smaller input." {
		t.Errorf("chapter 2 content = %q", got.Chapters[1].Content)
	}

	if len(got.Flashcards) != 2 {
		t.Fatalf("expected 2 flashcards, got %d", len(got.Flashcards))
	}
	if got.Flashcards[1].Answer != "Running out of call stack\nbecause recursion never ends." {
		t.Errorf("flashcard 2 answer = %q", got.Flashcards[1].Answer)
	}

	if len(got.MCQs) != 2 {
		t.Fatalf("expected 2 MCQs, got %d", len(got.MCQs))
	}
	if got.MCQs[0].CorrectAnswer != "Stack" {
		t.Errorf("mcq 1 correct answer = %q, want Stack", got.MCQs[0].CorrectAnswer)
	}
	if got.MCQs[1].CorrectAnswer != "1" {
		t.Errorf("mcq 2 correct answer = %q, want 1", got.MCQs[1].CorrectAnswer)
	}

	if len(got.QnAs) != 1 || got.QnAs[0].Answer != "When recursion depth could be large." {
		t.Errorf("unexpected qnas: %+v", got.QnAs)
	}
}

func TestParseWithoutHeadings(t *testing.T) {
	inputs := []string{
		"",
		"just some prose\nwith lines",
		"## Orphan chapter\n- Question: q\n- Answer: a",
		"#SUMMARY without space",
	}
	for _, in := range inputs {
		got := Parse(in)
		if got.Summary != "" || len(got.Chapters) != 0 || len(got.Flashcards) != 0 || len(got.MCQs) != 0 || len(got.QnAs) != 0 {
			t.Errorf("Parse(%q) = %+v, want empty", in, got)
		}
		if got.Chapters == nil || got.Flashcards == nil || got.MCQs == nil || got.QnAs == nil {
			t.Errorf("Parse(%q) returned nil sequences", in)
		}
	}
}

func TestParseChapterCountMatchesHeadings(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"none", "# CHAPTERS\nonly preamble", 0},
		{"preamble ignored", "# CHAPTERS\nintro\n## A\na\n## B\nb", 2},
		{"stops at next section", "# CHAPTERS\n## A\na\n# FLASHCARDS\n## Not a chapter", 1},
		{"deeper headings stay in content", "# CHAPTERS\n## A\n### detail\ntext", 1},
		{"section after other sections", "# SUMMARY\ns\n# Q&A PAIRS\n# CHAPTERS\n## A\n## B\n## C", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input).Chapters
			if len(got) != tt.want {
				t.Fatalf("expected %d chapters, got %d", tt.want, len(got))
			}
			for i, ch := range got {
				if ch.OrderNumber != i+1 {
					t.Errorf("chapter %d order = %d", i, ch.OrderNumber)
				}
			}
		})
	}
}

func TestParseMCQCorrectAnswer(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantOptions int
		want        string
	}{
		{
			"letter c",
			"# MCQs\n- Question: Pick\n- Options:\na) X\nb) Y\nc) Z\nd) W\n- Correct Answer: c",
			4, "Z",
		},
		{
			"letter out of range",
			"# MCQs\n- Question: Pick\n- Options:\na) X\nb) Y\nc) Z\nd) W\n- Correct Answer: e",
			4, "",
		},
		{
			"no options",
			"# MCQs\n- Question: Pick\n- Correct Answer: a",
			0, "",
		},
		{
			"letter beyond parsed options",
			"# MCQs\n- Question: Pick\n- Options:\na) X\nb) Y\n- Correct Answer: d",
			2, "",
		},
		{
			"uppercase letter",
			"# MCQs\n- Question: Pick\n- Options:\na) X\nb) Y\n- Correct Answer: B",
			2, "Y",
		},
		{
			"uppercase option lines",
			"# MCQs\n- Question: Pick\n- Options:\nA) X\nB) Y\n- Correct Answer: a",
			0, "",
		},
		{
			"out of order option skipped",
			"# MCQs\n- Question: 2+2?\n- Options:\nb) 4\na) 3\n- Correct Answer: a",
			1, "3",
		},
		{
			"indented options and non-option lines",
			"# MCQs\n- Question: Pick\n- Options: \n  a) X\n  note\n  b) Y\n- Correct Answer: a",
			2, "X",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mcqs := Parse(tt.input).MCQs
			if len(mcqs) != 1 {
				t.Fatalf("expected 1 MCQ, got %d", len(mcqs))
			}
			if len(mcqs[0].Options) != tt.wantOptions {
				t.Errorf("expected %d options, got %v", tt.wantOptions, mcqs[0].Options)
			}
			if mcqs[0].CorrectAnswer != tt.want {
				t.Errorf("correct answer = %q, want %q", mcqs[0].CorrectAnswer, tt.want)
			}
		})
	}
}

func TestParseMCQScenario(t *testing.T) {
	in := "# MCQs\n- Question: 2+2?\n- Options:\na) 3\nb) 4\nc) 5\nd) 6\n- Correct Answer: b"
	mcqs := Parse(in).MCQs
	if len(mcqs) != 1 {
		t.Fatalf("expected 1 MCQ, got %d", len(mcqs))
	}
	if mcqs[0].Question != "2+2?" {
		t.Errorf("question = %q", mcqs[0].Question)
	}
	if want := []string{"3", "4", "5", "6"}; !reflect.DeepEqual(mcqs[0].Options, want) {
		t.Errorf("options = %v, want %v", mcqs[0].Options, want)
	}
	if mcqs[0].CorrectAnswer != "4" {
		t.Errorf("correct answer = %q, want 4", mcqs[0].CorrectAnswer)
	}
}

func TestParseMCQQuestionStopsAtOptionLines(t *testing.T) {
	in := "# MCQs\n- Question: 2+2?\nwith a second line\na) 3\nb) 4\n- Correct Answer: b"
	mcqs := Parse(in).MCQs
	if len(mcqs) != 1 {
		t.Fatalf("expected 1 MCQ, got %d", len(mcqs))
	}
	if mcqs[0].Question != "2+2?\nwith a second line" {
		t.Errorf("question = %q", mcqs[0].Question)
	}
	if len(mcqs[0].Options) != 0 || mcqs[0].CorrectAnswer != "" {
		t.Errorf("options outside the options list were used: %+v", mcqs[0])
	}
}

func TestParseMCQDiscardsBlocksWithoutQuestion(t *testing.T) {
	in := "# MCQs\n- Options:\na) stray\n- Correct Answer: a\n\n- Question: Real?\n- Options:\na) yes\n- Correct Answer: a"
	mcqs := Parse(in).MCQs
	if len(mcqs) != 1 {
		t.Fatalf("expected 1 MCQ, got %d", len(mcqs))
	}
	if mcqs[0].CorrectAnswer != "yes" {
		t.Errorf("correct answer = %q, want yes", mcqs[0].CorrectAnswer)
	}
}

func TestParsePairs(t *testing.T) {
	in := "# FLASHCARDS\n- Question: Q1\n- Answer: A1\n- Question: dangling\n- Question: Q2\n- Answer: A2\n# OTHER\n- Question: outside\n- Answer: outside"
	cards := Parse(in).Flashcards
	if len(cards) != 2 {
		t.Fatalf("expected 2 flashcards, got %+v", cards)
	}
	if cards[0].Question != "Q1" || cards[1].Answer != "A2" {
		t.Errorf("unexpected cards: %+v", cards)
	}
}

func TestParseTrimsAndNormalizesLineEndings(t *testing.T) {
	in := "# SUMMARY\r\n   padded summary   \r\n# Q&A PAIRS\r\n  - Question:   spaced?  \r\n- Answer:   yes   \r\n"
	got := Parse(in)
	if got.Summary != "padded summary" {
		t.Errorf("summary = %q", got.Summary)
	}
	if len(got.QnAs) != 1 {
		t.Fatalf("expected 1 qna, got %+v", got.QnAs)
	}
	if got.QnAs[0].Question != "spaced?" || got.QnAs[0].Answer != "yes" {
		t.Errorf("unexpected qna: %+v", got.QnAs[0])
	}
}

func TestParseIdempotent(t *testing.T) {
	first := Parse(sampleCourse)
	second := Parse(sampleCourse)
	if !reflect.DeepEqual(first, second) {
		t.Error("parsing the same text twice produced different results")
	}
}

func TestExtractSummary(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		got := ExtractSummary(sampleCourse, "Recursion")
		if got != "A short tour of recursion." {
			t.Errorf("got %q", got)
		}
	})
	t.Run("absent", func(t *testing.T) {
		got := ExtractSummary("# CHAPTERS\n## A", "Recursion")
		if got != "An AI-generated course on Recursion" {
			t.Errorf("got %q", got)
		}
	})
	t.Run("truncated", func(t *testing.T) {
		long := strings.Repeat("é", 800)
		got := ExtractSummary("# SUMMARY\n"+long, "x")
		if n := len([]rune(got)); n != MaxSummaryLength {
			t.Errorf("expected %d runes, got %d", MaxSummaryLength, n)
		}
	})
	t.Run("parser keeps full summary", func(t *testing.T) {
		long := strings.Repeat("a", 800)
		if got := Parse("# SUMMARY\n" + long).Summary; len(got) != 800 {
			t.Errorf("expected untruncated summary, got %d chars", len(got))
		}
	})
}
