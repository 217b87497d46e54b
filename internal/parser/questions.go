package parser

import (
	"regexp"
	"strings"
)

var numberedItemRegex = regexp.MustCompile(`^\s*\d+[.)]\s*(.*)$`)

// ParseQuestionList splits a numbered list ("1. ...", "2) ...") into trimmed questions.
// Text before the first numbered item is ignored; continuation lines are joined to the
// item they follow.
func ParseQuestionList(text string) []string {
	var questions []string
	var cur []string
	inItem := false
	flush := func() {
		if !inItem {
			return
		}
		if q := cleanInline(strings.Join(cur, " ")); q != "" {
			questions = append(questions, q)
		}
	}

	for _, line := range splitLines(text) {
		if m := numberedItemRegex.FindStringSubmatch(line); m != nil {
			flush()
			cur = []string{m[1]}
			inItem = true
			continue
		}
		if inItem && strings.TrimSpace(line) != "" {
			cur = append(cur, strings.TrimSpace(line))
		}
	}
	flush()
	return questions
}

// cleanInline collapses whitespace and drops markdown emphasis markers.
func cleanInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	return strings.Join(strings.Fields(s), " ")
}
