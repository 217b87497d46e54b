package parser

import "unicode/utf8"

// MaxSummaryLength caps the summary stored on a course record.
const MaxSummaryLength = 500

// ExtractSummary returns the trimmed "# SUMMARY" section truncated to MaxSummaryLength
// characters, or a generic one-line summary naming the topic when there is none.
func ExtractSummary(text, topic string) string {
	summary := joinTrimmed(splitSections(text)[sectionSummary])
	if summary == "" {
		return "An AI-generated course on " + topic
	}
	return truncateRunes(summary, MaxSummaryLength)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
