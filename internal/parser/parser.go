// Package parser turns semi-structured generated course text into typed sections.
//
// The generator is prompted to emit top-level "# " headings (SUMMARY, CHAPTERS,
// FLASHCARDS, MCQs, Q&A PAIRS) with "## " chapter headings and "- Question:" style
// markers inside. Parsing is best-effort: a missing or malformed section yields an
// empty value, never an error.
package parser

import (
	"strings"

	"github.com/pavelanni/prepmate/internal/model"
)

type sectionKind int

const (
	sectionUnknown sectionKind = iota
	sectionSummary
	sectionChapters
	sectionFlashcards
	sectionMCQs
	sectionQnAs
)

const (
	questionMarker      = "- Question:"
	answerMarker        = "- Answer:"
	optionsMarker       = "- Options:"
	correctAnswerMarker = "- Correct Answer:"
)

// Parse extracts summary, chapters, flashcards, MCQs and Q&A pairs from text.
// Sequences in the result are never nil.
func Parse(text string) model.ParsedContent {
	sections := splitSections(text)

	return model.ParsedContent{
		Summary:    joinTrimmed(sections[sectionSummary]),
		Chapters:   parseChapters(sections[sectionChapters]),
		Flashcards: flashcardsFromPairs(parsePairs(sections[sectionFlashcards])),
		MCQs:       parseMCQs(sections[sectionMCQs]),
		QnAs:       qnasFromPairs(parsePairs(sections[sectionQnAs])),
	}
}

// splitSections groups body lines by the top-level heading they follow. Only the first
// occurrence of each known heading is kept.
func splitSections(text string) map[sectionKind][]string {
	sections := make(map[sectionKind][]string)
	seen := make(map[sectionKind]bool)

	current := sectionUnknown
	collecting := false
	for _, line := range splitLines(text) {
		if kind, ok := topLevelHeading(line); ok {
			current = kind
			collecting = kind != sectionUnknown && !seen[kind]
			if collecting {
				seen[kind] = true
				sections[kind] = []string{}
			}
			continue
		}
		if collecting {
			sections[current] = append(sections[current], line)
		}
	}
	return sections
}

// topLevelHeading reports whether line is a "# " heading and which section it opens.
func topLevelHeading(line string) (sectionKind, bool) {
	if !strings.HasPrefix(line, "# ") {
		return sectionUnknown, false
	}
	title := strings.ToUpper(strings.TrimSpace(line[2:]))
	title = strings.TrimSpace(strings.TrimSuffix(title, ":"))

	switch {
	case title == "SUMMARY":
		return sectionSummary, true
	case title == "CHAPTERS":
		return sectionChapters, true
	case title == "FLASHCARDS":
		return sectionFlashcards, true
	case title == "Q&A PAIRS":
		return sectionQnAs, true
	case strings.HasPrefix(title, "MCQS"):
		return sectionMCQs, true
	}
	return sectionUnknown, true
}

func parseChapters(lines []string) []model.Chapter {
	chapters := []model.Chapter{}

	var title string
	var body []string
	inChapter := false
	flush := func() {
		if !inChapter {
			return
		}
		chapters = append(chapters, model.Chapter{
			Title:       title,
			Content:     joinTrimmed(body),
			OrderNumber: len(chapters) + 1,
		})
	}

	for _, line := range lines {
		if strings.HasPrefix(line, "## ") {
			flush()
			title = strings.TrimSpace(line[3:])
			body = nil
			inChapter = true
			continue
		}
		if inChapter {
			body = append(body, line)
		}
	}
	flush()
	return chapters
}

type pair struct {
	question  []string
	answer    []string
	answering bool
}

// parsePairs reads repeated "- Question:" / "- Answer:" pairs. A question without an
// answer marker is dropped.
func parsePairs(lines []string) []pair {
	var pairs []pair
	var cur *pair
	flush := func() {
		if cur != nil && cur.answering {
			pairs = append(pairs, *cur)
		}
		cur = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, questionMarker):
			flush()
			cur = &pair{question: []string{trimmed[len(questionMarker):]}}
		case strings.HasPrefix(trimmed, answerMarker) && cur != nil && !cur.answering:
			cur.answering = true
			cur.answer = []string{trimmed[len(answerMarker):]}
		case cur != nil && cur.answering:
			cur.answer = append(cur.answer, line)
		case cur != nil:
			cur.question = append(cur.question, line)
		}
	}
	flush()
	return pairs
}

func flashcardsFromPairs(pairs []pair) []model.Flashcard {
	cards := make([]model.Flashcard, 0, len(pairs))
	for _, p := range pairs {
		cards = append(cards, model.Flashcard{Question: joinTrimmed(p.question), Answer: joinTrimmed(p.answer)})
	}
	return cards
}

func qnasFromPairs(pairs []pair) []model.QnA {
	qnas := make([]model.QnA, 0, len(pairs))
	for _, p := range pairs {
		qnas = append(qnas, model.QnA{Question: joinTrimmed(p.question), Answer: joinTrimmed(p.answer)})
	}
	return qnas
}

type mcqState int

const (
	mcqQuestion mcqState = iota
	mcqOptions
	mcqDone
)

// parseMCQs splits the section into blocks starting at "- Question:". Lines before
// the first marker are discarded.
func parseMCQs(lines []string) []model.MCQ {
	mcqs := []model.MCQ{}

	var question []string
	var options []string
	var letter rune
	state := mcqDone
	inBlock := false

	flush := func() {
		if !inBlock {
			return
		}
		mcqs = append(mcqs, model.MCQ{
			Question:      joinTrimmed(question),
			Options:       options,
			CorrectAnswer: resolveAnswer(letter, options),
		})
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, questionMarker):
			flush()
			inBlock = true
			question = []string{trimmed[len(questionMarker):]}
			options = []string{}
			letter = 0
			state = mcqQuestion
		case !inBlock:
			continue
		case strings.HasPrefix(trimmed, optionsMarker):
			state = mcqOptions
		case strings.HasPrefix(trimmed, correctAnswerMarker):
			letter = answerLetter(trimmed[len(correctAnswerMarker):])
			state = mcqDone
		case state == mcqOptions:
			if text, ok := optionLine(trimmed, rune('a'+len(options))); ok {
				options = append(options, text)
			}
		case state == mcqQuestion:
			if isOptionLine(trimmed) {
				state = mcqDone
				continue
			}
			question = append(question, line)
		}
	}
	flush()
	return mcqs
}

// optionLine matches "<letter>) <text>" where letter is the next expected option
// letter. Options out of order or past d are skipped, so an option's position always
// equals its letter.
func optionLine(line string, next rune) (string, bool) {
	if next > 'd' || !isOptionLine(line) || rune(line[0]) != next {
		return "", false
	}
	return strings.TrimSpace(line[2:]), true
}

func isOptionLine(line string) bool {
	return len(line) >= 2 && line[0] >= 'a' && line[0] <= 'd' && line[1] == ')'
}

func answerLetter(s string) rune {
	s = strings.TrimLeft(strings.TrimSpace(s), "(")
	if s == "" {
		return 0
	}
	r := rune(s[0])
	if r >= 'A' && r <= 'Z' {
		r += 'a' - 'A'
	}
	return r
}

// resolveAnswer indexes the options by the letter's offset from 'a'. Letters outside
// a-d or beyond the parsed options resolve to the empty string.
func resolveAnswer(letter rune, options []string) string {
	if letter < 'a' || letter > 'd' {
		return ""
	}
	idx := int(letter - 'a')
	if idx >= len(options) {
		return ""
	}
	return options[idx]
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.Split(text, "\n")
}

func joinTrimmed(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
