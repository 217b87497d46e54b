package model

import "time"

// ContentStatus is the discriminator of a course's content document.
type ContentStatus string

const (
	StatusGenerating           ContentStatus = "generating"
	StatusGeneratingFlashcards ContentStatus = "generating_flashcards"
	StatusComplete             ContentStatus = "complete"
	StatusError                ContentStatus = "error"
)

// Terminal reports whether no further transition may happen within the same job.
func (s ContentStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// CanTransition reports whether a single job may move a course from one status to another.
func CanTransition(from, to ContentStatus) bool {
	switch from {
	case StatusGenerating:
		return to == StatusGenerating || to == StatusGeneratingFlashcards || to == StatusComplete || to == StatusError
	case StatusGeneratingFlashcards:
		return to == StatusComplete || to == StatusError
	default:
		return false
	}
}

// CourseContent is the status document stored with a course. Exactly one status is
// active; the other fields are populated according to it.
type CourseContent struct {
	Status        ContentStatus  `json:"status"`
	Message       string         `json:"message,omitempty"`
	LastUpdated   *time.Time     `json:"lastUpdated,omitempty"`
	FullText      string         `json:"fullText,omitempty"`
	GeneratedAt   *time.Time     `json:"generatedAt,omitempty"`
	ParsedContent *ParsedContent `json:"parsedContent,omitempty"`
}

// GeneratingContent marks a job as started with no result yet.
func GeneratingContent(now time.Time) CourseContent {
	return CourseContent{Status: StatusGenerating, LastUpdated: &now}
}

// FlashcardsContent marks a secondary flashcard enrichment as in progress.
func FlashcardsContent(message string, now time.Time) CourseContent {
	return CourseContent{Status: StatusGeneratingFlashcards, Message: message, LastUpdated: &now}
}

// CompleteContent is the terminal success document.
func CompleteContent(fullText string, now time.Time, parsed ParsedContent) CourseContent {
	return CourseContent{Status: StatusComplete, FullText: fullText, GeneratedAt: &now, ParsedContent: &parsed}
}

// ErrorContent is the terminal failure document.
func ErrorContent(message string, now time.Time) CourseContent {
	return CourseContent{Status: StatusError, Message: message, LastUpdated: &now}
}

// ParsedContent is the structured form of a generated course text.
type ParsedContent struct {
	Summary    string      `json:"summary"`
	Chapters   []Chapter   `json:"chapters"`
	Flashcards []Flashcard `json:"flashcards"`
	MCQs       []MCQ       `json:"mcqs"`
	QnAs       []QnA       `json:"qnas"`
}

// Chapter is one "## " block of the chapters section. OrderNumber is 1-based by position.
type Chapter struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	OrderNumber int    `json:"order_number"`
}

// Flashcard is a question/answer pair from the flashcards section.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MCQ is a multiple-choice question. CorrectAnswer holds the option text, not the letter.
type MCQ struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// QnA is a question/answer pair from the Q&A section.
type QnA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
