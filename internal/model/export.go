package model

import "time"

// CourseExport is the top-level JSON structure for course export.
type CourseExport struct {
	ExportedAt time.Time        `json:"exported_at"`
	Owner      string           `json:"owner"`
	Courses    []CourseDocument `json:"courses"`
}

// CourseDocument holds one finished course in a self-contained form.
type CourseDocument struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Purpose     Purpose     `json:"purpose"`
	Difficulty  Difficulty  `json:"difficulty"`
	Summary     string      `json:"summary"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	GeneratedAt *time.Time  `json:"generated_at,omitempty"`
	Chapters    []Chapter   `json:"chapters"`
	Flashcards  []Flashcard `json:"flashcards"`
	MCQs        []MCQ       `json:"mcqs"`
	QnAs        []QnA       `json:"qnas"`
}

// DocumentFromCourse flattens a course record into its export form.
func DocumentFromCourse(c Course) CourseDocument {
	doc := CourseDocument{
		ID:          c.ID,
		Title:       c.Title,
		Purpose:     c.Purpose,
		Difficulty:  c.Difficulty,
		Summary:     c.Summary,
		Status:      string(c.Content.Status),
		CreatedAt:   c.CreatedAt,
		GeneratedAt: c.Content.GeneratedAt,
		Chapters:    []Chapter{},
		Flashcards:  []Flashcard{},
		MCQs:        []MCQ{},
		QnAs:        []QnA{},
	}
	if p := c.Content.ParsedContent; p != nil {
		doc.Chapters = append(doc.Chapters, p.Chapters...)
		doc.Flashcards = append(doc.Flashcards, p.Flashcards...)
		doc.MCQs = append(doc.MCQs, p.MCQs...)
		doc.QnAs = append(doc.QnAs, p.QnAs...)
	}
	return doc
}
