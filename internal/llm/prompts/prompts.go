// Package prompts renders the per-action prompt templates embedded in the binary.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.tmpl
var embedded embed.FS

// MaxAnswerRunes caps the candidate answer placed into an analysis prompt.
const MaxAnswerRunes = 10000

var candidateAnswerRegex = regexp.MustCompile(`(?i)</?\s*candidate-answer\b[^>]*>`)

// Kind names one prompt template.
type Kind string

const (
	Course     Kind = "course"
	Flashcards Kind = "flashcards"
	Questions  Kind = "questions"
	Analysis   Kind = "analysis"
)

var kinds = []Kind{Course, Flashcards, Questions, Analysis}

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[Kind]*template.Template
)

// CourseData fills the course and flashcards templates.
type CourseData struct {
	Topic      string
	Purpose    string
	Difficulty string
}

// QuestionsData fills the interview questions template.
type QuestionsData struct {
	JobRole    string
	TechStack  string
	Experience string
	Count      int
}

// AnalysisData fills the answer analysis template.
type AnalysisData struct {
	JobRole  string
	Question string
	Answer   string
}

// Load parses the templates from fsys, which must contain templates/<kind>.tmpl. Only
// the first call has any effect.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		parsed := make(map[Kind]*template.Template, len(kinds))
		for _, k := range kinds {
			name := "templates/" + string(k) + ".tmpl"
			content, err := fs.ReadFile(fsys, name)
			if err != nil {
				loadErr = fmt.Errorf("read prompt template %s: %w", name, err)
				return
			}
			tmpl, err := template.New(string(k)).Option("missingkey=error").Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			parsed[k] = tmpl
		}
		templates = parsed
	})
	return loadErr
}

// BuildCourse renders the generate_course prompt.
func BuildCourse(d CourseData) (string, error) {
	return render(Course, humanizeCourse(d))
}

// BuildFlashcards renders the generate_flashcards prompt.
func BuildFlashcards(d CourseData) (string, error) {
	return render(Flashcards, humanizeCourse(d))
}

// BuildQuestions renders the generate_interview_questions prompt.
func BuildQuestions(d QuestionsData) (string, error) {
	if d.Count <= 0 {
		d.Count = 5
	}
	return render(Questions, d)
}

// BuildAnalysis renders the analyze_interview prompt with a sanitized answer.
func BuildAnalysis(d AnalysisData) (string, error) {
	d.Answer = SanitizeAnswer(d.Answer)
	return render(Analysis, d)
}

func render(k Kind, data any) (string, error) {
	if err := Load(embedded); err != nil {
		return "", err
	}
	tmpl, ok := templates[k]
	if !ok {
		return "", errors.New("unknown prompt template: " + string(k))
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", k, err)
	}
	return buf.String(), nil
}

func humanizeCourse(d CourseData) CourseData {
	d.Purpose = strings.ReplaceAll(d.Purpose, "_", " ")
	return d
}

// SanitizeAnswer strips tags that could close the answer block and truncates long answers.
func SanitizeAnswer(answer string) string {
	answer = candidateAnswerRegex.ReplaceAllString(answer, "")
	answer = strings.TrimSpace(answer)

	if answer == "" {
		return "[No answer provided]"
	}

	if utf8.RuneCountInString(answer) > MaxAnswerRunes {
		runes := []rune(answer)
		answer = string(runes[:MaxAnswerRunes]) + "\n\n[Answer truncated due to length]"
	}
	return answer
}
