// Package genapi defines the generation endpoint contract: a single POST that takes
// {"action": ..., ...fields} and answers {"success": true, "text", "data"} or
// {"success": false, "error"}.
package genapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Actions understood by the endpoint.
const (
	ActionGenerateCourse             = "generate_course"
	ActionGenerateInterviewQuestions = "generate_interview_questions"
	ActionAnalyzeInterview           = "analyze_interview"
	ActionGenerateFlashcards         = "generate_flashcards"
)

// DefaultTimeout bounds every endpoint call.
const DefaultTimeout = 60 * time.Second

// DefaultQuestionCount is used when a question request leaves the count unset.
const DefaultQuestionCount = 5

var (
	// ErrUnknownAction is returned for an action outside the supported set.
	ErrUnknownAction = errors.New("unsupported action")
	// ErrMissingField is returned when an action-specific field is empty.
	ErrMissingField = errors.New("missing field")
)

// Fields carries the action-specific parameters. Only the fields relevant to the
// action are sent.
type Fields struct {
	Topic         string `json:"topic,omitempty"`
	Purpose       string `json:"purpose,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	JobRole       string `json:"jobRole,omitempty"`
	TechStack     string `json:"techStack,omitempty"`
	Experience    string `json:"experience,omitempty"`
	QuestionCount int    `json:"questionCount,omitempty"`
	Question      string `json:"question,omitempty"`
	Answer        string `json:"answer,omitempty"`
}

// Request is one endpoint call. It encodes flat: {"action": "...", "topic": "...", ...}.
type Request struct {
	Action string `json:"action"`
	Fields
}

// UnmarshalJSON accepts the flat form and the older {"action", "data": {...}} form.
func (r *Request) UnmarshalJSON(b []byte) error {
	var w struct {
		Action string `json:"action"`
		Fields
		Data *Fields `json:"data"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Action = w.Action
	r.Fields = w.Fields
	if w.Data != nil {
		r.Fields = *w.Data
	}
	return nil
}

// CourseRequest builds a generate_course request.
func CourseRequest(topic, purpose, difficulty string) Request {
	return Request{Action: ActionGenerateCourse, Fields: Fields{Topic: topic, Purpose: purpose, Difficulty: difficulty}}
}

// FlashcardsRequest builds a generate_flashcards request.
func FlashcardsRequest(topic, purpose, difficulty string) Request {
	return Request{Action: ActionGenerateFlashcards, Fields: Fields{Topic: topic, Purpose: purpose, Difficulty: difficulty}}
}

// QuestionsRequest builds a generate_interview_questions request.
func QuestionsRequest(jobRole, techStack, experience string, count int) Request {
	return Request{Action: ActionGenerateInterviewQuestions, Fields: Fields{
		JobRole:       jobRole,
		TechStack:     techStack,
		Experience:    experience,
		QuestionCount: count,
	}}
}

// AnalysisRequest builds an analyze_interview request.
func AnalysisRequest(jobRole, question, answer string) Request {
	return Request{Action: ActionAnalyzeInterview, Fields: Fields{JobRole: jobRole, Question: question, Answer: answer}}
}

// Validate checks the action and its required fields.
func (r Request) Validate() error {
	var required map[string]string
	switch r.Action {
	case ActionGenerateCourse, ActionGenerateFlashcards:
		required = map[string]string{"topic": r.Topic, "purpose": r.Purpose, "difficulty": r.Difficulty}
	case ActionGenerateInterviewQuestions:
		required = map[string]string{"jobRole": r.JobRole, "techStack": r.TechStack, "experience": r.Experience}
	case ActionAnalyzeInterview:
		required = map[string]string{"jobRole": r.JobRole, "question": r.Question, "answer": r.Answer}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, r.Action)
	}
	var missing []string
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// Response is the endpoint reply.
type Response struct {
	Success bool
	Text    string
	Data    json.RawMessage
	Error   string
}

type successBody struct {
	Success bool            `json:"success"`
	Text    string          `json:"text"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type failureBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MarshalJSON writes the success or failure shape, never a mix of both.
func (r Response) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(successBody{Success: true, Text: r.Text, Data: r.Data})
	}
	return json.Marshal(failureBody{Error: r.Error})
}

// UnmarshalJSON reads either shape.
func (r *Response) UnmarshalJSON(b []byte) error {
	var w struct {
		Success bool            `json:"success"`
		Text    string          `json:"text"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*r = Response{Success: w.Success, Text: w.Text, Data: w.Data, Error: w.Error}
	return nil
}

// Success builds a successful response.
func Success(text string, data json.RawMessage) Response {
	return Response{Success: true, Text: text, Data: data}
}

// Failure builds a failed response.
func Failure(msg string) Response {
	return Response{Error: msg}
}

// Err returns nil for a successful response and an *EndpointError otherwise.
func (r Response) Err(action string) error {
	if r.Success {
		return nil
	}
	return &EndpointError{Action: action, Message: r.Error}
}

// EndpointError is a failure reported by the endpoint itself rather than the transport.
type EndpointError struct {
	Action  string
	Message string
}

func (e *EndpointError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: endpoint reported failure", e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// Generator performs endpoint calls. Transport failures are returned as errors; a
// failure reported by the endpoint comes back as a Response with Success false.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (Response, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// Call runs req through g and folds both failure kinds into one error. The returned
// text is the successful response text.
func Call(ctx context.Context, g Generator, req Request) (string, error) {
	resp, err := g.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Action, err)
	}
	if err := resp.Err(req.Action); err != nil {
		return "", err
	}
	return resp.Text, nil
}
