// Package interview runs mock interviews: question generation, answers and analysis.
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/model"
	"github.com/pavelanni/prepmate/internal/parser"
	"github.com/pavelanni/prepmate/internal/store"
)

// AnalysisFailedMessage replaces the feedback of an answer that could not be analysed.
const AnalysisFailedMessage = "An error occurred while analyzing the response. Please try again later."

// maxConcurrentAnalyses bounds parallel analyze_interview calls per interview.
const maxConcurrentAnalyses = 3

var (
	// ErrNotFound is returned for a missing interview or one owned by someone else.
	ErrNotFound = store.ErrNotFound
	// ErrCompleted is returned when answering a completed interview.
	ErrCompleted = errors.New("interview is already completed")
	// ErrNoAnswers is returned when analysis is requested before any answer exists.
	ErrNoAnswers = errors.New("interview has no answers")
	// ErrInvalidSetup wraps validation failures of a setup request.
	ErrInvalidSetup = errors.New("invalid interview setup")
)

// Store is the persistence the service needs.
type Store interface {
	CreateInterview(ctx context.Context, iv *model.Interview) error
	GetInterview(ctx context.Context, id string) (model.Interview, error)
	ListInterviewsByOwner(ctx context.Context, ownerID int64) ([]model.Interview, error)
	SetInterviewCompleted(ctx context.Context, id string) error
	AddQuestions(ctx context.Context, interviewID string, questions []string) ([]model.InterviewQuestion, error)
	ListQuestions(ctx context.Context, interviewID string) ([]model.InterviewQuestion, error)
	SetAnswer(ctx context.Context, interviewID, questionID, answer string) error
	SaveAnalysis(ctx context.Context, a *model.InterviewAnalysis) error
	GetAnalysis(ctx context.Context, interviewID string) (model.InterviewAnalysis, error)
}

// Validator checks a setup request.
type Validator interface {
	Struct(s any) error
}

// Service implements the interview operations. Every operation takes the caller's
// user ID; interviews owned by another user are reported as not found.
type Service struct {
	store       Store
	gen         genapi.Generator
	validate    Validator
	callTimeout time.Duration
}

// NewService returns a service; v may be nil to skip validation.
func NewService(s Store, gen genapi.Generator, v Validator) *Service {
	return &Service{store: s, gen: gen, validate: v, callTimeout: genapi.DefaultTimeout}
}

// Create stores a new interview and its questions. When question generation fails or
// yields nothing, a fixed set of general questions is used instead.
func (s *Service) Create(ctx context.Context, ownerID int64, setup model.InterviewSetup) (model.InterviewView, error) {
	if s.validate != nil {
		if err := s.validate.Struct(setup); err != nil {
			return model.InterviewView{}, fmt.Errorf("%w: %w", ErrInvalidSetup, err)
		}
	}
	count := setup.QuestionCount
	if count <= 0 {
		count = genapi.DefaultQuestionCount
	}

	iv := model.Interview{
		OwnerID:    ownerID,
		JobRole:    setup.JobRole,
		TechStack:  setup.TechStack,
		Experience: setup.Experience,
	}
	if err := s.store.CreateInterview(ctx, &iv); err != nil {
		return model.InterviewView{}, fmt.Errorf("create interview: %w", err)
	}

	questions := s.generateQuestions(ctx, iv, count)
	stored, err := s.store.AddQuestions(ctx, iv.ID, questions)
	if err != nil {
		return model.InterviewView{}, fmt.Errorf("store questions: %w", err)
	}
	slog.Info("interview created", "interview_id", iv.ID, "questions", len(stored))
	return model.InterviewView{Interview: iv, Questions: stored}, nil
}

func (s *Service) generateQuestions(ctx context.Context, iv model.Interview, count int) []string {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	text, err := genapi.Call(callCtx, s.gen,
		genapi.QuestionsRequest(iv.JobRole, iv.TechStack, string(iv.Experience), count))
	if err != nil {
		slog.Warn("question generation failed, using default questions", "interview_id", iv.ID, "error", err)
		return FallbackQuestions(iv.JobRole, iv.TechStack)
	}
	questions := parser.ParseQuestionList(text)
	if len(questions) == 0 {
		slog.Warn("question generation returned no questions, using default questions", "interview_id", iv.ID)
		return FallbackQuestions(iv.JobRole, iv.TechStack)
	}
	return questions
}

// FallbackQuestions are asked when none could be generated.
func FallbackQuestions(jobRole, techStack string) []string {
	return []string{
		"Explain your experience with " + techStack,
		"How do you handle tight deadlines?",
		"Describe a challenging project you worked on",
		"How do you stay updated with industry trends?",
		"What are your strengths and weaknesses as a " + jobRole + "?",
	}
}

// Get returns the interview with its questions in order.
func (s *Service) Get(ctx context.Context, ownerID int64, id string) (model.InterviewView, error) {
	iv, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return model.InterviewView{}, err
	}
	questions, err := s.store.ListQuestions(ctx, id)
	if err != nil {
		return model.InterviewView{}, err
	}
	return model.InterviewView{Interview: iv, Questions: questions}, nil
}

// List returns the owner's interviews, newest first.
func (s *Service) List(ctx context.Context, ownerID int64) ([]model.Interview, error) {
	return s.store.ListInterviewsByOwner(ctx, ownerID)
}

// RecordAnswer stores the answer to one question. Answering again replaces the answer.
func (s *Service) RecordAnswer(ctx context.Context, ownerID int64, interviewID, questionID, answer string) error {
	iv, err := s.owned(ctx, ownerID, interviewID)
	if err != nil {
		return err
	}
	if iv.Completed {
		return ErrCompleted
	}
	if err := s.store.SetAnswer(ctx, interviewID, questionID, answer); err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}

// Complete marks the interview as finished. Completing twice is not an error.
func (s *Service) Complete(ctx context.Context, ownerID int64, id string) error {
	iv, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if iv.Completed {
		return nil
	}
	return s.store.SetInterviewCompleted(ctx, id)
}

// Analysis returns the stored analysis of an interview.
func (s *Service) Analysis(ctx context.Context, ownerID int64, id string) (model.InterviewAnalysis, error) {
	if _, err := s.owned(ctx, ownerID, id); err != nil {
		return model.InterviewAnalysis{}, err
	}
	return s.store.GetAnalysis(ctx, id)
}

// Analyze sends every answered question to the endpoint, combines the feedback into an
// overall rating and stores the result. A failed analysis of one answer is recorded as
// an apology and left out of the rating.
func (s *Service) Analyze(ctx context.Context, ownerID int64, id string) (model.InterviewAnalysis, error) {
	iv, err := s.owned(ctx, ownerID, id)
	if err != nil {
		return model.InterviewAnalysis{}, err
	}
	questions, err := s.store.ListQuestions(ctx, id)
	if err != nil {
		return model.InterviewAnalysis{}, err
	}

	var answered []model.InterviewQuestion
	for _, q := range questions {
		if q.UserAnswer != nil && *q.UserAnswer != "" {
			answered = append(answered, q)
		}
	}
	if len(answered) == 0 {
		return model.InterviewAnalysis{}, ErrNoAnswers
	}

	feedback := make([]model.AnswerFeedback, len(answered))
	ok := make([]bool, len(answered))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentAnalyses)
	for i, q := range answered {
		i, q := i, q
		g.Go(func() error {
			feedback[i], ok[i] = s.analyzeAnswer(gctx, iv, q)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return model.InterviewAnalysis{}, err
	}

	rating := overallRating(feedback, ok)
	a := model.InterviewAnalysis{
		InterviewID:     id,
		OverallRating:   rating,
		Answers:         feedback,
		Recommendations: Recommend(iv, rating),
	}
	if err := s.store.SaveAnalysis(ctx, &a); err != nil {
		return model.InterviewAnalysis{}, fmt.Errorf("save analysis: %w", err)
	}
	slog.Info("interview analysed", "interview_id", id, "answers", len(answered), "rating", a.OverallRating)
	return a, nil
}

func (s *Service) analyzeAnswer(ctx context.Context, iv model.Interview, q model.InterviewQuestion) (model.AnswerFeedback, bool) {
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	text, err := genapi.Call(callCtx, s.gen, genapi.AnalysisRequest(iv.JobRole, q.Question, *q.UserAnswer))
	if err != nil {
		slog.Warn("answer analysis failed", "interview_id", iv.ID, "question_id", q.ID, "error", err)
		return model.AnswerFeedback{
			QuestionID:        q.ID,
			TechnicalFeedback: AnalysisFailedMessage,
			Strengths:         []string{},
			AreasToImprove:    []string{},
		}, false
	}
	fb := parser.ParseAnalysis(text)
	fb.QuestionID = q.ID
	return fb, true
}

func overallRating(feedback []model.AnswerFeedback, ok []bool) int {
	sum, n := 0, 0
	for i, fb := range feedback {
		if ok[i] {
			sum += fb.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func (s *Service) owned(ctx context.Context, ownerID int64, id string) (model.Interview, error) {
	iv, err := s.store.GetInterview(ctx, id)
	if err != nil {
		return model.Interview{}, err
	}
	if iv.OwnerID != ownerID {
		return model.Interview{}, ErrNotFound
	}
	return iv, nil
}
