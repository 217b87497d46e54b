// Package generation runs course generation jobs and tracks their progress.
//
// A job owns exactly one course record. It moves the record's content document from
// generating to complete or error and never writes again after a terminal state.
package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/model"
	"github.com/pavelanni/prepmate/internal/parser"
)

// PlaceholderSummary is stored on a course until its job completes.
const PlaceholderSummary = "Course generation in progress..."

// CourseStore is the persistence the orchestrator needs.
type CourseStore interface {
	CreateCourse(ctx context.Context, c *model.Course) error
	GetCourse(ctx context.Context, id string) (model.Course, error)
	UpdateCourseContent(ctx context.Context, id string, content model.CourseContent) error
	UpdateCourseResult(ctx context.Context, id, summary string, content model.CourseContent) error
	TouchCourse(ctx context.Context, id string, status model.ContentStatus) error
}

// Validator checks a generation request before a course is created.
type Validator interface {
	Struct(s any) error
}

// Config controls retries and timeouts of endpoint calls.
type Config struct {
	MaxRetries  int
	RetryDelay  time.Duration
	CallTimeout time.Duration
}

// DefaultConfig retries twice, three seconds apart, with a 60 second call budget.
func DefaultConfig() Config {
	return Config{MaxRetries: 2, RetryDelay: 3 * time.Second, CallTimeout: genapi.DefaultTimeout}
}

// WorstCase is the longest a generation job can run without finishing: every primary
// attempt times out and every retry waits the full delay. The fallback is local.
func (c Config) WorstCase() time.Duration {
	return time.Duration(c.MaxRetries+1)*c.CallTimeout + time.Duration(c.MaxRetries)*c.RetryDelay
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig overrides the retry and timeout settings.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) { o.cfg = cfg }
}

// WithClock sets the time source used for content timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithWaiter replaces the retry delay implementation.
func WithWaiter(wait func(ctx context.Context, d time.Duration) error) Option {
	return func(o *Orchestrator) { o.wait = wait }
}

// WithFallback sets the generator used after retries are exhausted.
func WithFallback(f Fallback) Option {
	return func(o *Orchestrator) { o.fallback = f }
}

// WithValidator enables request validation in Start.
func WithValidator(v Validator) Option {
	return func(o *Orchestrator) { o.validate = v }
}

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = l }
}

// Orchestrator starts and runs generation jobs.
type Orchestrator struct {
	store    CourseStore
	gen      genapi.Generator
	fallback Fallback
	validate Validator
	cfg      Config
	now      func() time.Time
	wait     func(ctx context.Context, d time.Duration) error
	log      *slog.Logger
	jobs     sync.WaitGroup
}

// New returns an orchestrator that calls gen for course text.
func New(store CourseStore, gen genapi.Generator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		gen:      gen,
		fallback: NewTemplateFallback(nil, 0),
		cfg:      DefaultConfig(),
		now:      time.Now,
		wait:     sleep,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start validates req, creates a course owned by ownerID in the generating state and
// runs its job in the background. It returns the course ID as soon as the record exists.
func (o *Orchestrator) Start(ctx context.Context, ownerID int64, req model.GenerationRequest) (string, error) {
	id, err := o.Create(ctx, ownerID, req)
	if err != nil {
		return "", err
	}
	o.Go(ctx, func(ctx context.Context) {
		if err := o.Run(ctx, id, req); err != nil {
			o.log.Error("course generation failed", "course_id", id, "error", err)
		}
	})
	return id, nil
}

// Create validates req and inserts the course record without running a job.
func (o *Orchestrator) Create(ctx context.Context, ownerID int64, req model.GenerationRequest) (string, error) {
	if o.validate != nil {
		if err := o.validate.Struct(req); err != nil {
			return "", fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}
	c := &model.Course{
		OwnerID:    ownerID,
		Title:      req.Topic,
		Purpose:    req.Purpose,
		Difficulty: req.Difficulty,
		Summary:    PlaceholderSummary,
		Content:    model.GeneratingContent(o.now()),
	}
	if err := o.store.CreateCourse(ctx, c); err != nil {
		return "", fmt.Errorf("create course: %w", err)
	}
	o.log.Info("course created", "course_id", c.ID, "topic", req.Topic)
	return c.ID, nil
}

// Go runs fn on a goroutine detached from the cancellation of ctx and tracks it for Wait.
func (o *Orchestrator) Go(ctx context.Context, fn func(ctx context.Context)) {
	detached := context.WithoutCancel(ctx)
	o.jobs.Add(1)
	go func() {
		defer o.jobs.Done()
		fn(detached)
	}()
}

// Wait blocks until every background job has finished.
func (o *Orchestrator) Wait() {
	o.jobs.Wait()
}

// Run executes the generation job for an existing course synchronously. The returned
// error describes why the course ended in the error state; the error has already been
// recorded on the course when possible.
func (o *Orchestrator) Run(ctx context.Context, courseID string, req model.GenerationRequest) error {
	j := o.newJob(courseID, model.StatusGenerating)
	log := o.log.With("course_id", courseID)

	if err := j.write(ctx, model.GeneratingContent(o.now())); err != nil {
		return j.fail(ctx, err)
	}

	text, err := j.attempt(ctx, log, genapi.CourseRequest(req.Topic, string(req.Purpose), string(req.Difficulty)),
		func(ctx context.Context) (string, error) {
			return o.fallback.GenerateCourse(ctx, req)
		})
	if err != nil {
		return j.fail(ctx, err)
	}
	if text == "" {
		return j.fail(ctx, ErrEmptyResult)
	}

	if err := j.heartbeat(ctx); err != nil {
		return j.fail(ctx, err)
	}

	summary := parser.ExtractSummary(text, req.Topic)
	parsed := parser.Parse(text)
	if err := j.writeResult(ctx, summary, model.CompleteContent(text, o.now(), parsed)); err != nil {
		return j.fail(ctx, err)
	}
	log.Info("course generated",
		"chapters", len(parsed.Chapters),
		"flashcards", len(parsed.Flashcards),
		"mcqs", len(parsed.MCQs),
		"fallback", j.useFallback)
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// errTerminal is returned when a job tries to write after reaching a terminal state.
var errTerminal = errors.New("job already finished")
