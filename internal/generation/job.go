package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/model"
)

// job is the state of a single run. Jobs share nothing, so concurrent generations of
// different courses never see each other's retry counters.
type job struct {
	o           *Orchestrator
	courseID    string
	status      model.ContentStatus
	retries     int
	useFallback bool
	terminal    bool
}

func (o *Orchestrator) newJob(courseID string, status model.ContentStatus) *job {
	return &job{o: o, courseID: courseID, status: status}
}

// attempt calls the endpoint with req, retrying up to MaxRetries times, then switches
// to fallback for exactly one call. Once in fallback mode it never returns to the
// endpoint.
func (j *job) attempt(ctx context.Context, log *slog.Logger, req genapi.Request, fallback func(context.Context) (string, error)) (string, error) {
	for {
		if err := j.heartbeat(ctx); err != nil {
			return "", err
		}
		if j.useFallback {
			log.Warn("using fallback generator", "action", req.Action)
			return fallback(ctx)
		}

		text, err := j.call(ctx, req)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", err
		}
		log.Warn("generation attempt failed", "action", req.Action, "attempt", j.retries+1, "error", err)

		if j.retries >= j.o.cfg.MaxRetries {
			j.useFallback = true
			continue
		}
		j.retries++
		if err := j.o.wait(ctx, j.o.cfg.RetryDelay); err != nil {
			return "", err
		}
	}
}

// heartbeat marks the course as alive so the stale sweep leaves it alone. If the course
// has already left the job's status the job becomes terminal and ErrReclaimed is
// returned. Other store errors are logged and ignored.
func (j *job) heartbeat(ctx context.Context) error {
	err := j.o.store.TouchCourse(ctx, j.courseID, j.status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		j.terminal = true
		return fmt.Errorf("course %s: %w", j.courseID, ErrReclaimed)
	default:
		j.o.log.Warn("course heartbeat failed", "course_id", j.courseID, "error", err)
		return nil
	}
}

func (j *job) call(ctx context.Context, req genapi.Request) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, j.o.cfg.CallTimeout)
	defer cancel()
	return genapi.Call(ctx, j.o.gen, req)
}

func (j *job) allow(to model.ContentStatus) error {
	if j.terminal || !model.CanTransition(j.status, to) {
		return fmt.Errorf("write %s after %s: %w", to, j.status, errTerminal)
	}
	return nil
}

func (j *job) advance(to model.ContentStatus) {
	j.status = to
	j.terminal = to.Terminal()
}

func (j *job) write(ctx context.Context, content model.CourseContent) error {
	if err := j.allow(content.Status); err != nil {
		return err
	}
	if err := j.o.store.UpdateCourseContent(ctx, j.courseID, content); err != nil {
		return fmt.Errorf("update course %s: %w", j.courseID, err)
	}
	j.advance(content.Status)
	return nil
}

func (j *job) writeResult(ctx context.Context, summary string, content model.CourseContent) error {
	if err := j.allow(content.Status); err != nil {
		return err
	}
	if err := j.o.store.UpdateCourseResult(ctx, j.courseID, summary, content); err != nil {
		return fmt.Errorf("update course %s: %w", j.courseID, err)
	}
	j.advance(content.Status)
	return nil
}

// fail records cause as the terminal error of the job and returns it. A failure to
// record is logged and otherwise dropped; a job that is already terminal writes nothing.
func (j *job) fail(ctx context.Context, cause error) error {
	if j.terminal {
		return cause
	}
	content := model.ErrorContent(failureMessage(cause), j.o.now())
	if err := j.write(context.WithoutCancel(ctx), content); err != nil {
		j.o.log.Error("failed to record generation error",
			"course_id", j.courseID, "cause", cause, "error", err)
		j.terminal = true
	}
	return cause
}
