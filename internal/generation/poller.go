package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/prepmate/internal/model"
)

// DefaultPollInterval is how often a watched course is re-read.
const DefaultPollInterval = 3 * time.Second

// CourseReader reads a course record.
type CourseReader interface {
	GetCourse(ctx context.Context, id string) (model.Course, error)
}

// Sink receives progress updates. An error from Send stops the watch.
type Sink interface {
	Send(ctx context.Context, u Update) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, u Update) error

// Send calls f.
func (f SinkFunc) Send(ctx context.Context, u Update) error {
	return f(ctx, u)
}

// Poller re-reads a course on a fixed interval and reports progress.
type Poller struct {
	store    CourseReader
	interval time.Duration
}

// NewPoller returns a poller; a non-positive interval uses DefaultPollInterval.
func NewPoller(store CourseReader, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{store: store, interval: interval}
}

// Watch delivers one update per interval until a stop update is sent, the sink fails
// or ctx is cancelled. Cancelling ctx stops only the watch, never the job. The last
// update is returned.
func (p *Poller) Watch(ctx context.Context, courseID string, initial int, sink Sink) (Update, error) {
	tracker := NewTracker(initial)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return Update{Progress: tracker.Progress()}, ctx.Err()
		case <-ticker.C:
		}

		var u Update
		c, err := p.store.GetCourse(ctx, courseID)
		switch {
		case err != nil && ctx.Err() != nil:
			return Update{Progress: tracker.Progress()}, ctx.Err()
		case err != nil:
			slog.Warn("course status read failed", "course_id", courseID, "error", err)
			u = tracker.ReadFailed(ctx)
		default:
			u = tracker.Observe(ctx, c)
		}

		if err := sink.Send(ctx, u); err != nil {
			return u, err
		}
		if u.Stop {
			return u, nil
		}
	}
}
