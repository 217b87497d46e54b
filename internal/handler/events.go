package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pavelanni/prepmate/internal/generation"
)

var errStreamingUnsupported = errors.New("response writer does not support streaming")

// eventSink writes progress updates as server-sent events.
type eventSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func newEventSink(w http.ResponseWriter) (*eventSink, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	return &eventSink{w: w, flusher: f}, nil
}

// Send writes one "progress" event, or a "done" event for a stop update.
func (s *eventSink) Send(_ context.Context, u generation.Update) error {
	event := "progress"
	if u.Stop {
		event = "done"
	}
	return s.write(event, u)
}

func (s *eventSink) write(event string, v any) error {
	if !s.started {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func writeFailureEvent(s *eventSink, err error) {
	slog.Warn("course event stream ended", "error", err)
	_ = s.write("error", errorResponse{Error: err.Error()})
}
