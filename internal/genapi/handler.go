package genapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

const maxRequestBytes = 1 << 20

// TimeoutMessage is reported when a generator call exceeds the endpoint timeout.
const TimeoutMessage = "API request timed out. Please try again later."

// Handler serves the endpoint contract on top of a Generator.
type Handler struct {
	gen     Generator
	timeout time.Duration
}

// NewHandler returns a Handler bounding every call by timeout, or DefaultTimeout when
// timeout is not positive.
func NewHandler(gen Generator, timeout time.Duration) *Handler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Handler{gen: gen, timeout: timeout}
}

// ServeHTTP decodes one Request, dispatches it and writes the Response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeResponse(w, http.StatusMethodNotAllowed, Failure("method not allowed"))
		return
	}

	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeResponse(w, http.StatusBadRequest, Failure("invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeResponse(w, http.StatusBadRequest, Failure(err.Error()))
		return
	}

	slog.Info("generation request", "action", req.Action)
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	resp, err := h.gen.Generate(ctx, req)
	if err != nil {
		msg := err.Error()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			msg = TimeoutMessage
		}
		slog.Error("generation failed", "action", req.Action, "error", err)
		writeResponse(w, http.StatusInternalServerError, Failure(msg))
		return
	}
	if !resp.Success {
		writeResponse(w, http.StatusInternalServerError, resp)
		return
	}
	writeResponse(w, http.StatusOK, resp)
}

func writeResponse(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("write generation response", "error", err)
	}
}
