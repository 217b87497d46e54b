package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/prepmate/internal/generation"
	"github.com/pavelanni/prepmate/internal/i18n"
	"github.com/pavelanni/prepmate/internal/model"
)

type createCourseResponse struct {
	ID           string                   `json:"id"`
	Status       model.ContentStatus      `json:"status"`
	Notification *generation.Notification `json:"notification"`
}

type courseListResponse struct {
	Courses []model.Course `json:"courses"`
	Summary string         `json:"summary"`
}

type courseStatusResponse struct {
	ID          string              `json:"id"`
	Status      model.ContentStatus `json:"status"`
	Message     string              `json:"message,omitempty"`
	LastUpdated *time.Time          `json:"lastUpdated,omitempty"`
	GeneratedAt *time.Time          `json:"generatedAt,omitempty"`
}

type notificationResponse struct {
	Notification *generation.Notification `json:"notification"`
}

func (h *Handler) handleCreateCourse(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	var req model.GenerationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.courses.Start(r.Context(), user.ID, req)
	if err != nil {
		writeFailure(w, r, err, "ErrCreateCourse")
		return
	}

	w.Header().Set("Location", h.path("/api/courses/"+id))
	writeJSON(w, http.StatusAccepted, createCourseResponse{
		ID:     id,
		Status: model.StatusGenerating,
		Notification: &generation.Notification{
			Kind:        generation.NotifyInfo,
			Title:       i18n.T(r.Context(), "GenerationStartedTitle"),
			Description: i18n.T(r.Context(), "GenerationStartedBody"),
		},
	})
}

func (h *Handler) handleListCourses(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	courses, err := h.store.ListCoursesByOwner(r.Context(), user.ID)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusOK, courseListResponse{
		Courses: courses,
		Summary: i18n.Tp(r.Context(), "CoursesListed", len(courses)),
	})
}

// ownedCourse loads the course named in the URL. Courses of other users are reported
// as missing.
func (h *Handler) ownedCourse(w http.ResponseWriter, r *http.Request) (model.Course, bool) {
	user := model.UserFromContext(r.Context())
	c, err := h.store.GetCourse(r.Context(), chi.URLParam(r, "courseID"))
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return model.Course{}, false
	}
	if c.OwnerID != user.ID {
		writeError(w, r, http.StatusNotFound, "ErrNotFound")
		return model.Course{}, false
	}
	return c, true
}

func (h *Handler) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCourseStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, courseStatusResponse{
		ID:          c.ID,
		Status:      c.Content.Status,
		Message:     c.Content.Message,
		LastUpdated: c.Content.LastUpdated,
		GeneratedAt: c.Content.GeneratedAt,
	})
}

// handleCourseEvents streams progress updates until the course reaches a terminal state
// or the client disconnects. Disconnecting never affects the generation job.
func (h *Handler) handleCourseEvents(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r)
	if !ok {
		return
	}
	sink, err := newEventSink(w)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}

	initial, _ := strconv.Atoi(r.URL.Query().Get("progress"))
	initial = min(max(initial, 0), 100)

	// A course that already finished gets its final update without waiting.
	if c.Content.Status.Terminal() {
		u := generation.NewTracker(initial).Observe(r.Context(), c)
		_ = sink.Send(r.Context(), u)
		return
	}
	if _, err := h.poller.Watch(r.Context(), c.ID, initial, sink); err != nil && r.Context().Err() == nil {
		writeFailureEvent(sink, err)
	}
}

func (h *Handler) handleEnrichFlashcards(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r)
	if !ok {
		return
	}
	if err := h.courses.EnrichFlashcards(r.Context(), c.ID); err != nil {
		if errors.Is(err, generation.ErrNotComplete) {
			writeError(w, r, http.StatusConflict, "ErrCourseNotComplete")
			return
		}
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusAccepted, notificationResponse{Notification: &generation.Notification{
		Kind:        generation.NotifyInfo,
		Title:       i18n.T(r.Context(), "EnhancingTitle"),
		Description: i18n.T(r.Context(), "EnhancingBody"),
	}})
}

func (h *Handler) handleExportCourse(w http.ResponseWriter, r *http.Request) {
	c, ok := h.ownedCourse(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="course-%s.json"`, c.ID))
	writeJSON(w, http.StatusOK, model.DocumentFromCourse(c))
}
