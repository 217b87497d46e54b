package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/prepmate/internal/generation"
	"github.com/pavelanni/prepmate/internal/i18n"
	"github.com/pavelanni/prepmate/internal/interview"
	"github.com/pavelanni/prepmate/internal/model"
)

type createInterviewResponse struct {
	model.InterviewView
	Message      string                   `json:"message"`
	Notification *generation.Notification `json:"notification"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleCreateInterview(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	var setup model.InterviewSetup
	if !decodeJSON(w, r, &setup) {
		return
	}

	view, err := h.interviews.Create(r.Context(), user.ID, setup)
	if err != nil {
		writeFailure(w, r, err, "ErrCreateInterview")
		return
	}
	w.Header().Set("Location", h.path("/api/interviews/"+view.Interview.ID))
	writeJSON(w, http.StatusCreated, createInterviewResponse{
		InterviewView: view,
		Message:       i18n.Tp(r.Context(), "QuestionsGenerated", len(view.Questions)),
		Notification: &generation.Notification{
			Kind:        generation.NotifySuccess,
			Title:       i18n.T(r.Context(), "InterviewCreatedTitle"),
			Description: i18n.T(r.Context(), "InterviewCreatedBody"),
		},
	})
}

func (h *Handler) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	list, err := h.interviews.List(r.Context(), user.ID)
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	view, err := h.interviews.Get(r.Context(), user.ID, chi.URLParam(r, "interviewID"))
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		writeError(w, r, http.StatusBadRequest, "ErrInvalidBody")
		return
	}

	err := h.interviews.RecordAnswer(r.Context(), user.ID,
		chi.URLParam(r, "interviewID"), chi.URLParam(r, "questionID"), req.Answer)
	if errors.Is(err, interview.ErrCompleted) {
		writeError(w, r, http.StatusConflict, "ErrSaveAnswer")
		return
	}
	if err != nil {
		writeFailure(w, r, err, "ErrSaveAnswer")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r.Context(), "AnswerRecorded")})
}

func (h *Handler) handleCompleteInterview(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	if err := h.interviews.Complete(r.Context(), user.ID, chi.URLParam(r, "interviewID")); err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: i18n.T(r.Context(), "InterviewCompleted")})
}

func (h *Handler) handleAnalyzeInterview(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	a, err := h.interviews.Analyze(r.Context(), user.ID, chi.URLParam(r, "interviewID"))
	if errors.Is(err, interview.ErrNoAnswers) {
		writeError(w, r, http.StatusConflict, "ErrNoAnswers")
		return
	}
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	a, err := h.interviews.Analysis(r.Context(), user.ID, chi.URLParam(r, "interviewID"))
	if err != nil {
		writeFailure(w, r, err, "ErrInternal")
		return
	}
	writeJSON(w, http.StatusOK, a)
}
