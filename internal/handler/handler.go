// Package handler exposes the course generation and interview services over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/generation"
	"github.com/pavelanni/prepmate/internal/interview"
	"github.com/pavelanni/prepmate/internal/model"
	"github.com/pavelanni/prepmate/internal/store"
	"github.com/pavelanni/prepmate/internal/validation"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store      *store.Store
	courses    *generation.Orchestrator
	poller     *generation.Poller
	interviews *interview.Service
	endpoint   http.Handler
	validate   *validation.Validator
	checks     map[string]Pinger
	config     model.ServerConfig
}

// Option configures a Handler.
type Option func(*Handler)

// WithHealthCheck adds a named dependency to the health report.
func WithHealthCheck(name string, p Pinger) Option {
	return func(h *Handler) { h.checks[name] = p }
}

// New creates a new Handler. gen backs the /api/generate endpoint.
func New(s *store.Store, courses *generation.Orchestrator, interviews *interview.Service, gen genapi.Generator, cfg model.ServerConfig, opts ...Option) *Handler {
	h := &Handler{
		store:      s,
		courses:    courses,
		poller:     generation.NewPoller(s, cfg.PollInterval),
		interviews: interviews,
		endpoint:   genapi.NewHandler(gen, genapi.DefaultTimeout),
		validate:   validation.New(),
		checks:     map[string]Pinger{"store": s},
		config:     cfg,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Post("/login", h.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(h.requireAuth)
		r.Use(h.csrfMiddleware)

		r.Post("/logout", h.handleLogout)
		r.Get("/api/me", h.handleMe)
		r.Method(http.MethodPost, "/api/generate", h.endpoint)

		r.Route("/api/courses", func(r chi.Router) {
			r.Post("/", h.handleCreateCourse)
			r.Get("/", h.handleListCourses)
			r.Get("/{courseID}", h.handleGetCourse)
			r.Get("/{courseID}/status", h.handleCourseStatus)
			r.Get("/{courseID}/events", h.handleCourseEvents)
			r.Post("/{courseID}/flashcards", h.handleEnrichFlashcards)
			r.Get("/{courseID}/export", h.handleExportCourse)
		})

		r.Route("/api/interviews", func(r chi.Router) {
			r.Post("/", h.handleCreateInterview)
			r.Get("/", h.handleListInterviews)
			r.Get("/{interviewID}", h.handleGetInterview)
			r.Put("/{interviewID}/questions/{questionID}/answer", h.handleAnswer)
			r.Post("/{interviewID}/complete", h.handleCompleteInterview)
			r.Post("/{interviewID}/analysis", h.handleAnalyzeInterview)
			r.Get("/{interviewID}/analysis", h.handleGetAnalysis)
		})

		r.Route("/admin/users", func(r chi.Router) {
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/", h.handleListUsers)
			r.Post("/", h.handleCreateUser)
			r.Post("/{userID}/toggle", h.handleToggleUserActive)
			r.Put("/{userID}/password", h.handleSetPassword)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

type healthResponse struct {
	Status  string                      `json:"status"`
	Checks  map[string]string           `json:"checks"`
	Courses map[model.ContentStatus]int `json:"courses,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Checks: make(map[string]string, len(h.checks))}
	status := http.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(r.Context()); err != nil {
			slog.Warn("health check failed", "check", name, "error", err)
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	if counts, err := h.store.CourseStatusCounts(r.Context()); err == nil {
		resp.Courses = counts
	}
	writeJSON(w, status, resp)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.UserFromContext(r.Context()))
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
