package generation

import (
	"context"

	"github.com/pavelanni/prepmate/internal/i18n"
	"github.com/pavelanni/prepmate/internal/model"
)

const (
	progressStep          = 5
	progressGeneratingCap = 70
	progressFlashcards    = 80
	progressComplete      = 100
)

// NotificationKind is the severity of a user-facing notification.
type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyInfo    NotificationKind = "info"
	NotifyError   NotificationKind = "error"
)

// Notification is a localized message for the user watching a job.
type Notification struct {
	Kind        NotificationKind `json:"kind"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	LinkText    string           `json:"link_text,omitempty"`
	Link        string           `json:"link,omitempty"`
}

// Update is the result of observing a course once.
type Update struct {
	Status       model.ContentStatus `json:"status,omitempty"`
	Progress     int                 `json:"progress"`
	Stop         bool                `json:"stop"`
	Notification *Notification       `json:"notification,omitempty"`
}

// Tracker turns successive course reads into progress updates. It holds no reference
// to the job it observes.
type Tracker struct {
	progress int
}

// NewTracker starts tracking at the given progress.
func NewTracker(initial int) *Tracker {
	return &Tracker{progress: initial}
}

// Progress returns the last reported progress.
func (t *Tracker) Progress() int {
	return t.progress
}

// Observe maps the course's current status to an update. Messages are localized with
// the localizer carried by ctx.
func (t *Tracker) Observe(ctx context.Context, c model.Course) Update {
	status := c.Content.Status
	switch status {
	case model.StatusComplete:
		t.progress = progressComplete
		return Update{Status: status, Progress: t.progress, Stop: true, Notification: &Notification{
			Kind:        NotifySuccess,
			Title:       i18n.T(ctx, "GenerationCompleteTitle"),
			Description: i18n.Td(ctx, "GenerationCompleteBody", map[string]any{"Title": c.Title}),
			LinkText:    i18n.T(ctx, "ViewCourse"),
			Link:        model.BasePathFromContext(ctx) + "/courses/" + c.ID,
		}}
	case model.StatusGeneratingFlashcards:
		t.progress = progressFlashcards
		u := Update{Status: status, Progress: t.progress}
		if c.Content.Message != "" {
			u.Notification = &Notification{
				Kind:        NotifyInfo,
				Title:       i18n.T(ctx, "EnhancingTitle"),
				Description: c.Content.Message,
			}
		}
		return u
	case model.StatusGenerating:
		t.progress = min(t.progress+progressStep, progressGeneratingCap)
		return Update{Status: status, Progress: t.progress}
	case model.StatusError:
		t.progress = 0
		msg := c.Content.Message
		if msg == "" {
			msg = i18n.T(ctx, "GenerationUnknownError")
		}
		return Update{Status: status, Progress: 0, Stop: true, Notification: &Notification{
			Kind:        NotifyError,
			Title:       i18n.T(ctx, "GenerationFailedTitle"),
			Description: msg,
		}}
	}
	return Update{Status: status, Progress: t.progress}
}

// ReadFailed stops tracking after the course could not be read.
func (t *Tracker) ReadFailed(ctx context.Context) Update {
	t.progress = 0
	return Update{Progress: 0, Stop: true, Notification: &Notification{
		Kind:        NotifyError,
		Title:       i18n.T(ctx, "GenerationFailedTitle"),
		Description: i18n.T(ctx, "StatusCheckFailed"),
	}}
}
