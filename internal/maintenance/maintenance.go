// Package maintenance runs periodic housekeeping: failing generation jobs that were
// lost to a restart and pruning expired login sessions.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// InterruptedMessage is stored on courses whose generation job never finished.
const InterruptedMessage = "Generation was interrupted"

// Default schedules, in cron syntax with a leading seconds field.
const (
	DefaultReclaimSchedule = "0 */5 * * * *"
	DefaultCleanupSchedule = "0 0 * * * *"
	DefaultStaleAfter      = 15 * time.Minute
)

// Metadata keys recording the last successful run of each job.
const (
	LastReclaimKey = "maintenance.last_reclaim"
	LastCleanupKey = "maintenance.last_session_cleanup"
)

// Store is the persistence the jobs need.
type Store interface {
	ReclaimStaleCourses(ctx context.Context, cutoff time.Time, message string) (int64, error)
	CleanupExpiredSessions(ctx context.Context) (int64, error)
	SetMetadataTime(ctx context.Context, key string, t time.Time) error
}

// Config sets job schedules and the staleness threshold.
type Config struct {
	ReclaimSchedule string
	CleanupSchedule string
	StaleAfter      time.Duration
}

// Manager owns the cron scheduler.
type Manager struct {
	cron  *cron.Cron
	store Store
	cfg   Config
	now   func() time.Time
}

// NewManager creates a manager; empty Config fields take their defaults.
func NewManager(store Store, cfg Config) *Manager {
	if cfg.ReclaimSchedule == "" {
		cfg.ReclaimSchedule = DefaultReclaimSchedule
	}
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = DefaultCleanupSchedule
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	return &Manager{
		cron:  cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		store: store,
		cfg:   cfg,
		now:   time.Now,
	}
}

// Start registers the jobs, runs the reclaim once immediately and starts the scheduler.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.registerJobs(ctx); err != nil {
		return err
	}
	if _, err := m.ReclaimStale(ctx); err != nil {
		slog.Error("startup reclaim failed", "error", err)
	}
	m.cron.Start()
	slog.Info("maintenance jobs started", "reclaim", m.cfg.ReclaimSchedule, "cleanup", m.cfg.CleanupSchedule,
		"stale_after", m.cfg.StaleAfter)
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (m *Manager) Stop() {
	<-m.cron.Stop().Done()
	slog.Info("maintenance jobs stopped")
}

func (m *Manager) registerJobs(ctx context.Context) error {
	if _, err := m.cron.AddFunc(m.cfg.ReclaimSchedule, func() {
		if _, err := m.ReclaimStale(ctx); err != nil {
			slog.Error("reclaim stale courses", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule reclaim: %w", err)
	}
	if _, err := m.cron.AddFunc(m.cfg.CleanupSchedule, func() {
		if _, err := m.CleanupSessions(ctx); err != nil {
			slog.Error("cleanup sessions", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("schedule session cleanup: %w", err)
	}
	return nil
}

// ReclaimStale fails courses whose job has shown no progress for StaleAfter.
func (m *Manager) ReclaimStale(ctx context.Context) (int64, error) {
	now := m.now()
	n, err := m.store.ReclaimStaleCourses(ctx, now.Add(-m.cfg.StaleAfter), InterruptedMessage)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		slog.Warn("reclaimed stale generation jobs", "count", n)
	}
	m.recordRun(ctx, LastReclaimKey, now)
	return n, nil
}

// CleanupSessions removes expired login sessions.
func (m *Manager) CleanupSessions(ctx context.Context) (int64, error) {
	now := m.now()
	n, err := m.store.CleanupExpiredSessions(ctx)
	if err != nil {
		return 0, err
	}
	slog.Debug("expired sessions removed", "count", n)
	m.recordRun(ctx, LastCleanupKey, now)
	return n, nil
}

func (m *Manager) recordRun(ctx context.Context, key string, at time.Time) {
	if err := m.store.SetMetadataTime(ctx, key, at); err != nil {
		slog.Warn("record maintenance run", "key", key, "error", err)
	}
}
