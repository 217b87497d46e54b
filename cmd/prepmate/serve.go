package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/prepmate/internal/generation"
	"github.com/pavelanni/prepmate/internal/handler"
	appI18n "github.com/pavelanni/prepmate/internal/i18n"
	"github.com/pavelanni/prepmate/internal/interview"
	"github.com/pavelanni/prepmate/internal/maintenance"
	"github.com/pavelanni/prepmate/internal/model"
	"github.com/pavelanni/prepmate/internal/store"
	"github.com/pavelanni/prepmate/internal/validation"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  runServe,
	}
	addCommonFlags(cmd)
	addGeneratorFlags(cmd)
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("base-path", "", "URL prefix for sub-path deployments (e.g. /ru)")
	f.Bool("secure-cookies", true, "Set Secure flag on session cookies")
	f.String("admin-password", "", "Initial admin password (or set PREPMATE_ADMIN_PASSWORD)")
	f.Duration("poll-interval", generation.DefaultPollInterval, "Interval of course status checks in event streams")
	f.Duration("stale-after", maintenance.DefaultStaleAfter, "Mark unfinished courses as failed after this long")
	f.String("reclaim-schedule", maintenance.DefaultReclaimSchedule, "Cron schedule (with seconds) of the stale course sweep")
	f.String("cleanup-schedule", maintenance.DefaultCleanupSchedule, "Cron schedule (with seconds) of expired session cleanup")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	v, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	staleAfter := v.GetDuration("stale-after")
	if staleAfter <= 0 {
		staleAfter = maintenance.DefaultStaleAfter
	}
	if err := checkStaleAfter(staleAfter, generatorConfig(v)); err != nil {
		return err
	}

	if err := seedAdmin(ctx, db, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	gen := newGenerator(v)
	orch, rc, err := newOrchestrator(cmd, v, db, gen)
	if err != nil {
		return err
	}
	var opts []handler.Option
	if rc != nil {
		defer rc.Close()
		opts = append(opts, handler.WithHealthCheck("redis", rc))
	}

	jobs := maintenance.NewManager(db, maintenance.Config{
		ReclaimSchedule: v.GetString("reclaim-schedule"),
		CleanupSchedule: v.GetString("cleanup-schedule"),
		StaleAfter:      staleAfter,
	})
	if err := jobs.Start(ctx); err != nil {
		return fmt.Errorf("start maintenance: %w", err)
	}
	defer jobs.Stop()

	// Normalize base path.
	basePath := strings.TrimRight(v.GetString("base-path"), "/")
	if basePath != "" && !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}

	cfg := model.ServerConfig{
		BasePath:      basePath,
		SecureCookies: v.GetBool("secure-cookies"),
		PollInterval:  v.GetDuration("poll-interval"),
	}
	interviews := interview.NewService(db, gen, validation.New())
	h := handler.New(db, orch, interviews, gen, cfg, opts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware())

	if basePath != "" {
		r.Route(basePath, func(sub chi.Router) {
			sub.Use(h.BasePathMiddleware)
			h.Routes(sub)
		})
	} else {
		r.Use(h.BasePathMiddleware)
		h.Routes(r)
	}

	addr := v.GetString("addr")
	srv := newServer(ctx, addr, r)

	slog.Info("starting server",
		"addr", addr,
		"lang", v.GetString("lang"),
		"base_path", basePath,
		"poll_interval", cfg.PollInterval,
		"stale_after", staleAfter,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()

	slog.Info("waiting for running generation jobs")
	orch.Wait()
	return err
}

// newServer returns a server whose request contexts are cancelled when Shutdown
// starts, so long-lived event streams end instead of holding shutdown open.
func newServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.WithoutCancel(ctx))
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}

// checkStaleAfter rejects a stale threshold a healthy job could exceed between
// heartbeats.
func checkStaleAfter(staleAfter time.Duration, cfg generation.Config) error {
	if worst := cfg.WorstCase(); staleAfter < worst {
		return fmt.Errorf("stale-after %s is shorter than the longest generation job (%s)", staleAfter, worst)
	}
	return nil
}

func seedAdmin(ctx context.Context, db *store.Store, password string) error {
	count, err := db.UserCount(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or PREPMATE_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(ctx, model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
