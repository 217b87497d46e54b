package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/prepmate/internal/generation"
	"github.com/pavelanni/prepmate/internal/model"
)

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a course from the command line and wait for it",
		RunE:  runGenerate,
	}
	addCommonFlags(cmd)
	addGeneratorFlags(cmd)
	f := cmd.Flags()
	f.StringP("topic", "t", "", "Course topic (required)")
	f.String("purpose", string(model.PurposePractice), "Purpose (exam, job_interview, practice, coding_preparation, other)")
	f.String("difficulty", string(model.DifficultyBeginner), "Difficulty (beginner, intermediate, advanced, expert)")
	f.String("owner", "admin", "Username the course belongs to")
	f.Duration("poll-interval", generation.DefaultPollInterval, "Interval of progress checks")

	_ = cmd.MarkFlagRequired("topic")

	return cmd
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	v, db, err := setup(cmd)
	if err != nil {
		return err
	}
	defer db.Close()
	ctx := cmd.Context()

	owner, err := db.GetUserByUsername(ctx, v.GetString("owner"))
	if err != nil {
		return fmt.Errorf("find owner %q: %w", v.GetString("owner"), err)
	}

	orch, rc, err := newOrchestrator(cmd, v, db, newGenerator(v))
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
	}

	req := model.GenerationRequest{
		Topic:      v.GetString("topic"),
		Purpose:    model.Purpose(v.GetString("purpose")),
		Difficulty: model.Difficulty(v.GetString("difficulty")),
	}
	id, err := orch.Create(ctx, owner.ID, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "course %s created, generating...\n", id)

	poller := generation.NewPoller(db, v.GetDuration("poll-interval"))
	var last generation.Update

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The course records its own failure; only the watcher reports it.
		_ = orch.Run(gctx, id, req)
		return nil
	})
	g.Go(func() error {
		u, err := poller.Watch(gctx, id, 0, generation.SinkFunc(printProgress))
		last = u
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if last.Notification != nil && last.Notification.Kind == generation.NotifyError {
		return errors.New(last.Notification.Description)
	}

	c, err := db.GetCourse(ctx, id)
	if err != nil {
		return fmt.Errorf("read course: %w", err)
	}
	printCourse(c)
	return nil
}
