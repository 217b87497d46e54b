package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pavelanni/prepmate/internal/genapi"
	"github.com/pavelanni/prepmate/internal/model"
	"github.com/pavelanni/prepmate/internal/parser"
)

// FlashcardsMessage is shown while additional flashcards are being generated.
const FlashcardsMessage = "Generating additional flashcards"

// EnrichFlashcards checks that the course is complete and generates additional
// flashcards for it in the background.
func (o *Orchestrator) EnrichFlashcards(ctx context.Context, courseID string) error {
	c, err := o.completedCourse(ctx, courseID)
	if err != nil {
		return err
	}
	o.Go(ctx, func(ctx context.Context) {
		if _, err := o.enrich(ctx, c); err != nil {
			o.log.Error("flashcard enrichment failed", "course_id", courseID, "error", err)
		}
	})
	return nil
}

// RunEnrichment generates additional flashcards synchronously and returns the number of
// cards added.
func (o *Orchestrator) RunEnrichment(ctx context.Context, courseID string) (int, error) {
	c, err := o.completedCourse(ctx, courseID)
	if err != nil {
		return 0, err
	}
	return o.enrich(ctx, c)
}

func (o *Orchestrator) completedCourse(ctx context.Context, courseID string) (model.Course, error) {
	c, err := o.store.GetCourse(ctx, courseID)
	if err != nil {
		return model.Course{}, fmt.Errorf("get course %s: %w", courseID, err)
	}
	if c.Content.Status != model.StatusComplete {
		return model.Course{}, ErrNotComplete
	}
	return c, nil
}

// enrich runs as a new job: generating_flashcards followed by complete. Any generation
// failure, cancellation included, adds no cards and restores the previous content.
func (o *Orchestrator) enrich(ctx context.Context, c model.Course) (int, error) {
	j := o.newJob(c.ID, model.StatusGenerating)
	log := o.log.With("course_id", c.ID)

	if err := j.write(ctx, model.FlashcardsContent(FlashcardsMessage, o.now())); err != nil {
		return 0, j.fail(ctx, err)
	}

	req := c.Request()
	text, err := j.attempt(ctx, log, genapi.FlashcardsRequest(req.Topic, string(req.Purpose), string(req.Difficulty)),
		func(context.Context) (string, error) { return "", nil })
	if errors.Is(err, ErrReclaimed) {
		return 0, err
	}
	if err != nil {
		log.Warn("flashcard generation failed, keeping existing cards", "error", err)
		text = ""
	}

	parsed := model.ParsedContent{}
	if c.Content.ParsedContent != nil {
		parsed = *c.Content.ParsedContent
	}
	merged, added := MergeFlashcards(parsed.Flashcards, parser.Parse(text).Flashcards)
	parsed.Flashcards = merged

	content := c.Content
	content.ParsedContent = &parsed
	bg := context.WithoutCancel(ctx)
	if err := j.write(bg, content); err != nil {
		log.Warn("saving flashcards failed, restoring previous content", "error", err)
		if rerr := j.write(bg, c.Content); rerr != nil {
			return 0, j.fail(ctx, errors.Join(err, rerr))
		}
		return 0, err
	}
	log.Info("flashcards added", "added", added, "total", len(merged))
	return added, nil
}

// MergeFlashcards appends the cards of extra whose question is not already present,
// comparing questions case-insensitively with whitespace collapsed. It returns the
// merged slice and the number of cards added.
func MergeFlashcards(existing, extra []model.Flashcard) ([]model.Flashcard, int) {
	merged := make([]model.Flashcard, 0, len(existing)+len(extra))
	seen := make(map[string]bool, len(existing)+len(extra))
	for _, fc := range existing {
		seen[questionKey(fc.Question)] = true
		merged = append(merged, fc)
	}
	added := 0
	for _, fc := range extra {
		key := questionKey(fc.Question)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, fc)
		added++
	}
	return merged, added
}

func questionKey(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
