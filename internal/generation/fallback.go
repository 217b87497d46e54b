package generation

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/pavelanni/prepmate/internal/model"
)

// Fallback produces course text without calling the generation endpoint.
type Fallback interface {
	GenerateCourse(ctx context.Context, req model.GenerationRequest) (string, error)
}

// Cache stores fallback results. A Get error of any kind is treated as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
}

var fallbackTemplate = template.Must(template.New("fallback").Parse(`# SUMMARY
This is a fallback-generated course on {{.Topic}} for {{.Purpose}} at {{.Difficulty}} level.

# CHAPTERS
## Introduction to {{.Topic}}
This chapter introduces the fundamental concepts of {{.Topic}}.

## Core Principles
This chapter covers the core principles and methodologies.

## Advanced Techniques
This chapter explores more advanced techniques and applications.

## Practical Applications
This chapter demonstrates practical applications and use cases.

## Future Directions
This chapter discusses emerging trends and future directions.

# FLASHCARDS
- Question: What is {{.Topic}}?
- Answer: {{.Topic}} is a field that focuses on...

- Question: What are the core principles of {{.Topic}}?
- Answer: The core principles include...

# MCQs (Multiple Choice Questions)
- Question: Which of the following best describes {{.Topic}}?
- Options:
a) A methodology for solving problems
b) A theoretical framework
c) A practical application
d) All of the above
- Correct Answer: d

# Q&A PAIRS
- Question: How can {{.Topic}} be applied in real-world scenarios?
- Answer: {{.Topic}} can be applied in various ways including...
`))

// TemplateFallback renders a fixed course outline around the topic. Results are
// memoized per request when a cache is configured.
type TemplateFallback struct {
	cache Cache
	ttl   time.Duration
}

// NewTemplateFallback returns a fallback; cache may be nil.
func NewTemplateFallback(cache Cache, ttl time.Duration) *TemplateFallback {
	return &TemplateFallback{cache: cache, ttl: ttl}
}

// GenerateCourse never fails for a valid request.
func (f *TemplateFallback) GenerateCourse(ctx context.Context, req model.GenerationRequest) (string, error) {
	key := fallbackKey(req)
	if f.cache != nil {
		if text, err := f.cache.Get(ctx, key); err == nil && text != "" {
			slog.Debug("fallback cache hit", "key", key)
			return text, nil
		}
	}

	var buf bytes.Buffer
	if err := fallbackTemplate.Execute(&buf, req); err != nil {
		return "", fmt.Errorf("render fallback course: %w", err)
	}
	text := buf.String()

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, text, f.ttl); err != nil {
			slog.Warn("fallback cache write failed", "key", key, "error", err)
		}
	}
	return text, nil
}

func fallbackKey(req model.GenerationRequest) string {
	return fmt.Sprintf("fallback:%s:%s:%s", req.Purpose, req.Difficulty, strings.ToLower(strings.TrimSpace(req.Topic)))
}
