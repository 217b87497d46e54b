package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/prepmate/internal/model"
)

const courseColumns = `id, owner_id, title, purpose, difficulty, summary, content, created_at`

// CreateCourse inserts c, assigning an ID and creation time when they are unset.
func (s *Store) CreateCourse(ctx context.Context, c *model.Course) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	content, err := json.Marshal(c.Content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO courses (id, owner_id, title, purpose, difficulty, summary, status, content, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.OwnerID, c.Title, c.Purpose, c.Difficulty, c.Summary, c.Content.Status, string(content),
		c.CreatedAt.UTC(), now,
	)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	return nil
}

// GetCourse returns a course by ID.
func (s *Store) GetCourse(ctx context.Context, id string) (model.Course, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE id = ?`, id)
	c, err := scanCourse(row)
	if err != nil {
		return model.Course{}, notFound("get course", err)
	}
	return c, nil
}

// UpdateCourseContent replaces the content document of a course.
func (s *Store) UpdateCourseContent(ctx context.Context, id string, content model.CourseContent) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET status = ?, content = ?, updated_at = ? WHERE id = ?`,
		content.Status, string(raw), s.now(), id,
	)
	if err != nil {
		return fmt.Errorf("update course content: %w", err)
	}
	return expectOne("update course content", res)
}

// UpdateCourseResult writes the summary and content of a course in one statement.
func (s *Store) UpdateCourseResult(ctx context.Context, id, summary string, content model.CourseContent) error {
	raw, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET summary = ?, status = ?, content = ?, updated_at = ? WHERE id = ?`,
		summary, content.Status, string(raw), s.now(), id,
	)
	if err != nil {
		return fmt.Errorf("update course result: %w", err)
	}
	return expectOne("update course result", res)
}

// TouchCourse refreshes the heartbeat of a course whose job is still in status. It
// returns ErrNotFound when the course no longer has that status, for example after it
// was reclaimed as stale.
func (s *Store) TouchCourse(ctx context.Context, id string, status model.ContentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET updated_at = ? WHERE id = ? AND status = ?`,
		s.now(), id, status,
	)
	if err != nil {
		return fmt.Errorf("touch course: %w", err)
	}
	return expectOne("touch course", res)
}

// ListCoursesByOwner returns the owner's courses, newest first.
func (s *Store) ListCoursesByOwner(ctx context.Context, ownerID int64) ([]model.Course, error) {
	return s.queryCourses(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID)
}

// ListCourses returns every course, newest first.
func (s *Store) ListCourses(ctx context.Context) ([]model.Course, error) {
	return s.queryCourses(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC, rowid DESC`)
}

// ReclaimStaleCourses marks courses whose status has been non-terminal since before
// cutoff as failed with message. It returns the number of courses changed.
func (s *Store) ReclaimStaleCourses(ctx context.Context, cutoff time.Time, message string) (int64, error) {
	now := s.now()
	raw, err := json.Marshal(model.ErrorContent(message, now))
	if err != nil {
		return 0, fmt.Errorf("encode content: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE courses SET status = ?, content = ?, updated_at = ?
		 WHERE status IN (?, ?) AND updated_at < ?`,
		model.StatusError, string(raw), now,
		model.StatusGenerating, model.StatusGeneratingFlashcards, cutoff.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale courses: %w", err)
	}
	return res.RowsAffected()
}

// CourseStatusCounts returns the number of courses per content status.
func (s *Store) CourseStatusCounts(ctx context.Context) (map[model.ContentStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM courses GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count courses: %w", err)
	}
	defer rows.Close()
	counts := make(map[model.ContentStatus]int)
	for rows.Next() {
		var status model.ContentStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *Store) queryCourses(ctx context.Context, query string, args ...any) ([]model.Course, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()
	courses := []model.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (model.Course, error) {
	var c model.Course
	var content string
	if err := row.Scan(&c.ID, &c.OwnerID, &c.Title, &c.Purpose, &c.Difficulty, &c.Summary, &content, &c.CreatedAt); err != nil {
		return model.Course{}, err
	}
	if err := json.Unmarshal([]byte(content), &c.Content); err != nil {
		return model.Course{}, fmt.Errorf("decode content of course %s: %w", c.ID, err)
	}
	return c, nil
}
