package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/prepmate/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// setClock makes the store see a fixed, manually advanced time.
func setClock(s *Store, start time.Time) *time.Time {
	now := start
	s.now = func() time.Time { return now }
	return &now
}

func createTestUser(t *testing.T, s *Store, username string) int64 {
	t.Helper()
	id, err := s.CreateUser(context.Background(), model.User{
		Username:     username,
		DisplayName:  username,
		PasswordHash: "hash",
		Role:         model.UserRoleLearner,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("createTestUser: %v", err)
	}
	return id
}

func createTestCourse(t *testing.T, s *Store, owner int64, title string) model.Course {
	t.Helper()
	c := model.Course{
		OwnerID:    owner,
		Title:      title,
		Purpose:    model.PurposeExam,
		Difficulty: model.DifficultyBeginner,
		Summary:    "Course generation in progress...",
		Content:    model.GeneratingContent(s.now()),
	}
	if err := s.CreateCourse(context.Background(), &c); err != nil {
		t.Fatalf("createTestCourse: %v", err)
	}
	return c
}

func TestSchemaVersionRecorded(t *testing.T) {
	s := newTestStore(t)
	v, err := s.GetMetadata(context.Background(), "schema_version")
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("schema_version = %q, want %q", v, SchemaVersion)
	}
	missing, err := s.GetMetadata(context.Background(), "nope")
	if err != nil || missing != "" {
		t.Errorf("missing key: %q, %v", missing, err)
	}
}

func TestMetadataTime(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	got, err := s.GetMetadataTime(ctx, "last_run")
	if err != nil || !got.IsZero() {
		t.Fatalf("unset time: %v, %v", got, err)
	}
	want := time.Date(2026, 3, 1, 12, 30, 0, 5, time.UTC)
	if err := s.SetMetadataTime(ctx, "last_run", want); err != nil {
		t.Fatalf("SetMetadataTime: %v", err)
	}
	got, err = s.GetMetadataTime(ctx, "last_run")
	if err != nil || !got.Equal(want) {
		t.Errorf("got %v, %v; want %v", got, err, want)
	}
}

func TestCourseCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "alice")

	c := createTestCourse(t, s, owner, "Recursion")
	if c.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetCourse(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if got.Title != "Recursion" || got.Content.Status != model.StatusGenerating {
		t.Errorf("unexpected course: %+v", got)
	}
	if got.Content.LastUpdated == nil {
		t.Error("expected lastUpdated on generating content")
	}

	parsed := model.ParsedContent{Summary: "s", Chapters: []model.Chapter{{Title: "A", OrderNumber: 1}}}
	if err := s.UpdateCourseResult(ctx, c.ID, "A summary", model.CompleteContent("# SUMMARY\ns", s.now(), parsed)); err != nil {
		t.Fatalf("UpdateCourseResult: %v", err)
	}
	got, err = s.GetCourse(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCourse: %v", err)
	}
	if got.Summary != "A summary" || got.Content.Status != model.StatusComplete {
		t.Errorf("unexpected course after result: %+v", got)
	}
	if got.Content.ParsedContent == nil || len(got.Content.ParsedContent.Chapters) != 1 {
		t.Errorf("parsed content not stored: %+v", got.Content.ParsedContent)
	}

	if err := s.UpdateCourseContent(ctx, c.ID, model.ErrorContent("boom", s.now())); err != nil {
		t.Fatalf("UpdateCourseContent: %v", err)
	}
	got, _ = s.GetCourse(ctx, c.ID)
	if got.Content.Status != model.StatusError || got.Content.Message != "boom" || got.Content.FullText != "" {
		t.Errorf("unexpected content: %+v", got.Content)
	}

	if _, err := s.GetCourse(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.UpdateCourseContent(ctx, "missing", model.ErrorContent("x", s.now())); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}

func TestListCoursesByOwnerNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clock := setClock(s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	for _, title := range []string{"first", "second", "third"} {
		createTestCourse(t, s, alice, title)
		*clock = clock.Add(time.Minute)
	}
	createTestCourse(t, s, bob, "bob's")

	list, err := s.ListCoursesByOwner(ctx, alice)
	if err != nil {
		t.Fatalf("ListCoursesByOwner: %v", err)
	}
	want := []string{"third", "second", "first"}
	if len(list) != len(want) {
		t.Fatalf("expected %d courses, got %d", len(want), len(list))
	}
	for i, c := range list {
		if c.Title != want[i] {
			t.Errorf("position %d = %q, want %q", i, c.Title, want[i])
		}
	}

	all, err := s.ListCourses(ctx)
	if err != nil || len(all) != 4 || all[0].Title != "bob's" {
		t.Errorf("ListCourses = %d courses (err %v)", len(all), err)
	}

	empty, err := s.ListCoursesByOwner(ctx, 999)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v, %v", empty, err)
	}
}

func TestTouchCourseKeepsJobAlive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clock := setClock(s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	owner := createTestUser(t, s, "alice")
	c := createTestCourse(t, s, owner, "busy")

	*clock = clock.Add(20 * time.Minute)
	if err := s.TouchCourse(ctx, c.ID, model.StatusGenerating); err != nil {
		t.Fatalf("TouchCourse: %v", err)
	}
	n, err := s.ReclaimStaleCourses(ctx, clock.Add(-15*time.Minute), "Generation was interrupted")
	if err != nil || n != 0 {
		t.Fatalf("ReclaimStaleCourses = %d, %v; want 0", n, err)
	}

	*clock = clock.Add(20 * time.Minute)
	if n, _ := s.ReclaimStaleCourses(ctx, clock.Add(-15*time.Minute), "Generation was interrupted"); n != 1 {
		t.Fatalf("expected the silent job to be reclaimed, got %d", n)
	}
	if err := s.TouchCourse(ctx, c.ID, model.StatusGenerating); !errors.Is(err, ErrNotFound) {
		t.Errorf("touch after reclaim: expected ErrNotFound, got %v", err)
	}
	if err := s.TouchCourse(ctx, "missing", model.StatusGenerating); !errors.Is(err, ErrNotFound) {
		t.Errorf("touch of missing course: expected ErrNotFound, got %v", err)
	}
}

func TestReclaimStaleCourses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clock := setClock(s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	owner := createTestUser(t, s, "alice")

	stale := createTestCourse(t, s, owner, "stale")
	done := createTestCourse(t, s, owner, "done")
	if err := s.UpdateCourseResult(ctx, done.ID, "s", model.CompleteContent("t", s.now(), model.ParsedContent{})); err != nil {
		t.Fatalf("UpdateCourseResult: %v", err)
	}
	*clock = clock.Add(20 * time.Minute)
	fresh := createTestCourse(t, s, owner, "fresh")

	n, err := s.ReclaimStaleCourses(ctx, clock.Add(-15*time.Minute), "Generation was interrupted")
	if err != nil {
		t.Fatalf("ReclaimStaleCourses: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 reclaimed course, got %d", n)
	}

	tests := []struct {
		id   string
		want model.ContentStatus
	}{
		{stale.ID, model.StatusError},
		{done.ID, model.StatusComplete},
		{fresh.ID, model.StatusGenerating},
	}
	for _, tt := range tests {
		c, err := s.GetCourse(ctx, tt.id)
		if err != nil {
			t.Fatalf("GetCourse: %v", err)
		}
		if c.Content.Status != tt.want {
			t.Errorf("%s: status %q, want %q", c.Title, c.Content.Status, tt.want)
		}
	}
	c, _ := s.GetCourse(ctx, stale.ID)
	if c.Content.Message != "Generation was interrupted" {
		t.Errorf("message = %q", c.Content.Message)
	}

	counts, err := s.CourseStatusCounts(ctx)
	if err != nil {
		t.Fatalf("CourseStatusCounts: %v", err)
	}
	if counts[model.StatusError] != 1 || counts[model.StatusComplete] != 1 || counts[model.StatusGenerating] != 1 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestInterviewLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "alice")

	iv := model.Interview{OwnerID: owner, JobRole: "Backend Engineer", TechStack: "Go, SQL", Experience: model.Experience1to3}
	if err := s.CreateInterview(ctx, &iv); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	qs, err := s.AddQuestions(ctx, iv.ID, []string{"Q1", "Q2", "Q3"})
	if err != nil {
		t.Fatalf("AddQuestions: %v", err)
	}
	for i, q := range qs {
		if q.OrderNumber != i+1 {
			t.Errorf("question %d order = %d", i, q.OrderNumber)
		}
	}
	more, err := s.AddQuestions(ctx, iv.ID, []string{"Q4"})
	if err != nil || more[0].OrderNumber != 4 {
		t.Fatalf("appended question: %+v, %v", more, err)
	}

	if err := s.SetAnswer(ctx, iv.ID, qs[1].ID, "my answer"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := s.SetAnswer(ctx, "other-interview", qs[0].ID, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("answer through wrong interview: expected ErrNotFound, got %v", err)
	}

	list, err := s.ListQuestions(ctx, iv.ID)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(list) != 4 || list[0].Question != "Q1" || list[3].Question != "Q4" {
		t.Fatalf("unexpected questions: %+v", list)
	}
	if list[0].UserAnswer != nil {
		t.Error("unanswered question should have nil answer")
	}
	if list[1].UserAnswer == nil || *list[1].UserAnswer != "my answer" {
		t.Errorf("answer not stored: %+v", list[1])
	}

	if err := s.SetInterviewCompleted(ctx, iv.ID); err != nil {
		t.Fatalf("SetInterviewCompleted: %v", err)
	}
	got, err := s.GetInterview(ctx, iv.ID)
	if err != nil || !got.Completed || got.Experience != model.Experience1to3 {
		t.Errorf("unexpected interview: %+v, %v", got, err)
	}

	ivs, err := s.ListInterviewsByOwner(ctx, owner)
	if err != nil || len(ivs) != 1 {
		t.Errorf("ListInterviewsByOwner = %v, %v", ivs, err)
	}
	if _, err := s.GetInterview(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAnalysisUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	owner := createTestUser(t, s, "alice")
	iv := model.Interview{OwnerID: owner, JobRole: "SRE", TechStack: "Linux", Experience: model.Experience5Plus}
	if err := s.CreateInterview(ctx, &iv); err != nil {
		t.Fatalf("CreateInterview: %v", err)
	}

	if _, err := s.GetAnalysis(ctx, iv.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before analysis, got %v", err)
	}

	first := model.InterviewAnalysis{
		InterviewID:   iv.ID,
		OverallRating: 40,
		Answers:       []model.AnswerFeedback{{QuestionID: "q1", Rating: 40, Strengths: []string{"calm"}}},
	}
	if err := s.SaveAnalysis(ctx, &first); err != nil {
		t.Fatalf("SaveAnalysis: %v", err)
	}
	second := model.InterviewAnalysis{
		InterviewID:     iv.ID,
		OverallRating:   75,
		Answers:         []model.AnswerFeedback{},
		Recommendations: []model.Recommendation{{Type: "course", Title: "Linux"}},
	}
	if err := s.SaveAnalysis(ctx, &second); err != nil {
		t.Fatalf("SaveAnalysis again: %v", err)
	}

	got, err := s.GetAnalysis(ctx, iv.ID)
	if err != nil {
		t.Fatalf("GetAnalysis: %v", err)
	}
	if got.OverallRating != 75 || len(got.Recommendations) != 1 || got.ID != second.ID {
		t.Errorf("unexpected analysis: %+v", got)
	}
}

func TestUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.UserCount(ctx)
	if err != nil || count != 0 {
		t.Fatalf("UserCount = %d, %v", count, err)
	}

	id := createTestUser(t, s, "alice")
	if _, err := s.CreateUser(ctx, model.User{Username: "alice", PasswordHash: "h", Role: model.UserRoleLearner}); err == nil {
		t.Error("expected duplicate username to fail")
	}

	u, err := s.GetUserByUsername(ctx, "alice")
	if err != nil || u.ID != id || !u.Active {
		t.Fatalf("GetUserByUsername = %+v, %v", u, err)
	}
	if _, err := s.GetUserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.ToggleUserActive(ctx, id); err != nil {
		t.Fatalf("ToggleUserActive: %v", err)
	}
	u, _ = s.GetUserByID(ctx, id)
	if u.Active {
		t.Error("expected user to be inactive after toggle")
	}
	if err := s.SetUserPassword(ctx, id, "new-hash"); err != nil {
		t.Fatalf("SetUserPassword: %v", err)
	}
	u, _ = s.GetUserByID(ctx, id)
	if u.PasswordHash != "new-hash" {
		t.Errorf("password hash = %q", u.PasswordHash)
	}
	if err := s.ToggleUserActive(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	users, err := s.ListUsers(ctx)
	if err != nil || len(users) != 1 {
		t.Errorf("ListUsers = %v, %v", users, err)
	}
}

func TestAuthSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	clock := setClock(s, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	id := createTestUser(t, s, "alice")

	token, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d", len(token))
	}
	sess, err := s.GetAuthSession(ctx, token)
	if err != nil || sess.UserID != id {
		t.Fatalf("GetAuthSession = %+v, %v", sess, err)
	}

	old, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}
	*clock = clock.Add(AuthSessionTTL + time.Minute)
	fresh, err := s.CreateAuthSession(ctx, id)
	if err != nil {
		t.Fatalf("CreateAuthSession: %v", err)
	}

	if _, err := s.GetAuthSession(ctx, token); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session: expected ErrNotFound, got %v", err)
	}
	n, err := s.CleanupExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cleaned session (%s), got %d", old[:8], n)
	}
	if _, err := s.GetAuthSession(ctx, fresh); err != nil {
		t.Errorf("fresh session should survive: %v", err)
	}

	if err := s.DeleteAuthSession(ctx, fresh); err != nil {
		t.Fatalf("DeleteAuthSession: %v", err)
	}
	if _, err := s.GetAuthSession(ctx, fresh); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted session: expected ErrNotFound, got %v", err)
	}
}

func TestExportCourses(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	alice := createTestUser(t, s, "alice")
	bob := createTestUser(t, s, "bob")

	c := createTestCourse(t, s, alice, "Go")
	parsed := model.ParsedContent{
		Flashcards: []model.Flashcard{{Question: "q", Answer: "a"}},
		MCQs:       []model.MCQ{{Question: "m", Options: []string{"x"}, CorrectAnswer: "x"}},
	}
	if err := s.UpdateCourseResult(ctx, c.ID, "sum", model.CompleteContent("text", s.now(), parsed)); err != nil {
		t.Fatalf("UpdateCourseResult: %v", err)
	}
	createTestCourse(t, s, alice, "Pending")
	createTestCourse(t, s, bob, "Bob")

	exp, err := s.ExportCourses(ctx, alice)
	if err != nil {
		t.Fatalf("ExportCourses: %v", err)
	}
	if exp.Owner != "alice" || len(exp.Courses) != 2 {
		t.Fatalf("unexpected export: owner=%q courses=%d", exp.Owner, len(exp.Courses))
	}
	var goDoc model.CourseDocument
	for _, d := range exp.Courses {
		if d.Title == "Go" {
			goDoc = d
		} else if d.Chapters == nil || len(d.Flashcards) != 0 {
			t.Errorf("pending course should export empty sections: %+v", d)
		}
	}
	if goDoc.Status != "complete" || len(goDoc.Flashcards) != 1 || goDoc.MCQs[0].CorrectAnswer != "x" || goDoc.GeneratedAt == nil {
		t.Errorf("unexpected document: %+v", goDoc)
	}

	all, err := s.ExportCourses(ctx, 0)
	if err != nil || all.Owner != "all" || len(all.Courses) != 3 {
		t.Errorf("export all = %+v, %v", all, err)
	}
	if _, err := s.ExportCourses(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown owner, got %v", err)
	}
}
