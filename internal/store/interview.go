package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavelanni/prepmate/internal/model"
)

const interviewColumns = `id, owner_id, job_role, tech_stack, experience, completed, created_at`

// CreateInterview inserts iv, assigning an ID and creation time when they are unset.
func (s *Store) CreateInterview(ctx context.Context, iv *model.Interview) error {
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	if iv.CreatedAt.IsZero() {
		iv.CreatedAt = s.now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interviews (`+interviewColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		iv.ID, iv.OwnerID, iv.JobRole, iv.TechStack, iv.Experience, iv.Completed, iv.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

// GetInterview returns an interview by ID.
func (s *Store) GetInterview(ctx context.Context, id string) (model.Interview, error) {
	var iv model.Interview
	err := s.db.QueryRowContext(ctx, `SELECT `+interviewColumns+` FROM interviews WHERE id = ?`, id).
		Scan(&iv.ID, &iv.OwnerID, &iv.JobRole, &iv.TechStack, &iv.Experience, &iv.Completed, &iv.CreatedAt)
	if err != nil {
		return model.Interview{}, notFound("get interview", err)
	}
	return iv, nil
}

// ListInterviewsByOwner returns the owner's interviews, newest first.
func (s *Store) ListInterviewsByOwner(ctx context.Context, ownerID int64) ([]model.Interview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE owner_id = ? ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()
	interviews := []model.Interview{}
	for rows.Next() {
		var iv model.Interview
		if err := rows.Scan(&iv.ID, &iv.OwnerID, &iv.JobRole, &iv.TechStack, &iv.Experience, &iv.Completed, &iv.CreatedAt); err != nil {
			return nil, err
		}
		interviews = append(interviews, iv)
	}
	return interviews, rows.Err()
}

// SetInterviewCompleted marks an interview as completed.
func (s *Store) SetInterviewCompleted(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE interviews SET completed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("complete interview: %w", err)
	}
	return expectOne("complete interview", res)
}

// AddQuestions stores questions for an interview in one transaction, numbering them
// after any existing questions.
func (s *Store) AddQuestions(ctx context.Context, interviewID string, questions []string) ([]model.InterviewQuestion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var last int
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(order_number), 0) FROM interview_questions WHERE interview_id = ?`, interviewID,
	).Scan(&last); err != nil {
		return nil, fmt.Errorf("next question number: %w", err)
	}

	now := s.now()
	stored := make([]model.InterviewQuestion, 0, len(questions))
	for i, text := range questions {
		q := model.InterviewQuestion{
			ID:          uuid.NewString(),
			InterviewID: interviewID,
			Question:    text,
			OrderNumber: last + i + 1,
			CreatedAt:   now,
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO interview_questions (id, interview_id, question, order_number, created_at) VALUES (?, ?, ?, ?, ?)`,
			q.ID, q.InterviewID, q.Question, q.OrderNumber, q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("insert question %d: %w", q.OrderNumber, err)
		}
		stored = append(stored, q)
	}
	return stored, tx.Commit()
}

// ListQuestions returns the questions of an interview by ascending order number.
func (s *Store) ListQuestions(ctx context.Context, interviewID string) ([]model.InterviewQuestion, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, interview_id, question, user_answer, order_number, created_at
		 FROM interview_questions WHERE interview_id = ? ORDER BY order_number ASC`, interviewID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()
	questions := []model.InterviewQuestion{}
	for rows.Next() {
		var q model.InterviewQuestion
		var answer sql.NullString
		if err := rows.Scan(&q.ID, &q.InterviewID, &q.Question, &answer, &q.OrderNumber, &q.CreatedAt); err != nil {
			return nil, err
		}
		if answer.Valid {
			q.UserAnswer = &answer.String
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// SetAnswer records the user's answer to a question of the given interview.
func (s *Store) SetAnswer(ctx context.Context, interviewID, questionID, answer string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE interview_questions SET user_answer = ? WHERE id = ? AND interview_id = ?`,
		answer, questionID, interviewID,
	)
	if err != nil {
		return fmt.Errorf("set answer: %w", err)
	}
	return expectOne("set answer", res)
}

// SaveAnalysis stores the analysis of an interview, replacing any earlier one.
func (s *Store) SaveAnalysis(ctx context.Context, a *model.InterviewAnalysis) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now()
	}
	answers, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	recs, err := json.Marshal(a.Recommendations)
	if err != nil {
		return fmt.Errorf("encode recommendations: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interview_analysis (id, interview_id, overall_rating, answers, recommendations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(interview_id) DO UPDATE SET
		   id = excluded.id, overall_rating = excluded.overall_rating, answers = excluded.answers,
		   recommendations = excluded.recommendations, created_at = excluded.created_at`,
		a.ID, a.InterviewID, a.OverallRating, string(answers), string(recs), a.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the stored analysis of an interview.
func (s *Store) GetAnalysis(ctx context.Context, interviewID string) (model.InterviewAnalysis, error) {
	var a model.InterviewAnalysis
	var answers, recs string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, interview_id, overall_rating, answers, recommendations, created_at
		 FROM interview_analysis WHERE interview_id = ?`, interviewID,
	).Scan(&a.ID, &a.InterviewID, &a.OverallRating, &answers, &recs, &a.CreatedAt)
	if err != nil {
		return model.InterviewAnalysis{}, notFound("get analysis", err)
	}
	if err := json.Unmarshal([]byte(answers), &a.Answers); err != nil {
		return model.InterviewAnalysis{}, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(recs), &a.Recommendations); err != nil {
		return model.InterviewAnalysis{}, fmt.Errorf("decode recommendations: %w", err)
	}
	return a, nil
}
