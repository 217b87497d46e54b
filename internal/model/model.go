package model

import (
	"context"
	"strings"
	"time"
)

// UserRole represents a user's access level.
type UserRole string

const (
	// UserRoleLearner is a regular user who generates courses and practices interviews.
	UserRoleLearner UserRole = "learner"
	// UserRoleAdmin can manage users.
	UserRoleAdmin UserRole = "admin"
)

// User represents a system user. Every course and interview is owned by one user.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	Role         UserRole  `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthSession represents an authentication session.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

// Purpose is what the learner is preparing for.
type Purpose string

const (
	PurposeExam              Purpose = "exam"
	PurposeJobInterview      Purpose = "job_interview"
	PurposePractice          Purpose = "practice"
	PurposeCodingPreparation Purpose = "coding_preparation"
	PurposeOther             Purpose = "other"
)

// Difficulty represents the target level of a course.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// GenerationRequest is what a user submits to start a course generation job.
type GenerationRequest struct {
	Topic      string     `json:"topic" validate:"required,min=1,max=200"`
	Purpose    Purpose    `json:"purpose" validate:"required,oneof=exam job_interview practice coding_preparation other"`
	Difficulty Difficulty `json:"difficulty" validate:"required,oneof=beginner intermediate advanced expert"`
}

// Course is the persisted course record. Content carries the generation status.
type Course struct {
	ID         string        `json:"id"`
	OwnerID    int64         `json:"owner_id"`
	Title      string        `json:"title"`
	Purpose    Purpose       `json:"purpose"`
	Difficulty Difficulty    `json:"difficulty"`
	Summary    string        `json:"summary"`
	Content    CourseContent `json:"content"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Request rebuilds the generation parameters the course was created with.
func (c Course) Request() GenerationRequest {
	return GenerationRequest{Topic: c.Title, Purpose: c.Purpose, Difficulty: c.Difficulty}
}

// ExperienceLevel is a bucketed years-of-experience value.
type ExperienceLevel string

const (
	Experience0to1  ExperienceLevel = "0-1"
	Experience1to3  ExperienceLevel = "1-3"
	Experience3to5  ExperienceLevel = "3-5"
	Experience5Plus ExperienceLevel = "5+"
)

// Interview is a mock interview owned by its creator.
type Interview struct {
	ID         string          `json:"id"`
	OwnerID    int64           `json:"owner_id"`
	JobRole    string          `json:"job_role"`
	TechStack  string          `json:"tech_stack"`
	Experience ExperienceLevel `json:"experience"`
	Completed  bool            `json:"completed"`
	CreatedAt  time.Time       `json:"created_at"`
}

// TechStackItems splits the comma-separated tech stack into trimmed entries.
func (i Interview) TechStackItems() []string {
	var items []string
	for _, part := range strings.Split(i.TechStack, ",") {
		if p := strings.TrimSpace(part); p != "" {
			items = append(items, p)
		}
	}
	return items
}

// InterviewQuestion belongs to exactly one interview.
type InterviewQuestion struct {
	ID          string    `json:"id"`
	InterviewID string    `json:"interview_id"`
	Question    string    `json:"question"`
	UserAnswer  *string   `json:"user_answer"`
	OrderNumber int       `json:"order_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// InterviewSetup holds the parameters for creating a mock interview.
type InterviewSetup struct {
	JobRole       string          `json:"job_role" validate:"required,max=120"`
	TechStack     string          `json:"tech_stack" validate:"required,max=300"`
	Experience    ExperienceLevel `json:"experience" validate:"required,oneof=0-1 1-3 3-5 5+"`
	QuestionCount int             `json:"question_count" validate:"gte=0,lte=20"`
}

// AnswerFeedback is the structured analysis of a single interview answer.
type AnswerFeedback struct {
	QuestionID            string   `json:"question_id,omitempty"`
	TechnicalFeedback     string   `json:"technical_feedback"`
	CommunicationFeedback string   `json:"communication_feedback"`
	Strengths             []string `json:"strengths"`
	AreasToImprove        []string `json:"areas_to_improve"`
	Rating                int      `json:"rating"`
}

// Recommendation points the user at something to study next.
type Recommendation struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// InterviewAnalysis is the persisted result of analysing a completed interview.
type InterviewAnalysis struct {
	ID              string           `json:"id"`
	InterviewID     string           `json:"interview_id"`
	OverallRating   int              `json:"overall_rating"`
	Answers         []AnswerFeedback `json:"answers"`
	Recommendations []Recommendation `json:"recommendations"`
	CreatedAt       time.Time        `json:"created_at"`
}

// InterviewView combines an interview with its ordered questions.
type InterviewView struct {
	Interview Interview           `json:"interview"`
	Questions []InterviewQuestion `json:"questions"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/ru")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	PollInterval  time.Duration
}
