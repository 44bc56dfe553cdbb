// Package store keeps interview sessions: the generated questions, the
// candidate's answers and the final feedback.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/interview-coach/internal/interview"
)

var (
	// ErrNotFound is returned when no interview has the requested id.
	ErrNotFound = errors.New("interview not found")
	// ErrInvalidIndex is returned when an answer addresses a question that does not exist.
	ErrInvalidIndex = errors.New("question index out of range")
	// ErrCompleted is returned when a completed interview is modified.
	ErrCompleted = errors.New("interview already completed")
)

// Status is the lifecycle state of an interview.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusCompleted Status = "Completed"
)

// Answer is the candidate's reply to one question.
type Answer struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// Interview is a single mock interview session.
type Interview struct {
	ID          string                    `json:"id"`
	UserID      string                    `json:"userId"`
	Role        string                    `json:"role"`
	Type        interview.Type            `json:"type"`
	Years       string                    `json:"years"`
	TechStack   []string                  `json:"techStack,omitempty"`
	Questions   []string                  `json:"questions"`
	Answers     map[int]Answer            `json:"answers"`
	Feedback    *interview.FeedbackResult `json:"feedback,omitempty"`
	Status      Status                    `json:"status"`
	Score       float64                   `json:"score"`
	CreatedAt   time.Time                 `json:"createdAt"`
	CompletedAt *time.Time                `json:"completedAt,omitempty"`
}

// AnswerList returns the answers ordered by question index; missing answers are empty.
func (i *Interview) AnswerList() []string {
	answers := make([]string, len(i.Questions))
	for idx := range i.Questions {
		answers[idx] = i.Answers[idx].Answer
	}
	return answers
}

// Store persists interviews.
type Store interface {
	// Create assigns an id, creation time and Pending status when they are unset.
	Create(ctx context.Context, iv *Interview) error
	Get(ctx context.Context, id string) (*Interview, error)
	// List returns the interviews of userID, newest first.
	List(ctx context.Context, userID string) ([]*Interview, error)
	SaveAnswer(ctx context.Context, id string, index int, answer string) (*Interview, error)
	// Complete stores the feedback and marks the interview Completed with its score.
	// A completed interview is never scored again.
	Complete(ctx context.Context, id string, feedback *interview.FeedbackResult) (*Interview, error)
}
