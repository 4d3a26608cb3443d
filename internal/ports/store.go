package ports

import (
	"context"
	"time"

	"github.com/ahrav/interview-gavel/internal/domain"
)

// InterviewStore persists interviews and their answer records. Lookups of
// unknown interviews return an error wrapping domain.ErrInterviewNotFound.
// AppendResponse must be safe for concurrent callers on the same interview;
// no record may be lost.
type InterviewStore interface {
	Create(ctx context.Context, session domain.InterviewSession) error
	Get(ctx context.Context, id string) (domain.InterviewSession, error)
	AppendResponse(ctx context.Context, id string, record domain.AnswerRecord) error
	SetFinalScore(ctx context.Context, id string, score int, completedAt time.Time) error
	// ListByUser returns the user's interviews, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.InterviewSummary, error)
}
