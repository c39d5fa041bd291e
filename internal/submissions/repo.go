package submissions

import (
	"context"
	"time"

	"resume-optimizer-backend/internal/ats"
)

// Repo defines persistence operations for submissions and their score history.
type Repo interface {
	Create(ctx context.Context, sub Submission) error
	GetByID(ctx context.Context, userID, submissionID string) (Submission, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Submission, error)
	UpdateMeta(ctx context.Context, userID, submissionID string, title, notes *string) (Submission, error)
	UpdateExtraction(ctx context.Context, submissionID, resumeText, jobPostingText string, resumeData, jobPostingData map[string]any) error
	UpdateStatus(ctx context.Context, submissionID, status string, errorMessage *string) error
	UpdateScore(ctx context.Context, submissionID string, score int, result ats.Result, scoredAt time.Time) error
	Delete(ctx context.Context, userID, submissionID string) error

	AppendHistory(ctx context.Context, entry HistoryEntry) error
	HistoryByUser(ctx context.Context, userID string) ([]HistoryEntry, error)
	StatsByUser(ctx context.Context, userID string) (Stats, error)
}
