package submissions

import (
	"time"

	"resume-optimizer-backend/internal/ats"
)

// Submission pairs an uploaded resume with a job posting and tracks the
// scoring lifecycle for the pair.
type Submission struct {
	ID             string         `json:"id"`
	UserID         string         `json:"userId"`
	Title          string         `json:"title"`
	Notes          string         `json:"notes,omitempty"`
	Status         string         `json:"status"`
	Resume         FileRef        `json:"resume"`
	JobPosting     FileRef        `json:"jobPosting"`
	ResumeText     string         `json:"-"`
	JobPostingText string         `json:"-"`
	ResumeData     map[string]any `json:"resumeData,omitempty"`
	JobPostingData map[string]any `json:"jobPostingData,omitempty"`
	LatestScore    *int           `json:"latestScore,omitempty"`
	LatestResult   *ats.Result    `json:"latestResult,omitempty"`
	ErrorMessage   *string        `json:"errorMessage,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// FileRef points at a stored upload.
type FileRef struct {
	FileName   string `json:"fileName"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
	StorageKey string `json:"-"`
}

// HistoryEntry is one completed scoring run. Entries are append-only.
type HistoryEntry struct {
	ID           string     `json:"id"`
	SubmissionID string     `json:"submissionId"`
	UserID       string     `json:"userId"`
	Score        int        `json:"score"`
	Result       ats.Result `json:"result"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// HistoryPoint is the flattened trend view of a scoring run.
type HistoryPoint struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

// Stats aggregates a user's submissions. Score fields are nil until at least
// one submission has been scored.
type Stats struct {
	TotalSubmissions  int      `json:"totalSubmissions"`
	ScoredSubmissions int      `json:"scoredSubmissions"`
	AverageScore      *float64 `json:"averageScore,omitempty"`
	BestScore         *int     `json:"bestScore,omitempty"`
	LatestScore       *int     `json:"latestScore,omitempty"`
}
