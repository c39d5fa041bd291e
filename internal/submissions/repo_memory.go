package submissions

import (
	"context"
	"sort"
	"sync"
	"time"

	"resume-optimizer-backend/internal/ats"
)

// MemoryRepo stores submissions in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]Submission
	history map[string][]HistoryEntry // keyed by user ID, append order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]Submission),
		history: make(map[string][]HistoryEntry),
	}
}

// Create stores the submission.
func (r *MemoryRepo) Create(ctx context.Context, sub Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[sub.ID] = sub
	return nil
}

// GetByID returns a submission owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, submissionID string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	sub, ok := r.byID[submissionID]
	if !ok || sub.UserID != userID {
		return Submission{}, ErrNotFound
	}
	return sub, nil
}

// ListByUser returns submissions for a user, newest first, with limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	subs := make([]Submission, 0)
	for _, sub := range r.byID {
		if sub.UserID == userID {
			subs = append(subs, sub)
		}
	}
	r.mu.RUnlock()

	sort.Slice(subs, func(i, j int) bool {
		if subs[i].CreatedAt.Equal(subs[j].CreatedAt) {
			return subs[i].ID > subs[j].ID
		}
		return subs[i].CreatedAt.After(subs[j].CreatedAt)
	})

	if offset >= len(subs) {
		return []Submission{}, nil
	}
	end := len(subs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return subs[offset:end], nil
}

// UpdateMeta updates title and notes. Nil fields are left untouched.
func (r *MemoryRepo) UpdateMeta(ctx context.Context, userID, submissionID string, title, notes *string) (Submission, error) {
	if err := ctx.Err(); err != nil {
		return Submission{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[submissionID]
	if !ok || sub.UserID != userID {
		return Submission{}, ErrNotFound
	}
	if title != nil {
		sub.Title = *title
	}
	if notes != nil {
		sub.Notes = *notes
	}
	sub.UpdatedAt = time.Now().UTC()
	r.byID[submissionID] = sub
	return sub, nil
}

// UpdateExtraction caches extracted texts and structured records.
func (r *MemoryRepo) UpdateExtraction(ctx context.Context, submissionID, resumeText, jobPostingText string, resumeData, jobPostingData map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[submissionID]
	if !ok {
		return ErrNotFound
	}
	if resumeText != "" {
		sub.ResumeText = resumeText
	}
	if jobPostingText != "" {
		sub.JobPostingText = jobPostingText
	}
	if resumeData != nil {
		sub.ResumeData = resumeData
	}
	if jobPostingData != nil {
		sub.JobPostingData = jobPostingData
	}
	sub.UpdatedAt = time.Now().UTC()
	r.byID[submissionID] = sub
	return nil
}

// UpdateStatus transitions the submission's scoring status.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, submissionID, status string, errorMessage *string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[submissionID]
	if !ok {
		return ErrNotFound
	}
	sub.Status = status
	sub.ErrorMessage = errorMessage
	sub.UpdatedAt = time.Now().UTC()
	r.byID[submissionID] = sub
	return nil
}

// UpdateScore records the latest score and marks the submission scored.
func (r *MemoryRepo) UpdateScore(ctx context.Context, submissionID string, score int, result ats.Result, scoredAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[submissionID]
	if !ok {
		return ErrNotFound
	}
	sub.Status = StatusScored
	sub.LatestScore = &score
	sub.LatestResult = &result
	sub.ErrorMessage = nil
	sub.UpdatedAt = scoredAt
	r.byID[submissionID] = sub
	return nil
}

// Delete removes a submission and its history entries.
func (r *MemoryRepo) Delete(ctx context.Context, userID, submissionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	sub, ok := r.byID[submissionID]
	if !ok || sub.UserID != userID {
		return ErrNotFound
	}
	delete(r.byID, submissionID)

	kept := r.history[userID][:0]
	for _, entry := range r.history[userID] {
		if entry.SubmissionID != submissionID {
			kept = append(kept, entry)
		}
	}
	r.history[userID] = kept
	return nil
}

// AppendHistory appends a scoring run to the user's history.
func (r *MemoryRepo) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history[entry.UserID] = append(r.history[entry.UserID], entry)
	return nil
}

// HistoryByUser returns the user's scoring runs, oldest first.
func (r *MemoryRepo) HistoryByUser(ctx context.Context, userID string) ([]HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]HistoryEntry, len(r.history[userID]))
	copy(entries, r.history[userID])
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

// StatsByUser aggregates submission counts and score figures.
func (r *MemoryRepo) StatsByUser(ctx context.Context, userID string) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var stats Stats
	var sum int
	var latest Submission
	for _, sub := range r.byID {
		if sub.UserID != userID {
			continue
		}
		stats.TotalSubmissions++
		if sub.LatestScore == nil {
			continue
		}
		stats.ScoredSubmissions++
		sum += *sub.LatestScore
		if stats.BestScore == nil || *sub.LatestScore > *stats.BestScore {
			best := *sub.LatestScore
			stats.BestScore = &best
		}
		if latest.LatestScore == nil || sub.UpdatedAt.After(latest.UpdatedAt) {
			latest = sub
		}
	}
	if stats.ScoredSubmissions > 0 {
		avg := float64(sum) / float64(stats.ScoredSubmissions)
		stats.AverageScore = &avg
		latestScore := *latest.LatestScore
		stats.LatestScore = &latestScore
	}
	return stats, nil
}

var _ Repo = (*MemoryRepo)(nil)
