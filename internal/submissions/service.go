package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"resume-optimizer-backend/internal/ats"
	"resume-optimizer-backend/internal/extract"
	"resume-optimizer-backend/internal/llm"
	"resume-optimizer-backend/internal/shared/metrics"
	"resume-optimizer-backend/internal/shared/storage/object"
	"resume-optimizer-backend/internal/shared/telemetry"
)

const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusScored     = "scored"
	StatusFailed     = "failed"
)

// Upload is an incoming file for a submission.
type Upload struct {
	FileName string
	Body     io.Reader
}

// Service contains business logic for submissions and scoring runs.
type Service struct {
	Repo  Repo
	Store object.ObjectStore
	LLM   llm.Client
}

// Create stores both uploads and records the submission.
func (s *Service) Create(ctx context.Context, userID, title, notes string, resume, jobPosting Upload) (Submission, error) {
	if userID == "" {
		return Submission{}, errors.New("userID is required")
	}
	if resume.FileName == "" || jobPosting.FileName == "" {
		return Submission{}, ErrInvalidInput
	}

	resumeRef, err := s.saveUpload(ctx, userID, resume)
	if err != nil {
		return Submission{}, fmt.Errorf("save resume: %w", err)
	}
	jobRef, err := s.saveUpload(ctx, userID, jobPosting)
	if err != nil {
		return Submission{}, fmt.Errorf("save job posting: %w", err)
	}

	if strings.TrimSpace(title) == "" {
		title = resume.FileName
	}

	now := time.Now().UTC()
	sub := Submission{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Notes:      notes,
		Status:     StatusUploaded,
		Resume:     resumeRef,
		JobPosting: jobRef,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Repo.Create(ctx, sub); err != nil {
		return Submission{}, err
	}
	return sub, nil
}

func (s *Service) saveUpload(ctx context.Context, userID string, upload Upload) (FileRef, error) {
	storageKey, size, mimeType, err := s.Store.Save(ctx, userID, upload.FileName, upload.Body)
	if err != nil {
		return FileRef{}, err
	}
	return FileRef{
		FileName:   upload.FileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
	}, nil
}

// Get returns a submission owned by the user.
func (s *Service) Get(ctx context.Context, userID, submissionID string) (Submission, error) {
	if userID == "" || submissionID == "" {
		return Submission{}, ErrInvalidInput
	}
	return s.Repo.GetByID(ctx, userID, submissionID)
}

// List returns submissions for a user ordered newest-first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Submission, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Update changes title and notes. Nil fields are left untouched.
func (s *Service) Update(ctx context.Context, userID, submissionID string, title, notes *string) (Submission, error) {
	if userID == "" || submissionID == "" {
		return Submission{}, ErrInvalidInput
	}
	if title != nil && strings.TrimSpace(*title) == "" {
		return Submission{}, ErrInvalidInput
	}
	return s.Repo.UpdateMeta(ctx, userID, submissionID, title, notes)
}

// Delete removes a submission and its score history.
func (s *Service) Delete(ctx context.Context, userID, submissionID string) error {
	if userID == "" || submissionID == "" {
		return ErrInvalidInput
	}
	return s.Repo.Delete(ctx, userID, submissionID)
}

// RunScoring kicks off an asynchronous scoring run and returns the submission
// in its processing state.
func (s *Service) RunScoring(ctx context.Context, userID, submissionID string) (Submission, error) {
	if userID == "" || submissionID == "" {
		return Submission{}, ErrInvalidInput
	}
	sub, err := s.Repo.GetByID(ctx, userID, submissionID)
	if err != nil {
		return Submission{}, err
	}
	if err := s.Repo.UpdateStatus(ctx, sub.ID, StatusProcessing, nil); err != nil {
		return Submission{}, err
	}
	sub.Status = StatusProcessing
	sub.ErrorMessage = nil

	go s.scoreAsync(backgroundWithRequestID(ctx), userID, sub.ID)

	return sub, nil
}

// Texts returns the extracted resume and job posting texts for a submission,
// running extraction on the stored files if they have not been cached yet.
func (s *Service) Texts(ctx context.Context, userID, submissionID string) (resumeText, jobPostingText string, err error) {
	sub, err := s.Get(ctx, userID, submissionID)
	if err != nil {
		return "", "", err
	}

	var newResumeText, newJobText string
	if sub.ResumeText == "" {
		newResumeText, err = extract.ExtractText(ctx, s.Store, sub.Resume.StorageKey, sub.Resume.MimeType, sub.Resume.FileName)
		if err != nil {
			return "", "", fmt.Errorf("resume extraction: %w", err)
		}
		sub.ResumeText = newResumeText
	}
	if sub.JobPostingText == "" {
		newJobText, err = extract.ExtractText(ctx, s.Store, sub.JobPosting.StorageKey, sub.JobPosting.MimeType, sub.JobPosting.FileName)
		if err != nil {
			return "", "", fmt.Errorf("job posting extraction: %w", err)
		}
		sub.JobPostingText = newJobText
	}
	if newResumeText != "" || newJobText != "" {
		if err := s.Repo.UpdateExtraction(ctx, sub.ID, newResumeText, newJobText, nil, nil); err != nil {
			return "", "", fmt.Errorf("set extraction failed: %w", err)
		}
	}
	return sub.ResumeText, sub.JobPostingText, nil
}

// History returns the user's score trend, oldest first.
func (s *Service) History(ctx context.Context, userID string) ([]HistoryPoint, error) {
	if userID == "" {
		return nil, errors.New("userID is required")
	}
	entries, err := s.Repo.HistoryByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	points := make([]HistoryPoint, 0, len(entries))
	for _, entry := range entries {
		points = append(points, HistoryPoint{Date: entry.CreatedAt, Score: entry.Score})
	}
	return points, nil
}

// Stats aggregates the user's submissions.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	if userID == "" {
		return Stats{}, errors.New("userID is required")
	}
	return s.Repo.StatsByUser(ctx, userID)
}

func (s *Service) scoreAsync(ctx context.Context, userID, submissionID string) {
	defer func() {
		if r := recover(); r != nil {
			s.failScoring(ctx, userID, submissionID, fmt.Errorf("panic: %v", r), nil)
		}
	}()
	startedAt := time.Now().UTC()

	sub, err := s.Repo.GetByID(ctx, userID, submissionID)
	if err != nil {
		s.failScoring(ctx, userID, submissionID, fmt.Errorf("submission lookup: %w", err), &startedAt)
		return
	}
	metrics.IncScoreStarted()
	telemetry.Info("submission.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"submission_id":     submissionID,
		"status":            StatusProcessing,
		"status_transition": "uploaded->processing",
	})

	resumeData, jobData, err := s.prepareRecords(ctx, &sub)
	if err != nil {
		s.failScoring(ctx, userID, submissionID, err, &startedAt)
		return
	}

	result := ats.Score(resumeData, jobData)

	completedAt := time.Now().UTC()
	if err := s.Repo.UpdateScore(ctx, submissionID, result.ATSScore, result, completedAt); err != nil {
		s.failScoring(ctx, userID, submissionID, fmt.Errorf("set score failed: %w", err), &startedAt)
		return
	}
	entry := HistoryEntry{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		UserID:       userID,
		Score:        result.ATSScore,
		Result:       result,
		CreatedAt:    completedAt,
	}
	if err := s.Repo.AppendHistory(ctx, entry); err != nil {
		s.failScoring(ctx, userID, submissionID, fmt.Errorf("append history failed: %w", err), &startedAt)
		return
	}

	metrics.IncScoreCompleted()
	metrics.ObserveScoreDurationMs(durationMs(&startedAt, &completedAt))
	telemetry.Info("submission.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"submission_id":     submissionID,
		"status":            StatusScored,
		"status_transition": "processing->scored",
		"ats_score":         result.ATSScore,
		"duration_ms":       durationMs(&startedAt, &completedAt),
	})
}

// prepareRecords loads cached texts and structured records, filling gaps by
// extracting stored files and calling the LLM, and persists whatever was
// newly derived.
func (s *Service) prepareRecords(ctx context.Context, sub *Submission) (ats.ResumeData, ats.JobPostingData, error) {
	var newResumeText, newJobText string

	if sub.ResumeText == "" {
		text, err := extract.ExtractText(ctx, s.Store, sub.Resume.StorageKey, sub.Resume.MimeType, sub.Resume.FileName)
		if err != nil {
			return nil, nil, fmt.Errorf("resume extraction: %w", err)
		}
		sub.ResumeText = text
		newResumeText = text
	}
	if sub.JobPostingText == "" {
		text, err := extract.ExtractText(ctx, s.Store, sub.JobPosting.StorageKey, sub.JobPosting.MimeType, sub.JobPosting.FileName)
		if err != nil {
			return nil, nil, fmt.Errorf("job posting extraction: %w", err)
		}
		sub.JobPostingText = text
		newJobText = text
	}

	var newResumeData, newJobData map[string]any
	if sub.ResumeData == nil {
		if s.LLM == nil {
			return nil, nil, errors.New("missing llm client")
		}
		record, err := s.extractRecord(ctx, s.LLM.ExtractResume, sub.ResumeText)
		if err != nil {
			return nil, nil, fmt.Errorf("llm resume parse: %w", err)
		}
		sub.ResumeData = record
		newResumeData = record
	}
	if sub.JobPostingData == nil {
		if s.LLM == nil {
			return nil, nil, errors.New("missing llm client")
		}
		record, err := s.extractRecord(ctx, s.LLM.ExtractJobPosting, sub.JobPostingText)
		if err != nil {
			return nil, nil, fmt.Errorf("llm job posting parse: %w", err)
		}
		sub.JobPostingData = record
		newJobData = record
	}

	if newResumeText != "" || newJobText != "" || newResumeData != nil || newJobData != nil {
		if err := s.Repo.UpdateExtraction(ctx, sub.ID, newResumeText, newJobText, newResumeData, newJobData); err != nil {
			return nil, nil, fmt.Errorf("set extraction failed: %w", err)
		}
	}
	return ats.ResumeData(sub.ResumeData), ats.JobPostingData(sub.JobPostingData), nil
}

func (s *Service) extractRecord(ctx context.Context, call func(context.Context, string) (json.RawMessage, error), text string) (map[string]any, error) {
	raw, err := call(ctx, text)
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("llm output invalid: %w", err)
	}
	return record, nil
}

func (s *Service) failScoring(ctx context.Context, userID, submissionID string, err error, startedAt *time.Time) {
	msg := sanitizeError(err)
	completedAt := time.Now().UTC()
	if updateErr := s.Repo.UpdateStatus(context.Background(), submissionID, StatusFailed, &msg); updateErr != nil {
		telemetry.Error("submission.fail_update_error", map[string]any{
			"submission_id": submissionID,
			"error":         updateErr.Error(),
			"original":      msg,
		})
	}
	metrics.IncScoreFailed()
	if startedAt != nil {
		metrics.ObserveScoreDurationMs(durationMs(startedAt, &completedAt))
	}
	telemetry.Info("submission.status", map[string]any{
		"request_id":        requestIDFromContext(ctx),
		"user_id":           userID,
		"submission_id":     submissionID,
		"status":            StatusFailed,
		"status_transition": "processing->failed",
		"error_code":        classifyFailure(err),
		"duration_ms":       durationMs(startedAt, &completedAt),
	})
}

func durationMs(startedAt, completedAt *time.Time) float64 {
	if startedAt == nil || completedAt == nil {
		return 0
	}
	return float64(completedAt.Sub(*startedAt).Microseconds()) / 1000.0
}

func classifyFailure(err error) string {
	if err == nil {
		return ErrorCodeInternal
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorCodeLLMTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "openai request timeout"):
		return ErrorCodeLLMTimeout
	case strings.Contains(msg, "llm output invalid"):
		return ErrorCodeLLMSchemaMismatch
	case strings.Contains(msg, "extraction"):
		return ErrorCodeExtraction
	case strings.Contains(msg, "lookup"), strings.Contains(msg, "set score"), strings.Contains(msg, "append history"), strings.Contains(msg, "set extraction"):
		return ErrorCodeStorage
	default:
		return ErrorCodeInternal
	}
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
