package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"resume-optimizer-backend/internal/ats"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const submissionColumns = `
id, user_id, title, notes, status,
resume_file_name, resume_mime_type, resume_size_bytes, resume_storage_key,
job_file_name, job_mime_type, job_size_bytes, job_storage_key,
resume_text, job_posting_text, resume_data, job_posting_data,
latest_score, latest_result, error_message, created_at, updated_at`

// Create inserts a new submission.
func (r *PGRepo) Create(ctx context.Context, sub Submission) error {
	const query = `
INSERT INTO submissions (
	id, user_id, title, notes, status,
	resume_file_name, resume_mime_type, resume_size_bytes, resume_storage_key,
	job_file_name, job_mime_type, job_size_bytes, job_storage_key,
	created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.DB.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.Title,
		sub.Notes,
		sub.Status,
		sub.Resume.FileName,
		sub.Resume.MimeType,
		sub.Resume.SizeBytes,
		sub.Resume.StorageKey,
		sub.JobPosting.FileName,
		sub.JobPosting.MimeType,
		sub.JobPosting.SizeBytes,
		sub.JobPosting.StorageKey,
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return err
}

// GetByID returns a submission owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, submissionID string) (Submission, error) {
	query := `
SELECT ` + submissionColumns + `
FROM submissions
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, submissionID, userID)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return sub, nil
}

// ListByUser lists submissions for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Submission, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `
SELECT ` + submissionColumns + `
FROM submissions
WHERE user_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Submission, 0)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// UpdateMeta updates title and notes and returns the updated row.
func (r *PGRepo) UpdateMeta(ctx context.Context, userID, submissionID string, title, notes *string) (Submission, error) {
	query := `
UPDATE submissions
SET title = COALESCE($1::text, title),
    notes = COALESCE($2::text, notes),
    updated_at = now()
WHERE id = $3 AND user_id = $4 AND deleted_at IS NULL
RETURNING ` + submissionColumns

	row := r.DB.QueryRowContext(ctx, query, title, notes, submissionID, userID)
	sub, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Submission{}, ErrNotFound
		}
		return Submission{}, err
	}
	return sub, nil
}

// UpdateExtraction caches extracted texts and structured records. Empty and
// nil arguments leave the stored values untouched.
func (r *PGRepo) UpdateExtraction(ctx context.Context, submissionID, resumeText, jobPostingText string, resumeData, jobPostingData map[string]any) error {
	const query = `
UPDATE submissions
SET resume_text = COALESCE(NULLIF($1::text, ''), resume_text),
    job_posting_text = COALESCE(NULLIF($2::text, ''), job_posting_text),
    resume_data = COALESCE($3::jsonb, resume_data),
    job_posting_data = COALESCE($4::jsonb, job_posting_data),
    updated_at = now()
WHERE id = $5 AND deleted_at IS NULL`

	resumePayload, err := marshalNullableJSONB(resumeData)
	if err != nil {
		return err
	}
	jobPayload, err := marshalNullableJSONB(jobPostingData)
	if err != nil {
		return err
	}

	res, err := r.DB.ExecContext(ctx, query, resumeText, jobPostingText, resumePayload, jobPayload, submissionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateStatus transitions the scoring status and error message.
func (r *PGRepo) UpdateStatus(ctx context.Context, submissionID, status string, errorMessage *string) error {
	const query = `
UPDATE submissions
SET status = $1,
    error_message = $2,
    updated_at = now()
WHERE id = $3 AND deleted_at IS NULL`

	res, err := r.DB.ExecContext(ctx, query, status, errorMessage, submissionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateScore records the latest score and marks the submission scored.
func (r *PGRepo) UpdateScore(ctx context.Context, submissionID string, score int, result ats.Result, scoredAt time.Time) error {
	const query = `
UPDATE submissions
SET status = 'scored',
    latest_score = $1,
    latest_result = $2::jsonb,
    error_message = NULL,
    updated_at = $3
WHERE id = $4 AND deleted_at IS NULL`

	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, score, payload, scoredAt, submissionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes a submission and removes its history entries.
func (r *PGRepo) Delete(ctx context.Context, userID, submissionID string) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE submissions
SET deleted_at = now(), updated_at = now()
WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, submissionID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM ats_history WHERE submission_id = $1 AND user_id = $2`, submissionID, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendHistory appends a scoring run to the history table.
func (r *PGRepo) AppendHistory(ctx context.Context, entry HistoryEntry) error {
	const query = `
INSERT INTO ats_history (id, submission_id, user_id, score, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	payload, err := json.Marshal(entry.Result)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		entry.ID,
		entry.SubmissionID,
		entry.UserID,
		entry.Score,
		payload,
		entry.CreatedAt,
	)
	return err
}

// HistoryByUser returns the user's scoring runs, oldest first.
func (r *PGRepo) HistoryByUser(ctx context.Context, userID string) ([]HistoryEntry, error) {
	const query = `
SELECT id, submission_id, user_id, score, result, created_at
FROM ats_history
WHERE user_id = $1
ORDER BY created_at ASC, id ASC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]HistoryEntry, 0)
	for rows.Next() {
		var entry HistoryEntry
		var result sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&entry.SubmissionID,
			&entry.UserID,
			&entry.Score,
			&result,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		if result.Valid {
			if err := json.Unmarshal([]byte(result.String), &entry.Result); err != nil {
				entry.Result = ats.Result{}
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

// StatsByUser aggregates submission counts and score figures.
func (r *PGRepo) StatsByUser(ctx context.Context, userID string) (Stats, error) {
	const query = `
SELECT COUNT(*),
       COUNT(latest_score),
       AVG(latest_score),
       MAX(latest_score)
FROM submissions
WHERE user_id = $1 AND deleted_at IS NULL`

	var stats Stats
	var avg sql.NullFloat64
	var best sql.NullInt64
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalSubmissions,
		&stats.ScoredSubmissions,
		&avg,
		&best,
	)
	if err != nil {
		return Stats{}, err
	}
	if avg.Valid {
		stats.AverageScore = &avg.Float64
	}
	if best.Valid {
		b := int(best.Int64)
		stats.BestScore = &b
	}

	if stats.ScoredSubmissions > 0 {
		const latestQuery = `
SELECT latest_score
FROM submissions
WHERE user_id = $1 AND deleted_at IS NULL AND latest_score IS NOT NULL
ORDER BY updated_at DESC
LIMIT 1`
		var latest sql.NullInt64
		if err := r.DB.QueryRowContext(ctx, latestQuery, userID).Scan(&latest); err != nil && !errors.Is(err, sql.ErrNoRows) {
			return Stats{}, err
		}
		if latest.Valid {
			l := int(latest.Int64)
			stats.LatestScore = &l
		}
	}
	return stats, nil
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (Submission, error) {
	var sub Submission
	var notes sql.NullString
	var resumeText sql.NullString
	var jobText sql.NullString
	var resumeData sql.NullString
	var jobData sql.NullString
	var latestScore sql.NullInt64
	var latestResult sql.NullString
	var errorMessage sql.NullString
	err := row.Scan(
		&sub.ID,
		&sub.UserID,
		&sub.Title,
		&notes,
		&sub.Status,
		&sub.Resume.FileName,
		&sub.Resume.MimeType,
		&sub.Resume.SizeBytes,
		&sub.Resume.StorageKey,
		&sub.JobPosting.FileName,
		&sub.JobPosting.MimeType,
		&sub.JobPosting.SizeBytes,
		&sub.JobPosting.StorageKey,
		&resumeText,
		&jobText,
		&resumeData,
		&jobData,
		&latestScore,
		&latestResult,
		&errorMessage,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return Submission{}, err
	}
	if notes.Valid {
		sub.Notes = notes.String
	}
	if resumeText.Valid {
		sub.ResumeText = resumeText.String
	}
	if jobText.Valid {
		sub.JobPostingText = jobText.String
	}
	if resumeData.Valid {
		sub.ResumeData = map[string]any{}
		if err := json.Unmarshal([]byte(resumeData.String), &sub.ResumeData); err != nil {
			sub.ResumeData = nil
		}
	}
	if jobData.Valid {
		sub.JobPostingData = map[string]any{}
		if err := json.Unmarshal([]byte(jobData.String), &sub.JobPostingData); err != nil {
			sub.JobPostingData = nil
		}
	}
	if latestScore.Valid {
		score := int(latestScore.Int64)
		sub.LatestScore = &score
	}
	if latestResult.Valid {
		var result ats.Result
		if err := json.Unmarshal([]byte(latestResult.String), &result); err == nil {
			sub.LatestResult = &result
		}
	}
	if errorMessage.Valid {
		sub.ErrorMessage = &errorMessage.String
	}
	return sub, nil
}

func marshalNullableJSONB(value map[string]any) (any, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}
