package submissions

import (
	"time"

	"resume-optimizer-backend/internal/ats"
)

// FileResponse is the outward-facing representation of a stored upload.
type FileResponse struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
}

// SubmissionResponse is the list/summary representation of a submission.
type SubmissionResponse struct {
	SubmissionID string       `json:"submissionId"`
	Title        string       `json:"title"`
	Notes        string       `json:"notes,omitempty"`
	Status       string       `json:"status"`
	Resume       FileResponse `json:"resume"`
	JobPosting   FileResponse `json:"jobPosting"`
	LatestScore  *int         `json:"latestScore,omitempty"`
	ErrorMessage *string      `json:"errorMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// SubmissionDetailResponse adds the latest scoring result and parsed records.
type SubmissionDetailResponse struct {
	SubmissionResponse
	ResumeData     map[string]any `json:"resumeData,omitempty"`
	JobPostingData map[string]any `json:"jobPostingData,omitempty"`
	LatestResult   *ats.Result    `json:"latestResult,omitempty"`
}

func toFileResponse(f FileRef) FileResponse {
	return FileResponse{
		FileName:  f.FileName,
		MimeType:  f.MimeType,
		SizeBytes: f.SizeBytes,
	}
}

func toResponse(sub Submission) SubmissionResponse {
	return SubmissionResponse{
		SubmissionID: sub.ID,
		Title:        sub.Title,
		Notes:        sub.Notes,
		Status:       sub.Status,
		Resume:       toFileResponse(sub.Resume),
		JobPosting:   toFileResponse(sub.JobPosting),
		LatestScore:  sub.LatestScore,
		ErrorMessage: sub.ErrorMessage,
		CreatedAt:    sub.CreatedAt,
		UpdatedAt:    sub.UpdatedAt,
	}
}

func toDetailResponse(sub Submission) SubmissionDetailResponse {
	return SubmissionDetailResponse{
		SubmissionResponse: toResponse(sub),
		ResumeData:         sub.ResumeData,
		JobPostingData:     sub.JobPostingData,
		LatestResult:       sub.LatestResult,
	}
}
