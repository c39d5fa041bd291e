package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts LLM providers for structured extraction and text generation.
type Client interface {
	// ExtractResume turns raw resume text into a structured JSON record.
	ExtractResume(ctx context.Context, resumeText string) (json.RawMessage, error)
	// ExtractJobPosting turns raw job posting text into a structured JSON record.
	ExtractJobPosting(ctx context.Context, jobPostingText string) (json.RawMessage, error)
	// GenerateCoverLetter writes a plain-text cover letter for the given inputs.
	GenerateCoverLetter(ctx context.Context, input CoverLetterInput) (string, error)
}

// CoverLetterInput captures the inputs needed to draft a cover letter.
type CoverLetterInput struct {
	ResumeText     string
	JobPostingText string
	Tone           string
	Length         string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation until provider wiring is added.
type PlaceholderClient struct{}

// ExtractResume returns ErrNotImplemented.
func (PlaceholderClient) ExtractResume(ctx context.Context, resumeText string) (json.RawMessage, error) {
	_ = ctx
	_ = resumeText
	return nil, ErrNotImplemented
}

// ExtractJobPosting returns ErrNotImplemented.
func (PlaceholderClient) ExtractJobPosting(ctx context.Context, jobPostingText string) (json.RawMessage, error) {
	_ = ctx
	_ = jobPostingText
	return nil, ErrNotImplemented
}

// GenerateCoverLetter returns ErrNotImplemented.
func (PlaceholderClient) GenerateCoverLetter(ctx context.Context, input CoverLetterInput) (string, error) {
	_ = ctx
	_ = input
	return "", ErrNotImplemented
}
