// Package coverletters drafts job-specific cover letters from a scored
// submission's resume and job posting texts.
package coverletters

import (
	"context"
	"errors"
	"strings"

	"resume-optimizer-backend/internal/llm"
	"resume-optimizer-backend/internal/shared/telemetry"
	"resume-optimizer-backend/internal/submissions"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyLetter  = errors.New("empty cover letter from LLM")
)

var (
	allowedTones   = map[string]struct{}{"professional": {}, "enthusiastic": {}, "formal": {}, "conversational": {}}
	allowedLengths = map[string]struct{}{"short": {}, "medium": {}, "long": {}}
)

// Service generates cover letters for submissions.
type Service struct {
	Subs *submissions.Service
	LLM  llm.Client
}

// CoverLetter is a generated letter with the options used to produce it.
type CoverLetter struct {
	SubmissionID string `json:"submissionId"`
	Tone         string `json:"tone"`
	Length       string `json:"length"`
	Text         string `json:"coverLetter"`
}

// Generate drafts a cover letter for the given submission. Unset tone and
// length fall back to professional/medium; unknown values are rejected.
func (s *Service) Generate(ctx context.Context, userID, submissionID, tone, length string) (CoverLetter, error) {
	if userID == "" || submissionID == "" {
		return CoverLetter{}, ErrInvalidInput
	}
	tone = normalizeOption(tone, "professional")
	length = normalizeOption(length, "medium")
	if _, ok := allowedTones[tone]; !ok {
		return CoverLetter{}, ErrInvalidInput
	}
	if _, ok := allowedLengths[length]; !ok {
		return CoverLetter{}, ErrInvalidInput
	}
	if s.LLM == nil {
		return CoverLetter{}, errors.New("missing llm client")
	}

	resumeText, jobText, err := s.Subs.Texts(ctx, userID, submissionID)
	if err != nil {
		return CoverLetter{}, err
	}

	text, err := s.LLM.GenerateCoverLetter(ctx, llm.CoverLetterInput{
		ResumeText:     resumeText,
		JobPostingText: jobText,
		Tone:           tone,
		Length:         length,
	})
	if err != nil {
		return CoverLetter{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return CoverLetter{}, ErrEmptyLetter
	}

	telemetry.Info("coverletter.generated", map[string]any{
		"user_id":       userID,
		"submission_id": submissionID,
		"tone":          tone,
		"length":        length,
		"chars":         len(text),
	})

	return CoverLetter{
		SubmissionID: submissionID,
		Tone:         tone,
		Length:       length,
		Text:         text,
	}, nil
}

func normalizeOption(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}
