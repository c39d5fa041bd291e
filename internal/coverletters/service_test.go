package coverletters

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"resume-optimizer-backend/internal/llm"
	"resume-optimizer-backend/internal/shared/storage/object/local"
	"resume-optimizer-backend/internal/submissions"
)

type fakeWriter struct {
	letter    string
	err       error
	lastInput llm.CoverLetterInput
}

func (f *fakeWriter) ExtractResume(ctx context.Context, resumeText string) (json.RawMessage, error) {
	_ = ctx
	_ = resumeText
	return nil, llm.ErrNotImplemented
}

func (f *fakeWriter) ExtractJobPosting(ctx context.Context, jobPostingText string) (json.RawMessage, error) {
	_ = ctx
	_ = jobPostingText
	return nil, llm.ErrNotImplemented
}

func (f *fakeWriter) GenerateCoverLetter(ctx context.Context, input llm.CoverLetterInput) (string, error) {
	_ = ctx
	f.lastInput = input
	if f.err != nil {
		return "", f.err
	}
	return f.letter, nil
}

func setup(t *testing.T, writer llm.Client) (*Service, string) {
	t.Helper()
	subSvc := &submissions.Service{
		Repo:  submissions.NewMemoryRepo(),
		Store: local.New(t.TempDir()),
		LLM:   writer,
	}
	sub, err := subSvc.Create(context.Background(), "user-1", "Backend role", "",
		submissions.Upload{FileName: "resume.txt", Body: strings.NewReader("Jane Doe, Go developer")},
		submissions.Upload{FileName: "posting.txt", Body: strings.NewReader("Senior Go developer wanted")},
	)
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	return &Service{Subs: subSvc, LLM: writer}, sub.ID
}

func TestGenerate(t *testing.T) {
	writer := &fakeWriter{letter: "Dear Hiring Manager,\n\nI would be a great fit."}
	svc, subID := setup(t, writer)

	letter, err := svc.Generate(context.Background(), "user-1", subID, "", "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if letter.Tone != "professional" || letter.Length != "medium" {
		t.Fatalf("expected defaults, got tone=%s length=%s", letter.Tone, letter.Length)
	}
	if !strings.Contains(letter.Text, "great fit") {
		t.Fatalf("unexpected letter: %q", letter.Text)
	}
	if !strings.Contains(writer.lastInput.ResumeText, "Jane Doe") {
		t.Fatalf("expected extracted resume text in LLM input, got %q", writer.lastInput.ResumeText)
	}
	if !strings.Contains(writer.lastInput.JobPostingText, "Senior Go developer") {
		t.Fatalf("expected extracted job text in LLM input, got %q", writer.lastInput.JobPostingText)
	}
}

func TestGenerateRejectsUnknownTone(t *testing.T) {
	svc, subID := setup(t, &fakeWriter{letter: "hi"})

	if _, err := svc.Generate(context.Background(), "user-1", subID, "sarcastic", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Generate(context.Background(), "user-1", subID, "", "novel"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateUnknownSubmission(t *testing.T) {
	svc, _ := setup(t, &fakeWriter{letter: "hi"})

	if _, err := svc.Generate(context.Background(), "user-1", "missing", "", ""); !errors.Is(err, submissions.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateEmptyLetter(t *testing.T) {
	svc, subID := setup(t, &fakeWriter{letter: "   "})

	if _, err := svc.Generate(context.Background(), "user-1", subID, "formal", "short"); !errors.Is(err, ErrEmptyLetter) {
		t.Fatalf("expected ErrEmptyLetter, got %v", err)
	}
}
