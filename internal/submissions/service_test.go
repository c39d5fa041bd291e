package submissions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"resume-optimizer-backend/internal/ats"
	"resume-optimizer-backend/internal/llm"
	"resume-optimizer-backend/internal/shared/storage/object/local"
)

type staticExtractor struct {
	resumeJSON  string
	jobJSON     string
	resumeCalls int
	jobCalls    int
	err         error
}

func (s *staticExtractor) ExtractResume(ctx context.Context, resumeText string) (json.RawMessage, error) {
	_ = ctx
	_ = resumeText
	s.resumeCalls++
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.resumeJSON), nil
}

func (s *staticExtractor) ExtractJobPosting(ctx context.Context, jobPostingText string) (json.RawMessage, error) {
	_ = ctx
	_ = jobPostingText
	s.jobCalls++
	if s.err != nil {
		return nil, s.err
	}
	return json.RawMessage(s.jobJSON), nil
}

func (s *staticExtractor) GenerateCoverLetter(ctx context.Context, input llm.CoverLetterInput) (string, error) {
	_ = ctx
	_ = input
	return "", llm.ErrNotImplemented
}

func setupService(t *testing.T, client llm.Client) (*Service, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	svc := &Service{
		Repo:  repo,
		Store: local.New(t.TempDir()),
		LLM:   client,
	}
	return svc, repo
}

func createSubmission(t *testing.T, svc *Service, userID string) Submission {
	t.Helper()
	sub, err := svc.Create(context.Background(), userID, "Backend role", "",
		Upload{FileName: "resume.txt", Body: strings.NewReader("Jane Doe, Go developer with 5 years of experience")},
		Upload{FileName: "posting.txt", Body: strings.NewReader("Senior Go developer wanted")},
	)
	if err != nil {
		t.Fatalf("create submission: %v", err)
	}
	return sub
}

func TestScoringPipeline(t *testing.T) {
	extractor := &staticExtractor{
		resumeJSON: `{"full_name":"Jane Doe","email":"jane@example.com","current_title":"Engineer","skills":["go","sql","docker","kubernetes","git"],"years_of_experience":5,"education":"BSc Computer Science"}`,
		jobJSON:    `{"required_skills":["go","sql"],"preferred_skills":["docker"],"experience_level":"Senior","education":"Bachelor"}`,
	}
	svc, repo := setupService(t, extractor)
	sub := createSubmission(t, svc, "user-1")

	svc.scoreAsync(context.Background(), "user-1", sub.ID)

	got, err := repo.GetByID(context.Background(), "user-1", sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Status != StatusScored {
		t.Fatalf("expected status scored, got %s (error=%v)", got.Status, got.ErrorMessage)
	}
	if got.LatestScore == nil || got.LatestResult == nil {
		t.Fatalf("expected score and result to be set")
	}
	if *got.LatestScore != got.LatestResult.ATSScore {
		t.Fatalf("latest score %d does not match result %d", *got.LatestScore, got.LatestResult.ATSScore)
	}
	if *got.LatestScore < 0 || *got.LatestScore > 100 {
		t.Fatalf("score out of range: %d", *got.LatestScore)
	}
	if got.ResumeData == nil || got.JobPostingData == nil {
		t.Fatalf("expected parsed records to be cached")
	}
	if got.ResumeText == "" || got.JobPostingText == "" {
		t.Fatalf("expected extracted texts to be cached")
	}

	entries, err := repo.HistoryByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one history entry, got %d", len(entries))
	}
	if entries[0].Score != *got.LatestScore {
		t.Fatalf("history score %d does not match latest %d", entries[0].Score, *got.LatestScore)
	}
	if extractor.resumeCalls != 1 || extractor.jobCalls != 1 {
		t.Fatalf("expected one LLM call per record, got %d/%d", extractor.resumeCalls, extractor.jobCalls)
	}
}

func TestScoringUsesCachedRecords(t *testing.T) {
	extractor := &staticExtractor{err: errors.New("llm down")}
	svc, repo := setupService(t, extractor)
	sub := createSubmission(t, svc, "user-1")

	resumeData := map[string]any{"skills": []any{"go"}, "full_name": "Jane"}
	jobData := map[string]any{"required_skills": []any{"go"}}
	if err := repo.UpdateExtraction(context.Background(), sub.ID, "resume text", "job text", resumeData, jobData); err != nil {
		t.Fatalf("seed extraction: %v", err)
	}

	svc.scoreAsync(context.Background(), "user-1", sub.ID)

	got, err := repo.GetByID(context.Background(), "user-1", sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Status != StatusScored {
		t.Fatalf("expected cached records to score without LLM, got status %s", got.Status)
	}
	if extractor.resumeCalls != 0 || extractor.jobCalls != 0 {
		t.Fatalf("expected no LLM calls, got %d/%d", extractor.resumeCalls, extractor.jobCalls)
	}
}

func TestScoringFailureMarksFailed(t *testing.T) {
	extractor := &staticExtractor{err: errors.New("llm down")}
	svc, repo := setupService(t, extractor)
	sub := createSubmission(t, svc, "user-1")

	svc.scoreAsync(context.Background(), "user-1", sub.ID)

	got, err := repo.GetByID(context.Background(), "user-1", sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorMessage == nil || *got.ErrorMessage == "" {
		t.Fatalf("expected error message to be recorded")
	}

	entries, err := repo.HistoryByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no history entries after failure, got %d", len(entries))
	}
}

func TestScoringInvalidLLMOutput(t *testing.T) {
	extractor := &staticExtractor{resumeJSON: "{not-json", jobJSON: "{}"}
	svc, repo := setupService(t, extractor)
	sub := createSubmission(t, svc, "user-1")

	svc.scoreAsync(context.Background(), "user-1", sub.ID)

	got, err := repo.GetByID(context.Background(), "user-1", sub.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if got.Status != StatusFailed {
		t.Fatalf("expected status failed, got %s", got.Status)
	}
	if got.ErrorMessage == nil || !strings.Contains(*got.ErrorMessage, "llm output invalid") {
		t.Fatalf("unexpected error message: %v", got.ErrorMessage)
	}
}

func TestRunScoringUnknownSubmission(t *testing.T) {
	svc, _ := setupService(t, &staticExtractor{})
	if _, err := svc.RunScoring(context.Background(), "user-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryFlattensAscending(t *testing.T) {
	svc, repo := setupService(t, &staticExtractor{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	scores := []struct {
		score int
		at    time.Time
	}{
		{score: 80, at: base.Add(2 * time.Hour)},
		{score: 60, at: base},
		{score: 72, at: base.Add(time.Hour)},
	}
	for i, s := range scores {
		entry := HistoryEntry{
			ID:           "entry-" + string(rune('a'+i)),
			SubmissionID: "sub-1",
			UserID:       "user-1",
			Score:        s.score,
			Result:       ats.Result{ATSScore: s.score},
			CreatedAt:    s.at,
		}
		if err := repo.AppendHistory(context.Background(), entry); err != nil {
			t.Fatalf("append history: %v", err)
		}
	}

	points, err := svc.History(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 points, got %d", len(points))
	}
	wantScores := []int{60, 72, 80}
	for i, point := range points {
		if point.Score != wantScores[i] {
			t.Fatalf("expected score %d at position %d, got %d", wantScores[i], i, point.Score)
		}
		if i > 0 && point.Date.Before(points[i-1].Date) {
			t.Fatalf("history not in ascending order")
		}
	}
}

func TestStatsAggregation(t *testing.T) {
	extractor := &staticExtractor{
		resumeJSON: `{"skills":["go"],"years_of_experience":5}`,
		jobJSON:    `{"required_skills":["go"]}`,
	}
	svc, repo := setupService(t, extractor)

	first := createSubmission(t, svc, "user-1")
	_ = createSubmission(t, svc, "user-1")

	svc.scoreAsync(context.Background(), "user-1", first.ID)

	stats, err := svc.Stats(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalSubmissions != 2 {
		t.Fatalf("expected 2 submissions, got %d", stats.TotalSubmissions)
	}
	if stats.ScoredSubmissions != 1 {
		t.Fatalf("expected 1 scored submission, got %d", stats.ScoredSubmissions)
	}
	if stats.AverageScore == nil || stats.BestScore == nil || stats.LatestScore == nil {
		t.Fatalf("expected score aggregates to be set: %+v", stats)
	}
	if *stats.BestScore != *stats.LatestScore {
		t.Fatalf("single scored submission must have best == latest")
	}

	got, err := repo.GetByID(context.Background(), "user-1", first.ID)
	if err != nil {
		t.Fatalf("get submission: %v", err)
	}
	if *stats.BestScore != *got.LatestScore {
		t.Fatalf("best score %d does not match submission %d", *stats.BestScore, *got.LatestScore)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc, repo := setupService(t, &staticExtractor{})
	sub := createSubmission(t, svc, "user-1")

	title := "Renamed"
	updated, err := svc.Update(context.Background(), "user-1", sub.ID, &title, nil)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("expected renamed title, got %s", updated.Title)
	}

	empty := "  "
	if _, err := svc.Update(context.Background(), "user-1", sub.ID, &empty, nil); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank title, got %v", err)
	}

	if err := svc.Delete(context.Background(), "user-1", sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "user-1", sub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	svc, _ := setupService(t, &staticExtractor{})
	sub := createSubmission(t, svc, "user-1")

	if _, err := svc.Get(context.Background(), "user-2", sub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign user, got %v", err)
	}
}
