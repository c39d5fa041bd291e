package submissions_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resume-optimizer-backend/internal/bootstrap"
	"resume-optimizer-backend/internal/shared/config"
)

const resumeSample = `Jane Doe
jane@example.com
Senior software engineer with 6 years of experience.
Skills: Go, PostgreSQL, Docker, AWS.
Education: B.S. Computer Science.`

const jobSample = `Backend Engineer at Acme
Requirements: Go, PostgreSQL, 4+ years of experience.
Nice to have: Docker, Kubernetes.`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	cfg := config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap.Build: %v", err)
	}
	return app.Router
}

func multipartBody(t *testing.T, title, notes string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if title != "" {
		if err := w.WriteField("title", title); err != nil {
			t.Fatalf("write title: %v", err)
		}
	}
	if notes != "" {
		if err := w.WriteField("notes", notes); err != nil {
			t.Fatalf("write notes: %v", err)
		}
	}
	part, err := w.CreateFormFile("resume", "resume.txt")
	if err != nil {
		t.Fatalf("create resume part: %v", err)
	}
	if _, err := io.WriteString(part, resumeSample); err != nil {
		t.Fatalf("write resume: %v", err)
	}
	part, err = w.CreateFormFile("job_posting", "job.txt")
	if err != nil {
		t.Fatalf("create job part: %v", err)
	}
	if _, err := io.WriteString(part, jobSample); err != nil {
		t.Fatalf("write job: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func doRequest(t *testing.T, router http.Handler, method, path, guestID string, contentType string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if guestID != "" {
		req.Header.Set("X-Guest-Id", guestID)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSubmission(t *testing.T, router http.Handler, guestID, title string) map[string]any {
	t.Helper()
	body, contentType := multipartBody(t, title, "")
	rec := doRequest(t, router, http.MethodPost, "/api/v1/submissions", guestID, contentType, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create submission: status %d body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return resp
}

func TestCreateAndGetSubmission(t *testing.T) {
	router := newTestRouter(t)

	created := createSubmission(t, router, "g-create", "Backend role")
	id, _ := created["submissionId"].(string)
	if id == "" {
		t.Fatalf("expected submissionId in response: %v", created)
	}
	if created["status"] != "uploaded" {
		t.Fatalf("expected status uploaded, got %v", created["status"])
	}
	if created["title"] != "Backend role" {
		t.Fatalf("expected title to round-trip, got %v", created["title"])
	}

	rec := doRequest(t, router, http.MethodGet, "/api/v1/submissions/"+id, "g-create", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get submission: status %d body %s", rec.Code, rec.Body.String())
	}
	var detail map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	resume, _ := detail["resume"].(map[string]any)
	if resume == nil || resume["fileName"] != "resume.txt" {
		t.Fatalf("expected resume metadata, got %v", detail["resume"])
	}
	if resume["sizeBytes"].(float64) <= 0 {
		t.Fatalf("expected positive resume size, got %v", resume["sizeBytes"])
	}
}

func TestCreateDefaultsTitleToResumeFileName(t *testing.T) {
	router := newTestRouter(t)

	created := createSubmission(t, router, "g-default-title", "")
	if created["title"] != "resume.txt" {
		t.Fatalf("expected title to default to resume file name, got %v", created["title"])
	}
}

func TestCreateRequiresBothFiles(t *testing.T) {
	router := newTestRouter(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("resume", "resume.txt")
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	io.WriteString(part, resumeSample)
	w.Close()

	rec := doRequest(t, router, http.MethodPost, "/api/v1/submissions", "g-missing", w.FormDataContentType(), &buf)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "job_posting") {
		t.Fatalf("expected job_posting error, got %s", rec.Body.String())
	}
}

func TestListNewestFirst(t *testing.T) {
	router := newTestRouter(t)

	createSubmission(t, router, "g-list", "first")
	time.Sleep(5 * time.Millisecond)
	createSubmission(t, router, "g-list", "second")

	rec := doRequest(t, router, http.MethodGet, "/api/v1/submissions", "g-list", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d body %s", rec.Code, rec.Body.String())
	}
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(items))
	}
	if items[0]["title"] != "second" || items[1]["title"] != "first" {
		t.Fatalf("expected newest-first order, got %v then %v", items[0]["title"], items[1]["title"])
	}
}

func TestUpdateAndDelete(t *testing.T) {
	router := newTestRouter(t)

	created := createSubmission(t, router, "g-update", "original")
	id := created["submissionId"].(string)

	payload := strings.NewReader(`{"title": "renamed", "notes": "tweaked"}`)
	rec := doRequest(t, router, http.MethodPut, "/api/v1/submissions/"+id, "g-update", "application/json", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d body %s", rec.Code, rec.Body.String())
	}
	var updated map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if updated["title"] != "renamed" || updated["notes"] != "tweaked" {
		t.Fatalf("expected updated fields, got %v", updated)
	}

	rec = doRequest(t, router, http.MethodPut, "/api/v1/submissions/"+id, "g-update", "application/json", strings.NewReader(`{}`))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty update, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodDelete, "/api/v1/submissions/"+id, "g-update", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: status %d body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/submissions/"+id, "g-update", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	router := newTestRouter(t)

	created := createSubmission(t, router, "g-owner-a", "mine")
	id := created["submissionId"].(string)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/submissions/"+id, "g-owner-b", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for other user, got %d", rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/v1/submissions", "g-owner-b", "", nil)
	var items []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty list for other user, got %d items", len(items))
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/submissions", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", rec.Code)
	}
}

func TestStatsForNewUser(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/submissions/stats", "g-stats", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: status %d body %s", rec.Code, rec.Body.String())
	}
	var stats map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["totalSubmissions"].(float64) != 0 {
		t.Fatalf("expected zero submissions, got %v", stats["totalSubmissions"])
	}

	createSubmission(t, router, "g-stats", "one")
	rec = doRequest(t, router, http.MethodGet, "/api/v1/submissions/stats", "g-stats", "", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats["totalSubmissions"].(float64) != 1 {
		t.Fatalf("expected one submission, got %v", stats["totalSubmissions"])
	}
}

func TestScoreWithoutLLMProviderFails(t *testing.T) {
	router := newTestRouter(t)

	created := createSubmission(t, router, "g-score", "to score")
	id := created["submissionId"].(string)

	rec := doRequest(t, router, http.MethodPost, fmt.Sprintf("/api/v1/submissions/%s/score", id), "g-score", "", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("score: status %d body %s", rec.Code, rec.Body.String())
	}
	var accepted map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &accepted); err != nil {
		t.Fatalf("decode score response: %v", err)
	}
	if accepted["status"] != "processing" {
		t.Fatalf("expected processing status, got %v", accepted["status"])
	}

	// The placeholder LLM client cannot extract records, so the run
	// must settle in the failed state.
	deadline := time.Now().Add(3 * time.Second)
	for {
		rec = doRequest(t, router, http.MethodGet, "/api/v1/submissions/"+id, "g-score", "", nil)
		var detail map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
			t.Fatalf("decode detail: %v", err)
		}
		if detail["status"] == "failed" {
			if detail["errorMessage"] == nil {
				t.Fatalf("expected errorMessage on failed submission")
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("submission never reached failed state, last status %v", detail["status"])
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestHistoryEmpty(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/ats/history", "g-history", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: status %d body %s", rec.Code, rec.Body.String())
	}
	var points []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &points); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected empty history, got %d points", len(points))
	}
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/health", "g-health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health: status %d body %s", rec.Code, rec.Body.String())
	}
}
