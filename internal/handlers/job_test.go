package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"scriba/internal/models"
	"scriba/internal/storage"
)

func newHandlerRepos(t *testing.T) (*storage.JobRepository, *storage.TranscriptRepository) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewJobRepository(db), storage.NewTranscriptRepository(db)
}

func transcriptRequest(t *testing.T, h *JobHandler, jobID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID+"/transcript", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/api/jobs/:id/transcript")
	c.SetParamNames("id")
	c.SetParamValues(jobID)
	if err := h.GetTranscript(c); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestGetTranscriptFailedJob(t *testing.T) {
	jobs, transcripts := newHandlerRepos(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeFileUpload}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatal(err)
	}
	if _, err := jobs.ClaimNextQueued(ctx); err != nil {
		t.Fatal(err)
	}
	if err := jobs.MarkFailed(ctx, job.ID, "conversion failed"); err != nil {
		t.Fatal(err)
	}

	rec := transcriptRequest(t, NewJobHandler(jobs, transcripts), job.ID)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if !strings.Contains(rec.Body.String(), "job failed") {
		t.Errorf("failed job should get a terminal message, got %s", rec.Body.String())
	}
}

func TestGetTranscriptPendingJob(t *testing.T) {
	jobs, transcripts := newHandlerRepos(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeFileUpload}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	rec := transcriptRequest(t, NewJobHandler(jobs, transcripts), job.ID)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if !strings.Contains(rec.Body.String(), "not ready yet") {
		t.Errorf("pending job should get a not-ready message, got %s", rec.Body.String())
	}
}
