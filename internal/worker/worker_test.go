package worker

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"scriba/internal/models"
	"scriba/internal/storage"
	"scriba/internal/transcript"
)

type fakeRunner struct {
	paths transcript.Paths
	err   error
	runs  []string
}

func (f *fakeRunner) Run(ctx context.Context, job *models.Job) (transcript.Paths, error) {
	f.runs = append(f.runs, job.ID)
	return f.paths, f.err
}

func newTestRepos(t *testing.T) (*storage.JobRepository, *storage.TranscriptRepository) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return storage.NewJobRepository(db), storage.NewTranscriptRepository(db)
}

func TestProcessJobSuccess(t *testing.T) {
	jobs, transcripts := newTestRepos(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeFileUpload, StoredFilename: "a.wav"}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{paths: transcript.Paths{
		JSON: "/out/segments.json",
		Text: "/out/transcript.txt",
		SRT:  "/out/transcript.srt",
		VTT:  "/out/transcript.vtt",
	}}
	w := NewWorker(jobs, transcripts, runner, 0)

	claimed, err := jobs.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatal(err)
	}
	w.processJob(ctx, claimed)

	if len(runner.runs) != 1 || runner.runs[0] != job.ID {
		t.Errorf("runner runs = %v", runner.runs)
	}

	got, err := jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobStatusDone {
		t.Errorf("status = %q, want done", got.Status)
	}

	rec, err := transcripts.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil || rec.SegmentsJSONPath != "/out/segments.json" {
		t.Errorf("transcript record not saved: %+v", rec)
	}
}

func TestProcessJobFailureRecordsMessage(t *testing.T) {
	jobs, transcripts := newTestRepos(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeYouTubeCaptions, SourceURL: "https://youtu.be/abc"}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{err: policyErr("No captions available for this video. Please upload the file directly instead.")}
	w := NewWorker(jobs, transcripts, runner, 0)

	claimed, err := jobs.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatal(err)
	}
	w.processJob(ctx, claimed)

	got, err := jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if !strings.Contains(got.ErrorMessage, "No captions available") {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
	if !strings.Contains(got.ErrorMessage, "upload the file directly") {
		t.Errorf("policy message should point at the upload flow: %q", got.ErrorMessage)
	}
}

func TestProcessJobUnexpectedFailure(t *testing.T) {
	jobs, transcripts := newTestRepos(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeFileUpload, StoredFilename: "a.wav"}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{err: errors.New("nil pointer somewhere")}
	w := NewWorker(jobs, transcripts, runner, 0)

	claimed, err := jobs.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatal(err)
	}
	w.processJob(ctx, claimed)

	got, err := jobs.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if !strings.HasPrefix(got.ErrorMessage, "Unexpected error:") {
		t.Errorf("error message = %q", got.ErrorMessage)
	}
}

// gatedRunner blocks mid-job until released, recording whether its
// context was canceled underneath it.
type gatedRunner struct {
	started chan struct{}
	release chan struct{}
	ctxErr  error
	paths   transcript.Paths
}

func (g *gatedRunner) Run(ctx context.Context, job *models.Job) (transcript.Paths, error) {
	close(g.started)
	<-g.release
	g.ctxErr = ctx.Err()
	return g.paths, nil
}

func TestShutdownDoesNotInterruptRunningJob(t *testing.T) {
	jobs, transcripts := newTestRepos(t)

	job := &models.Job{Type: models.JobTypeFileUpload, StoredFilename: "a.wav"}
	if err := jobs.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}

	runner := &gatedRunner{
		started: make(chan struct{}),
		release: make(chan struct{}),
		paths: transcript.Paths{
			JSON: "/out/segments.json",
			Text: "/out/transcript.txt",
			SRT:  "/out/transcript.srt",
			VTT:  "/out/transcript.vtt",
		},
	}
	w := NewWorker(jobs, transcripts, runner, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	<-runner.started
	// Shutdown signal arrives while the job is in flight.
	cancel()
	close(runner.release)
	w.Stop()

	if runner.ctxErr != nil {
		t.Errorf("running job saw cancellation: %v", runner.ctxErr)
	}

	got, err := jobs.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.JobStatusDone {
		t.Errorf("status after shutdown = %q, want done", got.Status)
	}
	rec, err := transcripts.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Error("transcript record not saved during shutdown")
	}
}

func TestFailedJobIsNotReclaimed(t *testing.T) {
	jobs, transcripts := newTestRepos(t)
	ctx := context.Background()

	job := &models.Job{Type: models.JobTypeFileUpload}
	if err := jobs.Create(ctx, job); err != nil {
		t.Fatal(err)
	}

	runner := &fakeRunner{err: inputErr(nil, "uploaded file not found")}
	w := NewWorker(jobs, transcripts, runner, 0)

	claimed, err := jobs.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatal(err)
	}
	w.processJob(ctx, claimed)

	next, err := jobs.ClaimNextQueued(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if next != nil {
		t.Errorf("failed job reappeared in the queue: %+v", next)
	}
}
