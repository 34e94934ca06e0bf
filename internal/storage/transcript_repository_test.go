package storage

import (
	"context"
	"testing"

	"scriba/internal/models"
	"scriba/internal/transcript"
)

func createTestJob(t *testing.T, repo *JobRepository) *models.Job {
	t.Helper()
	job := &models.Job{Type: models.JobTypeFileUpload}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatal(err)
	}
	return job
}

func TestSavePathsAndGet(t *testing.T) {
	db := newTestDB(t)
	jobs := NewJobRepository(db)
	transcripts := NewTranscriptRepository(db)
	ctx := context.Background()

	job := createTestJob(t, jobs)
	paths := transcript.Paths{
		JSON: "/out/segments.json",
		Text: "/out/transcript.txt",
		SRT:  "/out/transcript.srt",
		VTT:  "/out/transcript.vtt",
	}
	if err := transcripts.SavePaths(ctx, job.ID, paths); err != nil {
		t.Fatal(err)
	}

	rec, err := transcripts.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("record not found")
	}
	if rec.SegmentsJSONPath != paths.JSON || rec.VTTPath != paths.VTT {
		t.Errorf("paths mismatch: %+v", rec)
	}
	if rec.Edited() {
		t.Error("fresh record should not be marked edited")
	}
	if rec.LastEditedAt != nil {
		t.Error("fresh record should have no edit time")
	}

	// Saving again replaces the paths, not duplicates the row.
	paths.SRT = "/elsewhere/transcript.srt"
	if err := transcripts.SavePaths(ctx, job.ID, paths); err != nil {
		t.Fatal(err)
	}
	rec, err = transcripts.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.SRTPath != "/elsewhere/transcript.srt" {
		t.Errorf("upsert did not replace path: %q", rec.SRTPath)
	}
}

func TestGetMissingTranscript(t *testing.T) {
	transcripts := NewTranscriptRepository(newTestDB(t))

	rec, err := transcripts.Get(context.Background(), "no-such-job")
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Errorf("got %+v, want nil", rec)
	}
}

func TestSaveEdits(t *testing.T) {
	db := newTestDB(t)
	jobs := NewJobRepository(db)
	transcripts := NewTranscriptRepository(db)
	ctx := context.Background()

	job := createTestJob(t, jobs)
	if err := transcripts.SavePaths(ctx, job.ID, transcript.Paths{JSON: "/out/segments.json"}); err != nil {
		t.Fatal(err)
	}

	edited := `[{"id":0,"start":0,"end":1,"text":"fixed"}]`
	if err := transcripts.SaveEdits(ctx, job.ID, "fixed text", edited); err != nil {
		t.Fatal(err)
	}

	rec, err := transcripts.Get(ctx, job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !rec.Edited() {
		t.Error("record should be marked edited")
	}
	if rec.EditedText != "fixed text" || rec.EditedSegmentsJSON != edited {
		t.Errorf("edits mismatch: %+v", rec)
	}
	if rec.LastEditedAt == nil {
		t.Error("last_edited_at should be set")
	}
	// Edits must not clobber the generated paths.
	if rec.SegmentsJSONPath != "/out/segments.json" {
		t.Errorf("paths lost after edit: %q", rec.SegmentsJSONPath)
	}
}
