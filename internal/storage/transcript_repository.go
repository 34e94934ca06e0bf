package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scriba/internal/models"
	"scriba/internal/transcript"
)

// TranscriptRepository is the data access layer for transcript records
type TranscriptRepository struct {
	db *DB
}

// NewTranscriptRepository creates a new TranscriptRepository
func NewTranscriptRepository(db *DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// SavePaths records the generated artifact paths for a job, creating
// the transcript record if needed. The worker calls this before the
// job's done-status write.
func (r *TranscriptRepository) SavePaths(ctx context.Context, jobID string, paths transcript.Paths) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transcripts (job_id, segments_json_path, plain_text_path, srt_path, vtt_path)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			segments_json_path = excluded.segments_json_path,
			plain_text_path = excluded.plain_text_path,
			srt_path = excluded.srt_path,
			vtt_path = excluded.vtt_path`,
		jobID, paths.JSON, paths.Text, paths.SRT, paths.VTT,
	)
	if err != nil {
		return fmt.Errorf("failed to save transcript paths: %w", err)
	}
	return nil
}

// Get returns the transcript record for a job, or nil when none exists.
func (r *TranscriptRepository) Get(ctx context.Context, jobID string) (*models.TranscriptRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT job_id, segments_json_path, plain_text_path, srt_path, vtt_path,
		       edited_text, edited_segments_json, last_edited_at
		FROM transcripts WHERE job_id = ?`, jobID)

	var rec models.TranscriptRecord
	var jsonPath, textPath, srtPath, vttPath sql.NullString
	var editedText, editedSegments, lastEditedAt sql.NullString

	err := row.Scan(&rec.JobID, &jsonPath, &textPath, &srtPath, &vttPath,
		&editedText, &editedSegments, &lastEditedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transcript: %w", err)
	}

	rec.SegmentsJSONPath = jsonPath.String
	rec.PlainTextPath = textPath.String
	rec.SRTPath = srtPath.String
	rec.VTTPath = vttPath.String
	rec.EditedText = editedText.String
	rec.EditedSegmentsJSON = editedSegments.String

	if lastEditedAt.Valid {
		t, err := parseTime(lastEditedAt.String)
		if err != nil {
			return nil, err
		}
		rec.LastEditedAt = &t
	}
	return &rec, nil
}

// SaveEdits stores user edits, creating the record when it does not
// exist yet (caption jobs may have no generated paths at edit time).
func (r *TranscriptRepository) SaveEdits(ctx context.Context, jobID, editedText, editedSegmentsJSON string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transcripts (job_id, edited_text, edited_segments_json, last_edited_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			edited_text = excluded.edited_text,
			edited_segments_json = excluded.edited_segments_json,
			last_edited_at = excluded.last_edited_at`,
		jobID, editedText, nullable(editedSegmentsJSON), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save transcript edits: %w", err)
	}
	return nil
}
