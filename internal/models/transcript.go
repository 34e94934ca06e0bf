package models

import "time"

// TranscriptRecord holds the generated artifact paths for a completed
// job plus optional user edits. Edits take precedence over the
// generated artifacts for all reads and exports.
type TranscriptRecord struct {
	JobID              string     `json:"job_id"`
	SegmentsJSONPath   string     `json:"segments_json_path,omitempty"`
	PlainTextPath      string     `json:"plain_text_path,omitempty"`
	SRTPath            string     `json:"srt_path,omitempty"`
	VTTPath            string     `json:"vtt_path,omitempty"`
	EditedText         string     `json:"edited_text,omitempty"`
	EditedSegmentsJSON string     `json:"edited_segments_json,omitempty"`
	LastEditedAt       *time.Time `json:"last_edited_at,omitempty"`
}

// Edited reports whether the record carries user edits.
func (t *TranscriptRecord) Edited() bool {
	return t.EditedText != "" || t.EditedSegmentsJSON != ""
}
