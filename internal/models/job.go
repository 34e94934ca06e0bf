package models

import "time"

// Job is one unit of transcription work.
type Job struct {
	ID               string    `json:"id"`
	Type             string    `json:"job_type"`
	SourceURL        string    `json:"source_url,omitempty"`
	OriginalFilename string    `json:"original_filename,omitempty"`
	StoredFilename   string    `json:"stored_filename,omitempty"`
	Status           string    `json:"status"`
	Model            string    `json:"model"`
	Language         string    `json:"language"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Job types
const (
	JobTypeFileUpload        = "file_upload"
	JobTypeYouTubeCaptions   = "youtube_captions"
	JobTypeYouTubeAutoIngest = "youtube_auto_ingest"
)

// Job statuses. Done and Failed are terminal.
const (
	JobStatusQueued  = "queued"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Terminal reports whether the status permits no further transitions.
func Terminal(status string) bool {
	return status == JobStatusDone || status == JobStatusFailed
}

// ValidJobType reports whether t is a known job type.
func ValidJobType(t string) bool {
	switch t {
	case JobTypeFileUpload, JobTypeYouTubeCaptions, JobTypeYouTubeAutoIngest:
		return true
	}
	return false
}

// Transcription model sizes, smallest to largest.
var ModelSizes = []string{"tiny", "base", "small", "medium"}

// ValidModel reports whether m is a known model size.
func ValidModel(m string) bool {
	for _, size := range ModelSizes {
		if m == size {
			return true
		}
	}
	return false
}
