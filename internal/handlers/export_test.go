package handlers

import (
	"testing"

	"scriba/internal/models"
)

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name   string
		job    models.Job
		format string
		want   string
	}{
		{
			"from original filename",
			models.Job{OriginalFilename: "interview.mp3"},
			"srt",
			"interview.srt",
		},
		{
			"filename without extension",
			models.Job{OriginalFilename: "interview"},
			"txt",
			"interview.txt",
		},
		{
			"fallback to short job id",
			models.Job{ID: "0c7a9f1e-5555-4444-3333-222211110000"},
			"vtt",
			"transcript_0c7a9f1e.vtt",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportFilename(&tt.job, tt.format); got != tt.want {
				t.Errorf("exportFilename = %q, want %q", got, tt.want)
			}
		})
	}
}
