package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"

	"scriba/internal/models"
	"scriba/internal/storage"
	"scriba/internal/transcript"
)

// ExportHandler renders a job's transcript in a downloadable format.
type ExportHandler struct {
	jobRepo        *storage.JobRepository
	transcriptRepo *storage.TranscriptRepository
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(jobRepo *storage.JobRepository, transcriptRepo *storage.TranscriptRepository) *ExportHandler {
	return &ExportHandler{jobRepo: jobRepo, transcriptRepo: transcriptRepo}
}

// Export downloads the transcript in the requested format, with edits
// applied over the generated artifacts
// GET /api/jobs/:id/export?format=srt
func (h *ExportHandler) Export(c echo.Context) error {
	ctx := c.Request().Context()

	format := c.QueryParam("format")
	if format == "" {
		format = transcript.ExportTXT
	}
	switch format {
	case transcript.ExportTXT, transcript.ExportSRT, transcript.ExportVTT, transcript.ExportJSON:
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unsupported format: " + format})
	}

	job, err := h.jobRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	if job.Status != models.JobStatusDone {
		msg := "export is not ready yet (status: " + job.Status + ")"
		if models.Terminal(job.Status) {
			msg = "job failed and has nothing to export"
		}
		return c.JSON(http.StatusConflict, map[string]string{"error": msg})
	}

	record, err := h.transcriptRepo.Get(ctx, job.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if record == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "transcript not found"})
	}

	text, segments, err := resolveTranscript(record)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	info := transcript.ExportInfo{
		JobID:            job.ID,
		OriginalFilename: job.OriginalFilename,
		SourceURL:        job.SourceURL,
		Model:            job.Model,
		Language:         job.Language,
	}
	data, err := transcript.BuildExport(format, info, text, segments)
	if err != nil {
		if errors.Is(err, transcript.ErrNoSegments) {
			return c.JSON(http.StatusBadRequest, map[string]string{
				"error": "this transcript has no timestamped segments; only txt and json exports are available",
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	filename := exportFilename(job, format)
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, transcript.ContentType(format), data)
}

// exportFilename derives the download name from the original filename
// stem, falling back to a short job id.
func exportFilename(job *models.Job, format string) string {
	base := strings.TrimSuffix(job.OriginalFilename, filepath.Ext(job.OriginalFilename))
	if base == "" {
		id := job.ID
		if len(id) > 8 {
			id = id[:8]
		}
		base = "transcript_" + id
	}
	return base + "." + format
}
