package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"scriba/internal/models"
	"scriba/internal/storage"
	"scriba/internal/transcript"
)

// JobHandler serves job status, listing and transcript read/edit.
type JobHandler struct {
	jobRepo        *storage.JobRepository
	transcriptRepo *storage.TranscriptRepository
}

// NewJobHandler creates a new JobHandler
func NewJobHandler(jobRepo *storage.JobRepository, transcriptRepo *storage.TranscriptRepository) *JobHandler {
	return &JobHandler{jobRepo: jobRepo, transcriptRepo: transcriptRepo}
}

// List returns jobs newest first, optionally filtered by status
// GET /api/jobs?status=queued&limit=50&offset=0
func (h *JobHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	status := c.QueryParam("status")
	if status != "" {
		switch status {
		case models.JobStatusQueued, models.JobStatusRunning, models.JobStatusDone, models.JobStatusFailed:
		default:
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid status filter"})
		}
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	jobs, err := h.jobRepo.List(ctx, status, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	return c.JSON(http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// Get returns a single job
// GET /api/jobs/:id
func (h *JobHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	job, err := h.jobRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if job == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
	}
	return c.JSON(http.StatusOK, job)
}

// Stats returns job counts per status
// GET /api/stats
func (h *JobHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	counts, err := h.jobRepo.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, counts)
}

// TranscriptResponse is the transcript view for a job, with edits
// applied over the generated artifacts.
type TranscriptResponse struct {
	JobID    string               `json:"job_id"`
	Text     string               `json:"text"`
	Segments []transcript.Segment `json:"segments"`
	Edited   bool                 `json:"edited"`
}

// GetTranscript returns the current transcript for a done job
// GET /api/jobs/:id/transcript
func (h *JobHandler) GetTranscript(c echo.Context) error {
	job, record, code, msg := h.loadDoneJob(c)
	if code != 0 {
		return c.JSON(code, map[string]string{"error": msg})
	}

	text, segments, err := resolveTranscript(record)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, TranscriptResponse{
		JobID:    job.ID,
		Text:     text,
		Segments: segments,
		Edited:   record.Edited(),
	})
}

// UpdateTranscriptRequest carries a transcript edit. Either field may
// be omitted to leave that part untouched.
type UpdateTranscriptRequest struct {
	Text     string               `json:"text"`
	Segments []transcript.Segment `json:"segments"`
}

// UpdateTranscript saves user edits for a done job's transcript
// PUT /api/jobs/:id/transcript
func (h *JobHandler) UpdateTranscript(c echo.Context) error {
	ctx := c.Request().Context()

	job, record, code, msg := h.loadDoneJob(c)
	if code != 0 {
		return c.JSON(code, map[string]string{"error": msg})
	}

	var req UpdateTranscriptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Text == "" && len(req.Segments) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "nothing to update"})
	}

	for _, seg := range req.Segments {
		if !seg.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "segments must have 0 <= start <= end"})
		}
	}

	editedText := record.EditedText
	if req.Text != "" {
		editedText = req.Text
	}
	editedSegments := record.EditedSegmentsJSON
	if len(req.Segments) > 0 {
		transcript.Renumber(req.Segments)
		data, err := json.Marshal(req.Segments)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to encode segments"})
		}
		editedSegments = string(data)
	}

	if err := h.transcriptRepo.SaveEdits(ctx, job.ID, editedText, editedSegments); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "transcript updated"})
}

// loadDoneJob resolves the job and its transcript record, enforcing
// that the job exists and has finished successfully. A non-zero status
// code means the caller should respond with it and the message.
func (h *JobHandler) loadDoneJob(c echo.Context) (*models.Job, *models.TranscriptRecord, int, string) {
	ctx := c.Request().Context()

	job, err := h.jobRepo.GetByID(ctx, c.Param("id"))
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err.Error()
	}
	if job == nil {
		return nil, nil, http.StatusNotFound, "job not found"
	}
	if job.Status != models.JobStatusDone {
		// A failed job will never produce a transcript; a queued or
		// running one still might.
		if models.Terminal(job.Status) {
			return nil, nil, http.StatusConflict, "job failed and has no transcript"
		}
		return nil, nil, http.StatusConflict,
			"transcript is not ready yet (status: " + job.Status + ")"
	}

	record, err := h.transcriptRepo.Get(ctx, job.ID)
	if err != nil {
		return nil, nil, http.StatusInternalServerError, err.Error()
	}
	if record == nil {
		return nil, nil, http.StatusNotFound, "transcript not found"
	}
	return job, record, 0, ""
}

// resolveTranscript applies edit precedence: edited text and segments
// win over the generated artifacts.
func resolveTranscript(record *models.TranscriptRecord) (string, []transcript.Segment, error) {
	var segments []transcript.Segment
	if record.EditedSegmentsJSON != "" {
		if err := json.Unmarshal([]byte(record.EditedSegmentsJSON), &segments); err != nil {
			return "", nil, err
		}
		transcript.Renumber(segments)
	} else {
		var err error
		segments, err = transcript.LoadArtifactSegments(record.SegmentsJSONPath)
		if err != nil {
			return "", nil, err
		}
	}

	text := record.EditedText
	if text == "" {
		var err error
		text, err = transcript.LoadArtifactText(record.PlainTextPath)
		if err != nil {
			return "", nil, err
		}
	}
	if segments == nil {
		segments = []transcript.Segment{}
	}
	return text, segments, nil
}
