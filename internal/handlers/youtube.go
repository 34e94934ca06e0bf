package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"scriba/internal/config"
	"scriba/internal/models"
	"scriba/internal/storage"
	"scriba/internal/youtube"
)

// YouTubeHandler accepts YouTube URLs and enqueues caption-fetch or
// auto-ingest jobs for them.
type YouTubeHandler struct {
	cfg     config.Config
	jobRepo *storage.JobRepository
	yt      *youtube.Client
}

// NewYouTubeHandler creates a new YouTubeHandler
func NewYouTubeHandler(cfg config.Config, jobRepo *storage.JobRepository, yt *youtube.Client) *YouTubeHandler {
	return &YouTubeHandler{cfg: cfg, jobRepo: jobRepo, yt: yt}
}

// SubmitRequest is the body for a YouTube submission. Mode "safe"
// fetches existing captions; mode "auto" downloads and transcribes the
// audio when auto-ingest is enabled.
type SubmitRequest struct {
	URL      string `json:"url"`
	Mode     string `json:"mode"`
	Language string `json:"language"`
	Model    string `json:"model"`
}

// Submit validates a YouTube URL and enqueues the matching job
// POST /api/youtube
func (h *YouTubeHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()

	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}

	videoID, err := youtube.ExtractVideoID(req.URL)
	if err != nil {
		if errors.Is(err, youtube.ErrDomainNotAllowed) || errors.Is(err, youtube.ErrInvalidVideoID) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid URL"})
	}

	jobType := models.JobTypeYouTubeCaptions
	switch req.Mode {
	case "", "safe":
	case "auto":
		if !h.cfg.AutoIngestEnabled {
			return c.JSON(http.StatusForbidden, map[string]string{
				"error": "YouTube auto-ingest is disabled on this server",
			})
		}
		jobType = models.JobTypeYouTubeAutoIngest
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "mode must be \"safe\" or \"auto\""})
	}

	if req.Model != "" && !models.ValidModel(req.Model) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid model: " + req.Model})
	}

	job := &models.Job{
		Type:      jobType,
		SourceURL: req.URL,
		Model:     req.Model,
		Language:  req.Language,
	}
	if err := h.jobRepo.Create(ctx, job); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
	}

	return c.JSON(http.StatusAccepted, map[string]any{
		"job":      job,
		"video_id": videoID,
	})
}

// Probe reports whether a video has captions without creating a job,
// so clients can steer the user toward upload when there are none
// GET /api/youtube/probe?url=...
func (h *YouTubeHandler) Probe(c echo.Context) error {
	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "url is required"})
	}

	info, err := h.yt.GetInfo(rawURL)
	if err != nil {
		if errors.Is(err, youtube.ErrDomainNotAllowed) || errors.Is(err, youtube.ErrInvalidVideoID) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "failed to fetch video info"})
	}

	resp := map[string]any{
		"video_id":     info.VideoID,
		"title":        info.Title,
		"channel":      info.Channel,
		"duration":     info.Duration.Seconds(),
		"has_captions": info.HasCaptions(),
	}
	if !info.HasCaptions() {
		resp["hint"] = "No captions available. Upload the file directly to transcribe it."
	}
	return c.JSON(http.StatusOK, resp)
}
