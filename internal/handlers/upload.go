package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"scriba/internal/audio"
	"scriba/internal/config"
	"scriba/internal/models"
	"scriba/internal/storage"
)

// UploadHandler accepts media file uploads and enqueues transcription
// jobs for them.
type UploadHandler struct {
	cfg     config.Config
	jobRepo *storage.JobRepository
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(cfg config.Config, jobRepo *storage.JobRepository) *UploadHandler {
	return &UploadHandler{cfg: cfg, jobRepo: jobRepo}
}

// Upload stores an uploaded media file and enqueues a transcription job
// POST /api/upload
func (h *UploadHandler) Upload(c echo.Context) error {
	ctx := c.Request().Context()

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no file uploaded"})
	}

	if !audio.IsSupportedFormat(fileHeader.Filename) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("unsupported file format: %s", filepath.Ext(fileHeader.Filename)),
		})
	}
	if h.cfg.MaxUploadBytes > 0 && fileHeader.Size > h.cfg.MaxUploadBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{
			"error": fmt.Sprintf("file exceeds maximum upload size of %d MB", h.cfg.MaxUploadBytes/(1024*1024)),
		})
	}

	model := c.FormValue("model")
	if model == "" {
		model = h.cfg.DefaultModel
	}
	if !models.ValidModel(model) {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": fmt.Sprintf("invalid model %q: must be one of %s", model, strings.Join(models.ModelSizes, ", ")),
		})
	}

	// The stored name is prefixed with a fresh uuid so two uploads of the
	// same file never collide.
	storedName := uuid.New().String() + "_" + filepath.Base(fileHeader.Filename)
	storedPath := filepath.Join(h.cfg.UploadsDir, storedName)

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to open upload"})
	}
	defer src.Close()

	if err := saveUpload(src, storedPath); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to store file"})
	}

	job := &models.Job{
		Type:             models.JobTypeFileUpload,
		OriginalFilename: fileHeader.Filename,
		StoredFilename:   storedName,
		Model:            model,
		Language:         c.FormValue("language"),
	}
	if err := h.jobRepo.Create(ctx, job); err != nil {
		os.Remove(storedPath)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create job"})
	}

	return c.JSON(http.StatusAccepted, job)
}

func saveUpload(src io.Reader, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}
