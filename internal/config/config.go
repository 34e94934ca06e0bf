package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all service settings. It is built once at process start
// and passed into the worker and handlers; nothing reads the environment
// after that.
type Config struct {
	// Storage
	DatabasePath string
	DataDir      string
	UploadsDir   string
	OutputsDir   string
	YouTubeTmp   string

	// HTTP
	Port string

	// Worker behavior
	PollInterval time.Duration

	// Transcription
	ModelDir     string // base directory containing whisper model dirs
	DefaultModel string // tiny, base, small, medium
	NumThreads   int

	// Audio processing
	AudioSampleRate int
	AudioChannels   int
	AudioTimeout    time.Duration

	// YouTube
	AutoIngestEnabled bool
	MaxVideoDuration  time.Duration
	MaxDownloadBytes  int64

	// Uploads
	MaxUploadBytes int64
}

// Load builds a Config from environment variables with defaults.
func Load() Config {
	dataDir := getenv("DATA_DIR", "./data")

	return Config{
		DatabasePath: getenv("DATABASE_PATH", filepath.Join(dataDir, "transcripts.db")),
		DataDir:      dataDir,
		UploadsDir:   filepath.Join(dataDir, "uploads"),
		OutputsDir:   filepath.Join(dataDir, "outputs"),
		YouTubeTmp:   filepath.Join(dataDir, "youtube_tmp"),

		Port: getenv("PORT", "8080"),

		PollInterval: time.Duration(getenvInt("WORKER_POLL_INTERVAL", 5)) * time.Second,

		ModelDir:     getenv("ASR_MODEL_DIR", "./models"),
		DefaultModel: getenv("ASR_MODEL", "small"),
		NumThreads:   getenvInt("ASR_NUM_THREADS", 4),

		AudioSampleRate: getenvInt("AUDIO_SAMPLE_RATE", 16000),
		AudioChannels:   getenvInt("AUDIO_CHANNELS", 1),
		AudioTimeout:    time.Duration(getenvInt("AUDIO_TIMEOUT", 600)) * time.Second,

		AutoIngestEnabled: getenvBool("YOUTUBE_AUTO_INGEST", false),
		MaxVideoDuration:  time.Duration(getenvInt("YOUTUBE_MAX_DURATION", 3600)) * time.Second,
		MaxDownloadBytes:  int64(getenvInt("YOUTUBE_MAX_SIZE_MB", 500)) * 1024 * 1024,

		MaxUploadBytes: int64(getenvInt("MAX_UPLOAD_SIZE_MB", 2048)) * 1024 * 1024,
	}
}

// EnsureDirectories creates the data directories if they do not exist.
func (c Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.UploadsDir, c.OutputsDir, c.YouTubeTmp} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// JobOutputDir returns the per-job output directory. The id is sanitized
// so a malformed id can never escape the outputs tree.
func (c Config) JobOutputDir(jobID string) string {
	safe := make([]rune, 0, len(jobID))
	for _, r := range jobID {
		if r == '-' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			safe = append(safe, r)
		}
	}
	return filepath.Join(c.OutputsDir, string(safe))
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
