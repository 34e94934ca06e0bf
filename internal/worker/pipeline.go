package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"scriba/internal/asr"
	"scriba/internal/audio"
	"scriba/internal/config"
	"scriba/internal/models"
	"scriba/internal/transcript"
	"scriba/internal/youtube"
)

// Runner executes the type-specific processing for a claimed job and
// returns the artifact paths to persist.
type Runner interface {
	Run(ctx context.Context, job *models.Job) (transcript.Paths, error)
}

// Pipeline routes a job to its processing flow and owns the adapters
// the flows share. The default-model transcriber is created on first
// use and kept; a job requesting a different model or a forced language
// gets a transient transcriber that is closed when the job finishes.
type Pipeline struct {
	cfg   config.Config
	audio *audio.Processor
	yt    *youtube.Client

	defaultASR *asr.Transcriber
}

func NewPipeline(cfg config.Config) *Pipeline {
	return &Pipeline{
		cfg:   cfg,
		audio: audio.NewProcessor(cfg.AudioSampleRate, cfg.AudioChannels, cfg.AudioTimeout),
		yt:    youtube.NewClient(),
	}
}

// Close releases the loaded recognizer, if any.
func (p *Pipeline) Close() error {
	if p.defaultASR != nil {
		err := p.defaultASR.Close()
		p.defaultASR = nil
		return err
	}
	return nil
}

// Run executes the flow for job's type. All artifacts are written under
// the per-job output directory; intermediate files are removed whether
// the flow succeeds or fails.
func (p *Pipeline) Run(ctx context.Context, job *models.Job) (transcript.Paths, error) {
	switch job.Type {
	case models.JobTypeFileUpload:
		return p.runFileUpload(ctx, job)
	case models.JobTypeYouTubeCaptions:
		return p.runYouTubeCaptions(ctx, job)
	case models.JobTypeYouTubeAutoIngest:
		return p.runYouTubeAutoIngest(ctx, job)
	default:
		return transcript.Paths{}, inputErr(nil, "unknown job type %q", job.Type)
	}
}

// runFileUpload transcribes an uploaded media file: normalize to the
// recognizer's WAV format, recognize, write artifacts.
func (p *Pipeline) runFileUpload(ctx context.Context, job *models.Job) (transcript.Paths, error) {
	if job.StoredFilename == "" {
		return transcript.Paths{}, inputErr(nil, "job has no stored file")
	}
	inputPath := filepath.Join(p.cfg.UploadsDir, job.StoredFilename)
	if _, err := os.Stat(inputPath); err != nil {
		return transcript.Paths{}, inputErr(err, "uploaded file not found: %s", job.StoredFilename)
	}

	outDir := p.cfg.JobOutputDir(job.ID)
	normalized := filepath.Join(outDir, "audio_normalized.wav")
	defer removeFile(normalized)

	if err := p.audio.Normalize(ctx, inputPath, normalized); err != nil {
		if errors.Is(err, audio.ErrNoAudioTrack) {
			return transcript.Paths{}, inputErr(err, "file contains no audio")
		}
		return transcript.Paths{}, engineErr(err, "audio conversion failed")
	}

	result, err := p.transcribe(job, normalized)
	if err != nil {
		return transcript.Paths{}, err
	}

	metadata := map[string]any{
		"job_id":               job.ID,
		"model":                job.Model,
		"language":             result.Language,
		"language_probability": result.Confidence,
		"duration":             result.Duration,
		"original_filename":    job.OriginalFilename,
	}
	return p.writeArtifacts(outDir, result.Segments, metadata)
}

// runYouTubeCaptions fetches existing captions without downloading any
// media. A video with no captions is a policy refusal pointing the user
// at the upload flow, not an engine failure.
func (p *Pipeline) runYouTubeCaptions(ctx context.Context, job *models.Job) (transcript.Paths, error) {
	if job.SourceURL == "" {
		return transcript.Paths{}, inputErr(nil, "job has no source URL")
	}

	info, err := p.yt.GetInfo(job.SourceURL)
	if err != nil {
		return transcript.Paths{}, classifyURLError(err, "failed to fetch video info")
	}

	lang := job.Language
	if lang == "" || lang == "auto" {
		lang = "en"
	}

	fetch, err := p.yt.FetchCaptionsFor(info, lang)
	if err != nil {
		return transcript.Paths{}, engineErr(err, "caption download failed")
	}
	if !fetch.Available {
		return transcript.Paths{}, policyErr("No captions available for this video. Please upload the file directly instead.")
	}

	metadata := map[string]any{
		"job_id":           job.ID,
		"source":           "youtube_captions",
		"source_url":       job.SourceURL,
		"video_id":         info.VideoID,
		"title":            info.Title,
		"channel":          info.Channel,
		"duration":         info.Duration.Seconds(),
		"caption_language": fetch.Language,
		"auto_generated":   fetch.AutoGen,
	}
	return p.writeArtifacts(p.cfg.JobOutputDir(job.ID), fetch.Segments, metadata)
}

// runYouTubeAutoIngest downloads the audio stream and transcribes it
// like an upload. The flow is gated by configuration and by a duration
// ceiling; both refusals are policy errors with actionable messages.
func (p *Pipeline) runYouTubeAutoIngest(ctx context.Context, job *models.Job) (transcript.Paths, error) {
	if !p.cfg.AutoIngestEnabled {
		return transcript.Paths{}, policyErr("YouTube auto-ingest is disabled. Set YOUTUBE_AUTO_INGEST=true to enable it.")
	}
	if job.SourceURL == "" {
		return transcript.Paths{}, inputErr(nil, "job has no source URL")
	}

	info, err := p.yt.GetInfo(job.SourceURL)
	if err != nil {
		return transcript.Paths{}, classifyURLError(err, "failed to fetch video info")
	}
	if p.cfg.MaxVideoDuration > 0 && info.Duration > p.cfg.MaxVideoDuration {
		return transcript.Paths{}, policyErr("Video duration %s exceeds the limit of %s.", info.Duration, p.cfg.MaxVideoDuration)
	}

	downloaded, err := p.yt.DownloadAudio(ctx, job.SourceURL, p.cfg.YouTubeTmp, p.cfg.MaxDownloadBytes)
	if err != nil {
		if errors.Is(err, youtube.ErrDownloadTooLarge) {
			return transcript.Paths{}, policyErr("Audio stream exceeds the download size limit.")
		}
		return transcript.Paths{}, classifyURLError(err, "audio download failed")
	}
	defer youtube.CleanupDownload(downloaded)

	// Live streams and some formats report no duration in the listing;
	// enforce the ceiling against the downloaded file instead.
	if p.cfg.MaxVideoDuration > 0 && info.Duration <= 0 {
		seconds, err := p.audio.Duration(ctx, downloaded)
		if err != nil {
			return transcript.Paths{}, engineErr(err, "failed to probe downloaded audio")
		}
		if actual := time.Duration(seconds * float64(time.Second)); actual > p.cfg.MaxVideoDuration {
			return transcript.Paths{}, policyErr("Video duration %s exceeds the limit of %s.", actual.Round(time.Second), p.cfg.MaxVideoDuration)
		}
	}

	outDir := p.cfg.JobOutputDir(job.ID)
	normalized := filepath.Join(outDir, "audio_normalized.wav")
	defer removeFile(normalized)

	if err := p.audio.Normalize(ctx, downloaded, normalized); err != nil {
		if errors.Is(err, audio.ErrNoAudioTrack) {
			return transcript.Paths{}, inputErr(err, "video contains no audio")
		}
		return transcript.Paths{}, engineErr(err, "audio conversion failed")
	}

	result, err := p.transcribe(job, normalized)
	if err != nil {
		return transcript.Paths{}, err
	}

	metadata := map[string]any{
		"job_id":               job.ID,
		"source":               "youtube_auto_ingest",
		"source_url":           job.SourceURL,
		"video_id":             info.VideoID,
		"title":                info.Title,
		"channel":              info.Channel,
		"model":                job.Model,
		"language":             result.Language,
		"language_probability": result.Confidence,
		"duration":             result.Duration,
	}
	return p.writeArtifacts(outDir, result.Segments, metadata)
}

// transcribe runs recognition with the right transcriber for the job:
// the shared default instance when the job matches the default model
// with language detection, a transient one otherwise.
func (p *Pipeline) transcribe(job *models.Job, wavPath string) (*asr.Result, error) {
	forcedLang := job.Language != "" && job.Language != "auto"

	if job.Model == p.cfg.DefaultModel && !forcedLang {
		if p.defaultASR == nil {
			t, err := p.newTranscriber(p.cfg.DefaultModel, "auto")
			if err != nil {
				return nil, err
			}
			p.defaultASR = t
		}
		return p.decode(p.defaultASR, wavPath)
	}

	t, err := p.newTranscriber(job.Model, job.Language)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	return p.decode(t, wavPath)
}

func (p *Pipeline) newTranscriber(model, language string) (*asr.Transcriber, error) {
	asrCfg, err := asr.NewConfig(p.cfg.ModelDir, model, p.cfg.NumThreads)
	if err != nil {
		return nil, engineErr(err, "model %s is not available", model)
	}
	t, err := asr.NewTranscriber(asrCfg, language)
	if err != nil {
		return nil, engineErr(err, "failed to load model %s", model)
	}
	return t, nil
}

func (p *Pipeline) decode(t *asr.Transcriber, wavPath string) (*asr.Result, error) {
	result, err := t.Transcribe(wavPath)
	if err != nil {
		return nil, engineErr(err, "speech recognition failed")
	}
	return result, nil
}

// writeArtifacts renders the full artifact set into outDir.
func (p *Pipeline) writeArtifacts(outDir string, segments []transcript.Segment, metadata map[string]any) (transcript.Paths, error) {
	paths, err := transcript.NewFormatter(outDir).GenerateAll(segments, metadata)
	if err != nil {
		return transcript.Paths{}, fmt.Errorf("failed to write transcript artifacts: %w", err)
	}
	return paths, nil
}

// classifyURLError maps URL validation failures to input errors and
// everything else to engine errors.
func classifyURLError(err error, msg string) *JobError {
	if errors.Is(err, youtube.ErrDomainNotAllowed) || errors.Is(err, youtube.ErrInvalidVideoID) {
		return inputErr(err, "invalid YouTube URL")
	}
	return engineErr(err, "%s", msg)
}

func removeFile(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to remove %s: %v", path, err)
	}
}
