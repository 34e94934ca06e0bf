package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Failure modes callers branch on.
var (
	ErrNoAudioTrack = errors.New("input file has no audio track")
	ErrToolMissing  = errors.New("ffmpeg not found: please install ffmpeg")
	ErrTimeout      = errors.New("audio processing timed out")
)

// SupportedExtensions lists media formats accepted for upload.
var SupportedExtensions = []string{
	".mp3", ".wav", ".flac", ".ogg", ".m4a", ".aac", ".wma", ".opus",
	".mp4", ".mpeg", ".mpg", ".mkv", ".mov", ".avi", ".webm", ".flv", ".m4v",
}

// IsSupportedFormat checks if the file extension is a supported media format
func IsSupportedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, format := range SupportedExtensions {
		if ext == format {
			return true
		}
	}
	return false
}

// MediaInfo describes a probed media file.
type MediaInfo struct {
	Duration   float64
	HasAudio   bool
	HasVideo   bool
	AudioCodec string
	SampleRate int
}

// Processor extracts and normalizes audio with ffmpeg. The target
// format is what the recognizer expects: 16 kHz mono 16-bit PCM WAV.
type Processor struct {
	ffmpegPath  string
	ffprobePath string
	sampleRate  int
	channels    int
	timeout     time.Duration
}

// NewProcessor creates a Processor with the given target format and
// per-conversion timeout.
func NewProcessor(sampleRate, channels int, timeout time.Duration) *Processor {
	return &Processor{
		ffmpegPath:  "ffmpeg",
		ffprobePath: "ffprobe",
		sampleRate:  sampleRate,
		channels:    channels,
		timeout:     timeout,
	}
}

// Probe returns stream information for a media file via ffprobe.
func (p *Processor) Probe(ctx context.Context, inputPath string) (MediaInfo, error) {
	if _, err := exec.LookPath(p.ffprobePath); err != nil {
		return MediaInfo{}, ErrToolMissing
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return MediaInfo{}, fmt.Errorf("input file not found: %s", inputPath)
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		inputPath,
	)
	output, err := cmd.Output()
	if err != nil {
		return MediaInfo{}, fmt.Errorf("ffprobe failed: %w", err)
	}
	return parseProbeOutput(output)
}

// parseProbeOutput decodes ffprobe -print_format json output.
func parseProbeOutput(data []byte) (MediaInfo, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
		Streams []struct {
			CodecType  string `json:"codec_type"`
			CodecName  string `json:"codec_name"`
			SampleRate string `json:"sample_rate"`
		} `json:"streams"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return MediaInfo{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := MediaInfo{}
	if probe.Format.Duration != "" {
		d, err := strconv.ParseFloat(probe.Format.Duration, 64)
		if err != nil {
			return MediaInfo{}, fmt.Errorf("failed to parse duration: %w", err)
		}
		info.Duration = d
	}
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			if rate, err := strconv.Atoi(stream.SampleRate); err == nil {
				info.SampleRate = rate
			}
		case "video":
			info.HasVideo = true
		}
	}
	return info, nil
}

// Normalize extracts the audio track and converts it to the target WAV
// format with loudness normalization. A timed-out conversion removes
// any partial output file before returning.
func (p *Processor) Normalize(ctx context.Context, inputPath, outputPath string) error {
	if _, err := exec.LookPath(p.ffmpegPath); err != nil {
		return ErrToolMissing
	}
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	info, err := p.Probe(ctx, inputPath)
	if err != nil {
		return err
	}
	if !info.HasAudio {
		return ErrNoAudioTrack
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// Single-pass loudnorm with measured values typical for speech.
	cmd := exec.CommandContext(ctx, p.ffmpegPath,
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", strconv.Itoa(p.sampleRate),
		"-ac", strconv.Itoa(p.channels),
		"-af", "loudnorm=I=-16:TP=-1.5:LRA=11:measured_I=-20:measured_TP=-1:measured_LRA=9:measured_thresh=-31:offset=0:linear=true",
		outputPath,
	)

	output, err := cmd.CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		os.Remove(outputPath)
		return fmt.Errorf("%w after %s", ErrTimeout, p.timeout)
	}
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, tail(string(output), 500))
	}

	if _, err := os.Stat(outputPath); os.IsNotExist(err) {
		return fmt.Errorf("ffmpeg completed but output file not created")
	}
	return nil
}

// Duration returns the duration of a media file in seconds.
func (p *Processor) Duration(ctx context.Context, inputPath string) (float64, error) {
	info, err := p.Probe(ctx, inputPath)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// tail returns the last max bytes of s.
func tail(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
