package asr

import (
	"fmt"
	"os"
	"strings"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"scriba/internal/transcript"
)

// Result is a completed transcription.
type Result struct {
	Segments   []transcript.Segment
	Language   string  // detected (or forced) language code
	Confidence float64 // 1 when the language was forced, 0 when detected
	Duration   float64 // audio duration in seconds
}

// Transcriber performs speech recognition with a sherpa-onnx Whisper
// model. One Transcriber owns one loaded model; a job requesting a
// different model gets its own transient Transcriber.
type Transcriber struct {
	config     *Config
	language   string
	recognizer *sherpa.OfflineRecognizer
}

// NewTranscriber loads the model described by config. language may be a
// code like "en" or empty/"auto" for detection.
func NewTranscriber(config *Config, language string) (*Transcriber, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if language == "auto" {
		language = ""
	}

	sherpaConfig := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: config.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig: sherpa.OfflineModelConfig{
			Whisper: sherpa.OfflineWhisperModelConfig{
				Encoder:  config.EncoderPath,
				Decoder:  config.DecoderPath,
				Language: language,
				Task:     "transcribe",
			},
			Tokens:     config.TokensPath,
			NumThreads: config.NumThreads,
			Debug:      0,
		},
	}

	recognizer := sherpa.NewOfflineRecognizer(&sherpaConfig)
	if recognizer == nil {
		return nil, fmt.Errorf("failed to create recognizer for model %s", config.Model)
	}

	return &Transcriber{
		config:     config,
		language:   language,
		recognizer: recognizer,
	}, nil
}

// Transcribe recognizes speech in a 16 kHz mono WAV file and returns
// timestamped segments.
func (t *Transcriber) Transcribe(audioPath string) (*Result, error) {
	samples, err := readWavFile(audioPath)
	if err != nil {
		return nil, err
	}

	stream := sherpa.NewOfflineStream(t.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(t.config.SampleRate, samples)
	t.recognizer.Decode(stream)
	result := stream.GetResult()

	audioDuration := float64(len(samples)) / float64(t.config.SampleRate)

	language := t.language
	confidence := 1.0
	if language == "" {
		language = normalizeLang(result.Lang)
		confidence = 0
	}

	return &Result{
		Segments:   buildSegments(result.Tokens, result.Timestamps, result.Text, audioDuration),
		Language:   language,
		Confidence: confidence,
		Duration:   audioDuration,
	}, nil
}

// Close releases resources used by the recognizer
func (t *Transcriber) Close() error {
	if t.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(t.recognizer)
		t.recognizer = nil
	}
	return nil
}

// Segmentation bounds: a new segment starts after a silence gap, at a
// sentence boundary, or when the current one grows too long.
const (
	segmentMaxGap      = 1.0  // seconds of silence that force a split
	segmentMaxDuration = 10.0 // seconds before a split is forced
)

// buildSegments groups decoded tokens into timestamped segments. When
// the model emits no token timestamps the whole text becomes a single
// segment spanning the audio.
func buildSegments(tokens []string, timestamps []float32, fullText string, audioDuration float64) []transcript.Segment {
	if len(tokens) == 0 || len(timestamps) < len(tokens) {
		text := strings.TrimSpace(fullText)
		if text == "" {
			return nil
		}
		return []transcript.Segment{{ID: 0, Start: 0, End: audioDuration, Text: text}}
	}

	var segments []transcript.Segment
	var sb strings.Builder
	segStart := float64(timestamps[0])
	lastTs := segStart

	flush := func(end float64) {
		text := strings.TrimSpace(sb.String())
		sb.Reset()
		if text == "" {
			return
		}
		segments = append(segments, transcript.Segment{
			ID:    len(segments),
			Start: segStart,
			End:   end,
			Text:  text,
		})
	}

	for i, token := range tokens {
		ts := float64(timestamps[i])
		if sb.Len() > 0 && (ts-lastTs > segmentMaxGap || ts-segStart > segmentMaxDuration) {
			flush(lastTs)
			segStart = ts
		}
		sb.WriteString(token)
		lastTs = ts
		if endsSentence(token) {
			end := ts
			if i+1 < len(tokens) {
				end = float64(timestamps[i+1])
			} else {
				end = audioDuration
			}
			flush(end)
			if i+1 < len(tokens) {
				segStart = float64(timestamps[i+1])
			}
		}
	}
	flush(audioDuration)

	return segments
}

func endsSentence(token string) bool {
	trimmed := strings.TrimRight(token, " ")
	return strings.HasSuffix(trimmed, ".") ||
		strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?") ||
		strings.HasSuffix(trimmed, "。")
}

// normalizeLang strips the whisper token wrapper from a detected
// language, e.g. "<|en|>" -> "en".
func normalizeLang(lang string) string {
	lang = strings.TrimPrefix(lang, "<|")
	lang = strings.TrimSuffix(lang, "|>")
	return lang
}

// readWavFile reads a WAV file and returns the audio samples
func readWavFile(path string) ([]float32, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", path)
	}

	wave := sherpa.ReadWave(path)
	if wave == nil || len(wave.Samples) == 0 {
		return nil, fmt.Errorf("failed to read WAV file or file is empty: %s", path)
	}
	return wave.Samples, nil
}
