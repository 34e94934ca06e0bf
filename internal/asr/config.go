package asr

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the configuration for a Whisper recognizer
type Config struct {
	ModelDir    string // directory containing the exported model files
	Model       string // model size: tiny, base, small, medium
	EncoderPath string
	DecoderPath string
	TokensPath  string
	NumThreads  int
	SampleRate  int // audio sample rate (typically 16000)
}

// NewConfig locates the model files for the given size under baseDir.
// Models are expected in baseDir/whisper-<size>/, quantized versions
// preferred.
func NewConfig(baseDir, model string, numThreads int) (*Config, error) {
	modelDir := filepath.Join(baseDir, "whisper-"+model)

	config := &Config{
		ModelDir:   modelDir,
		Model:      model,
		NumThreads: numThreads,
		SampleRate: 16000,
	}

	encoder := findModelFile(modelDir, []string{
		model + "-encoder.int8.onnx",
		model + "-encoder.onnx",
		"encoder.int8.onnx",
		"encoder.onnx",
	})
	if encoder == "" {
		return nil, fmt.Errorf("encoder model not found in %s", modelDir)
	}
	config.EncoderPath = encoder

	decoder := findModelFile(modelDir, []string{
		model + "-decoder.int8.onnx",
		model + "-decoder.onnx",
		"decoder.int8.onnx",
		"decoder.onnx",
	})
	if decoder == "" {
		return nil, fmt.Errorf("decoder model not found in %s", modelDir)
	}
	config.DecoderPath = decoder

	tokens := findModelFile(modelDir, []string{
		model + "-tokens.txt",
		"tokens.txt",
	})
	if tokens == "" {
		return nil, fmt.Errorf("tokens.txt not found in %s", modelDir)
	}
	config.TokensPath = tokens

	return config, nil
}

// Validate checks if all required model files exist
func (c *Config) Validate() error {
	files := map[string]string{
		"encoder": c.EncoderPath,
		"decoder": c.DecoderPath,
		"tokens":  c.TokensPath,
	}
	for name, path := range files {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("%s file not found: %s", name, path)
		}
	}
	return nil
}

// findModelFile returns the first candidate that exists in dir.
func findModelFile(dir string, candidates []string) string {
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
