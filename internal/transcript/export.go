package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrNoSegments is returned when a timestamp-based export format is
// requested but no segment data exists. Callers distinguish this from
// a missing transcript.
var ErrNoSegments = errors.New("export requires segment data with timestamps")

// Export formats accepted by the export path.
const (
	ExportTXT  = "txt"
	ExportSRT  = "srt"
	ExportVTT  = "vtt"
	ExportJSON = "json"
)

// ExportInfo carries the job fields embedded in a JSON export.
type ExportInfo struct {
	JobID            string `json:"job_id"`
	OriginalFilename string `json:"original_filename,omitempty"`
	SourceURL        string `json:"source_url,omitempty"`
	Model            string `json:"model"`
	Language         string `json:"language"`
}

// BuildExport renders the transcript in the requested format, preferring
// the edited text/segments over the generated ones. SRT and VTT need
// segment data and fail with ErrNoSegments without it.
func BuildExport(format string, info ExportInfo, text string, segments []Segment) ([]byte, error) {
	switch format {
	case ExportTXT:
		if text != "" {
			return []byte(text), nil
		}
		return []byte(JoinText(segments)), nil
	case ExportSRT:
		if len(segments) == 0 {
			return nil, ErrNoSegments
		}
		return []byte(FormatSRT(segments)), nil
	case ExportVTT:
		if len(segments) == 0 {
			return nil, ErrNoSegments
		}
		return []byte(FormatVTT(segments)), nil
	case ExportJSON:
		doc := struct {
			ExportInfo
			Text     string    `json:"text"`
			Segments []Segment `json:"segments"`
		}{ExportInfo: info, Text: text, Segments: segments}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal export: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ContentType returns the media type for an export format.
func ContentType(format string) string {
	switch format {
	case ExportSRT:
		return "application/x-subrip"
	case ExportVTT:
		return "text/vtt"
	case ExportJSON:
		return "application/json"
	default:
		return "text/plain"
	}
}

// LoadArtifactSegments reads segments back from a generated
// segments.json artifact. A missing file yields an empty slice.
func LoadArtifactSegments(path string) ([]Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read segments artifact: %w", err)
	}

	var doc struct {
		Segments []Segment `json:"segments"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse segments artifact: %w", err)
	}
	Renumber(doc.Segments)
	return doc.Segments, nil
}

// LoadArtifactText reads the plain-text artifact. A missing file yields
// an empty string.
func LoadArtifactText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read text artifact: %w", err)
	}
	return string(data), nil
}
