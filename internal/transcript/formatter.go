package transcript

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Artifact filenames written for every completed job.
const (
	JSONFileName = "segments.json"
	TextFileName = "transcript.txt"
	SRTFileName  = "transcript.srt"
	VTTFileName  = "transcript.vtt"
)

// Paths holds the locations of the four generated artifacts.
type Paths struct {
	JSON string `json:"json"`
	Text string `json:"txt"`
	SRT  string `json:"srt"`
	VTT  string `json:"vtt"`
}

// Formatter writes transcript artifacts into an output directory.
// All formatting is deterministic: the same segments and metadata
// always produce byte-identical files.
type Formatter struct {
	outputDir string
}

// NewFormatter creates a formatter writing into outputDir.
func NewFormatter(outputDir string) *Formatter {
	return &Formatter{outputDir: outputDir}
}

// GenerateAll writes the JSON, TXT, SRT and VTT artifacts and returns
// their paths.
func (f *Formatter) GenerateAll(segments []Segment, metadata map[string]any) (Paths, error) {
	if err := os.MkdirAll(f.outputDir, 0755); err != nil {
		return Paths{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	jsonContent, err := FormatJSON(segments, metadata)
	if err != nil {
		return Paths{}, err
	}

	paths := Paths{
		JSON: filepath.Join(f.outputDir, JSONFileName),
		Text: filepath.Join(f.outputDir, TextFileName),
		SRT:  filepath.Join(f.outputDir, SRTFileName),
		VTT:  filepath.Join(f.outputDir, VTTFileName),
	}

	files := []struct {
		path    string
		content []byte
	}{
		{paths.JSON, jsonContent},
		{paths.Text, []byte(FormatText(segments, false))},
		{paths.SRT, []byte(FormatSRT(segments))},
		{paths.VTT, []byte(FormatVTT(segments))},
	}
	for _, file := range files {
		if err := os.WriteFile(file.path, file.content, 0644); err != nil {
			return Paths{}, fmt.Errorf("failed to write %s: %w", filepath.Base(file.path), err)
		}
	}

	return paths, nil
}

// FormatJSON renders segments and metadata as the machine-readable
// artifact. Start/end are rounded to 3 decimal places and text is
// trimmed. Duration is the end of the last segment, omitted when there
// are no segments.
func FormatJSON(segments []Segment, metadata map[string]any) ([]byte, error) {
	type jsonSegment struct {
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	}

	out := make([]jsonSegment, 0, len(segments))
	for _, seg := range segments {
		out = append(out, jsonSegment{
			Start: round3(seg.Start),
			End:   round3(seg.End),
			Text:  strings.TrimSpace(seg.Text),
		})
	}

	doc := map[string]any{
		"segments":      out,
		"segment_count": len(segments),
	}
	if len(segments) > 0 {
		doc["duration"] = math.Round(segments[len(segments)-1].End*100) / 100
	}
	if metadata != nil {
		doc["metadata"] = metadata
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal segments: %w", err)
	}
	return data, nil
}

// FormatText renders the plain-text transcript. In the default mode
// segment texts are joined with single spaces; with timestamps enabled
// each segment becomes a "[MM:SS] text" line. Empty segments are
// skipped and whitespace runs collapsed in both modes.
func FormatText(segments []Segment, timestamps bool) string {
	if !timestamps {
		return JoinText(segments)
	}

	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := collapseWhitespace(seg.Text)
		if text == "" {
			continue
		}
		mins := int(seg.Start) / 60
		secs := int(seg.Start) % 60
		lines = append(lines, fmt.Sprintf("[%02d:%02d] %s", mins, secs, text))
	}
	return strings.Join(lines, "\n")
}

// FormatSRT renders segments as a SubRip subtitle file. The index is
// the 1-based position in the input list; segments whose text is empty
// after cleaning are skipped and leave a gap in the numbering.
func FormatSRT(segments []Segment) string {
	var sb strings.Builder
	for i, seg := range segments {
		text := cleanSubtitleText(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "%d\n%s --> %s\n%s\n\n",
			i+1,
			FormatSRTTime(seg.Start),
			FormatSRTTime(seg.End),
			text,
		)
	}
	return sb.String()
}

// FormatVTT renders segments as a WebVTT subtitle file. Blocks carry no
// index line; the header is followed by a blank line.
func FormatVTT(segments []Segment) string {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		text := cleanSubtitleText(seg.Text)
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "%s --> %s\n%s\n\n",
			FormatVTTTime(seg.Start),
			FormatVTTTime(seg.End),
			text,
		)
	}
	return sb.String()
}

// FormatSRTTime converts seconds to the SRT timestamp HH:MM:SS,mmm.
func FormatSRTTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

// FormatVTTTime converts seconds to the WebVTT timestamp HH:MM:SS.mmm.
func FormatVTTTime(seconds float64) string {
	h, m, s, ms := splitTime(seconds)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

// ParseTimestamp converts an SRT or VTT timestamp back to seconds. It
// accepts both the comma and period millisecond separators.
func ParseTimestamp(ts string) (float64, error) {
	var h, m, s, ms int
	normalized := strings.Replace(ts, ",", ".", 1)
	if _, err := fmt.Sscanf(normalized, "%d:%d:%d.%d", &h, &m, &s, &ms); err != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", ts, err)
	}
	return float64(h)*3600 + float64(m)*60 + float64(s) + float64(ms)/1000, nil
}

func splitTime(seconds float64) (h, m, s, ms int) {
	if seconds < 0 {
		seconds = 0
	}
	h = int(seconds / 3600)
	m = int(math.Mod(seconds, 3600) / 60)
	s = int(math.Mod(seconds, 60))
	ms = int(math.Mod(seconds, 1) * 1000)
	return h, m, s, ms
}

// cleanSubtitleText collapses whitespace and escapes HTML entities for
// subtitle output.
func cleanSubtitleText(text string) string {
	text = collapseWhitespace(text)
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
	)
	return replacer.Replace(text)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
