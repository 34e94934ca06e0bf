package youtube

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"

	"scriba/internal/transcript"
)

// CaptionFetch is the outcome of a caption lookup. A video without
// captions is an expected outcome, not an error: callers branch on
// Available.
type CaptionFetch struct {
	Available bool
	Language  string
	AutoGen   bool
	Segments  []transcript.Segment
}

// timedtext XML structure served by YouTube caption URLs
type xmlTranscript struct {
	XMLName xml.Name  `xml:"timedtext"`
	Body    []xmlText `xml:"body>p"`
}

type xmlText struct {
	Start    int64        `xml:"t,attr"` // milliseconds
	Duration int64        `xml:"d,attr"` // milliseconds
	Segments []xmlSegment `xml:"s"`
}

type xmlSegment struct {
	Text string `xml:",chardata"`
}

// FetchCaptions fetches the best caption track for the preferred
// language. Manually authored tracks are preferred over auto-generated
// ones, the preferred language over English, English over anything
// else.
func (c *Client) FetchCaptions(rawURL, preferredLanguage string) (*CaptionFetch, error) {
	info, err := c.GetInfo(rawURL)
	if err != nil {
		return nil, err
	}
	return c.FetchCaptionsFor(info, preferredLanguage)
}

// FetchCaptionsFor is FetchCaptions for already-fetched video info,
// avoiding a second metadata round trip.
func (c *Client) FetchCaptionsFor(info *VideoInfo, preferredLanguage string) (*CaptionFetch, error) {
	track := selectTrack(info.Captions, preferredLanguage)
	if track == nil {
		return &CaptionFetch{Available: false}, nil
	}

	segments, err := c.fetchTrack(track.BaseURL)
	if err != nil {
		return nil, err
	}

	return &CaptionFetch{
		Available: true,
		Language:  track.LanguageCode,
		AutoGen:   track.AutoGen,
		Segments:  segments,
	}, nil
}

// selectTrack picks a caption track by priority: manual in the
// preferred language, manual English, auto-generated in the preferred
// language, auto-generated English, then any track at all.
func selectTrack(tracks []CaptionTrack, preferredLanguage string) *CaptionTrack {
	if len(tracks) == 0 {
		return nil
	}

	type matcher func(t CaptionTrack) bool
	priorities := []matcher{
		func(t CaptionTrack) bool { return !t.AutoGen && langMatches(t.LanguageCode, preferredLanguage) },
		func(t CaptionTrack) bool { return !t.AutoGen && langMatches(t.LanguageCode, "en") },
		func(t CaptionTrack) bool { return t.AutoGen && langMatches(t.LanguageCode, preferredLanguage) },
		func(t CaptionTrack) bool { return t.AutoGen && langMatches(t.LanguageCode, "en") },
	}

	for _, matches := range priorities {
		for i := range tracks {
			if matches(tracks[i]) {
				return &tracks[i]
			}
		}
	}
	return &tracks[0]
}

// langMatches compares language codes ignoring regional suffixes, so
// "en-US" matches "en".
func langMatches(code, want string) bool {
	if want == "" || want == "auto" {
		return false
	}
	code = strings.ToLower(code)
	want = strings.ToLower(want)
	return code == want || strings.HasPrefix(code, want+"-")
}

// fetchTrack downloads and parses a timedtext caption track.
func (c *Client) fetchTrack(baseURL string) ([]transcript.Segment, error) {
	resp, err := http.Get(baseURL)
	if err != nil {
		return nil, fmt.Errorf("caption request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("caption request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read caption response: %w", err)
	}

	return parseTimedText(body)
}

// parseTimedText converts timedtext XML into ordered segments.
func parseTimedText(data []byte) ([]transcript.Segment, error) {
	var doc xmlTranscript
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse caption XML: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(doc.Body))
	for _, p := range doc.Body {
		var text strings.Builder
		for _, s := range p.Segments {
			text.WriteString(s.Text)
		}
		if strings.TrimSpace(text.String()) == "" {
			continue
		}

		start := float64(p.Start) / 1000
		segments = append(segments, transcript.Segment{
			ID:    len(segments),
			Start: start,
			End:   start + float64(p.Duration)/1000,
			Text:  text.String(),
		})
	}
	return segments, nil
}
