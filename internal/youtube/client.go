package youtube

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	ytdl "github.com/kkdai/youtube/v2"
)

// URL validation failures. These are input errors: the job can never
// succeed with this URL.
var (
	ErrDomainNotAllowed = errors.New("only youtube.com and youtu.be URLs are accepted")
	ErrInvalidVideoID   = errors.New("could not extract a valid video id from URL")
)

// allowedDomains is the strict allowlist for source URLs.
var allowedDomains = map[string]bool{
	"youtube.com":     true,
	"www.youtube.com": true,
	"m.youtube.com":   true,
	"youtu.be":        true,
	"www.youtu.be":    true,
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Client wraps the YouTube API operations used by the pipelines.
type Client struct {
	client ytdl.Client
}

// NewClient creates a new YouTube client
func NewClient() *Client {
	return &Client{client: ytdl.Client{}}
}

// VideoInfo is the metadata for a video
type VideoInfo struct {
	VideoID  string
	Title    string
	Channel  string
	Duration time.Duration
	Captions []CaptionTrack
}

// CaptionTrack describes one available caption track.
type CaptionTrack struct {
	LanguageCode string
	Name         string
	BaseURL      string
	AutoGen      bool // true for auto-generated (ASR) tracks
}

// HasCaptions reports whether any caption track is available.
func (v *VideoInfo) HasCaptions() bool {
	return len(v.Captions) > 0
}

// ExtractVideoID validates a URL against the domain allowlist and
// returns the 11-character video id. Watch, short-URL, shorts and embed
// forms are accepted.
func ExtractVideoID(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL format: %w", err)
	}

	domain := strings.ToLower(parsed.Hostname())
	if !allowedDomains[domain] {
		return "", fmt.Errorf("%w: domain %q", ErrDomainNotAllowed, domain)
	}

	var videoID string
	switch {
	case strings.Contains(domain, "youtu.be"):
		videoID = strings.SplitN(strings.Trim(parsed.Path, "/"), "/", 2)[0]
	case strings.Contains(parsed.Path, "/shorts/"):
		videoID = pathSegmentAfter(parsed.Path, "/shorts/")
	case strings.Contains(parsed.Path, "/embed/"):
		videoID = pathSegmentAfter(parsed.Path, "/embed/")
	default:
		videoID = parsed.Query().Get("v")
	}

	if !videoIDPattern.MatchString(videoID) {
		return "", fmt.Errorf("%w: %s", ErrInvalidVideoID, rawURL)
	}
	return videoID, nil
}

// GetInfo fetches video metadata without downloading anything.
func (c *Client) GetInfo(rawURL string) (*VideoInfo, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return nil, err
	}

	video, err := c.client.GetVideo(watchURL(videoID))
	if err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	captions := make([]CaptionTrack, len(video.CaptionTracks))
	for i, track := range video.CaptionTracks {
		captions[i] = CaptionTrack{
			LanguageCode: track.LanguageCode,
			Name:         track.Name.SimpleText,
			BaseURL:      track.BaseURL,
			AutoGen:      track.Kind == "asr",
		}
	}

	return &VideoInfo{
		VideoID:  video.ID,
		Title:    video.Title,
		Channel:  video.Author,
		Duration: video.Duration,
		Captions: captions,
	}, nil
}

func pathSegmentAfter(path, marker string) string {
	rest := path[strings.Index(path, marker)+len(marker):]
	return strings.SplitN(rest, "/", 2)[0]
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
