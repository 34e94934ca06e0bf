package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ytdl "github.com/kkdai/youtube/v2"
)

// ErrDownloadTooLarge is returned when the selected audio stream
// exceeds the configured size cap.
var ErrDownloadTooLarge = errors.New("audio stream exceeds maximum download size")

// DownloadAudio downloads the highest-bitrate audio-only stream to
// destDir and returns the local file path. Streams larger than maxBytes
// are rejected before any data is transferred; a failed transfer
// removes the partial file.
func (c *Client) DownloadAudio(ctx context.Context, rawURL, destDir string, maxBytes int64) (string, error) {
	videoID, err := ExtractVideoID(rawURL)
	if err != nil {
		return "", err
	}

	video, err := c.client.GetVideo(watchURL(videoID))
	if err != nil {
		return "", fmt.Errorf("failed to get video: %w", err)
	}

	format, err := selectAudioFormat(video.Formats)
	if err != nil {
		return "", err
	}
	if maxBytes > 0 && format.ContentLength > maxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrDownloadTooLarge, format.ContentLength, maxBytes)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	stream, _, err := c.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return "", fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()

	outputPath := filepath.Join(destDir, videoID+extensionFor(format.MimeType))
	file, err := os.Create(outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	// ContentLength can be absent from the format listing; cap the copy
	// itself as the backstop.
	var reader io.Reader = stream
	if maxBytes > 0 {
		reader = io.LimitReader(stream, maxBytes+1)
	}

	written, err := io.Copy(file, reader)
	if err != nil {
		os.Remove(outputPath)
		return "", fmt.Errorf("download failed: %w", err)
	}
	if maxBytes > 0 && written > maxBytes {
		os.Remove(outputPath)
		return "", fmt.Errorf("%w: limit %d bytes", ErrDownloadTooLarge, maxBytes)
	}

	return outputPath, nil
}

// CleanupDownload removes a downloaded file, ignoring a file that is
// already gone.
func CleanupDownload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to clean up %s: %v", path, err)
	}
}

// selectAudioFormat picks the highest-bitrate audio-only format.
func selectAudioFormat(formats ytdl.FormatList) (*ytdl.Format, error) {
	var audio []ytdl.Format
	for _, f := range formats {
		if strings.HasPrefix(f.MimeType, "audio/") {
			audio = append(audio, f)
		}
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio formats available")
	}

	sort.Slice(audio, func(i, j int) bool {
		return audio[i].Bitrate > audio[j].Bitrate
	})
	return &audio[0], nil
}

func extensionFor(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp4"):
		return ".m4a"
	case strings.Contains(mimeType, "webm"):
		return ".webm"
	default:
		return ".audio"
	}
}
