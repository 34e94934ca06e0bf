package youtube

import (
	"errors"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"watch", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch no www", "https://youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short url with query", "https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ"},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractVideoID(tt.url)
			if err != nil {
				t.Fatalf("ExtractVideoID(%q): %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestExtractVideoIDRejects(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want error
	}{
		{"other domain", "https://vimeo.com/12345", ErrDomainNotAllowed},
		{"lookalike domain", "https://youtube.com.evil.example/watch?v=dQw4w9WgXcQ", ErrDomainNotAllowed},
		{"missing id", "https://www.youtube.com/watch", ErrInvalidVideoID},
		{"short id", "https://youtu.be/abc", ErrInvalidVideoID},
		{"bad characters", "https://www.youtube.com/watch?v=abc$def%20xyz", ErrInvalidVideoID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractVideoID(tt.url)
			if !errors.Is(err, tt.want) {
				t.Errorf("ExtractVideoID(%q) err = %v, want %v", tt.url, err, tt.want)
			}
		})
	}
}

func TestSelectAudioFormatNone(t *testing.T) {
	if _, err := selectAudioFormat(nil); err == nil {
		t.Error("expected error when no audio formats exist")
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
	}{
		{`audio/mp4; codecs="mp4a.40.2"`, ".m4a"},
		{`audio/webm; codecs="opus"`, ".webm"},
		{"audio/unknown", ".audio"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.mimeType); got != tt.want {
			t.Errorf("extensionFor(%q) = %q, want %q", tt.mimeType, got, tt.want)
		}
	}
}
