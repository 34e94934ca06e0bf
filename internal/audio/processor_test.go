package audio

import "testing"

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"recording.mp3", true},
		{"RECORDING.MP3", true},
		{"talk.wav", true},
		{"video.mkv", true},
		{"clip.webm", true},
		{"notes.txt", false},
		{"archive.zip", false},
		{"noextension", false},
	}
	for _, tt := range tests {
		if got := IsSupportedFormat(tt.filename); got != tt.want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}

func TestParseProbeOutput(t *testing.T) {
	data := []byte(`{
		"format": {"duration": "123.456"},
		"streams": [
			{"codec_type": "video", "codec_name": "h264"},
			{"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100"}
		]
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatal(err)
	}
	if info.Duration != 123.456 {
		t.Errorf("duration = %v", info.Duration)
	}
	if !info.HasAudio || !info.HasVideo {
		t.Errorf("streams not detected: %+v", info)
	}
	if info.AudioCodec != "aac" || info.SampleRate != 44100 {
		t.Errorf("audio stream fields: %+v", info)
	}
}

func TestParseProbeOutputVideoOnly(t *testing.T) {
	data := []byte(`{
		"format": {"duration": "10.0"},
		"streams": [{"codec_type": "video", "codec_name": "h264"}]
	}`)

	info, err := parseProbeOutput(data)
	if err != nil {
		t.Fatal(err)
	}
	if info.HasAudio {
		t.Error("video-only file reported an audio track")
	}
	if !info.HasVideo {
		t.Error("video stream not detected")
	}
}

func TestParseProbeOutputInvalid(t *testing.T) {
	if _, err := parseProbeOutput([]byte("garbage")); err == nil {
		t.Error("expected error for invalid probe output")
	}
}

func TestParseProbeOutputNoDuration(t *testing.T) {
	info, err := parseProbeOutput([]byte(`{"format": {}, "streams": []}`))
	if err != nil {
		t.Fatal(err)
	}
	if info.Duration != 0 {
		t.Errorf("duration = %v, want 0", info.Duration)
	}
}

func TestTail(t *testing.T) {
	if got := tail("hello", 10); got != "hello" {
		t.Errorf("tail short = %q", got)
	}
	if got := tail("hello world", 5); got != "world" {
		t.Errorf("tail long = %q", got)
	}
}
