package youtube

import "testing"

func TestSelectTrackPriorities(t *testing.T) {
	manualJA := CaptionTrack{LanguageCode: "ja", AutoGen: false}
	manualEN := CaptionTrack{LanguageCode: "en", AutoGen: false}
	autoJA := CaptionTrack{LanguageCode: "ja", AutoGen: true}
	autoEN := CaptionTrack{LanguageCode: "en", AutoGen: true}
	manualFR := CaptionTrack{LanguageCode: "fr", AutoGen: false}

	tests := []struct {
		name   string
		tracks []CaptionTrack
		lang   string
		want   CaptionTrack
	}{
		{"manual preferred language wins", []CaptionTrack{autoJA, manualEN, manualJA}, "ja", manualJA},
		{"manual english over auto preferred", []CaptionTrack{autoJA, manualEN}, "ja", manualEN},
		{"auto preferred over auto english", []CaptionTrack{autoEN, autoJA}, "ja", autoJA},
		{"auto english as last resort match", []CaptionTrack{manualFR, autoEN}, "ja", autoEN},
		{"fallback to first track", []CaptionTrack{manualFR}, "ja", manualFR},
		{"regional variant matches base code", []CaptionTrack{{LanguageCode: "en-US"}}, "en", CaptionTrack{LanguageCode: "en-US"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectTrack(tt.tracks, tt.lang)
			if got == nil {
				t.Fatal("selectTrack returned nil")
			}
			if got.LanguageCode != tt.want.LanguageCode || got.AutoGen != tt.want.AutoGen {
				t.Errorf("got %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestSelectTrackEmpty(t *testing.T) {
	if got := selectTrack(nil, "en"); got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestLangMatches(t *testing.T) {
	tests := []struct {
		code, want string
		match      bool
	}{
		{"en", "en", true},
		{"en-US", "en", true},
		{"EN", "en", true},
		{"eng", "en", false},
		{"en", "", false},
		{"en", "auto", false},
	}
	for _, tt := range tests {
		if got := langMatches(tt.code, tt.want); got != tt.match {
			t.Errorf("langMatches(%q, %q) = %v, want %v", tt.code, tt.want, got, tt.match)
		}
	}
}

func TestParseTimedText(t *testing.T) {
	xml := `<?xml version="1.0" encoding="utf-8"?>
<timedtext format="3">
  <body>
    <p t="0" d="2500"><s>Hello </s><s>world</s></p>
    <p t="2500" d="1000"><s>  </s></p>
    <p t="3500" d="2000"><s>Goodbye</s></p>
  </body>
</timedtext>`

	segments, err := parseTimedText([]byte(xml))
	if err != nil {
		t.Fatal(err)
	}

	if len(segments) != 2 {
		t.Fatalf("got %d segments, want 2 (blank skipped)", len(segments))
	}
	if segments[0].Text != "Hello world" {
		t.Errorf("text = %q", segments[0].Text)
	}
	if segments[0].Start != 0 || segments[0].End != 2.5 {
		t.Errorf("timing = %v..%v, want 0..2.5", segments[0].Start, segments[0].End)
	}
	if segments[1].Start != 3.5 || segments[1].End != 5.5 {
		t.Errorf("timing = %v..%v, want 3.5..5.5", segments[1].Start, segments[1].End)
	}
	// Ids are sequential over emitted segments, not source paragraphs.
	if segments[0].ID != 0 || segments[1].ID != 1 {
		t.Errorf("ids = %d, %d", segments[0].ID, segments[1].ID)
	}
}

func TestParseTimedTextInvalid(t *testing.T) {
	if _, err := parseTimedText([]byte("not xml at all <<<")); err == nil {
		t.Error("expected parse error")
	}
}

func TestParseTimedTextEmpty(t *testing.T) {
	segments, err := parseTimedText([]byte(`<timedtext><body></body></timedtext>`))
	if err != nil {
		t.Fatal(err)
	}
	if len(segments) != 0 {
		t.Errorf("got %d segments, want 0", len(segments))
	}
}
