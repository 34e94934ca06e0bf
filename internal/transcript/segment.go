package transcript

import "strings"

// Segment is a single timestamped unit of transcript text.
// Producers emit segments ordered by start time; consumers never re-sort.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"` // seconds
	End   float64 `json:"end"`   // seconds
	Text  string  `json:"text"`
}

// Valid reports whether the segment timing invariant 0 <= start <= end holds.
func (s Segment) Valid() bool {
	return s.Start >= 0 && s.Start <= s.End
}

// Renumber assigns sequential ids in slice order.
func Renumber(segments []Segment) {
	for i := range segments {
		segments[i].ID = i
	}
}

// JoinText joins the non-empty segment texts with single spaces.
func JoinText(segments []Segment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		text := collapseWhitespace(seg.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " ")
}

// collapseWhitespace trims the text and collapses internal runs of
// whitespace to a single space.
func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
