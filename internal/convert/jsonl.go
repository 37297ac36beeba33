package convert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SegmentLine is one JSONL record of an audio transcript.
type SegmentLine struct {
	Timestamp string  `json:"timestamp"`
	Text      string  `json:"text"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
}

// PageLine is one JSONL record of a document page.
type PageLine struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// SlideLine is one JSONL record of a presentation slide.
type SlideLine struct {
	Slide   int    `json:"slide"`
	Content string `json:"content"`
}

// EncodeLines marshals records into newline-delimited JSON, one object per
// line, no trailing newline.
func EncodeLines[T any](records []T) (string, error) {
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("encode jsonl line: %w", err)
		}
		lines = append(lines, string(data))
	}
	return strings.Join(lines, "\n"), nil
}

// FormatTimestamp renders seconds as zero-padded HH:MM:SS, truncating any
// sub-second part.
func FormatTimestamp(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
