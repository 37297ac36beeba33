package convert

import (
	"context"
	"io"
	"strings"
)

// TranscriptSegment is one timed span of speech from a transcription backend.
type TranscriptSegment struct {
	Start float64
	End   float64
	Text  string
}

// Transcription is the backend result for a whole audio file.
type Transcription struct {
	Text     string
	Segments []TranscriptSegment
}

// Transcriber converts an audio stream to timed text. The file name carries
// the extension some backends need to pick a decoder.
type Transcriber interface {
	Transcribe(ctx context.Context, r io.Reader, fileName string) (Transcription, error)
}

// ConvertAudio transcribes an audio stream and renders the result as JSONL,
// one segment object per line. When the backend returns no segments the full
// text becomes a single zero-timed line.
func ConvertAudio(ctx context.Context, t Transcriber, r io.Reader, fileName string) (string, error) {
	tr, err := t.Transcribe(ctx, r, fileName)
	if err != nil {
		return "", err
	}

	if len(tr.Segments) == 0 {
		line := SegmentLine{
			Timestamp: FormatTimestamp(0),
			Text:      strings.TrimSpace(tr.Text),
		}
		return EncodeLines([]SegmentLine{line})
	}

	lines := make([]SegmentLine, 0, len(tr.Segments))
	for _, seg := range tr.Segments {
		lines = append(lines, SegmentLine{
			Timestamp: FormatTimestamp(seg.Start),
			Text:      strings.TrimSpace(seg.Text),
			Start:     seg.Start,
			End:       seg.End,
		})
	}
	return EncodeLines(lines)
}
