package convert

import (
	"context"
	"fmt"
	"strings"
)

// ConvertSlides turns a slide deck upload into JSONL, one slide object per
// line. Unlike documents, slides are renumbered from 1 after empty segments
// are dropped.
func ConvertSlides(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var segments []string
	switch mimeType {
	case mimePPTX:
		text, err := extractPPTX(data)
		if err != nil {
			return "", fmt.Errorf("extract pptx: %w", err)
		}
		segments = SplitSlides(text)
	case mimePDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf: %w", err)
		}
		segments = SplitFormFeed(text)
	default:
		// Non-deck uploads yield no slides rather than a type error.
		return "", ErrNoContent
	}

	lines := make([]SlideLine, 0, len(segments))
	for _, seg := range segments {
		content := strings.TrimSpace(seg)
		if content == "" {
			continue
		}
		lines = append(lines, SlideLine{Slide: len(lines) + 1, Content: content})
	}
	if len(lines) == 0 {
		return "", ErrNoContent
	}
	return EncodeLines(lines)
}
