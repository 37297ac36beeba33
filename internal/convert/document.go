package convert

import (
	"context"
	"fmt"
	"strings"
)

// ConvertDocument turns a document upload into JSONL, one page object per
// line. PDF pages keep their position in the source file even when blank
// pages are dropped; other formats produce a single page.
func ConvertDocument(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	switch mimeType {
	case mimePDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("extract pdf: %w", err)
		}
		return encodePages(SplitPages(text))
	case mimeDOCX:
		text, err := extractDOCX(data)
		if err != nil {
			return "", fmt.Errorf("extract docx: %w", err)
		}
		return EncodeLines([]PageLine{{Page: 1, Content: strings.TrimSpace(text)}})
	case mimeText, mimeMarkdown:
		return EncodeLines([]PageLine{{Page: 1, Content: strings.TrimSpace(string(data))}})
	default:
		return "", ErrUnsupportedDocument
	}
}

// encodePages numbers segments by split position, then drops the empty ones.
// A blank page in the middle of a PDF leaves a gap in the numbering rather
// than shifting every later page.
func encodePages(segments []string) (string, error) {
	lines := make([]PageLine, 0, len(segments))
	for i, seg := range segments {
		content := strings.TrimSpace(seg)
		if content == "" {
			continue
		}
		lines = append(lines, PageLine{Page: i + 1, Content: content})
	}
	return EncodeLines(lines)
}
