package convert

import (
	"archive/zip"
	"bytes"
	"path/filepath"
	"strings"
)

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePPTX     = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	mimeText     = "text/plain"
	mimeMarkdown = "text/markdown"
)

// NormalizeMimeType lowercases and strips parameters from a MIME type, and
// resolves generic zip uploads to the OOXML type found inside the archive.
func NormalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	if clean != "application/zip" {
		return clean
	}

	if mapped := mapOOXMLFromZip(data); mapped != "" {
		return mapped
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return mimeDOCX
	case ".pptx":
		return mimePPTX
	default:
		return clean
	}
}

func mapOOXMLFromZip(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	for _, f := range zr.File {
		switch strings.ReplaceAll(f.Name, "\\", "/") {
		case "word/document.xml":
			return mimeDOCX
		case "ppt/presentation.xml":
			return mimePPTX
		}
	}
	return ""
}
