package convert

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF pulls plain text from a PDF, page texts joined by form feeds so
// the splitters can recover page boundaries.
func extractPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return strings.Join(pages, "\f"), nil
}

// extractDOCX pulls paragraph text out of word/document.xml.
func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	raw, err := readZipFile(docFile)
	if err != nil {
		return "", err
	}
	return stripOOXML(string(raw)), nil
}

// extractPPTX pulls text from each ppt/slides/slideN.xml in deck order.
// Slide texts are joined by blank-line runs so SplitSlides can recover the
// boundaries.
func extractPPTX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty pptx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	type slideFile struct {
		num  int
		file *zip.File
	}
	var slides []slideFile
	for _, f := range zr.File {
		name := strings.ReplaceAll(f.Name, "\\", "/")
		if !strings.HasPrefix(name, "ppt/slides/slide") || !strings.HasSuffix(name, ".xml") {
			continue
		}
		numRaw := strings.TrimSuffix(strings.TrimPrefix(name, "ppt/slides/slide"), ".xml")
		num, err := strconv.Atoi(numRaw)
		if err != nil {
			continue
		}
		slides = append(slides, slideFile{num: num, file: f})
	}
	if len(slides) == 0 {
		return "", errors.New("no slides found in presentation")
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	texts := make([]string, 0, len(slides))
	for _, s := range slides {
		raw, err := readZipFile(s.file)
		if err != nil {
			return "", fmt.Errorf("slide %d: %w", s.num, err)
		}
		texts = append(texts, stripOOXML(string(raw)))
	}
	return strings.Join(texts, "\n\n\n"), nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// stripOOXML walks the XML token stream, keeping character data and turning
// paragraph and break ends into newlines.
func stripOOXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
