package services

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"deck-analysis-service/internal/apperr"
	"deck-analysis-service/internal/logger"

	"github.com/ledongthuc/pdf"
)

// TextExtractor converts raw document bytes into plain text. It is a pure
// function of its input; all state is per-call.
type TextExtractor struct{}

func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// ExtractionResult carries the extracted text plus the page/slide count.
type ExtractionResult struct {
	Text  string
	Pages int
}

// Extract dispatches on the filename suffix. The returned text is the
// newline-joined concatenation of per-page (or per-slide) text, in source
// order.
func (e *TextExtractor) Extract(filename string, data []byte) (*ExtractionResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return e.extractPDF(data)
	case ".pptx":
		return e.extractPPTX(data)
	case ".ppt":
		return nil, apperr.Extraction(nil, "legacy .ppt decks are not supported, convert to .pptx or PDF")
	default:
		return nil, apperr.Extraction(nil, "unsupported document type")
	}
}

// extractPDF walks every page in document order and concatenates each page's
// plain text with a newline separator.
func (e *TextExtractor) extractPDF(data []byte) (*ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.Extraction(err, "failed to parse PDF")
	}

	pages := reader.NumPage()
	pageTexts := make([]string, 0, pages)

	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pageTexts = append(pageTexts, "")
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Warn("Failed to extract text from page", "page", i, "error", err)
			pageTexts = append(pageTexts, "")
			continue
		}
		pageTexts = append(pageTexts, text)
	}

	return &ExtractionResult{
		Text:  strings.Join(pageTexts, "\n"),
		Pages: pages,
	}, nil
}

var slidePathRe = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// extractPPTX drains the text runs from each slide's XML inside the OOXML
// archive, slides ordered by slide number.
func (e *TextExtractor) extractPPTX(data []byte) (*ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, apperr.Extraction(err, "failed to parse PPTX archive")
	}

	type slide struct {
		num  int
		text string
	}
	var slides []slide

	for _, f := range zr.File {
		m := slidePathRe.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])

		rc, err := f.Open()
		if err != nil {
			return nil, apperr.Extraction(err, "failed to open slide %d", num)
		}
		text, err := drainSlideText(rc)
		rc.Close()
		if err != nil {
			return nil, apperr.Extraction(err, "failed to parse slide %d", num)
		}
		slides = append(slides, slide{num: num, text: text})
	}

	if len(slides) == 0 {
		return nil, apperr.Extraction(nil, "no slides found in PPTX")
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	texts := make([]string, len(slides))
	for i, s := range slides {
		texts[i] = s.text
	}

	return &ExtractionResult{
		Text:  strings.Join(texts, "\n"),
		Pages: len(slides),
	}, nil
}

// drainSlideText pulls the character data of every a:t run in a slide.
func drainSlideText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var sb strings.Builder
	inTextRun := false

	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("slide xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inTextRun = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inTextRun = false
				sb.WriteString(" ")
			}
		case xml.CharData:
			if inTextRun {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}
