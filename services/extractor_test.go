package services

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"
	"testing"

	"deck-analysis-service/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPPTX assembles a minimal OOXML deck with one slide per text.
func buildPPTX(t *testing.T, slideTexts ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for i, text := range slideTexts {
		w, err := zw.Create(fmt.Sprintf("ppt/slides/slide%d.xml", i+1))
		require.NoError(t, err)
		slide := fmt.Sprintf(
			`<?xml version="1.0"?><p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`,
			text,
		)
		_, err = w.Write([]byte(slide))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPPTXPreservesSlideOrder(t *testing.T) {
	e := NewTextExtractor()
	data := buildPPTX(t, "Acme Corp builds widgets.", "Our market is logistics.")

	result, err := e.Extract("deck.pptx", data)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Pages)

	segments := strings.Split(result.Text, "\n")
	require.Len(t, segments, 2)
	assert.Equal(t, "Acme Corp builds widgets.", segments[0])
	assert.Equal(t, "Our market is logistics.", segments[1])
}

func TestExtractPPTXManySlides(t *testing.T) {
	e := NewTextExtractor()

	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("Slide number %d.", i+1)
	}
	data := buildPPTX(t, texts...)

	result, err := e.Extract("deck.pptx", data)
	require.NoError(t, err)
	assert.Equal(t, 12, result.Pages)

	// slide10.xml must not sort before slide2.xml
	segments := strings.Split(result.Text, "\n")
	require.Len(t, segments, 12)
	assert.Equal(t, "Slide number 2.", segments[1])
	assert.Equal(t, "Slide number 10.", segments[9])
}

func TestExtractMalformedPDF(t *testing.T) {
	e := NewTextExtractor()

	_, err := e.Extract("report.pdf", []byte("this is not a pdf"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
}

func TestExtractMalformedPPTX(t *testing.T) {
	e := NewTextExtractor()

	_, err := e.Extract("deck.pptx", []byte("not a zip archive"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
}

func TestExtractLegacyPPT(t *testing.T) {
	e := NewTextExtractor()

	_, err := e.Extract("deck.ppt", []byte{0xd0, 0xcf, 0x11, 0xe0})
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := NewTextExtractor()

	_, err := e.Extract("notes.txt", []byte("plain text"))
	require.Error(t, err)
	assert.Equal(t, apperr.KindExtraction, apperr.KindOf(err))
}
