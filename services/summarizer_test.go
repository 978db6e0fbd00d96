package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestSummarizeSuccess(t *testing.T) {
	gen := &fakeGenerator{response: "  A concise summary.  "}
	s := NewSummarizerWithGenerator(gen, 30, 130, 2048)

	summary, err := s.Summarize(context.Background(), "The quarterly report covers revenue growth.")
	require.NoError(t, err)
	assert.Equal(t, "A concise summary.", summary)
	assert.Contains(t, gen.lastPrompt, "30 to 130 words")
	assert.Contains(t, gen.lastPrompt, "quarterly report")
}

func TestSummarizeGeneratorError(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("model overloaded")}
	s := NewSummarizerWithGenerator(gen, 30, 130, 2048)

	_, err := s.Summarize(context.Background(), "Some document text.")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestSummarizeEmptyModelOutput(t *testing.T) {
	gen := &fakeGenerator{response: "   "}
	s := NewSummarizerWithGenerator(gen, 30, 130, 2048)

	_, err := s.Summarize(context.Background(), "Some document text.")
	require.Error(t, err)
}

func TestSummarizeUnconfigured(t *testing.T) {
	s := NewSummarizerWithGenerator(nil, 30, 130, 2048)
	assert.False(t, s.Available())

	_, err := s.Summarize(context.Background(), "Some document text.")
	require.Error(t, err)
}

func TestSummarizerNilReceiver(t *testing.T) {
	var s *Summarizer
	assert.False(t, s.Available())
}

func TestNewSummarizerWithoutClient(t *testing.T) {
	s := NewSummarizer(nil, 30, 130, 2048)
	assert.False(t, s.Available())
}

func TestTruncateShortTextUntouched(t *testing.T) {
	s := NewSummarizerWithGenerator(&fakeGenerator{}, 30, 130, 2048)

	text := strings.Repeat("short input ", 50)
	assert.Equal(t, text, s.truncate(text))
}
