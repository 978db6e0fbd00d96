package services

import (
	"context"
	"fmt"
	"strings"

	"deck-analysis-service/internal/ai"

	"github.com/pkoukk/tiktoken-go"
)

// TextGenerator is the model capability behind summarization.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Summarizer produces an abridged text within length bounds. It is an
// optional capability: a nil generator means the pipeline runs without
// summarization. Availability is decided once at startup, not per request.
type Summarizer struct {
	generator       TextGenerator
	minWords        int
	maxWords        int
	inputTokenLimit int
}

func NewSummarizer(client *ai.GeminiClient, minWords, maxWords, inputTokenLimit int) *Summarizer {
	var generator TextGenerator
	if client != nil {
		generator = client
	}
	return &Summarizer{
		generator:       generator,
		minWords:        minWords,
		maxWords:        maxWords,
		inputTokenLimit: inputTokenLimit,
	}
}

// NewSummarizerWithGenerator wires an arbitrary generator, used by tests.
func NewSummarizerWithGenerator(generator TextGenerator, minWords, maxWords, inputTokenLimit int) *Summarizer {
	return &Summarizer{
		generator:       generator,
		minWords:        minWords,
		maxWords:        maxWords,
		inputTokenLimit: inputTokenLimit,
	}
}

// Available reports whether the summarization capability was configured.
func (s *Summarizer) Available() bool {
	return s != nil && s.generator != nil
}

// Summarize truncates the input to the configured token budget and asks the
// model for a summary within the word bounds. Callers own the degradation
// policy; any error here must not abort their request.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	if !s.Available() {
		return "", fmt.Errorf("summarizer not configured")
	}

	truncated := s.truncate(text)
	prompt := fmt.Sprintf(
		"Summarize the following document in %d to %d words. Preserve key facts, names and numbers. Respond with the summary only.\n\nDocument:\n%s",
		s.minWords, s.maxWords, truncated,
	)

	summary, err := s.generator.GenerateText(ctx, prompt)
	if err != nil {
		return "", err
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return "", fmt.Errorf("model returned an empty summary")
	}
	return summary, nil
}

// truncate bounds the text handed to the model. Token-accurate when the
// encoding is available, with a character fallback so truncation never
// depends on the tokenizer loading.
func (s *Summarizer) truncate(text string) string {
	limit := s.inputTokenLimit
	if limit <= 0 {
		limit = 2048
	}

	// English text averages ~4 chars per token; at 2 chars per token the
	// text cannot exceed the budget, so skip the tokenizer entirely.
	if len(text) <= limit*2 {
		return text
	}

	tk, err := tiktoken.GetEncoding("cl100k_base")
	if err == nil {
		tokens := tk.Encode(text, nil, nil)
		if len(tokens) <= limit {
			return text
		}
		return tk.Decode(tokens[:limit])
	}

	// Rough 4 chars per token fallback
	maxChars := limit * 4
	if len(text) <= maxChars {
		return text
	}
	return text[:maxChars]
}
