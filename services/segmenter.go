package services

import (
	"strings"

	"deck-analysis-service/internal/nlp"
)

// SentenceSegmenter splits parsed text into ordered, trimmed sentences. The
// language model itself is a process-level precondition checked at startup,
// so this stage never fails per request.
type SentenceSegmenter struct{}

func NewSentenceSegmenter() *SentenceSegmenter {
	return &SentenceSegmenter{}
}

// Segment returns the document's sentences in source order, each trimmed of
// surrounding whitespace. Text with zero detectable sentences yields an
// empty slice.
func (s *SentenceSegmenter) Segment(doc *nlp.Doc) []string {
	sentences := make([]string, 0, len(doc.Sentences))
	for _, raw := range doc.Sentences {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		sentences = append(sentences, trimmed)
	}
	return sentences
}
