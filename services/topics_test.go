package services

import (
	"fmt"
	"testing"

	"deck-analysis-service/internal/nlp"

	"github.com/stretchr/testify/assert"
)

func tokens(pairs ...string) []nlp.Token {
	// pairs alternate text, tag
	toks := make([]nlp.Token, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		toks = append(toks, nlp.Token{Text: pairs[i], Tag: pairs[i+1]})
	}
	return toks
}

func TestExtractTopicsNounPhrases(t *testing.T) {
	te := NewTopicExtractor()
	doc := &nlp.Doc{Tokens: tokens(
		"Our", "PRP$",
		"supply", "NN",
		"chain", "NN",
		"uses", "VBZ",
		"predictive", "JJ",
		"models", "NNS",
		".", ".",
	)}

	topics := te.ExtractTopics(doc)
	assert.Equal(t, []string{"supply chain", "predictive models"}, topics)
}

func TestExtractTopicsDeduplicates(t *testing.T) {
	te := NewTopicExtractor()
	doc := &nlp.Doc{Tokens: tokens(
		"logistics", "NN",
		".", ".",
		"Logistics", "NN",
		".", ".",
	)}

	topics := te.ExtractTopics(doc)
	assert.Equal(t, []string{"logistics"}, topics)
}

func TestExtractTopicsCap(t *testing.T) {
	te := NewTopicExtractor()

	var toks []nlp.Token
	for i := 0; i < 25; i++ {
		toks = append(toks,
			nlp.Token{Text: fmt.Sprintf("topic%d", i), Tag: "NN"},
			nlp.Token{Text: ".", Tag: "."},
		)
	}
	doc := &nlp.Doc{Tokens: toks}

	topics := te.ExtractTopics(doc)
	assert.Len(t, topics, 10)

	seen := make(map[string]bool)
	for _, topic := range topics {
		assert.False(t, seen[topic], "duplicate topic %q", topic)
		seen[topic] = true
	}
}

func TestExtractTopicsAdjectiveWithoutNoun(t *testing.T) {
	te := NewTopicExtractor()
	doc := &nlp.Doc{Tokens: tokens(
		"fast", "JJ",
		"and", "CC",
		"cheap", "JJ",
		".", ".",
	)}

	assert.Empty(t, te.ExtractTopics(doc))
}

func TestExtractTopicsEmptyDoc(t *testing.T) {
	te := NewTopicExtractor()
	assert.Empty(t, te.ExtractTopics(&nlp.Doc{}))
}
