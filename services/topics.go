package services

import (
	"strings"

	"deck-analysis-service/internal/nlp"
)

// TopicExtractor derives candidate topic phrases from noun phrases in the
// tagged text. It is an approximate heuristic, deliberately far short of
// topic modeling: contiguous adjective/noun runs ending in a noun, unique,
// capped at maxTopics.
type TopicExtractor struct{}

const maxTopics = 10

func NewTopicExtractor() *TopicExtractor {
	return &TopicExtractor{}
}

// ExtractTopics returns up to maxTopics unique noun phrases. Uniqueness is
// case-insensitive; the first-seen surface form is kept.
func (t *TopicExtractor) ExtractTopics(doc *nlp.Doc) []string {
	topics := make([]string, 0, maxTopics)
	seen := make(map[string]bool)

	var phrase []string
	hasNoun := false

	flush := func() {
		if hasNoun && len(phrase) > 0 {
			candidate := strings.Join(phrase, " ")
			key := strings.ToLower(candidate)
			if !seen[key] {
				seen[key] = true
				if len(topics) < maxTopics {
					topics = append(topics, candidate)
				}
			}
		}
		phrase = phrase[:0]
		hasNoun = false
	}

	for _, tok := range doc.Tokens {
		switch {
		case isNounTag(tok.Tag):
			phrase = append(phrase, tok.Text)
			hasNoun = true
		case isAdjectiveTag(tok.Tag) && !hasNoun:
			// Adjectives may open a phrase but a run without a noun is not
			// a noun phrase.
			phrase = append(phrase, tok.Text)
		default:
			flush()
		}
	}
	flush()

	return topics
}

func isNounTag(tag string) bool {
	return strings.HasPrefix(tag, "NN")
}

func isAdjectiveTag(tag string) bool {
	return strings.HasPrefix(tag, "JJ")
}
