package services

import (
	"regexp"
	"sort"
	"strings"

	"deck-analysis-service/internal/nlp"
	"deck-analysis-service/models"
)

// EntityTagger classifies recognized spans into the four fixed categories.
// Three sources feed it: the language model's entity recognizer, the
// per-category gazetteers, and a corporate-suffix heuristic for
// organizations. Order within each category follows first occurrence in the
// text; repeated mentions are kept.
type EntityTagger struct {
	model *nlp.Model
}

func NewEntityTagger(model *nlp.Model) *EntityTagger {
	return &EntityTagger{model: model}
}

// Only these model labels map to categories. Other labels are discarded;
// technologies and markets have no label mapping and populate solely from
// operator-provided lexicons.
var labelCategories = map[string]string{
	"ORG":     "organizations",
	"PRODUCT": "products",
}

var gazetteerCategories = []string{"organizations", "products", "technologies", "markets"}

// Capitalized span ending in a corporate suffix, e.g. "Acme Corp".
var orgSuffixRe = regexp.MustCompile(`\b(?:[A-Z][A-Za-z0-9&.-]*\s+)+(?:Corp|Corporation|Inc|Incorporated|Ltd|Limited|LLC|GmbH|Co)\b\.?`)

type mention struct {
	start    int
	text     string
	category string
	source   int // merge priority: lower wins at the same offset
}

// Tag scans the parsed document and returns the populated entity set. All
// four category keys are always present.
func (t *EntityTagger) Tag(doc *nlp.Doc) models.EntitySet {
	var mentions []mention

	// Model entities, located in the raw text for ordering. The recognizer
	// yields spans in document order, so successive occurrences of the same
	// surface form advance a per-form cursor.
	cursor := make(map[string]int)
	for _, ent := range doc.Entities {
		category, ok := labelCategories[ent.Label]
		if !ok {
			continue
		}
		start := len(doc.Text) // unlocatable spans sort last
		from := cursor[ent.Text]
		if from <= len(doc.Text) {
			if pos := strings.Index(doc.Text[from:], ent.Text); pos >= 0 {
				start = from + pos
				cursor[ent.Text] = start + len(ent.Text)
			}
		}
		mentions = append(mentions, mention{start: start, text: ent.Text, category: category, source: 0})
	}

	// Gazetteer hits per category.
	for _, category := range gazetteerCategories {
		for _, m := range t.model.Gazetteer(category).FindAll(doc.Text) {
			mentions = append(mentions, mention{start: m.Start, text: m.Term, category: category, source: 1})
		}
	}

	// Corporate-suffix heuristic for organizations the model missed.
	for _, loc := range orgSuffixRe.FindAllStringIndex(doc.Text, -1) {
		text := strings.TrimSuffix(doc.Text[loc[0]:loc[1]], ".")
		mentions = append(mentions, mention{start: loc[0], text: text, category: "organizations", source: 2})
	}

	sort.SliceStable(mentions, func(i, j int) bool {
		if mentions[i].start != mentions[j].start {
			return mentions[i].start < mentions[j].start
		}
		return mentions[i].source < mentions[j].source
	})

	// Suppress cross-source duplicates of the same span; repeated mentions
	// at different offsets are deliberately kept.
	entities := models.NewEntitySet()
	type spanKey struct {
		start    int
		category string
	}
	seen := make(map[spanKey]bool)

	for _, m := range mentions {
		key := spanKey{start: m.start, category: m.category}
		if m.start < len(doc.Text) && seen[key] {
			continue
		}
		seen[key] = true

		switch m.category {
		case "organizations":
			entities.Organizations = append(entities.Organizations, m.text)
		case "products":
			entities.Products = append(entities.Products, m.text)
		case "technologies":
			entities.Technologies = append(entities.Technologies, m.text)
		case "markets":
			entities.Markets = append(entities.Markets, m.text)
		}
	}

	return entities
}
