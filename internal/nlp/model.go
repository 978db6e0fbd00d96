package nlp

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"deck-analysis-service/internal/apperr"
	"deck-analysis-service/internal/logger"

	prose "github.com/jdkato/prose/v2"
)

// Token is one tagged token of a parsed document.
type Token struct {
	Text string
	Tag  string
}

// Entity is one recognized entity span with its model label.
type Entity struct {
	Text  string
	Label string
}

// Doc is the parsed form of one document's text. It is produced once per
// request and shared by the segmentation, tagging and topic stages.
type Doc struct {
	Text      string
	Sentences []string
	Tokens    []Token
	Entities  []Entity
}

// Model wraps the process-wide language model: the statistical tokenizer,
// tagger and entity recognizer, plus the category gazetteers. It is loaded
// once at startup, read-only afterwards, and safe for concurrent use.
type Model struct {
	gazetteers map[string]*Gazetteer
	// Bounded pool for compute-heavy parsing so a burst of concurrent
	// requests cannot monopolize the scheduler.
	slots chan struct{}
}

// Lexicon files looked up in the lexicon directory. Missing files leave the
// corresponding gazetteer empty; the lexicons enrich tagging, they are not a
// startup precondition.
var lexiconFiles = map[string]string{
	"organizations": "organizations.txt",
	"products":      "products.txt",
	"technologies":  "technologies.txt",
	"markets":       "markets.txt",
}

// LoadModel loads the language model and warms it up. A warmup failure means
// the mandatory segmentation/tagging capability is unusable and the process
// must not start serving.
func LoadModel(lexiconDir string, workers int) (*Model, error) {
	if workers < 1 {
		workers = 1
	}

	// Warm up: the first parse loads the statistical model data. Failing
	// here keeps model problems out of the request path entirely.
	if _, err := prose.NewDocument("Service warmup sentence."); err != nil {
		return nil, apperr.ModelUnavailable(err, "language model failed to initialize")
	}

	m := &Model{
		gazetteers: make(map[string]*Gazetteer, len(lexiconFiles)),
		slots:      make(chan struct{}, workers),
	}

	for category, file := range lexiconFiles {
		terms, err := LoadLexicon(filepath.Join(lexiconDir, file))
		if err != nil {
			logger.Warn("Lexicon not loaded", "category", category, "file", file, "error", err)
			m.gazetteers[category] = NewGazetteer(nil)
			continue
		}
		m.gazetteers[category] = NewGazetteer(terms)
		logger.Info("Lexicon loaded", "category", category, "terms", len(terms))
	}

	return m, nil
}

// Parse runs the language model over text, bounded by the inference pool.
// Empty or whitespace-only text yields an empty Doc without touching the
// model, so zero detectable sentences is a normal outcome, not an error.
func (m *Model) Parse(ctx context.Context, text string) (*Doc, error) {
	if strings.TrimSpace(text) == "" {
		return &Doc{Text: text, Sentences: []string{}, Tokens: []Token{}, Entities: []Entity{}}, nil
	}

	select {
	case m.slots <- struct{}{}:
		defer func() { <-m.slots }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	pd, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("language model parse failed: %w", err)
	}

	doc := &Doc{Text: text}
	for _, s := range pd.Sentences() {
		doc.Sentences = append(doc.Sentences, s.Text)
	}
	for _, t := range pd.Tokens() {
		doc.Tokens = append(doc.Tokens, Token{Text: t.Text, Tag: t.Tag})
	}
	for _, e := range pd.Entities() {
		doc.Entities = append(doc.Entities, Entity{Text: e.Text, Label: e.Label})
	}
	return doc, nil
}

// NewModelFromTerms builds a model with in-memory lexicons, bypassing the
// filesystem and the warmup. Used by tests and embedded deployments.
func NewModelFromTerms(lexicons map[string][]string, workers int) *Model {
	if workers < 1 {
		workers = 1
	}
	m := &Model{
		gazetteers: make(map[string]*Gazetteer, len(lexicons)),
		slots:      make(chan struct{}, workers),
	}
	for category, terms := range lexicons {
		m.gazetteers[category] = NewGazetteer(terms)
	}
	return m
}

// Gazetteer returns the gazetteer for a category. Unknown categories get an
// empty matcher so callers never branch on presence.
func (m *Model) Gazetteer(category string) *Gazetteer {
	if g, ok := m.gazetteers[category]; ok {
		return g
	}
	return NewGazetteer(nil)
}
