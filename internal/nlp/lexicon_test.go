package nlp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGazetteerFindAll(t *testing.T) {
	g := NewGazetteer([]string{"logistics", "Acme Corp"})

	matches := g.FindAll("Acme Corp moves into logistics. Logistics is growing.")
	require.Len(t, matches, 3)

	// Ordered by position, casing preserved from the text.
	assert.Equal(t, "Acme Corp", matches[0].Term)
	assert.Equal(t, 0, matches[0].Start)
	assert.Equal(t, "logistics", matches[1].Term)
	assert.Equal(t, "Logistics", matches[2].Term)
}

func TestGazetteerWordBoundary(t *testing.T) {
	g := NewGazetteer([]string{"ai"})

	assert.Empty(t, g.FindAll("chair maintenance"))
	assert.Len(t, g.FindAll("our AI platform"), 1)
}

func TestGazetteerNonASCIILowercasing(t *testing.T) {
	g := NewGazetteer([]string{"openai"})

	// "İ" (U+0130) lowercases to a shorter byte sequence; offsets into the
	// lowered text must still slice the original correctly.
	matches := g.FindAll("İ OpenAI")
	require.Len(t, matches, 1)
	assert.Equal(t, "OpenAI", matches[0].Term)
	assert.Equal(t, 3, matches[0].Start)

	// "Ⱥ" (U+023A) lowercases to a longer byte sequence.
	matches = g.FindAll("Ⱥ OpenAI")
	require.Len(t, matches, 1)
	assert.Equal(t, "OpenAI", matches[0].Term)
	assert.Equal(t, 3, matches[0].Start)
}

func TestGazetteerEmpty(t *testing.T) {
	g := NewGazetteer(nil)
	assert.Zero(t, g.Len())
	assert.Empty(t, g.FindAll("anything at all"))
}

func TestLoadLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "organizations.txt")
	content := "# seed organizations\nAcme Corp\n\nGlobex\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	terms, err := LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corp", "Globex"}, terms)
}

func TestLoadLexiconMissing(t *testing.T) {
	_, err := LoadLexicon(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestModelFromTermsGazetteers(t *testing.T) {
	m := NewModelFromTerms(map[string][]string{
		"markets": {"logistics"},
	}, 2)

	assert.Equal(t, 1, m.Gazetteer("markets").Len())
	// Unknown categories resolve to an empty matcher, never nil.
	assert.Zero(t, m.Gazetteer("unknown").Len())
}
