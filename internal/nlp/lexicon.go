package nlp

import (
	"bufio"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	ahocorasick "github.com/cloudflare/ahocorasick"
)

// Match is one gazetteer hit located in the source text.
type Match struct {
	Term  string // surface form as it appears in the text
	Start int    // byte offset of the first character
}

// Gazetteer matches a fixed term list against text in a single pass.
// Matching is case-insensitive; the reported surface form preserves the
// casing found in the text.
type Gazetteer struct {
	terms   []string
	matcher *ahocorasick.Matcher
}

// NewGazetteer builds the matcher from terms. Blank terms are dropped.
func NewGazetteer(terms []string) *Gazetteer {
	cleaned := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			cleaned = append(cleaned, t)
		}
	}
	g := &Gazetteer{terms: cleaned}
	if len(cleaned) > 0 {
		g.matcher = ahocorasick.NewStringMatcher(cleaned)
	}
	return g
}

// Len returns the number of terms in the gazetteer.
func (g *Gazetteer) Len() int {
	return len(g.terms)
}

// FindAll returns every occurrence of every gazetteer term in text, ordered
// by position. The automaton gives the set of matched terms; occurrences are
// then located per term so callers get first-occurrence ordering.
func (g *Gazetteer) FindAll(text string) []Match {
	if g.matcher == nil || text == "" {
		return nil
	}

	lower, offsets := foldOffsets(text)
	hits := g.matcher.Match([]byte(lower))
	if len(hits) == 0 {
		return nil
	}

	var matches []Match
	for _, idx := range hits {
		term := g.terms[idx]
		for from := 0; ; {
			pos := strings.Index(lower[from:], term)
			if pos < 0 {
				break
			}
			start := from + pos
			if isWordBoundary(lower, start, len(term)) {
				matches = append(matches, Match{
					Term:  text[offsets[start]:offsets[start+len(term)]],
					Start: offsets[start],
				})
			}
			from = start + len(term)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Start < matches[j].Start })
	return matches
}

// foldOffsets lowercases text and maps every byte offset of the lowered form
// back to its originating offset. Lowercasing can change a rune's byte length
// ("İ" shrinks, "Ⱥ" grows), so lowered offsets must never index text directly.
func foldOffsets(text string) (string, []int) {
	var sb strings.Builder
	sb.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)

	for i, r := range text {
		low := unicode.ToLower(r)
		for j := 0; j < utf8.RuneLen(low); j++ {
			offsets = append(offsets, i)
		}
		sb.WriteRune(low)
	}
	offsets = append(offsets, len(text))
	return sb.String(), offsets
}

// isWordBoundary rejects matches embedded inside larger words.
func isWordBoundary(s string, start, length int) bool {
	if start > 0 && isWordChar(s[start-1]) {
		return false
	}
	end := start + length
	if end < len(s) && isWordChar(s[end]) {
		return false
	}
	return true
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// LoadLexicon reads one term per line, skipping blanks and # comments.
func LoadLexicon(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var terms []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		terms = append(terms, line)
	}
	return terms, scanner.Err()
}
