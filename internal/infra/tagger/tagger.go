// Package tagger buckets capitalized phrases from article text into
// people, organizations and locations using keyword heuristics.
package tagger

import (
	"strings"
	"unicode"

	"wiki-quiz/internal/domain/entity"
)

const (
	// MaxCandidates bounds how many distinct phrases are classified.
	MaxCandidates = 50
	// MaxPerBucket caps each entity bucket.
	MaxPerBucket = 10
	// maxPersonWords is the longest phrase still treated as a person's name.
	maxPersonWords = 3
)

var (
	stopWords = map[string]struct{}{
		"the": {}, "a": {}, "an": {}, "in": {}, "on": {}, "at": {}, "to": {}, "for": {},
	}

	organizationKeywords = []string{
		"University", "Institute", "Company", "Corporation", "Laboratory",
		"Organization", "Association", "Department", "College", "Agency",
	}

	locationKeywords = []string{
		"United States", "United Kingdom", "Kingdom", "Republic",
		"State", "City", "Country", "London", "Paris", "Berlin",
	}
)

// Tagger is stateless and safe for concurrent use.
type Tagger struct{}

// New creates a Tagger.
func New() *Tagger {
	return &Tagger{}
}

// Tag classifies the first MaxCandidates distinct capitalized phrases in fullText.
// The returned buckets are never nil.
func (t *Tagger) Tag(fullText string) entity.KeyEntities {
	entities := entity.KeyEntities{
		People:        []string{},
		Organizations: []string{},
		Locations:     []string{},
	}

	for _, phrase := range candidates(fullText) {
		if _, stop := stopWords[strings.ToLower(phrase)]; stop {
			continue
		}
		switch {
		case containsAny(phrase, organizationKeywords):
			entities.Organizations = appendCapped(entities.Organizations, phrase)
		case containsAny(phrase, locationKeywords):
			entities.Locations = appendCapped(entities.Locations, phrase)
		case len(strings.Fields(phrase)) <= maxPersonWords:
			entities.People = appendCapped(entities.People, phrase)
		}
	}

	return entities
}

// candidates returns distinct matches in scan order, at most MaxCandidates.
func candidates(fullText string) []string {
	seen := make(map[string]struct{}, MaxCandidates)
	out := make([]string, 0, MaxCandidates)
	for _, m := range capitalizedPhrases(fullText) {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
		if len(out) == MaxCandidates {
			break
		}
	}
	return out
}

// capitalizedPhrases returns, left to right and without overlap, every run of
// words shaped like "Ada" or "Ada Lovelace": an ASCII capital followed by
// ASCII lowercase letters, words separated by whitespace. A match must start
// and end on a word boundary where any Unicode letter, digit or underscore
// counts as a word character, so "Poincaré" and "Café" never yield their
// ASCII prefixes. When a trailing word fails the boundary the phrase is
// shortened to the longest prefix that passes, as a backtracking regexp would.
func capitalizedPhrases(s string) []string {
	rs := []rune(s)
	var out []string
	for i := 0; i < len(rs); {
		if isUpper(rs[i]) && !isWordAt(rs, i-1) {
			if end := phraseEnd(rs, i+1); end > 0 {
				out = append(out, string(rs[i:end]))
				i = end
				continue
			}
		}
		i++
	}
	return out
}

// phraseEnd matches lowercase letters starting at i followed by any further
// words and a closing boundary. It returns the end of the longest match, or -1.
func phraseEnd(rs []rune, i int) int {
	n := 0
	for i+n < len(rs) && isLower(rs[i+n]) {
		n++
	}
	for ; n > 0; n-- {
		if end := moreWords(rs, i+n); end > 0 {
			return end
		}
	}
	return -1
}

func moreWords(rs []rune, i int) int {
	ws := 0
	for i+ws < len(rs) && unicode.IsSpace(rs[i+ws]) {
		ws++
	}
	if ws > 0 && i+ws < len(rs) && isUpper(rs[i+ws]) {
		if end := phraseEnd(rs, i+ws+1); end > 0 {
			return end
		}
	}
	if isWordAt(rs, i-1) != isWordAt(rs, i) {
		return i
	}
	return -1
}

func isUpper(r rune) bool { return r >= 'A' && r <= 'Z' }

func isLower(r rune) bool { return r >= 'a' && r <= 'z' }

// isWordAt reports whether rs[i] is a word character; out of range is not.
func isWordAt(rs []rune, i int) bool {
	if i < 0 || i >= len(rs) {
		return false
	}
	r := rs[i]
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

func containsAny(phrase string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(phrase, k) {
			return true
		}
	}
	return false
}

// appendCapped relies on candidates being distinct already.
func appendCapped(bucket []string, phrase string) []string {
	if len(bucket) >= MaxPerBucket {
		return bucket
	}
	return append(bucket, phrase)
}
