package geocode

import (
	"strings"
	"unicode"
)

// Filler words that carry no signal for a geocoder and would otherwise split
// cache entries for the same place.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "hotel": {}, "airport": {},
	"trip": {}, "to": {}, "in": {}, "at": {}, "of": {},
}

// NormalizeQuery lowercases the query, strips punctuation, drops stoplist
// words and collapses whitespace. The result doubles as the location cache
// key, so "Paris Museum" and "  paris   museum " resolve to one entry.
func NormalizeQuery(q string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(q) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if _, skip := stopwords[w]; !skip {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}
