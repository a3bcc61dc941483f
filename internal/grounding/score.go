// Package grounding scores generated statements against the context
// entries they cite. The metric is directed coverage over stopword-
// filtered, suffix-stemmed token frequency vectors: the fraction of the
// statement's token mass that the cited entry supports. Directed rather
// than symmetric so the length of the entry block never penalizes a
// fully supported bullet. Bounded to [0,1], monotonic with overlap, and
// model-free so scores reproduce across environments.
package grounding

import (
	"math"
	"strings"
	"unicode"
)

// DefaultThreshold is the acceptance floor for grounding scores. Bullets
// scoring below it must be rewritten or dropped, never persisted as
// accepted content.
const DefaultThreshold = 0.80

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "has": true, "have": true,
	"in": true, "is": true, "it": true, "its": true, "of": true, "on": true,
	"or": true, "our": true, "that": true, "the": true, "their": true,
	"this": true, "to": true, "was": true, "we": true, "were": true,
	"with": true, "you": true, "your": true,
}

// stem applies light suffix stripping so inflected forms of the same word
// count as overlap ("scaling" matches "scaled" and "scale").
func stem(token string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s", "e"} {
		if strings.HasSuffix(token, suffix) && len(token)-len(suffix) >= 3 {
			return token[:len(token)-len(suffix)]
		}
	}
	return token
}

// Tokenize lowercases text, splits on non-alphanumeric runes, drops
// stopwords and single characters, and stems what remains.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || stopwords[f] {
			continue
		}
		tokens = append(tokens, stem(f))
	}
	return tokens
}

// termFreq builds a token frequency vector.
func termFreq(tokens []string) map[string]float64 {
	freq := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		freq[t]++
	}
	return freq
}

// Score computes how well the entry block supports the bullet text.
// Each bullet token contributes up to its own frequency, capped by how
// often the entry uses it. Returns a value in [0,1]: 1.0 when every
// bullet token appears at least as often in the entry, 0.0 when the
// vocabularies are disjoint.
func Score(bulletText, entryBlock string) float64 {
	bulletFreq := termFreq(Tokenize(bulletText))
	entryFreq := termFreq(Tokenize(entryBlock))
	if len(bulletFreq) == 0 || len(entryFreq) == 0 {
		return 0
	}

	var supported, total float64
	for token, bf := range bulletFreq {
		total += bf
		supported += math.Min(bf, entryFreq[token])
	}

	// Guard against float drift past the bounds.
	return math.Min(1, math.Max(0, supported/total))
}
