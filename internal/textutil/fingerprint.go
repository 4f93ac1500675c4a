package textutil

import (
	"math"
	"strings"
	"unicode"
)

// Fingerprint is a term-frequency vector used to measure how alike two
// title/author strings are when de-duplicating search results.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from text, or nil when the text yields
// no usable tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	terms := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		terms[token]++
	}
	var sumSquares float64
	for _, count := range terms {
		sumSquares += count * count
	}
	return &Fingerprint{terms: terms, norm: math.Sqrt(sumSquares)}
}

// Tokenize lowercases text and splits on anything that is not a letter or
// digit, dropping tokens shorter than three characters.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := fields[:0]
	for _, token := range fields {
		if len(token) >= 3 {
			terms = append(terms, token)
		}
	}
	return terms
}

// CosineSimilarity returns the cosine of the angle between two fingerprints,
// in [0, 1]. Nil or empty fingerprints compare as 0.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	smaller, larger := a, b
	if len(larger.terms) < len(smaller.terms) {
		smaller, larger = larger, smaller
	}
	var dot float64
	for term, count := range smaller.terms {
		dot += count * larger.terms[term]
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}
