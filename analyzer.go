// ═══════════════════════════════════════════════════════════════════════════════
// TEXT NORMALIZATION
// ═══════════════════════════════════════════════════════════════════════════════
// Normalization maps a raw word to its canonical token form. Both sides of
// the system go through the exact same pipeline - the indexer when building
// postings and the searcher when parsing queries - so the tokens meet again
// at query time.
//
// PIPELINE:
// ---------
//  1. Lowercasing  → "Quick" → "quick"
//  2. Stemming     → "running" → "run" (Snowball / Porter2)
//
// There is deliberately no stopword or length filtering here: positions in
// the positional index are zero-based offsets over every source word, and a
// filtering normalizer would break phrase adjacency ("quick brown" must see
// "the" occupy offset 0 in "the quick brown fox").
//
// EXAMPLE TRANSFORMATION:
// -----------------------
// Input:  ["The", "Quick", "Brown", "Foxes"]
// Output: ["the", "quick", "brown", "fox"]
//
// Normalization is idempotent: normalize(normalize(x)) == normalize(x).
// ═══════════════════════════════════════════════════════════════════════════════

package lucent

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	snowballeng "github.com/kljensen/snowball/english"
)

// normalizerCacheSize bounds the stem memoization cache. Stemming is a pure
// function of the raw word, so entries never go stale; the bound only caps
// memory on corpora with huge vocabularies.
const normalizerCacheSize = 1 << 16

// Normalizer maps raw words to canonical tokens.
//
// The zero Normalizer is not usable; construct with NewNormalizer. A single
// Normalizer is safe to share across goroutines: the LRU cache is
// internally synchronized and stemming itself is stateless.
type Normalizer struct {
	cache *lru.Cache[string, string]
}

// NewNormalizer creates a Normalizer with a bounded stem cache.
func NewNormalizer() *Normalizer {
	// lru.New only fails on a non-positive size; the constant is fixed.
	cache, _ := lru.New[string, string](normalizerCacheSize)
	return &Normalizer{cache: cache}
}

// Normalize returns the canonical token for a raw word.
//
// Example:
//
//	n.Normalize("Connections") // "connect"
func (n *Normalizer) Normalize(word string) string {
	word = strings.ToLower(word)
	if token, ok := n.cache.Get(word); ok {
		return token
	}

	token := snowballeng.Stem(word, false)
	n.cache.Add(word, token)
	return token
}

// NormalizeAll maps a slice of raw words to canonical tokens, preserving
// order and length (one token per input word).
func (n *Normalizer) NormalizeAll(words []string) []string {
	tokens := make([]string, len(words))
	for i, word := range words {
		tokens[i] = n.Normalize(word)
	}
	return tokens
}

// Tokenize splits raw text into words on whitespace.
//
// This is the only tokenization the engine does; punctuation handling and
// anything smarter is up to the corpus preparation step that produced the
// CSV content column.
func Tokenize(text string) []string {
	return strings.Fields(text)
}
