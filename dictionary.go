// ═══════════════════════════════════════════════════════════════════════════════
// DICTIONARY: The Index Entry Point
// ═══════════════════════════════════════════════════════════════════════════════
// The dictionary is the small, fully-in-memory half of the index. For every
// token it records the idf and where in the postings file the token's two
// records live:
//
//	Terms["quick"] → idf, (offset, length) of the ranked record,
//	                      (offset, length) of the positional record
//
// plus, per document, the slice of its raw-count vector record and the
// precomputed vector norm used for cosine normalization.
//
// The postings file itself is never loaded whole: each lookup seeks to the
// recorded slice and materializes just that record.
//
// LIFECYCLE:
// ----------
// Built once by the indexer, serialized, then opened read-only by the
// searcher. Nothing mutates it after load.
// ═══════════════════════════════════════════════════════════════════════════════

package lucent

import (
	"maps"
	"math"
	"slices"
)

// Slice addresses one self-delimiting record inside the postings file.
type Slice struct {
	Offset uint64
	Length uint32
}

// TermEntry is the dictionary record for a single token.
type TermEntry struct {
	IDF        float64
	Ranked     Slice // ranked postings record: (doc_id, tf_weight) pairs
	Positional Slice // positional postings record: (doc_id, positions) pairs
}

// Dictionary maps tokens and documents to their on-disk records.
type Dictionary struct {
	// NumDocs is the corpus size N used for idf.
	NumDocs int

	Terms      map[string]TermEntry
	DocVectors map[string]Slice
	Lengths    map[string]float64

	// ordinals maps a document ID to its rank in the ascending DocID
	// order. The ordinal is what backs the roaring bitmaps used for set
	// membership at the driver layer - bitmaps hold uint32s, document IDs
	// are strings.
	ordinals map[string]uint32
}

// Lookup returns the term entry for a token. A token absent from the corpus
// is not an error; it simply has no entry (and resolves to empty postings).
func (d *Dictionary) Lookup(token string) (TermEntry, bool) {
	entry, ok := d.Terms[token]
	return entry, ok
}

// IDF returns log10(N/df) for a token, or 0 for tokens not in the corpus.
// The zero default is what lets boolean ordering keys sum idfs without
// special-casing unknown tokens.
func (d *Dictionary) IDF(token string) float64 {
	entry, ok := d.Terms[token]
	if !ok {
		return 0
	}
	return entry.IDF
}

// Ordinal returns a document's rank in the ascending DocID order.
func (d *Dictionary) Ordinal(docID string) (uint32, bool) {
	ord, ok := d.ordinals[docID]
	return ord, ok
}

// buildOrdinals derives the ordinal map from Lengths, which has exactly
// one entry per corpus document. Called once after indexing and once
// after load.
func (d *Dictionary) buildOrdinals() {
	ids := slices.Sorted(maps.Keys(d.Lengths))
	d.ordinals = make(map[string]uint32, len(ids))
	for i, id := range ids {
		d.ordinals[id] = uint32(i)
	}
}

// sortedKeys returns a map's string keys in ascending order. Go randomizes
// map iteration, so every place that needs deterministic output (artifact
// bytes, score accumulation order, log lines) walks keys through this.
func sortedKeys[M ~map[string]V, V any](m M) []string {
	return slices.Sorted(maps.Keys(m))
}

// tfWeight is the logarithmic term-frequency weighting scheme:
// log10(10·count), i.e. 1 + log10(count).
func tfWeight(count int) float64 {
	return math.Log10(10 * float64(count))
}

// idf is the inverse document frequency: log10(N/df).
func idf(numDocs, df int) float64 {
	return math.Log10(float64(numDocs) / float64(df))
}
