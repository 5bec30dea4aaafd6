// ═══════════════════════════════════════════════════════════════════════════════
// INDEXING: Building the Search Artifacts
// ═══════════════════════════════════════════════════════════════════════════════
// The indexer turns a corpus into the two on-disk artifacts the searcher
// consumes: the dictionary file and the postings file.
//
// PIPELINE:
// ---------
//  1. Ingest every row and normalize its words (parallel, see below)
//  2. Sort rows by document ID - every postings list is born ascending
//  3. Per document: count terms, derive tf weights, append ranked postings,
//     record the vector norm
//  4. Per document: record token offsets, append positional postings
//  5. Per document: keep the raw-count vector for Rocchio
//  6. Build skip pointers on every list, exactly once
//  7. Serialize: ranked then positional record per term, vector record per
//     document, then the dictionary
//
// STEP-BY-STEP EXAMPLE:
// ---------------------
// Corpus row: ("d1", "the quick brown fox")
//
//	normalize   → ["the", "quick", "brown", "fox"]
//	counts      → {the:1, quick:1, brown:1, fox:1}
//	tf weights  → log10(10·1) = 1.0 each
//	ranked      → ranked["quick"] gains (d1, 1.0), ...
//	norm        → sqrt(1² + 1² + 1² + 1²) = 2.0
//	positions   → positional["brown"] gains (d1, [2]), ...
//	vector      → vectors["d1"] = {the:1, quick:1, brown:1, fox:1}
//
// CONCURRENCY:
// ------------
// Normalization dominates ingest cost, is a pure function per row, and
// shares no state across rows - so rows fan out over an errgroup worker
// pool, each worker writing only its own slot of a preallocated slice.
// The sort in step 2 restores the DocID order regardless of completion
// order, making the result equivalent to a serial pass.
//
// FAILURE SEMANTICS:
// ------------------
// Indexing is all-or-nothing. A malformed row, a duplicate document ID, or
// any write error aborts the build.
// ═══════════════════════════════════════════════════════════════════════════════

package lucent

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"sort"

	"github.com/RoaringBitmap/roaring"
	"golang.org/x/sync/errgroup"
)

// errIndexDisagreement reports an index build whose ranked and positional
// lists cover different documents - a bug trap, not an input error.
var errIndexDisagreement = errors.New("ranked and positional postings disagree")

// document is one corpus row after normalization.
type document struct {
	id     string
	tokens []string
}

// MemoryIndex is the fully built in-memory index, ready to serialize.
type MemoryIndex struct {
	ranked     map[string]*PostingsList[Posting]
	positional map[string]*PostingsList[PositionalPosting]
	vectors    map[string]map[string]int
	lengths    map[string]float64
	docIDs     []string // ascending
}

// BuildIndex ingests the whole source and constructs the index in memory.
func BuildIndex(src DocumentSource, norm *Normalizer) (*MemoryIndex, error) {
	slog.Info("indexing: ingesting corpus")
	docs, err := ingest(src, norm)
	if err != nil {
		return nil, err
	}
	slog.Info("indexing: corpus ingested", slog.Int("documents", len(docs)))

	idx := &MemoryIndex{
		ranked:     make(map[string]*PostingsList[Posting]),
		positional: make(map[string]*PostingsList[PositionalPosting]),
		vectors:    make(map[string]map[string]int, len(docs)),
		lengths:    make(map[string]float64, len(docs)),
	}

	slog.Info("indexing: building postings")
	for _, doc := range docs {
		idx.docIDs = append(idx.docIDs, doc.id)
		idx.addRanked(doc)
		idx.addPositional(doc)
	}

	slog.Info("indexing: building skip pointers")
	idx.buildSkips()

	if err := idx.verify(); err != nil {
		return nil, err
	}
	return idx, nil
}

// ingest drains the source, normalizes every row in parallel, and returns
// the documents sorted by ID.
func ingest(src DocumentSource, norm *Normalizer) ([]document, error) {
	var rows []Row
	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	// Fan out per-row normalization. Workers touch disjoint slots, so the
	// only synchronization needed is the group wait itself.
	docs := make([]document, len(rows))
	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i, row := range rows {
		group.Go(func() error {
			docs[i] = document{id: row.DocID, tokens: norm.NormalizeAll(row.Words)}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// Restore the total order the merges depend on.
	sort.Slice(docs, func(i, j int) bool { return docs[i].id < docs[j].id })

	for i := 1; i < len(docs); i++ {
		if docs[i].id == docs[i-1].id {
			return nil, fmt.Errorf("duplicate document id %q", docs[i].id)
		}
	}
	return docs, nil
}

// addRanked appends this document to the ranked list of each of its terms,
// and records its raw-count vector and vector norm.
func (idx *MemoryIndex) addRanked(doc document) {
	counts := make(map[string]int)
	for _, token := range doc.tokens {
		counts[token]++
	}

	var sumSquares float64
	for _, token := range sortedKeys(counts) {
		weight := tfWeight(counts[token])
		sumSquares += weight * weight

		list, ok := idx.ranked[token]
		if !ok {
			list = NewPostingsList[Posting]()
			idx.ranked[token] = list
		}
		list.Append(Posting{DocID: doc.id, Weight: weight})
	}

	idx.vectors[doc.id] = counts
	// The norm is over tf weights, not raw counts - cosine normalization
	// divides scores accumulated from the same weighted postings.
	idx.lengths[doc.id] = math.Sqrt(sumSquares)
}

// addPositional appends this document to the positional list of each of
// its terms. Offsets are ascending by construction: enumeration is
// in-order over the document.
func (idx *MemoryIndex) addPositional(doc document) {
	offsets := make(map[string][]int)
	for offset, token := range doc.tokens {
		offsets[token] = append(offsets[token], offset)
	}

	for _, token := range sortedKeys(offsets) {
		list, ok := idx.positional[token]
		if !ok {
			list = NewPostingsList[PositionalPosting]()
			idx.positional[token] = list
		}
		positions := NewPostingsList[int]()
		positions.Extend(offsets[token])
		list.Append(PositionalPosting{DocID: doc.id, Positions: positions})
	}
}

// buildSkips freezes every list: ranked and positional per term, and the
// position list nested in every positional posting.
func (idx *MemoryIndex) buildSkips() {
	for _, list := range idx.ranked {
		list.BuildSkips()
	}
	for _, list := range idx.positional {
		list.BuildSkips()
		for _, posting := range list.Values() {
			posting.Positions.BuildSkips()
		}
	}
}

// verify checks the core index invariant before anything touches disk:
// for every term, the ranked and positional lists cover exactly the same
// documents. The comparison runs over ordinal bitmaps, one cheap Equals per
// term, so it checks the document sets only; the order agrees because both
// lists are appended in the same DocID-sorted loop.
func (idx *MemoryIndex) verify() error {
	ordinals := make(map[string]uint32, len(idx.docIDs))
	for i, id := range idx.docIDs {
		ordinals[id] = uint32(i)
	}

	for token, ranked := range idx.ranked {
		rankedDocs := roaring.NewBitmap()
		for _, p := range ranked.Values() {
			rankedDocs.Add(ordinals[p.DocID])
		}
		positionalDocs := roaring.NewBitmap()
		for _, p := range idx.positional[token].Values() {
			positionalDocs.Add(ordinals[p.DocID])
		}
		if !rankedDocs.Equals(positionalDocs) {
			return fmt.Errorf("%w: token %q", errIndexDisagreement, token)
		}
	}
	return nil
}

// WriteTo serializes the index: postings file first (remembering every
// record's slice), dictionary file second.
func (idx *MemoryIndex) WriteTo(dictionaryPath, postingsPath string) error {
	out, err := os.Create(postingsPath)
	if err != nil {
		return err
	}
	defer out.Close()

	writer := newRecordWriter(out)
	numDocs := len(idx.docIDs)

	dict := &Dictionary{
		NumDocs:    numDocs,
		Terms:      make(map[string]TermEntry, len(idx.ranked)),
		DocVectors: make(map[string]Slice, numDocs),
		Lengths:    idx.lengths,
	}

	slog.Info("indexing: writing postings file",
		slog.String("path", postingsPath),
		slog.Int("terms", len(idx.ranked)))

	for _, token := range sortedKeys(idx.ranked) {
		ranked := idx.ranked[token]
		rankedSlice, err := writer.WriteRanked(ranked)
		if err != nil {
			return err
		}
		positionalSlice, err := writer.WritePositional(idx.positional[token])
		if err != nil {
			return err
		}
		dict.Terms[token] = TermEntry{
			IDF:        idf(numDocs, ranked.Len()),
			Ranked:     rankedSlice,
			Positional: positionalSlice,
		}
	}

	for _, doc := range idx.docIDs {
		vector := idx.vectors[doc]
		slice, err := writer.WriteVector(vector, sortedKeys(vector))
		if err != nil {
			return err
		}
		dict.DocVectors[doc] = slice
	}

	if err := out.Sync(); err != nil {
		return err
	}

	slog.Info("indexing: writing dictionary file", slog.String("path", dictionaryPath))
	dict.buildOrdinals()
	return SaveDictionary(dictionaryPath, dict)
}
