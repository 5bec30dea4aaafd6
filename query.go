package lucent

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring"
)

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY LANGUAGE
// ═══════════════════════════════════════════════════════════════════════════════
// One line is one query. The line is split as a CSV row with a space
// delimiter and `"` quoting, so a quoted span survives as a single element:
//
//	fox jumps            → FREE_TEXT  [fox] [jumps]
//	"quick brown" AND fox → BOOLEAN   phrase[quick brown] term[fox]
//
// The literal element AND flips the query to BOOLEAN and is itself dropped.
// An element containing a space (i.e. it was quoted) becomes a PHRASE of
// its normalized sub-tokens; anything else a plain term.
//
// EXECUTION:
// ----------
// Both families share one ranked pass R over the phrase-flattened query
// text. A boolean query additionally computes its conjunction set B and
// reorders R to put R∩B first:
//
//	FREE_TEXT: emit R
//	BOOLEAN:   emit (R∩B in R's order) ++ (R\B in R's order)
//
// Documents that match the boolean constraint surface first, but the
// cosine-ranked tail is kept - a conjunction over stemmed terms is often
// stricter than the user meant, and the tail degrades gracefully.
// ═══════════════════════════════════════════════════════════════════════════════

// ErrEmptyQuery reports a query line with no tokens. It is handled, not
// fatal: the batch driver maps it to a blank output line.
var ErrEmptyQuery = errors.New("empty query")

// QueryKind distinguishes the two query families.
type QueryKind int

const (
	FreeText QueryKind = iota
	Boolean
)

// QueryItem is one conjunct: a phrase of normalized tokens, or a single
// term (a phrase of length one, as far as the executor cares).
type QueryItem struct {
	Tokens []string
}

// IsPhrase reports whether the item needs positional resolution.
func (qi QueryItem) IsPhrase() bool {
	return len(qi.Tokens) > 1
}

// ParsedQuery is a query line after parsing and normalization.
type ParsedQuery struct {
	Kind  QueryKind
	Items []QueryItem
}

// FlattenedTokens returns every token of every item, in order - the
// free-text equivalent of the query that the ranked scorer consumes.
func (q ParsedQuery) FlattenedTokens() []string {
	var tokens []string
	for _, item := range q.Items {
		tokens = append(tokens, item.Tokens...)
	}
	return tokens
}

// ═══════════════════════════════════════════════════════════════════════════════
// ENGINE
// ═══════════════════════════════════════════════════════════════════════════════

// Engine answers queries against one opened index. It owns a single
// postings file handle and serializes its own seeks, so a query runs on
// exactly one logical thread; concurrent queries need their own Engine.
type Engine struct {
	dict     *Dictionary
	postings io.ReadSeeker
	closer   io.Closer
	norm     *Normalizer
	thes     Thesaurus
	opts     Options
}

// Open loads the dictionary and opens the postings file read-only. Options
// default to DefaultOptions; use SetOptions/SetThesaurus to change them
// before the first query.
func Open(dictionaryPath, postingsPath string) (*Engine, error) {
	dict, err := LoadDictionary(dictionaryPath)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(postingsPath)
	if err != nil {
		return nil, err
	}
	return &Engine{
		dict:     dict,
		postings: file,
		closer:   file,
		norm:     NewNormalizer(),
		opts:     DefaultOptions(),
	}, nil
}

// SetOptions replaces the scorer options.
func (e *Engine) SetOptions(opts Options) {
	e.opts = opts
}

// SetThesaurus installs the synonym provider used by query expansion.
// Without one, expansion is silently a no-op even when enabled.
func (e *Engine) SetThesaurus(t Thesaurus) {
	e.thes = t
}

// Dictionary exposes the loaded dictionary.
func (e *Engine) Dictionary() *Dictionary {
	return e.dict
}

// Close releases the postings file.
func (e *Engine) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// ═══════════════════════════════════════════════════════════════════════════════
// RECORD LOADS
// ═══════════════════════════════════════════════════════════════════════════════
// All three loaders share the same shape: a token or document missing from
// the dictionary yields an EMPTY result, silently - absence is a fact about
// the corpus, not an error. Real IO or decode failures do surface, and the
// batch driver turns them into a blank line for the offending query.
// ═══════════════════════════════════════════════════════════════════════════════

// loadRanked materializes a token's ranked postings list.
func (e *Engine) loadRanked(token string) (*PostingsList[Posting], error) {
	entry, ok := e.dict.Lookup(token)
	if !ok {
		return NewPostingsList[Posting](), nil
	}
	data, err := readSlice(e.postings, entry.Ranked)
	if err != nil {
		return nil, err
	}
	return decodeRanked(data)
}

// loadPositional materializes a token's positional postings list.
func (e *Engine) loadPositional(token string) (*PostingsList[PositionalPosting], error) {
	entry, ok := e.dict.Lookup(token)
	if !ok {
		return NewPostingsList[PositionalPosting](), nil
	}
	data, err := readSlice(e.postings, entry.Positional)
	if err != nil {
		return nil, err
	}
	return decodePositional(data)
}

// loadVector materializes a document's raw-count vector.
func (e *Engine) loadVector(docID string) (map[string]int, error) {
	slice, ok := e.dict.DocVectors[docID]
	if !ok {
		return map[string]int{}, nil
	}
	data, err := readSlice(e.postings, slice)
	if err != nil {
		return nil, err
	}
	return decodeVector(data)
}

// ═══════════════════════════════════════════════════════════════════════════════
// PARSING
// ═══════════════════════════════════════════════════════════════════════════════

// ParseQuery parses and normalizes one query line.
func (e *Engine) ParseQuery(line string) (ParsedQuery, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.Comma = ' '

	elements, err := reader.Read()
	if err == io.EOF {
		return ParsedQuery{}, ErrEmptyQuery
	}
	if err != nil {
		return ParsedQuery{}, fmt.Errorf("parsing query: %w", err)
	}

	parsed := ParsedQuery{Kind: FreeText}
	for _, element := range elements {
		// The literal AND is the boolean marker, not a term. The CSV
		// reader has already stripped quotes, so a quoted "AND" counts too.
		if element == "AND" {
			parsed.Kind = Boolean
			continue
		}
		if element == "" {
			continue
		}

		words := strings.Fields(element)
		if len(words) == 0 {
			continue
		}
		parsed.Items = append(parsed.Items, QueryItem{Tokens: e.norm.NormalizeAll(words)})
	}

	if len(parsed.Items) == 0 {
		return ParsedQuery{}, ErrEmptyQuery
	}
	return parsed, nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// BOOLEAN EXECUTOR
// ═══════════════════════════════════════════════════════════════════════════════
// A boolean query is a pure conjunction of phrases and terms. The executor
// orders the conjuncts rarest-first before folding:
//
//	ordering key = Σ idf of the item's tokens, descending
//
// Rare ≈ high idf ≈ short postings list, and intersections can only
// shrink, so starting small keeps every later merge cheap. The fold
// short-circuits the moment an intermediate comes up empty.
// ═══════════════════════════════════════════════════════════════════════════════

// EvalConjunction computes the DocID set satisfying every item.
func (e *Engine) EvalConjunction(items []QueryItem) (*PostingsList[string], error) {
	if len(items) == 0 {
		return NewPostingsList[string](), nil
	}

	ordered := make([]QueryItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		return e.idfSum(ordered[i]) > e.idfSum(ordered[j])
	})

	result, err := e.itemDocIDs(ordered[0])
	if err != nil {
		return nil, err
	}
	for _, item := range ordered[1:] {
		if result.Empty() {
			return result, nil
		}
		next, err := e.itemDocIDs(item)
		if err != nil {
			return nil, err
		}
		result = Intersect(result, next)
	}
	return result, nil
}

// idfSum is the boolean ordering key: the summed idf of the item's tokens.
// Unknown tokens contribute 0.
func (e *Engine) idfSum(item QueryItem) float64 {
	var sum float64
	for _, token := range item.Tokens {
		sum += e.dict.IDF(token)
	}
	return sum
}

// itemDocIDs resolves one conjunct to its DocID list: phrases through the
// phrase resolver, terms straight off their ranked postings.
func (e *Engine) itemDocIDs(item QueryItem) (*PostingsList[string], error) {
	if item.IsPhrase() {
		matches, err := e.ResolvePhrase(item.Tokens)
		if err != nil {
			return nil, err
		}
		return ProjectPositional(matches), nil
	}
	ranked, err := e.loadRanked(item.Tokens[0])
	if err != nil {
		return nil, err
	}
	return ProjectRanked(ranked), nil
}

// ═══════════════════════════════════════════════════════════════════════════════
// DRIVER
// ═══════════════════════════════════════════════════════════════════════════════

// Execute answers one query: parse, rank, and - for boolean queries -
// reorder by the conjunction set. Returns the final ordered DocIDs.
func (e *Engine) Execute(line string, relevant []string) ([]string, error) {
	parsed, err := e.ParseQuery(line)
	if err != nil {
		return nil, err
	}

	ranked, err := e.scoreQuery(parsed.FlattenedTokens(), relevant)
	if err != nil {
		return nil, err
	}

	if parsed.Kind != Boolean {
		return ranked, nil
	}

	matches, err := e.EvalConjunction(parsed.Items)
	if err != nil {
		return nil, err
	}
	return e.partition(ranked, matches), nil
}

// partition stably splits the ranked ordering into members of the boolean
// set followed by everybody else. Membership is tested against a bitmap of
// document ordinals rather than a string set - the ordinal space is dense
// and the bitmap test is branch-free.
func (e *Engine) partition(ranked []string, matches *PostingsList[string]) []string {
	mask := roaring.NewBitmap()
	for _, docID := range matches.Values() {
		if ord, ok := e.dict.Ordinal(docID); ok {
			mask.Add(ord)
		}
	}

	inSet := make([]string, 0, len(ranked))
	var outSet []string
	for _, docID := range ranked {
		ord, ok := e.dict.Ordinal(docID)
		if ok && mask.Contains(ord) {
			inSet = append(inSet, docID)
		} else {
			outSet = append(outSet, docID)
		}
	}
	return append(inSet, outSet...)
}

// ═══════════════════════════════════════════════════════════════════════════════
// BATCH PROCESSING
// ═══════════════════════════════════════════════════════════════════════════════
// The query file holds one query on its first line, followed by zero or
// more lines of presumed-relevant DocIDs feeding Rocchio. The output file
// gets exactly one line: the ranked DocIDs separated by spaces.
//
// A failing query - IO error, decode error, panic, empty query - writes a
// blank line instead of aborting; the process still exits cleanly.
// ═══════════════════════════════════════════════════════════════════════════════

// ProcessQueryFile runs the query in queriesPath and writes the result
// line to outputPath.
func (e *Engine) ProcessQueryFile(queriesPath, outputPath string) error {
	in, err := os.Open(queriesPath)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	query, relevant, err := readQueryFile(in)
	if err != nil {
		return err
	}

	results := e.executeIsolated(query, relevant)
	if _, err := fmt.Fprintln(out, strings.Join(results, " ")); err != nil {
		return err
	}
	return nil
}

// executeIsolated runs one query with full isolation: any error or panic
// collapses to an empty result, logged but never propagated.
func (e *Engine) executeIsolated(query string, relevant []string) (results []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("query panicked", slog.Any("panic", r))
			results = nil
		}
	}()

	results, err := e.Execute(query, relevant)
	if err != nil {
		if !errors.Is(err, ErrEmptyQuery) {
			slog.Warn("query failed", slog.String("error", err.Error()))
		}
		return nil
	}
	return results
}

// readQueryFile splits a query file into the query line and the relevant
// DocID lines. Blank trailing lines are ignored; a blank FIRST line is a
// legitimate empty query.
func readQueryFile(r io.Reader) (string, []string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var query string
	var relevant []string
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			query = line
			first = false
			continue
		}
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			relevant = append(relevant, trimmed)
		}
	}
	return query, relevant, scanner.Err()
}
