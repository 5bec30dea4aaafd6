// Package lucent implements a self-contained information-retrieval engine
// over a fixed corpus of text documents.
//
// ═══════════════════════════════════════════════════════════════════════════════
// WHAT IS A POSTINGS LIST?
// ═══════════════════════════════════════════════════════════════════════════════
// A postings list is the per-term record of an inverted index: an ordered
// sequence of document entries, one per document the term occurs in.
//
// Example: Given these documents:
//   Doc a: "the quick brown fox"
//   Doc b: "the lazy dog"
//   Doc c: "quick brown dogs"
//
// The ranked index would look like:
//   "quick" → [(a, w), (c, w)]
//   "brown" → [(a, w), (c, w)]
//   "lazi"  → [(b, w)]
//
// Every list is ordered by document ID, ascending, with no duplicates.
// That single invariant is what makes the two-pointer merge algorithms in
// search.go possible.
//
// SKIP POINTERS:
// --------------
// On top of the ordered array we place sparse forward "skip" pointers:
//
//	        ┌───────────────┐   ┌───────────────┐
//	        ▼               │   ▼               │
//	[1] [3] [5] [7] [9] [11]┘ [14] ...          │
//	 └──────▲                                   │
//	        └───────────────────────────────────┘
//
// During a merge, when one side is behind the other, it may "take the skip"
// and leap several entries at once instead of stepping one by one - but only
// when the skip target does not overshoot the opponent's current key.
//
// Unlike a classic tower-based skip list, the pointers here are deterministic:
// with n elements, ⌊√n⌋ pointers are placed at even intervals, once, after the
// list is fully built. The list is immutable from that point on, so cursors
// are just (list, index) pairs and no per-node allocation happens at all.
// ═══════════════════════════════════════════════════════════════════════════════

package lucent

import "math"

// Placing a skip pointer that jumps only 1 or 2 entries costs a comparison
// without saving any, so intervals below this threshold get no skips.
const skipIntervalThreshold = 3

// PostingsList is an append-then-freeze ordered sequence with sparse skip
// pointers. The element type is generic: document IDs for boolean merges,
// ranked postings for scoring, positional postings for phrase queries, and
// plain ints for the position lists nested inside positional postings.
//
// LIFECYCLE:
// ----------
//  1. Append/Extend while building (skips are invalid during this phase)
//  2. BuildSkips exactly once
//  3. Read-only forever after: Head/cursor traversal, Values, serialization
type PostingsList[T any] struct {
	data []T

	// Sparse parallel array: skips[i] holds the target index of the skip
	// pointer at i, or noSkip. nil until BuildSkips runs.
	skips []int
}

const noSkip = -1

// NewPostingsList creates an empty postings list.
func NewPostingsList[T any]() *PostingsList[T] {
	return &PostingsList[T]{}
}

// PostingsOf builds a list from the given values in order. Skips are not
// built; call BuildSkips if merge acceleration is wanted.
func PostingsOf[T any](values ...T) *PostingsList[T] {
	list := NewPostingsList[T]()
	list.Extend(values)
	return list
}

// Append pushes a value to the tail. Any previously built skips are
// invalidated: a pointer placed for length n is wrong for length n+1.
func (l *PostingsList[T]) Append(value T) {
	l.data = append(l.data, value)
	l.skips = nil
}

// Extend bulk-appends all values in order.
func (l *PostingsList[T]) Extend(values []T) {
	l.data = append(l.data, values...)
	l.skips = nil
}

// Len returns the number of entries.
func (l *PostingsList[T]) Len() int {
	return len(l.data)
}

// Empty reports whether the list has no entries.
func (l *PostingsList[T]) Empty() bool {
	return len(l.data) == 0
}

// Values returns the backing slice of the list. Callers must treat it as
// read-only; it is shared with the list itself.
func (l *PostingsList[T]) Values() []T {
	return l.data
}

// BuildSkips computes the skip pointers for the current contents.
//
// PLACEMENT RULE:
// ---------------
// With n = Len():
//
//	k = ⌊√n⌋                 total number of skip pointers
//	if k == 0 → no skips     (empty or single-element list)
//	interval = (n−1) / k
//	if interval < 3 → no skips (jumping 1-2 entries saves nothing)
//	pointers at 0, interval, 2·interval, …, (k−1)·interval,
//	each jumping forward by interval (the last lands on k·interval)
//
// Example, n = 11: k = 3, interval = 3, so
//
//	index: 0 → 3, 3 → 6, 6 → 9
//
// The pointers are immutable after this call; Append invalidates them.
func (l *PostingsList[T]) BuildSkips() {
	l.skips = nil

	n := len(l.data)
	totalSkips := int(math.Sqrt(float64(n)))
	if totalSkips == 0 {
		return
	}

	interval := (n - 1) / totalSkips
	if interval < skipIntervalThreshold {
		return
	}

	l.skips = make([]int, n)
	for i := range l.skips {
		l.skips[i] = noSkip
	}

	prev := 0
	for i := interval; i <= totalSkips*interval; i += interval {
		l.skips[prev] = i
		prev = i
	}
}

// Head returns a cursor at the first entry, or nil if the list is empty.
func (l *PostingsList[T]) Head() *Cursor[T] {
	if len(l.data) == 0 {
		return nil
	}
	return &Cursor[T]{list: l, index: 0}
}

// ═══════════════════════════════════════════════════════════════════════════════
// CURSOR: A Position Inside a Postings List
// ═══════════════════════════════════════════════════════════════════════════════
// A cursor is a lightweight (list, index) handle. Cursors never mutate the
// list, and because lists are frozen after BuildSkips, a cursor stays valid
// for the whole duration of a merge.
// ═══════════════════════════════════════════════════════════════════════════════

// Cursor points at one entry of a PostingsList.
type Cursor[T any] struct {
	list  *PostingsList[T]
	index int
}

// Value returns the entry under the cursor.
func (c *Cursor[T]) Value() T {
	return c.list.data[c.index]
}

// Next returns a cursor at the following entry, or nil at the tail.
func (c *Cursor[T]) Next() *Cursor[T] {
	if c.index >= len(c.list.data)-1 {
		return nil
	}
	return &Cursor[T]{list: c.list, index: c.index + 1}
}

// Skip returns a cursor at this entry's skip target, or nil if the entry
// carries no skip pointer.
//
// MERGE CONTRACT:
// ---------------
// A skip from index i targets an index j > i. Since the list is ascending,
// the value at j bounds everything skipped over, so a merge may take the
// skip whenever the target's key is ≤ the opponent's current key: nothing
// between i and j could have matched.
func (c *Cursor[T]) Skip() *Cursor[T] {
	if c.list.skips == nil {
		return nil
	}
	target := c.list.skips[c.index]
	if target == noSkip {
		return nil
	}
	return &Cursor[T]{list: c.list, index: target}
}

// ═══════════════════════════════════════════════════════════════════════════════
// POSTING TYPES
// ═══════════════════════════════════════════════════════════════════════════════
// The engine instantiates PostingsList at three element types:
//
//	PostingsList[Posting]            ranked index, one list per token
//	PostingsList[PositionalPosting]  positional index, one list per token
//	PostingsList[string]             bare DocID lists, the currency of
//	                                 boolean merges
//
// plus PostingsList[int] for the per-document position lists nested inside
// positional postings.
// ═══════════════════════════════════════════════════════════════════════════════

// Posting is one entry of a ranked postings list: a document and the
// weighted term frequency log10(10·count) of the token in it.
type Posting struct {
	DocID  string
	Weight float64
}

// PositionalPosting is one entry of a positional postings list: a document
// and the ascending zero-based offsets at which the token occurs in it.
// Positions carries its own skip pointers so the in-document adjacency
// merge can leap within a document too.
type PositionalPosting struct {
	DocID     string
	Positions *PostingsList[int]
}
