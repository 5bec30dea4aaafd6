package lucent

// ═══════════════════════════════════════════════════════════════════════════════
// MERGE KERNELS: Where Skip Pointers Earn Their Keep
// ═══════════════════════════════════════════════════════════════════════════════
// Every boolean and phrase operation reduces to ordered two-pointer merges
// over postings lists. Both kernels share one shape:
//
//	while both cursors live:
//	    keys equal   → emit, advance both
//	    left behind  → advance left  (taking the skip when it won't overshoot)
//	    right behind → advance right (symmetric)
//
// TAKING A SKIP:
// --------------
// A: [1] [3] [5] [7] [9] [11]      skips: 0→3 (value 7)
// B: [2] [3] [7] [11]
//
// (The pointer is drawn for illustration: BuildSkips gives a six-entry list
// an interval of 2, below the threshold, so it actually carries no skips.)
//
// With A at 1 and B at 7, A's skip targets 7 and 7 ≤ 7, so A leaps straight
// from index 0 to index 3 - entries 3 and 5 are never compared. The guard
// `skip target ≤ opponent key` is what makes the leap safe: an ascending
// list cannot hide a match inside the skipped span.
//
// Merge RESULTS carry no skip pointers - they are intermediates, consumed
// once, and the skip rule only pays off on lists reused across merges.
// ═══════════════════════════════════════════════════════════════════════════════

// Intersect computes the conjunction of two DocID lists, both ascending.
// The output is ascending and duplicate-free.
func Intersect(a, b *PostingsList[string]) *PostingsList[string] {
	result := NewPostingsList[string]()
	ca, cb := a.Head(), b.Head()

	for ca != nil && cb != nil {
		av, bv := ca.Value(), cb.Value()
		switch {
		case av == bv:
			result.Append(av)
			ca = ca.Next()
			cb = cb.Next()
		case av < bv:
			if s := ca.Skip(); s != nil && s.Value() <= bv {
				ca = s
			} else {
				ca = ca.Next()
			}
		default:
			if s := cb.Skip(); s != nil && s.Value() <= av {
				cb = s
			} else {
				cb = cb.Next()
			}
		}
	}
	return result
}

// MergeAdjacent merges two positional lists under the bigram-adjacency
// predicate. For every document present in both, it emits the positions p
// such that p−1 occurs in before and p occurs in after - the positions of
// the SECOND token of each matched bigram. Documents with no adjacent pair
// are omitted.
//
// Keeping second-token positions is what makes the merge composable: the
// result of matching (t₁ t₂) looks exactly like a positional list for a
// single synthetic token sitting at t₂'s offsets, so matching (t₁ t₂ t₃)
// is just another MergeAdjacent against t₃'s list.
func MergeAdjacent(before, after *PostingsList[PositionalPosting]) *PostingsList[PositionalPosting] {
	result := NewPostingsList[PositionalPosting]()
	cb, ca := before.Head(), after.Head()

	for cb != nil && ca != nil {
		bv, av := cb.Value(), ca.Value()
		switch {
		case bv.DocID == av.DocID:
			merged := mergePositions(bv.Positions, av.Positions)
			if !merged.Empty() {
				result.Append(PositionalPosting{DocID: bv.DocID, Positions: merged})
			}
			cb = cb.Next()
			ca = ca.Next()
		case bv.DocID < av.DocID:
			if s := cb.Skip(); s != nil && s.Value().DocID <= av.DocID {
				cb = s
			} else {
				cb = cb.Next()
			}
		default:
			if s := ca.Skip(); s != nil && s.Value().DocID <= bv.DocID {
				ca = s
			} else {
				ca = ca.Next()
			}
		}
	}
	return result
}

// mergePositions is the in-document half of MergeAdjacent: the same
// skip-aware walk over two ascending offset lists, with the adjacency
// predicate before == after − 1 in place of equality.
//
// EXAMPLE:
// --------
// before: [1, 4, 9]   after: [2, 7, 10]
//
//	1 == 2−1  → emit 2, advance both
//	4 <  7−1  → advance before → 9
//	9 >  7−1  → advance after → 10
//	9 == 10−1 → emit 10
//
// result: [2, 10]
func mergePositions(before, after *PostingsList[int]) *PostingsList[int] {
	result := NewPostingsList[int]()
	cb, ca := before.Head(), after.Head()

	for cb != nil && ca != nil {
		bv, av := cb.Value(), ca.Value()
		switch {
		case bv == av-1:
			result.Append(av)
			cb = cb.Next()
			ca = ca.Next()
		case bv < av-1:
			if s := cb.Skip(); s != nil && s.Value() <= av-1 {
				cb = s
			} else {
				cb = cb.Next()
			}
		default:
			if s := ca.Skip(); s != nil && s.Value()-1 <= bv {
				ca = s
			} else {
				ca = ca.Next()
			}
		}
	}
	return result
}

// ═══════════════════════════════════════════════════════════════════════════════
// PROJECTIONS
// ═══════════════════════════════════════════════════════════════════════════════
// Boolean merges operate on bare DocID lists; these project the two richer
// list kinds down to that currency. Projections rebuild skips - unlike
// merge intermediates, projected lists head straight into Intersect folds
// where the skips get used.
// ═══════════════════════════════════════════════════════════════════════════════

// ProjectRanked extracts the ascending DocID list of a ranked postings list.
func ProjectRanked(list *PostingsList[Posting]) *PostingsList[string] {
	ids := NewPostingsList[string]()
	for _, p := range list.Values() {
		ids.Append(p.DocID)
	}
	ids.BuildSkips()
	return ids
}

// ProjectPositional extracts the ascending DocID list of a positional
// postings list.
func ProjectPositional(list *PostingsList[PositionalPosting]) *PostingsList[string] {
	ids := NewPostingsList[string]()
	for _, p := range list.Values() {
		ids.Append(p.DocID)
	}
	ids.BuildSkips()
	return ids
}

// ═══════════════════════════════════════════════════════════════════════════════
// PHRASE RESOLUTION
// ═══════════════════════════════════════════════════════════════════════════════
// A phrase of k tokens reduces to k−1 adjacency merges:
//
//	"quick brown fox"
//	  running ← positional("quick")
//	  running ← MergeAdjacent(running, positional("brown"))
//	  running ← MergeAdjacent(running, positional("fox"))
//
// After each merge, `running` holds the documents matching the prefix so
// far, with positions at the offset of the last matched token - see
// MergeAdjacent on why that composes.
// ═══════════════════════════════════════════════════════════════════════════════

// ResolvePhrase reduces an ordered token sequence to the positional list of
// documents containing the phrase contiguously. A single-token phrase is
// just that token's positional list. An empty token slice, or any token
// absent from the dictionary, resolves to an empty list.
func (e *Engine) ResolvePhrase(tokens []string) (*PostingsList[PositionalPosting], error) {
	if len(tokens) == 0 {
		return NewPostingsList[PositionalPosting](), nil
	}

	running, err := e.loadPositional(tokens[0])
	if err != nil {
		return nil, err
	}
	for _, token := range tokens[1:] {
		if running.Empty() {
			break
		}
		next, err := e.loadPositional(token)
		if err != nil {
			return nil, err
		}
		running = MergeAdjacent(running, next)
	}
	return running, nil
}
