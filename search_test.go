package lucent

import (
	"fmt"
	"slices"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// INTERSECTION TESTS
// ═══════════════════════════════════════════════════════════════════════════════
// Document IDs in these tests are zero-padded so lexicographic order (the
// order the engine actually sorts by) coincides with numeric order.
// ═══════════════════════════════════════════════════════════════════════════════

func docList(ids ...int) *PostingsList[string] {
	list := NewPostingsList[string]()
	for _, id := range ids {
		list.Append(fmt.Sprintf("%02d", id))
	}
	list.BuildSkips()
	return list
}

func docIDs(list *PostingsList[string]) []string {
	return slices.Clone(list.Values())
}

// docList runs BuildSkips on both operands, but at lengths 6 and 4 the skip
// interval falls below the threshold and no pointers are placed; the
// skip-taking path is exercised by TestIntersect_SkipsPreserveResult.
func TestIntersect_WithSkips(t *testing.T) {
	a := docList(1, 3, 5, 7, 9, 11)
	b := docList(2, 3, 7, 11)

	got := docIDs(Intersect(a, b))
	want := []string{"03", "07", "11"}
	if !slices.Equal(got, want) {
		t.Fatalf("Intersect = %v, want %v", got, want)
	}
}

func TestIntersect_Commutative(t *testing.T) {
	a := docList(1, 2, 4, 8, 16, 32, 64)
	b := docList(2, 3, 4, 31, 32, 33, 64, 65)

	ab := docIDs(Intersect(a, b))
	ba := docIDs(Intersect(b, a))
	if !slices.Equal(ab, ba) {
		t.Fatalf("AND not commutative: %v vs %v", ab, ba)
	}
}

func TestIntersect_Associative(t *testing.T) {
	a := docList(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)
	b := docList(2, 4, 6, 8, 10, 12)
	c := docList(3, 4, 8, 12, 13)

	left := docIDs(Intersect(Intersect(a, b), c))
	right := docIDs(Intersect(a, Intersect(b, c)))
	if !slices.Equal(left, right) {
		t.Fatalf("AND not associative: %v vs %v", left, right)
	}
	want := []string{"04", "08", "12"}
	if !slices.Equal(left, want) {
		t.Fatalf("AND(A,B,C) = %v, want %v", left, want)
	}
}

func TestIntersect_EmptyOperand(t *testing.T) {
	a := docList(1, 2, 3)
	empty := NewPostingsList[string]()

	if got := Intersect(a, empty); !got.Empty() {
		t.Fatalf("AND with empty right operand = %v, want empty", got.Values())
	}
	if got := Intersect(empty, a); !got.Empty() {
		t.Fatalf("AND with empty left operand = %v, want empty", got.Values())
	}
}

// Skips must never change the result, only the work done. Cross-check a
// skip-heavy merge against the same merge on skip-free copies.
func TestIntersect_SkipsPreserveResult(t *testing.T) {
	var aIDs, bIDs []int
	for i := 0; i < 300; i += 3 {
		aIDs = append(aIDs, i)
	}
	for i := 0; i < 300; i += 7 {
		bIDs = append(bIDs, i)
	}

	// IDs reach 297, so they are padded to three digits to stay ascending
	// in lexicographic order; docList's two-digit padding would not.
	padded := func(ids []int) *PostingsList[string] {
		list := NewPostingsList[string]()
		for _, id := range ids {
			list.Append(fmt.Sprintf("%03d", id))
		}
		return list
	}

	skipA, skipB := padded(aIDs), padded(bIDs)
	skipA.BuildSkips()
	skipB.BuildSkips()
	withSkips := docIDs(Intersect(skipA, skipB))

	withoutSkips := docIDs(Intersect(padded(aIDs), padded(bIDs)))

	if !slices.Equal(withSkips, withoutSkips) {
		t.Fatalf("skip-aware merge %v != plain merge %v", withSkips, withoutSkips)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// POSITIONAL MERGE TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func positionalList(entries map[string][]int) *PostingsList[PositionalPosting] {
	list := NewPostingsList[PositionalPosting]()
	for _, doc := range sortedKeys(entries) {
		positions := NewPostingsList[int]()
		positions.Extend(entries[doc])
		positions.BuildSkips()
		list.Append(PositionalPosting{DocID: doc, Positions: positions})
	}
	list.BuildSkips()
	return list
}

func TestMergePositions_Adjacency(t *testing.T) {
	tests := []struct {
		name   string
		before []int
		after  []int
		want   []int
	}{
		{"basic", []int{1, 4, 9}, []int{2, 7, 10}, []int{2, 10}},
		{"no adjacency", []int{0, 5}, []int{2, 8}, nil},
		{"all adjacent", []int{0, 1, 2}, []int{1, 2, 3}, []int{1, 2, 3}},
		{"empty before", nil, []int{1, 2}, nil},
		{"empty after", []int{1, 2}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := PostingsOf(tt.before...), PostingsOf(tt.after...)
			got := mergePositions(before, after).Values()
			if !slices.Equal(got, tt.want) {
				t.Fatalf("mergePositions(%v, %v) = %v, want %v", tt.before, tt.after, got, tt.want)
			}
		})
	}
}

// Merging a term's position list against itself yields exactly the offsets
// where the term occurs twice in a row.
func TestMergePositions_SameTerm(t *testing.T) {
	positions := PostingsOf(0, 1, 2, 5, 7, 8)
	got := mergePositions(positions, positions).Values()
	want := []int{1, 2, 8}
	if !slices.Equal(got, want) {
		t.Fatalf("self-merge = %v, want %v", got, want)
	}
}

func TestMergeAdjacent(t *testing.T) {
	// "quick" and "brown" with adjacency only in d1 and d3.
	quick := positionalList(map[string][]int{
		"d1": {1},
		"d2": {2},
		"d3": {0},
	})
	brown := positionalList(map[string][]int{
		"d1": {2},
		"d2": {1},
		"d3": {1},
		"d4": {0},
	})

	merged := MergeAdjacent(quick, brown)
	got := docIDs(ProjectPositional(merged))
	want := []string{"d1", "d3"}
	if !slices.Equal(got, want) {
		t.Fatalf("MergeAdjacent docs = %v, want %v", got, want)
	}

	// Result positions are those of the SECOND token.
	for _, p := range merged.Values() {
		var wantPos []int
		switch p.DocID {
		case "d1":
			wantPos = []int{2}
		case "d3":
			wantPos = []int{1}
		}
		if !slices.Equal(p.Positions.Values(), wantPos) {
			t.Errorf("doc %s positions = %v, want %v", p.DocID, p.Positions.Values(), wantPos)
		}
	}
}

func TestProjections(t *testing.T) {
	ranked := PostingsOf(
		Posting{DocID: "a", Weight: 1},
		Posting{DocID: "b", Weight: 2},
	)
	if got := ProjectRanked(ranked).Values(); !slices.Equal(got, []string{"a", "b"}) {
		t.Fatalf("ProjectRanked = %v", got)
	}

	pos := positionalList(map[string][]int{"a": {0}, "c": {3}})
	if got := ProjectPositional(pos).Values(); !slices.Equal(got, []string{"a", "c"}) {
		t.Fatalf("ProjectPositional = %v", got)
	}
}
