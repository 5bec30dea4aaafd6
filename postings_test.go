package lucent

import (
	"fmt"
	"testing"
)

// ═══════════════════════════════════════════════════════════════════════════════
// SKIP CONSTRUCTION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func intList(n int) *PostingsList[int] {
	list := NewPostingsList[int]()
	for i := 0; i < n; i++ {
		list.Append(i)
	}
	return list
}

func TestBuildSkips_Placement(t *testing.T) {
	tests := []struct {
		n    int
		want map[int]int // index → skip target; empty means no skips at all
	}{
		{0, nil},
		{1, nil},
		// k=2, interval=2 < 3: below threshold, no skips
		{6, nil},
		// k=3, interval=8/3=2 < 3: still below threshold
		{9, nil},
		// k=3, interval=10/3=3: pointers at 0,3,6 jumping 3
		{11, map[int]int{0: 3, 3: 6, 6: 9}},
		// k=4, interval=15/4=3
		{16, map[int]int{0: 3, 3: 6, 6: 9, 9: 12}},
		// k=10, interval=99/10=9
		{100, map[int]int{0: 9, 9: 18, 18: 27, 27: 36, 36: 45, 45: 54, 54: 63, 63: 72, 72: 81, 81: 90}},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			list := intList(tt.n)
			list.BuildSkips()

			if len(tt.want) == 0 {
				if list.skips != nil {
					t.Fatalf("n=%d: want no skips, got %v", tt.n, list.skips)
				}
				return
			}

			got := make(map[int]int)
			for i, target := range list.skips {
				if target != noSkip {
					got[i] = target
				}
			}
			if len(got) != len(tt.want) {
				t.Fatalf("n=%d: got skips %v, want %v", tt.n, got, tt.want)
			}
			for i, target := range tt.want {
				if got[i] != target {
					t.Errorf("n=%d: skip at %d = %d, want %d", tt.n, i, got[i], target)
				}
			}
		})
	}
}

// Every skip target must land at least two entries ahead and inside the
// list, and must not undercut the immediate successor's value.
func TestBuildSkips_TargetInvariant(t *testing.T) {
	for n := 0; n <= 200; n++ {
		list := intList(n)
		list.BuildSkips()
		if list.skips == nil {
			continue
		}
		for i, target := range list.skips {
			if target == noSkip {
				continue
			}
			if target < i+2 || target > n-1 {
				t.Fatalf("n=%d: skip %d → %d out of bounds", n, i, target)
			}
			if list.data[target] < list.data[i+1] {
				t.Fatalf("n=%d: skip %d → %d goes backwards", n, i, target)
			}
		}
	}
}

func TestAppend_InvalidatesSkips(t *testing.T) {
	list := intList(16)
	list.BuildSkips()
	if list.Head().Skip() == nil {
		t.Fatal("expected a skip at the head after BuildSkips")
	}

	list.Append(16)
	if list.Head().Skip() != nil {
		t.Fatal("Append must invalidate previously built skips")
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// CURSOR TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestHead_Empty(t *testing.T) {
	if head := NewPostingsList[int]().Head(); head != nil {
		t.Fatalf("Head() on empty list = %v, want nil", head)
	}
}

func TestCursor_Walk(t *testing.T) {
	list := PostingsOf(10, 20, 30)

	var got []int
	for c := list.Head(); c != nil; c = c.Next() {
		got = append(got, c.Value())
	}
	want := []int{10, 20, 30}
	if len(got) != len(want) {
		t.Fatalf("walk = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("walk = %v, want %v", got, want)
		}
	}
}

func TestCursor_SkipWithoutBuild(t *testing.T) {
	list := intList(100)
	if s := list.Head().Skip(); s != nil {
		t.Fatalf("Skip() before BuildSkips = %v, want nil", s)
	}
}

func TestCursor_SkipTarget(t *testing.T) {
	list := intList(11)
	list.BuildSkips()

	s := list.Head().Skip()
	if s == nil {
		t.Fatal("expected a skip pointer at index 0 for n=11")
	}
	if s.Value() != 3 {
		t.Fatalf("skip target value = %d, want 3", s.Value())
	}
}

func TestExtend(t *testing.T) {
	list := NewPostingsList[string]()
	list.Extend([]string{"a", "b"})
	list.Extend([]string{"c"})
	if list.Len() != 3 || list.Values()[2] != "c" {
		t.Fatalf("Extend: got %v", list.Values())
	}
	if !NewPostingsList[string]().Empty() {
		t.Fatal("fresh list should be empty")
	}
}
