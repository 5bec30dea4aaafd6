package lucent

import (
	"math"
	"slices"
	"testing"
)

// The S-corpus used throughout: term frequencies and idfs small enough to
// verify by hand.
//
//	d1 = "cat cat dog"   tf(cat)=log10(20), tf(dog)=1, ‖d1‖=√(log10(20)²+1)
//	d2 = "cat"           ‖d2‖=1
//	d3 = "dog"           ‖d3‖=1
//	idf(cat)=log10(3/2)  idf(dog)=log10(3)
func scoringEngine(t *testing.T) *Engine {
	t.Helper()
	return buildTestEngine(t, map[string]string{
		"d1": "cat cat dog",
		"d2": "cat",
		"d3": "dog",
	})
}

func TestScoring_ExactScores(t *testing.T) {
	engine := scoringEngine(t)

	scores, err := engine.accumulateScores(map[string]float64{"cat": 1})
	if err != nil {
		t.Fatalf("accumulateScores: %v", err)
	}

	idfCat := math.Log10(1.5)
	wantD1 := math.Log10(20) * idfCat / math.Sqrt(math.Log10(20)*math.Log10(20)+1)
	wantD2 := 1 * idfCat / 1

	if len(scores) != 2 {
		t.Fatalf("scores = %v, want exactly d1 and d2", scores)
	}
	if !almostEqual(scores["d1"], wantD1) {
		t.Errorf("score(d1) = %v, want %v", scores["d1"], wantD1)
	}
	if !almostEqual(scores["d2"], wantD2) {
		t.Errorf("score(d2) = %v, want %v", scores["d2"], wantD2)
	}
}

func TestScoring_Ordering(t *testing.T) {
	engine := scoringEngine(t)

	// d2 is a pure "cat" document, so normalization puts it first; d3
	// never matches and is absent entirely.
	got, err := engine.scoreQuery([]string{"cat"}, nil)
	if err != nil {
		t.Fatalf("scoreQuery: %v", err)
	}
	if !slices.Equal(got, []string{"d2", "d1"}) {
		t.Fatalf("ranking = %v, want [d2 d1]", got)
	}
}

// Cosine ordering is invariant under scaling the query vector.
func TestScoring_ScaleInvariantOrdering(t *testing.T) {
	engine := buildTestEngine(t, map[string]string{
		"d1": "cat cat dog",
		"d2": "cat dog dog",
		"d3": "cat",
		"d4": "dog",
	})

	once, err := engine.scoreQuery([]string{"cat", "dog"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	thrice, err := engine.scoreQuery([]string{"cat", "dog", "cat", "dog", "cat", "dog"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(once, thrice) {
		t.Fatalf("scaled query reordered results: %v vs %v", once, thrice)
	}
}

func TestScoring_Threshold(t *testing.T) {
	engine := scoringEngine(t)
	opts := DefaultOptions()
	opts.Threshold = 0.15
	engine.SetOptions(opts)

	// score(d1) ≈ 0.1396 falls at the threshold cut; d2 ≈ 0.1761 survives.
	got, err := engine.scoreQuery([]string{"cat"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"d2"}) {
		t.Fatalf("thresholded ranking = %v, want [d2]", got)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// ROCCHIO TESTS
// ═══════════════════════════════════════════════════════════════════════════════

func TestRocchio_RaisesRelevantDoc(t *testing.T) {
	engine := scoringEngine(t)
	opts := DefaultOptions()
	opts.RelevanceFeedback = true
	engine.SetOptions(opts)

	// Feedback on d3 adds 0.75·{dog:1} to the query, so dog-bearing d3
	// overtakes d1.
	got, err := engine.scoreQuery([]string{"cat"}, []string{"d3"})
	if err != nil {
		t.Fatal(err)
	}
	d1 := slices.Index(got, "d1")
	d3 := slices.Index(got, "d3")
	if d3 == -1 || d1 == -1 || d3 > d1 {
		t.Fatalf("feedback ranking = %v, want d3 above d1", got)
	}
}

// With β=0 the centroid contributes nothing: feedback must reproduce the
// plain query's ranking and scores.
func TestRocchio_BetaZeroIsIdentity(t *testing.T) {
	engine := scoringEngine(t)

	plain, err := engine.scoreQuery([]string{"cat"}, nil)
	if err != nil {
		t.Fatal(err)
	}

	opts := DefaultOptions()
	opts.RelevanceFeedback = true
	opts.Beta = 0
	engine.SetOptions(opts)
	feedback, err := engine.scoreQuery([]string{"cat"}, []string{"d3"})
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(plain, feedback) {
		t.Fatalf("β=0 feedback %v != plain %v", feedback, plain)
	}
}

func TestRocchio_CentroidAveraging(t *testing.T) {
	engine := scoringEngine(t)

	modified, err := engine.rocchio(map[string]float64{"cat": 1}, []string{"d1", "d3"})
	if err != nil {
		t.Fatal(err)
	}

	// centroid = ({cat:2, dog:1} + {dog:1}) / 2 = {cat:1, dog:1}
	if !almostEqual(modified["cat"], 1*1+0.75*1) {
		t.Errorf("q'(cat) = %v, want 1.75", modified["cat"])
	}
	if !almostEqual(modified["dog"], 0.75*1) {
		t.Errorf("q'(dog) = %v, want 0.75", modified["dog"])
	}
}

func TestRocchio_UnknownRelevantDoc(t *testing.T) {
	engine := scoringEngine(t)

	modified, err := engine.rocchio(map[string]float64{"cat": 1}, []string{"ghost"})
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(modified["cat"], 1) || len(modified) != 1 {
		t.Fatalf("q' = %v, want {cat:1}", modified)
	}
}

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY EXPANSION TESTS
// ═══════════════════════════════════════════════════════════════════════════════

// mapThesaurus is an in-memory Thesaurus for tests.
type mapThesaurus map[string][]Synonym

func (m mapThesaurus) Synonyms(token string) []Synonym {
	return m[token]
}

func TestExpansion_AddsSynonymWeight(t *testing.T) {
	engine := scoringEngine(t)
	opts := DefaultOptions()
	opts.QueryExpansion = true
	engine.SetOptions(opts)
	engine.SetThesaurus(mapThesaurus{
		"cat": {{Lemma: "dog", Factor: 0.5}},
	})

	// Expansion gives the query a dog component, so the dog-only d3 is
	// scored at all.
	got, err := engine.scoreQuery([]string{"cat"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Contains(got, "d3") {
		t.Fatalf("expanded ranking = %v, want d3 present", got)
	}
}

func TestExpansion_MergesBySum(t *testing.T) {
	engine := scoringEngine(t)
	engine.SetThesaurus(mapThesaurus{
		"cat": {{Lemma: "dog", Factor: 0.5}},
		"dog": {{Lemma: "cat", Factor: 0.25}},
	})

	expanded := engine.expandQuery(map[string]float64{"cat": 2, "dog": 1})
	if !almostEqual(expanded["cat"], 2+0.25*1) {
		t.Errorf("expanded cat = %v, want 2.25", expanded["cat"])
	}
	if !almostEqual(expanded["dog"], 1+0.5*2) {
		t.Errorf("expanded dog = %v, want 2", expanded["dog"])
	}
}

func TestExpansion_WithoutThesaurusIsNoOp(t *testing.T) {
	engine := scoringEngine(t)
	opts := DefaultOptions()
	opts.QueryExpansion = true
	engine.SetOptions(opts)

	got, err := engine.scoreQuery([]string{"cat"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"d2", "d1"}) {
		t.Fatalf("expansion without thesaurus changed ranking: %v", got)
	}
}
