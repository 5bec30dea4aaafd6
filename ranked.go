package lucent

import "sort"

// ═══════════════════════════════════════════════════════════════════════════════
// RANKED RETRIEVAL: Cosine Scoring
// ═══════════════════════════════════════════════════════════════════════════════
// Free-text retrieval scores every document that shares at least one term
// with the query:
//
//	score(d) = Σ_t  q[t] · tf_d(t) · idf(t)   over query terms t in d
//	final(d) = score(d) / ‖d‖
//
// where tf_d is the stored log-weighted term frequency, idf comes from the
// dictionary, and ‖d‖ is the precomputed norm over tf weights - the lnc.ltc
// scheme with document-side length normalization.
//
// Before scoring, the query vector may pass through two optional rewrites:
//
//	EXPANSION  adds thesaurus synonyms, weighted by sense similarity
//	ROCCHIO    pulls the vector toward the centroid of known-relevant docs
//
// ORDERING:
// ---------
// Score descending, ties broken by DocID ascending, documents scoring at or
// below the threshold dropped. The ordering is fully deterministic.
// ═══════════════════════════════════════════════════════════════════════════════

// scoreQuery runs the full ranked pipeline over normalized query tokens.
// relevant may be empty; it only matters when relevance feedback is on.
func (e *Engine) scoreQuery(tokens []string, relevant []string) ([]string, error) {
	query := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		query[token]++
	}
	if len(query) == 0 {
		return nil, nil
	}

	if e.opts.QueryExpansion && e.thes != nil {
		query = e.expandQuery(query)
	}
	if e.opts.RelevanceFeedback && len(relevant) > 0 {
		var err error
		query, err = e.rocchio(query, relevant)
		if err != nil {
			return nil, err
		}
	}

	scores, err := e.accumulateScores(query)
	if err != nil {
		return nil, err
	}
	return e.orderByScore(scores), nil
}

// accumulateScores walks every query term's ranked postings once, summing
// weighted contributions per document, then length-normalizes. Terms are
// visited in sorted order so floating-point accumulation is reproducible.
func (e *Engine) accumulateScores(query map[string]float64) (map[string]float64, error) {
	scores := make(map[string]float64)
	for _, term := range sortedKeys(query) {
		entry, ok := e.dict.Lookup(term)
		if !ok {
			continue
		}
		postings, err := e.loadRanked(term)
		if err != nil {
			return nil, err
		}
		weight := query[term]
		for _, p := range postings.Values() {
			scores[p.DocID] += weight * p.Weight * entry.IDF
		}
	}

	// Only corpus documents ever get scored, and every corpus document
	// has a non-zero norm (it has at least one term).
	for doc := range scores {
		scores[doc] /= e.dict.Lengths[doc]
	}
	return scores, nil
}

// orderByScore sorts scored documents by (−score, DocID) and applies the
// threshold cut.
func (e *Engine) orderByScore(scores map[string]float64) []string {
	docs := make([]string, 0, len(scores))
	for doc, score := range scores {
		if score > e.opts.Threshold {
			docs = append(docs, doc)
		}
	}
	sort.Slice(docs, func(i, j int) bool {
		si, sj := scores[docs[i]], scores[docs[j]]
		if si != sj {
			return si > sj
		}
		return docs[i] < docs[j]
	})
	return docs
}

// ═══════════════════════════════════════════════════════════════════════════════
// QUERY EXPANSION
// ═══════════════════════════════════════════════════════════════════════════════

// expandQuery adds synonym weight to the query vector. For each query term
// the thesaurus yields (lemma, factor) rows - the factor already encodes
// how similar the synonym's sense is to the term's reference sense - and
// each row contributes factor · q[term] to its lemma. Contributions merge
// into the original vector by summation, so a term can gain weight both
// from its own count and from being a synonym of another term.
func (e *Engine) expandQuery(query map[string]float64) map[string]float64 {
	expanded := make(map[string]float64, len(query))
	for term, count := range query {
		expanded[term] += count
	}
	for _, term := range sortedKeys(query) {
		count := query[term]
		for _, syn := range e.thes.Synonyms(term) {
			expanded[e.norm.Normalize(syn.Lemma)] += syn.Factor * count
		}
	}
	return expanded
}

// ═══════════════════════════════════════════════════════════════════════════════
// ROCCHIO RELEVANCE FEEDBACK
// ═══════════════════════════════════════════════════════════════════════════════
// Rocchio nudges the query toward documents the user marked relevant:
//
//	q' = α·q + β·centroid(R)
//	centroid(R) = (1/|R|) · Σ_{d∈R} vec(d)
//
// vec(d) is the document's stored RAW-COUNT vector, not its tf weights -
// the centroid lives in count space and α/β do the balancing.
// ═══════════════════════════════════════════════════════════════════════════════

// rocchio rewrites the query vector from the relevant-document centroid.
// Relevant IDs not present in the corpus add no terms to the centroid sum,
// but they still count toward |R|.
func (e *Engine) rocchio(query map[string]float64, relevant []string) (map[string]float64, error) {
	sums := make(map[string]float64)
	for _, docID := range relevant {
		vector, err := e.loadVector(docID)
		if err != nil {
			return nil, err
		}
		for token, count := range vector {
			sums[token] += float64(count)
		}
	}

	modified := make(map[string]float64, len(query)+len(sums))
	for term, weight := range query {
		modified[term] += e.opts.Alpha * weight
	}
	size := float64(len(relevant))
	for token, sum := range sums {
		modified[token] += e.opts.Beta * sum / size
	}
	return modified, nil
}
