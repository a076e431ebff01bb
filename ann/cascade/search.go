package cascade

import (
	"fmt"
	"sort"

	"github.com/gomvg/featmatch/ann"
	"github.com/gomvg/featmatch/desc"
	"github.com/gomvg/featmatch/internal/bitset"
	"github.com/gomvg/featmatch/internal/vecmath"
)

type rankedCandidate struct {
	row  uint32
	dist float32
}

// searchScratch is reused across the query rows of one Search call.
type searchScratch struct {
	candidates []uint32
	seen       *bitset.FastBitSet
	byHamming  [][]uint32
	ranked     []rankedCandidate
}

func newSearchScratch(databaseRows, hashBits int) *searchScratch {
	return &searchScratch{
		seen:      bitset.NewFast(databaseRows),
		byHamming: make([][]uint32, hashBits+1),
	}
}

// Search finds, for every query row with enough bucket candidates, the k
// database rows with the smallest exact squared L2 distance among the
// hamming-closest candidates. Rows whose buckets yield k or fewer
// candidates, or with fewer than k re-ranked survivors, emit nothing.
// Both views must have been built by this hasher.
func (h *Hasher[T]) Search(query *Hashed, queryMat desc.Matrix[T], database *Hashed, databaseMat desc.Matrix[T], k int) (ann.Candidates, error) {
	var out ann.Candidates

	if k < 1 {
		return out, ErrInvalidK
	}
	if query == nil || database == nil {
		return out, fmt.Errorf("cascade: search requires built indexes")
	}
	if query.rows != queryMat.Rows() || database.rows != databaseMat.Rows() {
		return out, fmt.Errorf("cascade: index row count does not match matrix row count")
	}
	if query.rows > 0 && queryMat.Dim() != h.dim {
		return out, fmt.Errorf("cascade: query dimension %d does not match hasher dimension %d", queryMat.Dim(), h.dim)
	}
	if database.rows > 0 && databaseMat.Dim() != h.dim {
		return out, fmt.Errorf("cascade: database dimension %d does not match hasher dimension %d", databaseMat.Dim(), h.dim)
	}
	if query.rows == 0 || database.rows == 0 {
		return out, nil
	}

	sc := newSearchScratch(database.rows, h.hashBits)
	for qi := 0; qi < query.rows; qi++ {
		h.searchRow(&out, sc, qi, query, queryMat, database, databaseMat, k)
	}
	return out, nil
}

func (h *Hasher[T]) searchRow(out *ann.Candidates, sc *searchScratch, qi int, query *Hashed, queryMat desc.Matrix[T], database *Hashed, databaseMat desc.Matrix[T], k int) {
	// Gather the database rows sharing a bucket with the query in any
	// group. Duplicates are kept here: the count gates the row exactly as
	// gathered.
	sc.candidates = sc.candidates[:0]
	for g := 0; g < h.bucketGroups; g++ {
		id := query.bucketIDs[qi*h.bucketGroups+g]
		sc.candidates = append(sc.candidates, database.buckets[g][id]...)
	}
	if len(sc.candidates) <= k {
		return
	}

	// Rank unique candidates by hamming distance of the primary codes.
	// Within one distance, candidates keep first-seen order.
	for d := range sc.byHamming {
		sc.byHamming[d] = sc.byHamming[d][:0]
	}
	qcode := query.codes[qi*query.words : (qi+1)*query.words]
	for _, c := range sc.candidates {
		if sc.seen.TestAndSet(uint64(c)) {
			continue
		}
		d := vecmath.Hamming(qcode, database.codes[int(c)*database.words:(int(c)+1)*database.words])
		sc.byHamming[d] = append(sc.byHamming[d], c)
	}
	sc.seen.Reset()

	// Re-rank the hamming-closest candidates with exact distances.
	sc.ranked = sc.ranked[:0]
	qrow := queryMat.Row(qi)
	for d := 0; d <= h.hashBits && len(sc.ranked) < h.topCandidates; d++ {
		for _, c := range sc.byHamming[d] {
			if len(sc.ranked) >= h.topCandidates {
				break
			}
			sc.ranked = append(sc.ranked, rankedCandidate{
				row:  c,
				dist: vecmath.SquaredL2(databaseMat.Row(int(c)), qrow),
			})
		}
	}
	if len(sc.ranked) < k {
		return
	}

	sort.Slice(sc.ranked, func(i, j int) bool {
		if sc.ranked[i].dist != sc.ranked[j].dist {
			return sc.ranked[i].dist < sc.ranked[j].dist
		}
		return sc.ranked[i].row < sc.ranked[j].row
	})
	for i := 0; i < k; i++ {
		out.Append(uint32(qi), sc.ranked[i].row, sc.ranked[i].dist)
	}
}
