package testutil

import (
	"math/rand"
	"sort"
	"sync"

	"github.com/gomvg/featmatch/desc"
	"github.com/gomvg/featmatch/internal/vecmath"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float32 returns, as a float32, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float32() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float32()
}

// GaussianDescriptors generates rows descriptors of the given dimension with
// elements drawn from a standard normal distribution, row-major in a single
// backing array.
func (r *RNG) GaussianDescriptors(rows, dim int) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, rows*dim)
	for i := range data {
		data[i] = float32(r.rand.NormFloat64())
	}
	return data
}

// ByteDescriptors generates rows descriptors of the given dimension with
// elements in [0,256), row-major in a single backing array. The value range
// matches byte-quantized SIFT descriptors.
func (r *RNG) ByteDescriptors(rows, dim int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]byte, rows*dim)
	for i := range data {
		data[i] = byte(r.rand.Intn(256))
	}
	return data
}

// Jitter returns a copy of src with gaussian noise of the given scale added
// to every element. Small scales produce descriptors that stay nearest
// neighbors of their originals.
func (r *RNG) Jitter(src []float32, scale float32) []float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]float32, len(src))
	for i, v := range src {
		out[i] = v + float32(r.rand.NormFloat64())*scale
	}
	return out
}

// JitterBytes returns a copy of src with each element nudged by a random
// amount in [-maxDelta, maxDelta], clamped to the byte range.
func (r *RNG) JitterBytes(src []byte, maxDelta int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]byte, len(src))
	for i, v := range src {
		nudged := int(v) + r.rand.Intn(2*maxDelta+1) - maxDelta
		if nudged < 0 {
			nudged = 0
		} else if nudged > 255 {
			nudged = 255
		}
		out[i] = byte(nudged)
	}
	return out
}

// GridPositions returns n distinct keypoint positions laid out on a
// unit-spaced grid, 1000 positions per row.
func GridPositions(n int) []desc.Point {
	pos := make([]desc.Point, n)
	for i := range pos {
		pos[i] = desc.Point{X: float32(i % 1000), Y: float32(i / 1000)}
	}
	return pos
}

// SearchResult pairs a database row with its squared distance to a query.
type SearchResult struct {
	Row      uint32
	Distance float32
}

// BruteForceKNN performs an exact scan over db for ground truth. It returns
// the k rows closest to query ordered by ascending distance, with the row
// id breaking ties.
func BruteForceKNN[T desc.Scalar](db desc.Matrix[T], query []T, k int) []SearchResult {
	results := make([]SearchResult, db.Rows())
	for i := range results {
		results[i] = SearchResult{
			Row:      uint32(i),
			Distance: vecmath.SquaredL2(db.Row(i), query),
		}
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Row < results[j].Row
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}

// ComputeRecall computes recall@k by comparing approximate results against
// ground truth.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == 0 && len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	k := min(len(approximate), len(groundTruth))

	truthSet := make(map[uint32]struct{}, k)
	for i := range k {
		truthSet[groundTruth[i].Row] = struct{}{}
	}

	hits := 0
	for _, r := range approximate {
		if _, ok := truthSet[r.Row]; ok {
			hits++
		}
	}

	return float64(hits) / float64(k)
}
