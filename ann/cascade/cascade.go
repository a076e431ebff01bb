// Package cascade implements cascade hashing for approximate nearest-neighbor
// matching of image feature descriptors. Descriptors are zero-mean shifted,
// sign-projected into a short primary code used for hamming ranking and into
// several independent bucket groups used for candidate gathering; the best
// hamming candidates are re-ranked by exact squared L2 distance.
package cascade

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/gomvg/featmatch/ann"
	"github.com/gomvg/featmatch/desc"
)

const (
	// DefaultHashBits is the primary hash code length in bits.
	DefaultHashBits = 128

	// DefaultBucketGroups is the number of independent bucket groups.
	DefaultBucketGroups = 6

	// DefaultBucketBits is the number of bits per bucket id, giving
	// 2^DefaultBucketBits buckets per group.
	DefaultBucketBits = 10

	// DefaultTopCandidates is how many hamming-ranked candidates are
	// re-ranked with exact distances per query row.
	DefaultTopCandidates = 10

	// DefaultSeed seeds the projection generator. The seed is fixed so that
	// independently constructed hashers rank candidates identically.
	DefaultSeed = 5489

	// maxBucketBits keeps bucket ids within uint16.
	maxBucketBits = 16
)

// Compile-time checks
var (
	_ ann.Searcher[uint8, *Hashed]   = (*Hasher[uint8])(nil)
	_ ann.Searcher[float32, *Hashed] = (*Hasher[float32])(nil)
)

// ErrInvalidK is returned when Search is called with k < 1.
var ErrInvalidK = errors.New("cascade: k must be at least 1")

// Options represents the options for configuring a Hasher.
type Options struct {
	HashBits      int
	BucketGroups  int
	BucketBits    int
	TopCandidates int
	Seed          int64
}

var DefaultOptions = Options{
	HashBits:      DefaultHashBits,
	BucketGroups:  DefaultBucketGroups,
	BucketBits:    DefaultBucketBits,
	TopCandidates: DefaultTopCandidates,
	Seed:          DefaultSeed,
}

// Hasher holds the shared random projections for one descriptor dimension.
// A Hasher is immutable after construction and safe for concurrent use.
type Hasher[T desc.Scalar] struct {
	dim           int
	hashBits      int
	bucketGroups  int
	bucketBits    int
	bucketCount   int
	topCandidates int
	words         int

	// primary[b] and secondary[g*bucketBits+b] are dim-length gaussian
	// projection rows.
	primary   [][]float32
	secondary [][]float32
}

// New creates a Hasher for descriptors of the given dimension.
func New[T desc.Scalar](dim int, optFns ...func(o *Options)) (*Hasher[T], error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if dim <= 0 {
		return nil, fmt.Errorf("cascade: dimension must be positive, got %d", dim)
	}
	if opts.HashBits <= 0 || opts.HashBits%64 != 0 {
		return nil, fmt.Errorf("cascade: hash bits must be a positive multiple of 64, got %d", opts.HashBits)
	}
	if opts.BucketGroups <= 0 {
		return nil, fmt.Errorf("cascade: bucket groups must be positive, got %d", opts.BucketGroups)
	}
	if opts.BucketBits <= 0 || opts.BucketBits > maxBucketBits {
		return nil, fmt.Errorf("cascade: bucket bits must be in [1,%d], got %d", maxBucketBits, opts.BucketBits)
	}
	if opts.TopCandidates <= 0 {
		return nil, fmt.Errorf("cascade: top candidates must be positive, got %d", opts.TopCandidates)
	}

	h := &Hasher[T]{
		dim:           dim,
		hashBits:      opts.HashBits,
		bucketGroups:  opts.BucketGroups,
		bucketBits:    opts.BucketBits,
		bucketCount:   1 << opts.BucketBits,
		topCandidates: opts.TopCandidates,
		words:         opts.HashBits / 64,
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	h.primary = gaussianRows(rng, h.hashBits, dim)
	h.secondary = gaussianRows(rng, h.bucketGroups*h.bucketBits, dim)

	return h, nil
}

// NewFactory adapts New into the factory form the matching pipeline
// consumes, forwarding optFns to every per-run construction.
func NewFactory[T desc.Scalar](optFns ...func(o *Options)) ann.Factory[T, *Hashed] {
	return func(dim int) (ann.Searcher[T, *Hashed], error) {
		return New[T](dim, optFns...)
	}
}

// Dim returns the descriptor dimension the hasher was built for.
func (h *Hasher[T]) Dim() int { return h.dim }

func gaussianRows(rng *rand.Rand, rows, dim int) [][]float32 {
	data := make([]float32, rows*dim)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	out := make([][]float32, rows)
	for i := range out {
		out[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return out
}
