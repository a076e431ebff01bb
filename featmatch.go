package featmatch

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/gomvg/featmatch/ann"
	"github.com/gomvg/featmatch/ann/cascade"
	"github.com/gomvg/featmatch/core"
	"github.com/gomvg/featmatch/desc"
)

// Correspondence links one descriptor row of the pair's first view to one
// of its second view.
type Correspondence struct {
	// IndexInI is the descriptor row in the pair's first view.
	IndexInI uint32

	// IndexInJ is the descriptor row in the pair's second view.
	IndexInJ uint32
}

// PairwiseMatches maps each matched view pair, keyed exactly as submitted,
// to its filtered correspondences. Pairs that produced no correspondences
// are absent.
type PairwiseMatches map[core.Pair][]Correspondence

// Matcher runs cascade hashing matching over view pairs.
// A Matcher is stateless between runs and safe for concurrent use.
type Matcher struct {
	opts options
}

// New creates a Matcher.
func New(optFns ...Option) *Matcher {
	return &Matcher{opts: applyOptions(optFns)}
}

// Match computes correspondences for every submitted pair. The element
// type of the run is taken from the source and dispatched internally; use
// MatchWith to supply a custom index.
//
// A nil source or an empty pair list yields an empty result. Sources
// serving binary descriptors are rejected with ErrBinaryDescriptors.
func (m *Matcher) Match(ctx context.Context, src desc.Source, pairs []core.Pair) (PairwiseMatches, error) {
	if err := validateRatio(m.opts.ratio); err != nil {
		return PairwiseMatches{}, err
	}
	if src == nil {
		return PairwiseMatches{}, nil
	}
	if src.BinaryOnly() {
		return PairwiseMatches{}, ErrBinaryDescriptors
	}

	elem, err := sampleElementType(src, pairs)
	if err != nil {
		return PairwiseMatches{}, err
	}
	switch elem {
	case desc.ElementTypeUint8:
		return matchRun(ctx, cascade.NewFactory[uint8](), src, pairs, m.opts)
	case desc.ElementTypeFloat32:
		return matchRun(ctx, cascade.NewFactory[float32](), src, pairs, m.opts)
	default:
		return PairwiseMatches{}, &ErrUnsupportedElementType{ElementType: elem}
	}
}

// MatchWith runs one matching pass with a caller-supplied index factory,
// for sources whose element type is known statically or for alternative
// index implementations. Views whose element type or dimension differ from
// the run's are skipped.
func MatchWith[T desc.Scalar, X any](ctx context.Context, factory ann.Factory[T, X], src desc.Source, pairs []core.Pair, optFns ...Option) (PairwiseMatches, error) {
	opts := applyOptions(optFns)
	if err := validateRatio(opts.ratio); err != nil {
		return PairwiseMatches{}, err
	}
	if src == nil {
		return PairwiseMatches{}, nil
	}
	if src.BinaryOnly() {
		return PairwiseMatches{}, ErrBinaryDescriptors
	}
	return matchRun(ctx, factory, src, pairs, opts)
}

func validateRatio(ratio float32) error {
	if !(ratio > 0 && ratio <= 1) {
		return ErrInvalidRatio
	}
	return nil
}

// sampleElementType picks the run's element type: the type of the first
// referenced view holding descriptors, in ascending view order, falling
// back to the first referenced view when every view is empty.
func sampleElementType(src desc.Source, pairs []core.Pair) (desc.ElementType, error) {
	referenced := roaring.New()
	for _, p := range pairs {
		referenced.Add(uint32(p.I))
		referenced.Add(uint32(p.J))
	}

	first := desc.ElementTypeFloat32
	firstSet := false
	it := referenced.Iterator()
	for it.HasNext() {
		id := core.ViewID(it.Next())
		elem, err := src.ElementType(id)
		if err != nil {
			return desc.ElementTypeInvalid, fmt.Errorf("featmatch: element type of view %d: %w", id, err)
		}
		if !firstSet {
			first = elem
			firstSet = true
		}
		n, err := src.Count(id)
		if err != nil {
			return desc.ElementTypeInvalid, fmt.Errorf("featmatch: descriptor count of view %d: %w", id, err)
		}
		if n > 0 {
			return elem, nil
		}
	}
	return first, nil
}
