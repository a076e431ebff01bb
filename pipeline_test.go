package featmatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gomvg/featmatch/ann"
	"github.com/gomvg/featmatch/core"
	"github.com/gomvg/featmatch/desc"
)

func TestPlanPairs(t *testing.T) {
	pairs := []core.Pair{
		{I: 5, J: 1},
		{I: 2, J: 9},
		{I: 5, J: 3},
		{I: 5, J: 1}, // duplicate submission is kept
		{I: 7, J: 2},
	}

	plan := planPairs(pairs)

	assert.Equal(t, []core.ViewID{2, 5, 7}, plan.order)
	assert.Equal(t, []core.ViewID{1, 3, 1}, plan.groups[5])
	assert.Equal(t, []core.ViewID{9}, plan.groups[2])
	assert.Equal(t, []core.ViewID{2}, plan.groups[7])

	assert.Equal(t, uint64(6), plan.referenced.GetCardinality())
	for _, id := range []uint32{1, 2, 3, 5, 7, 9} {
		assert.True(t, plan.referenced.Contains(id))
	}
}

func TestPlanPairs_Empty(t *testing.T) {
	plan := planPairs(nil)

	assert.Empty(t, plan.order)
	assert.Empty(t, plan.groups)
	assert.Equal(t, uint64(0), plan.referenced.GetCardinality())
}

func TestZeroMean(t *testing.T) {
	// Three referenced views: one with mean (2,4), one empty, one unusable.
	// The stack has one row per view, zeros included, so the divisor is 3.
	plan := planPairs([]core.Pair{{I: 1, J: 2}, {I: 1, J: 3}})

	views := map[core.ViewID]*viewData[float32]{
		1: {usable: true, means: []float32{2, 4}},
		2: {usable: true, means: []float32{}},
		3: {usable: false},
	}

	norm := zeroMean(views, plan, 2)
	assert.Equal(t, []float32{2.0 / 3.0, 4.0 / 3.0}, norm)
}

// TestZeroMean_TwoLevel loads three views holding 1, 1, and 2 descriptors.
// The per-view means are averaged first, so the view with two rows carries
// the same weight as the single-row views and the result differs from the
// flat mean over all four rows.
func TestZeroMean_TwoLevel(t *testing.T) {
	src := desc.NewMemSource()
	require.NoError(t, desc.AddView(src, 1, 2, []float32{0, 4}, []desc.Point{{X: 0, Y: 0}}))
	require.NoError(t, desc.AddView(src, 2, 2, []float32{2, 0}, []desc.Point{{X: 1, Y: 0}}))
	require.NoError(t, desc.AddView(src, 3, 2, []float32{4, 0, 8, 0}, []desc.Point{{X: 2, Y: 0}, {X: 3, Y: 0}}))

	plan := planPairs([]core.Pair{{I: 1, J: 2}, {I: 1, J: 3}})
	views, dim, err := loadViews[float32](context.Background(), src, plan, applyOptions(nil))
	require.NoError(t, err)
	require.Equal(t, 2, dim)

	// Per-view means (0,4), (2,0), (6,0) average to (8/3, 4/3); the flat
	// mean over the four rows would be (3.5, 1).
	norm := zeroMean(views, plan, dim)
	assert.Equal(t, []float32{8.0 / 3.0, 4.0 / 3.0}, norm)
}

func TestZeroMean_AllContribute(t *testing.T) {
	plan := planPairs([]core.Pair{{I: 1, J: 2}})

	views := map[core.ViewID]*viewData[float32]{
		1: {usable: true, means: []float32{1, 3}},
		2: {usable: true, means: []float32{3, 5}},
	}

	norm := zeroMean(views, plan, 2)
	assert.Equal(t, []float32{2, 4}, norm)
}

func TestFilterRatio(t *testing.T) {
	ratio := float32(0.8)
	ratioSq := ratio * ratio

	var c ann.Candidates
	// Unambiguous: best far below the threshold.
	c.Append(0, 10, 1.0)
	c.Append(0, 11, 100.0)
	// Boundary: best exactly at ratio^2 * second is kept.
	c.Append(1, 20, ratioSq*2.0)
	c.Append(1, 21, 2.0)
	// Ambiguous: best just above the threshold.
	c.Append(2, 30, ratioSq*2.0+0.01)
	c.Append(2, 31, 2.0)
	// Both distances zero: kept, zero is not greater than zero.
	c.Append(3, 40, 0)
	c.Append(3, 41, 0)

	matches := filterRatio(c, ratioSq)

	assert.Equal(t, []Correspondence{
		{IndexInI: 10, IndexInJ: 0},
		{IndexInI: 20, IndexInJ: 1},
		{IndexInI: 40, IndexInJ: 3},
	}, matches)
}

func TestFilterRatio_Empty(t *testing.T) {
	assert.Empty(t, filterRatio(ann.Candidates{}, 0.64))
}

func TestDedupeExact(t *testing.T) {
	matches := []Correspondence{
		{IndexInI: 3, IndexInJ: 1},
		{IndexInI: 1, IndexInJ: 2},
		{IndexInI: 3, IndexInJ: 1},
		{IndexInI: 1, IndexInJ: 1},
	}

	got := dedupeExact(matches)

	assert.Equal(t, []Correspondence{
		{IndexInI: 1, IndexInJ: 1},
		{IndexInI: 1, IndexInJ: 2},
		{IndexInI: 3, IndexInJ: 1},
	}, got)
}

func TestDedupeExact_Short(t *testing.T) {
	assert.Empty(t, dedupeExact(nil))

	one := []Correspondence{{IndexInI: 1, IndexInJ: 2}}
	assert.Equal(t, one, dedupeExact(one))
}

func TestDedupePositions(t *testing.T) {
	posI := []desc.Point{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 9, Y: 9}}
	posJ := []desc.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 2, Y: 2}}

	matches := []Correspondence{
		{IndexInI: 0, IndexInJ: 0},
		{IndexInI: 1, IndexInJ: 1},
		{IndexInI: 2, IndexInJ: 2},
	}

	// Rows 1 and 2 of view J share a position, so both matches go, the
	// colliding group is not represented by a survivor.
	got := dedupePositions(matches, posI, posJ)
	assert.Equal(t, []Correspondence{{IndexInI: 0, IndexInJ: 0}}, got)
}

func TestDedupePositions_CollisionInFirstView(t *testing.T) {
	posI := []desc.Point{{X: 4, Y: 4}, {X: 4, Y: 4}, {X: 9, Y: 9}}
	posJ := []desc.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}

	matches := []Correspondence{
		{IndexInI: 0, IndexInJ: 0},
		{IndexInI: 1, IndexInJ: 1},
		{IndexInI: 2, IndexInJ: 2},
	}

	got := dedupePositions(matches, posI, posJ)
	assert.Equal(t, []Correspondence{{IndexInI: 2, IndexInJ: 2}}, got)
}

func TestDedupePositions_Short(t *testing.T) {
	posI := []desc.Point{{X: 4, Y: 4}}
	posJ := []desc.Point{{X: 4, Y: 4}}

	one := []Correspondence{{IndexInI: 0, IndexInJ: 0}}
	assert.Equal(t, one, dedupePositions(one, posI, posJ))
}

func TestSampleElementType(t *testing.T) {
	src := desc.NewMemSource()
	require.NoError(t, desc.AddView[uint8](src, 1, 4, nil, nil))
	require.NoError(t, desc.AddView(src, 2, 4, []float32{1, 2, 3, 4}, []desc.Point{{X: 1, Y: 1}}))

	// The first view with descriptors wins, empty views are passed over.
	elem, err := sampleElementType(src, []core.Pair{{I: 1, J: 2}})
	require.NoError(t, err)
	assert.Equal(t, desc.ElementTypeFloat32, elem)

	// All views empty: the first referenced view decides.
	elem, err = sampleElementType(src, []core.Pair{{I: 1, J: 1}})
	require.NoError(t, err)
	assert.Equal(t, desc.ElementTypeUint8, elem)

	_, err = sampleElementType(src, []core.Pair{{I: 1, J: 99}})
	assert.ErrorIs(t, err, desc.ErrUnknownView)
}
