package featmatch

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/gomvg/featmatch/ann"
	"github.com/gomvg/featmatch/core"
	"github.com/gomvg/featmatch/desc"
)

const (
	// nearestNeighbors is the number of neighbors retrieved per descriptor;
	// the ratio test needs the best and the second-best distance.
	nearestNeighbors = 2

	progressLabel = "matching"
)

// pairPlan groups the submitted pairs by their first view so each view's
// index is reused across all its partners.
type pairPlan struct {
	// groups maps a first view to its partners in submission order.
	// Duplicate submissions are kept.
	groups map[core.ViewID][]core.ViewID

	// order lists the first views in ascending id order.
	order []core.ViewID

	// referenced holds every view named by any pair.
	referenced *roaring.Bitmap
}

func planPairs(pairs []core.Pair) pairPlan {
	plan := pairPlan{
		groups:     make(map[core.ViewID][]core.ViewID),
		referenced: roaring.New(),
	}
	for _, p := range pairs {
		if _, ok := plan.groups[p.I]; !ok {
			plan.order = append(plan.order, p.I)
		}
		plan.groups[p.I] = append(plan.groups[p.I], p.J)
		plan.referenced.Add(uint32(p.I))
		plan.referenced.Add(uint32(p.J))
	}
	sort.Slice(plan.order, func(i, j int) bool { return plan.order[i] < plan.order[j] })
	return plan
}

// viewData is the loaded state of one referenced view. Views whose element
// type or dimension differ from the run's stay unusable: they contribute a
// zero row to the zero-mean vector and their pairs are skipped.
type viewData[T desc.Scalar] struct {
	mat    desc.Matrix[T]
	pos    []desc.Point
	means  []float32
	usable bool
}

// matchRun executes one matching pass: plan the pairs, load the referenced
// views, derive the zero-mean vector, build the per-view indexes, then
// compare every pair.
func matchRun[T desc.Scalar, X any](ctx context.Context, factory ann.Factory[T, X], src desc.Source, pairs []core.Pair, o options) (PairwiseMatches, error) {
	started := time.Now()
	out := make(PairwiseMatches)

	plan := planPairs(pairs)
	o.progress.Begin(len(pairs), progressLabel)
	o.logger.LogRunStart(ctx, int(plan.referenced.GetCardinality()), len(pairs))

	if len(plan.order) == 0 {
		o.metricsCollector.RecordRun(0, 0, time.Since(started), nil)
		o.logger.LogRunDone(ctx, 0, 0, false, nil)
		return out, nil
	}

	views, dim, err := loadViews[T](ctx, src, plan, o)
	if err != nil {
		o.metricsCollector.RecordRun(len(pairs), 0, time.Since(started), err)
		o.logger.LogRunDone(ctx, len(pairs), 0, false, err)
		return PairwiseMatches{}, err
	}

	var searcher ann.Searcher[T, X]
	var indexes map[core.ViewID]X
	if dim > 0 {
		searcher, err = factory(dim)
		if err == nil {
			norm := zeroMean(views, plan, dim)
			indexes, err = buildIndexes(ctx, searcher, views, plan, norm, o)
		}
		if err != nil {
			o.metricsCollector.RecordRun(len(pairs), 0, time.Since(started), err)
			o.logger.LogRunDone(ctx, len(pairs), 0, false, err)
			return PairwiseMatches{}, err
		}
	}

	matched, err := matchPairs(ctx, searcher, indexes, views, plan, o, out)
	o.metricsCollector.RecordRun(len(pairs), matched, time.Since(started), err)
	o.logger.LogRunDone(ctx, len(pairs), matched, o.progress.Cancelled(), err)
	if err != nil {
		return PairwiseMatches{}, err
	}
	return out, nil
}

// loadViews fetches descriptors and positions of every referenced view and
// returns the run dimension: the dimension of the first view holding
// descriptors, or of the first view when all are empty. Source errors are
// fatal to the run.
func loadViews[T desc.Scalar](ctx context.Context, src desc.Source, plan pairPlan, o options) (map[core.ViewID]*viewData[T], int, error) {
	type viewMeta struct {
		id   core.ViewID
		elem desc.ElementType
		rows int
		dim  int
	}

	metas := make([]viewMeta, 0, plan.referenced.GetCardinality())
	it := plan.referenced.Iterator()
	for it.HasNext() {
		id := core.ViewID(it.Next())
		elem, err := src.ElementType(id)
		if err != nil {
			return nil, 0, fmt.Errorf("featmatch: element type of view %d: %w", id, err)
		}
		rows, err := src.Count(id)
		if err != nil {
			return nil, 0, fmt.Errorf("featmatch: descriptor count of view %d: %w", id, err)
		}
		dim, err := src.Dimension(id)
		if err != nil {
			return nil, 0, fmt.Errorf("featmatch: dimension of view %d: %w", id, err)
		}
		metas = append(metas, viewMeta{id: id, elem: elem, rows: rows, dim: dim})
	}

	runElem := desc.TypeOf[T]()
	runDim := 0
	for _, mt := range metas {
		if mt.rows > 0 {
			runDim = mt.dim
			break
		}
	}
	if runDim == 0 && len(metas) > 0 {
		runDim = metas[0].dim
	}

	views := make(map[core.ViewID]*viewData[T], len(metas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for _, mt := range metas {
		v := &viewData[T]{}
		views[mt.id] = v
		if runDim <= 0 || mt.elem != runElem || mt.dim != runDim {
			continue
		}
		v.usable = true
		if mt.rows == 0 {
			empty, err := desc.NewMatrix[T](nil, 0, runDim)
			if err != nil {
				return nil, 0, err
			}
			v.mat = empty
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mat, err := desc.MatrixOf[T](src, mt.id)
			if err != nil {
				return fmt.Errorf("featmatch: descriptors of view %d: %w", mt.id, err)
			}
			pos, err := src.Positions(mt.id)
			if err != nil {
				return fmt.Errorf("featmatch: positions of view %d: %w", mt.id, err)
			}
			if len(pos) != mat.Rows() {
				return fmt.Errorf("featmatch: view %d has %d positions for %d descriptors", mt.id, len(pos), mat.Rows())
			}
			v.mat = mat
			v.pos = pos
			v.means = mat.ColumnMeans()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return views, runDim, nil
}

// zeroMean stacks the per-view mean descriptors, one row per referenced
// view with empty and unusable views contributing zero rows, and returns
// the column means of that stack.
func zeroMean[T desc.Scalar](views map[core.ViewID]*viewData[T], plan pairPlan, dim int) []float32 {
	norm := make([]float32, dim)
	viewCount := 0
	it := plan.referenced.Iterator()
	for it.HasNext() {
		id := core.ViewID(it.Next())
		viewCount++
		v := views[id]
		if !v.usable || len(v.means) != dim {
			continue
		}
		for d, m := range v.means {
			norm[d] += m
		}
	}
	if viewCount == 0 {
		return norm
	}
	for d := range norm {
		norm[d] /= float32(viewCount)
	}
	return norm
}

// buildIndexes constructs one index per usable view holding descriptors.
// Views without an entry are skipped at query time.
func buildIndexes[T desc.Scalar, X any](ctx context.Context, searcher ann.Searcher[T, X], views map[core.ViewID]*viewData[T], plan pairPlan, norm []float32, o options) (map[core.ViewID]X, error) {
	indexes := make(map[core.ViewID]X, len(views))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	it := plan.referenced.Iterator()
	for it.HasNext() {
		id := core.ViewID(it.Next())
		v := views[id]
		if !v.usable || v.mat.Rows() == 0 {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			started := time.Now()
			idx, err := searcher.Build(v.mat, norm)
			o.metricsCollector.RecordIndexBuild(v.mat.Rows(), time.Since(started), err)
			o.logger.LogIndexBuilt(gctx, id, v.mat.Rows(), err)
			if err != nil {
				return fmt.Errorf("featmatch: index of view %d: %w", id, err)
			}
			mu.Lock()
			indexes[id] = idx
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return indexes, nil
}

// matchPairs walks the first views in ascending order, comparing each
// against its partners concurrently. Cancellation is checked between
// groups and before each comparison; cancelled comparisons do not advance
// progress.
func matchPairs[T desc.Scalar, X any](ctx context.Context, searcher ann.Searcher[T, X], indexes map[core.ViewID]X, views map[core.ViewID]*viewData[T], plan pairPlan, o options, out PairwiseMatches) (int, error) {
	ratioSq := o.ratio * o.ratio
	matched := 0
	var mu sync.Mutex

	for _, first := range plan.order {
		if o.progress.Cancelled() {
			break
		}
		if err := ctx.Err(); err != nil {
			return matched, err
		}

		partners := plan.groups[first]
		vi := views[first]
		if !vi.usable || vi.mat.Rows() == 0 {
			o.progress.Advance(len(partners))
			continue
		}
		indexI := indexes[first]

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(o.workers)
		for _, second := range partners {
			pair := core.Pair{I: first, J: second}
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				if o.progress.Cancelled() {
					return nil
				}

				vj := views[pair.J]
				if !vj.usable || vj.mat.Rows() == 0 {
					o.logger.LogPairSkipped(gctx, pair)
					o.progress.Advance(1)
					return nil
				}

				started := time.Now()
				cands, err := searcher.Search(indexes[pair.J], vj.mat, indexI, vi.mat, nearestNeighbors)
				if err != nil {
					o.metricsCollector.RecordPairMatch(0, time.Since(started), err)
					o.logger.LogPairMatched(gctx, pair, 0, err)
					return fmt.Errorf("featmatch: pair (%d,%d): %w", pair.I, pair.J, err)
				}

				matches := filterRatio(cands, ratioSq)
				matches = dedupeExact(matches)
				matches = dedupePositions(matches, vi.pos, vj.pos)

				if len(matches) > 0 {
					mu.Lock()
					if _, ok := out[pair]; !ok {
						matched++
					}
					out[pair] = matches
					mu.Unlock()
				}
				o.metricsCollector.RecordPairMatch(len(matches), time.Since(started), nil)
				o.logger.LogPairMatched(gctx, pair, len(matches), nil)
				o.progress.Advance(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return matched, err
		}
	}
	return matched, nil
}

// filterRatio applies the ratio test to the retrieved neighbors of each
// query row and orients the survivors: the database row indexes into the
// pair's first view, the query row into its second.
func filterRatio(c ann.Candidates, ratioSq float32) []Correspondence {
	rows := c.Len() / nearestNeighbors
	matches := make([]Correspondence, 0, rows)
	for r := 0; r < rows; r++ {
		best := c.Dists[r*nearestNeighbors]
		second := c.Dists[r*nearestNeighbors+1]
		if best <= ratioSq*second {
			cand := c.Pairs[r*nearestNeighbors]
			matches = append(matches, Correspondence{
				IndexInI: cand.DatabaseRow,
				IndexInJ: cand.QueryRow,
			})
		}
	}
	return matches
}

// dedupeExact sorts the correspondences and removes exact duplicates.
func dedupeExact(matches []Correspondence) []Correspondence {
	if len(matches) < 2 {
		return matches
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].IndexInI != matches[b].IndexInI {
			return matches[a].IndexInI < matches[b].IndexInI
		}
		return matches[a].IndexInJ < matches[b].IndexInJ
	})
	kept := matches[:1]
	for _, m := range matches[1:] {
		if m != kept[len(kept)-1] {
			kept = append(kept, m)
		}
	}
	return kept
}

// dedupePositions drops every correspondence whose feature position is
// shared with another correspondence in either view. Colliding groups are
// removed entirely rather than picking a representative.
func dedupePositions(matches []Correspondence, posI, posJ []desc.Point) []Correspondence {
	if len(matches) < 2 {
		return matches
	}
	countI := make(map[desc.Point]int, len(matches))
	countJ := make(map[desc.Point]int, len(matches))
	for _, m := range matches {
		countI[posI[m.IndexInI]]++
		countJ[posJ[m.IndexInJ]]++
	}
	kept := matches[:0]
	for _, m := range matches {
		if countI[posI[m.IndexInI]] == 1 && countJ[posJ[m.IndexInJ]] == 1 {
			kept = append(kept, m)
		}
	}
	return kept
}
