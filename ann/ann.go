// Package ann defines the approximate nearest-neighbor capability used by
// the matching pipeline: a per-view search structure built once from a
// descriptor matrix, then queried pairwise. Implementations live in
// subpackages (cascade); the pipeline treats them as black boxes.
package ann

import (
	"github.com/gomvg/featmatch/desc"
)

// Candidate pairs one query descriptor row with one database descriptor row.
type Candidate struct {
	QueryRow    uint32
	DatabaseRow uint32
}

// Candidates collects ranked neighbor candidates as parallel arrays: k
// entries per emitted query row, ascending distance within a row's group.
// Query rows without enough candidates are omitted entirely, so consumers
// must walk the arrays in strides of k rather than index by query row.
type Candidates struct {
	Pairs []Candidate
	Dists []float32
}

// Append adds one candidate entry.
func (c *Candidates) Append(queryRow, databaseRow uint32, dist float32) {
	c.Pairs = append(c.Pairs, Candidate{QueryRow: queryRow, DatabaseRow: databaseRow})
	c.Dists = append(c.Dists, dist)
}

// Len returns the number of entries.
func (c *Candidates) Len() int { return len(c.Pairs) }

// Searcher builds per-view search structures and runs pairwise queries
// against them. Build and Search must behave as pure functions of their
// inputs: no hidden state, deterministic output, and structures returned by
// Build safe for concurrent Search calls.
type Searcher[T desc.Scalar, X any] interface {
	// Build constructs the search structure for one view. norm is the
	// run-wide normalization vector, length m.Dim().
	Build(m desc.Matrix[T], norm []float32) (X, error)

	// Search finds, for descriptors of the query view, the k nearest
	// database descriptors. k must be at least 1; pipelines that apply a
	// distance-ratio rule pass k >= 2.
	Search(query X, queryMat desc.Matrix[T], database X, databaseMat desc.Matrix[T], k int) (Candidates, error)
}

// Factory constructs a Searcher for the descriptor dimension discovered at
// run time.
type Factory[T desc.Scalar, X any] func(dim int) (Searcher[T, X], error)
