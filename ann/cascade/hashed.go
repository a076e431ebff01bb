package cascade

import (
	"fmt"

	"github.com/gomvg/featmatch/desc"
	"github.com/gomvg/featmatch/internal/vecmath"
)

// Hashed is the per-view index: packed primary hash codes for hamming
// ranking plus bucket membership for candidate gathering. Row ids refer to
// rows of the matrix the index was built from.
type Hashed struct {
	rows  int
	words int

	// codes holds rows*words packed primary code words.
	codes []uint64

	// bucketIDs holds rows*bucketGroups bucket ids, row-major.
	bucketIDs []uint16

	// buckets[g][id] lists the rows hashed into bucket id of group g,
	// in ascending row order.
	buckets [][][]uint32
}

// Rows returns the number of indexed descriptor rows.
func (hd *Hashed) Rows() int { return hd.rows }

// Build indexes every row of m after subtracting the zero-mean vector norm.
// Code bits and bucket ids come from the sign of the gaussian projections,
// so two views indexed by the same Hasher are directly comparable.
func (h *Hasher[T]) Build(m desc.Matrix[T], norm []float32) (*Hashed, error) {
	if m.Rows() > 0 && m.Dim() != h.dim {
		return nil, fmt.Errorf("cascade: descriptor dimension %d does not match hasher dimension %d", m.Dim(), h.dim)
	}
	if len(norm) != h.dim {
		return nil, fmt.Errorf("cascade: zero-mean vector length %d does not match hasher dimension %d", len(norm), h.dim)
	}

	rows := m.Rows()
	hd := &Hashed{
		rows:      rows,
		words:     h.words,
		codes:     make([]uint64, rows*h.words),
		bucketIDs: make([]uint16, rows*h.bucketGroups),
		buckets:   make([][][]uint32, h.bucketGroups),
	}
	for g := range hd.buckets {
		hd.buckets[g] = make([][]uint32, h.bucketCount)
	}

	centered := make([]float32, h.dim)
	for i := 0; i < rows; i++ {
		vecmath.SubInto(centered, m.Row(i), norm)

		code := hd.codes[i*h.words : (i+1)*h.words]
		for b := 0; b < h.hashBits; b++ {
			if vecmath.Dot(h.primary[b], centered) > 0 {
				code[b>>6] |= 1 << (b & 63)
			}
		}

		for g := 0; g < h.bucketGroups; g++ {
			var id uint16
			for b := 0; b < h.bucketBits; b++ {
				id <<= 1
				if vecmath.Dot(h.secondary[g*h.bucketBits+b], centered) > 0 {
					id |= 1
				}
			}
			hd.bucketIDs[i*h.bucketGroups+g] = id
			hd.buckets[g][id] = append(hd.buckets[g][id], uint32(i))
		}
	}

	return hd, nil
}
