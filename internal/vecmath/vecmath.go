// Package vecmath holds the scalar vector kernels of the matching pipeline.
package vecmath

import (
	"math/bits"

	"github.com/gomvg/featmatch/desc"
)

// Dot calculates the dot product of two vectors.
//
// SAFETY: assumes len(a) == len(b); no bounds checks are performed.
func Dot(a, b []float32) float32 {
	var ret float32
	for i := range a {
		ret += a[i] * b[i]
	}
	return ret
}

// SquaredL2 calculates the squared L2 distance between two descriptor rows.
// Accumulation is in float32 for both element types; uint8 differences are
// exact in float32.
//
// SAFETY: assumes len(a) == len(b); no bounds checks are performed.
func SquaredL2[T desc.Scalar](a, b []T) float32 {
	var ret float32
	for i := range a {
		d := float32(a[i]) - float32(b[i])
		ret += d * d
	}
	return ret
}

// Hamming counts the differing bits between two code words slices.
//
// SAFETY: assumes len(a) == len(b); no bounds checks are performed.
func Hamming(a, b []uint64) int {
	var ret int
	for i := range a {
		ret += bits.OnesCount64(a[i] ^ b[i])
	}
	return ret
}

// SubInto writes a-b into dst, converting to float32.
//
// SAFETY: assumes len(dst) == len(a) == len(b).
func SubInto[T desc.Scalar](dst []float32, a []T, b []float32) {
	for i := range dst {
		dst[i] = float32(a[i]) - b[i]
	}
}
