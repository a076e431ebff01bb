// Package desc defines descriptor sources: read-only access to the feature
// descriptors and keypoint positions of views, addressed by view id.
//
// A Source hands out raw row-major buffers; Matrix reinterprets them as
// typed matrices without copying where alignment allows. Implementations
// must be safe for concurrent reads of distinct views.
package desc

import (
	"errors"
	"unsafe"

	"github.com/gomvg/featmatch/core"
)

// ErrUnknownView is returned when a view id is not present in a Source.
var ErrUnknownView = errors.New("desc: unknown view")

// ElementType identifies the numeric element type of a descriptor buffer.
type ElementType uint8

const (
	// ElementTypeInvalid marks element types outside the supported set.
	ElementTypeInvalid ElementType = iota
	// ElementTypeUint8 is the narrow unsigned representation (e.g. SIFT
	// descriptors quantized to bytes).
	ElementTypeUint8
	// ElementTypeFloat32 is the floating representation.
	ElementTypeFloat32
	// ElementTypeBinary is a packed-bit representation (e.g. BRIEF). It is
	// stored and transported like bytes but is not raw-numeric; matchers
	// that require numeric rows decline binary sources.
	ElementTypeBinary
)

// String implements fmt.Stringer.
func (t ElementType) String() string {
	switch t {
	case ElementTypeUint8:
		return "uint8"
	case ElementTypeFloat32:
		return "float32"
	case ElementTypeBinary:
		return "binary"
	default:
		return "invalid"
	}
}

// Size returns the width of one element in bytes, or 0 for invalid types.
func (t ElementType) Size() int {
	switch t {
	case ElementTypeUint8, ElementTypeBinary:
		return 1
	case ElementTypeFloat32:
		return 4
	default:
		return 0
	}
}

// Scalar constrains the element types a descriptor matrix can be viewed as.
type Scalar interface {
	uint8 | float32
}

// TypeOf returns the ElementType that corresponds to the scalar type T.
func TypeOf[T Scalar]() ElementType {
	var zero T
	if unsafe.Sizeof(zero) == 4 {
		return ElementTypeFloat32
	}
	return ElementTypeUint8
}

// Point is the (x, y) position of one feature in image coordinates.
type Point struct {
	X float32
	Y float32
}

// Source provides read-only access to per-view descriptor data.
//
// All methods other than BinaryOnly return ErrUnknownView (or an error
// wrapping it) for ids the source does not hold. Buffers returned by Raw
// must stay valid and unmodified for the duration of a matching run.
type Source interface {
	// BinaryOnly reports whether the source serves packed-bit descriptors
	// without raw numeric access.
	BinaryOnly() bool

	// ElementType reports the element type of the view's descriptors.
	ElementType(id core.ViewID) (ElementType, error)

	// Count returns the number of descriptors (rows) of the view.
	Count(id core.ViewID) (int, error)

	// Dimension returns the per-descriptor element count of the view.
	// Views with zero descriptors still report their dimension.
	Dimension(id core.ViewID) (int, error)

	// Raw returns the view's descriptor buffer: Count x Dimension elements,
	// row-major, little-endian element layout. Read-only.
	Raw(id core.ViewID) ([]byte, error)

	// Positions returns the feature position of each descriptor row, in row
	// order. len(Positions) == Count.
	Positions(id core.ViewID) ([]Point, error)
}
