package desc

import (
	"fmt"
	"unsafe"

	"github.com/gomvg/featmatch/core"
)

// Matrix is a read-only, row-major view over a view's descriptors.
// The zero value is an empty matrix.
type Matrix[T Scalar] struct {
	data []T
	rows int
	dim  int
}

// NewMatrix wraps data as a rows x dim matrix. len(data) must equal
// rows*dim.
func NewMatrix[T Scalar](data []T, rows, dim int) (Matrix[T], error) {
	if rows < 0 || dim < 0 {
		return Matrix[T]{}, fmt.Errorf("desc: negative matrix shape %dx%d", rows, dim)
	}
	if len(data) != rows*dim {
		return Matrix[T]{}, fmt.Errorf("desc: matrix data length %d does not match shape %dx%d", len(data), rows, dim)
	}
	return Matrix[T]{data: data, rows: rows, dim: dim}, nil
}

// Rows returns the number of descriptors.
func (m Matrix[T]) Rows() int { return m.rows }

// Dim returns the descriptor dimension.
func (m Matrix[T]) Dim() int { return m.dim }

// Row returns row i as a read-only slice. The slice aliases the matrix
// buffer; callers must not modify it.
func (m Matrix[T]) Row(i int) []T {
	start := i * m.dim
	end := start + m.dim
	return m.data[start:end:end]
}

// ColumnMeans returns the dimension-wise mean of all rows. An empty matrix
// yields an all-zero vector of length Dim.
func (m Matrix[T]) ColumnMeans() []float32 {
	means := make([]float32, m.dim)
	if m.rows == 0 {
		return means
	}
	for i := 0; i < m.rows; i++ {
		row := m.Row(i)
		for d, v := range row {
			means[d] += float32(v)
		}
	}
	for d := range means {
		means[d] /= float32(m.rows)
	}
	return means
}

// MatrixOf fetches the view's raw buffer from src and reinterprets it as a
// Matrix[T]. The reinterpretation is zero-copy when the buffer is aligned
// for T; otherwise the elements are copied once.
func MatrixOf[T Scalar](src Source, id core.ViewID) (Matrix[T], error) {
	rows, err := src.Count(id)
	if err != nil {
		return Matrix[T]{}, err
	}
	dim, err := src.Dimension(id)
	if err != nil {
		return Matrix[T]{}, err
	}
	raw, err := src.Raw(id)
	if err != nil {
		return Matrix[T]{}, err
	}
	data, err := castRaw[T](raw, rows*dim)
	if err != nil {
		return Matrix[T]{}, fmt.Errorf("desc: view %d: %w", id, err)
	}
	return NewMatrix(data, rows, dim)
}

// castRaw reinterprets raw as n elements of T. Little-endian layout is
// assumed, matching the on-disk and in-memory format on all supported
// platforms.
func castRaw[T Scalar](raw []byte, n int) ([]T, error) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if len(raw) != n*size {
		return nil, fmt.Errorf("buffer length %d does not match %d elements of %d bytes", len(raw), n, size)
	}
	if n == 0 {
		return nil, nil
	}
	if size == 1 || uintptr(unsafe.Pointer(&raw[0]))%uintptr(size) == 0 {
		// Zero-copy access.
		return unsafe.Slice((*T)(unsafe.Pointer(&raw[0])), n), nil
	}
	// Misaligned buffer (rare): copy into a fresh, properly aligned slice.
	out := make([]T, n)
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(raw)), raw)
	return out, nil
}
