package desc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSource_AddView(t *testing.T) {
	src := NewMemSource()
	require.NoError(t, AddView(src, 1, 2, []float32{1, 2, 3, 4}, []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}))
	require.NoError(t, AddView(src, 2, 4, []uint8{0, 1, 2, 3}, []Point{{X: 5, Y: 6}}))

	assert.False(t, src.BinaryOnly())

	elem, err := src.ElementType(1)
	require.NoError(t, err)
	assert.Equal(t, ElementTypeFloat32, elem)

	elem, err = src.ElementType(2)
	require.NoError(t, err)
	assert.Equal(t, ElementTypeUint8, elem)

	n, err := src.Count(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	dim, err := src.Dimension(2)
	require.NoError(t, err)
	assert.Equal(t, 4, dim)

	pos, err := src.Positions(1)
	require.NoError(t, err)
	assert.Equal(t, []Point{{X: 1, Y: 2}, {X: 3, Y: 4}}, pos)

	raw, err := src.Raw(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 2, 3}, raw)
}

func TestMemSource_EmptyView(t *testing.T) {
	src := NewMemSource()
	require.NoError(t, AddView[float32](src, 7, 8, nil, nil))

	n, err := src.Count(7)
	require.NoError(t, err)
	assert.Zero(t, n)

	dim, err := src.Dimension(7)
	require.NoError(t, err)
	assert.Equal(t, 8, dim)

	m, err := MatrixOf[float32](src, 7)
	require.NoError(t, err)
	assert.Zero(t, m.Rows())
}

func TestMemSource_Validation(t *testing.T) {
	src := NewMemSource()

	assert.Error(t, AddView(src, 1, 0, []float32{1}, []Point{{}}))
	assert.Error(t, AddView(src, 1, 2, []float32{1, 2, 3}, []Point{{}}))
	assert.Error(t, AddView(src, 1, 2, []float32{1, 2}, []Point{{}, {}}))

	require.NoError(t, AddView(src, 1, 2, []float32{1, 2}, []Point{{}}))
	assert.Error(t, AddView(src, 1, 2, []float32{3, 4}, []Point{{}}))
}

func TestMemSource_Binary(t *testing.T) {
	src := NewMemSource()
	require.NoError(t, src.AddBinaryView(1, 4, []byte{0xFF, 0x00, 0xAA, 0x55}, []Point{{X: 1, Y: 1}}))

	assert.True(t, src.BinaryOnly())

	elem, err := src.ElementType(1)
	require.NoError(t, err)
	assert.Equal(t, ElementTypeBinary, elem)
}

func TestMemSource_UnknownView(t *testing.T) {
	src := NewMemSource()

	_, err := src.ElementType(9)
	assert.ErrorIs(t, err, ErrUnknownView)
	_, err = src.Count(9)
	assert.ErrorIs(t, err, ErrUnknownView)
	_, err = src.Dimension(9)
	assert.ErrorIs(t, err, ErrUnknownView)
	_, err = src.Raw(9)
	assert.ErrorIs(t, err, ErrUnknownView)
	_, err = src.Positions(9)
	assert.ErrorIs(t, err, ErrUnknownView)
}
