package vecmath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDot(t *testing.T) {
	assert.Equal(t, float32(0), Dot(nil, nil))
	assert.Equal(t, float32(11), Dot([]float32{1, 2, 3}, []float32{3, 1, 2}))
	assert.Equal(t, float32(-4), Dot([]float32{2, -2}, []float32{1, 3}))
}

func TestSquaredL2(t *testing.T) {
	assert.Equal(t, float32(0), SquaredL2([]float32{1, 2}, []float32{1, 2}))
	assert.Equal(t, float32(25), SquaredL2([]float32{0, 3}, []float32{4, 0}))

	assert.Equal(t, float32(0), SquaredL2([]uint8{7, 7}, []uint8{7, 7}))
	assert.Equal(t, float32(8), SquaredL2([]uint8{0, 2}, []uint8{2, 0}))

	// uint8 differences must not wrap.
	assert.Equal(t, float32(255*255), SquaredL2([]uint8{0}, []uint8{255}))
}

func TestHamming(t *testing.T) {
	assert.Equal(t, 0, Hamming([]uint64{0xff}, []uint64{0xff}))
	assert.Equal(t, 8, Hamming([]uint64{0xff}, []uint64{0}))
	assert.Equal(t, 128, Hamming([]uint64{0, 0}, []uint64{^uint64(0), ^uint64(0)}))
	assert.Equal(t, 2, Hamming([]uint64{0b0110}, []uint64{0b0101}))
}

func TestSubInto(t *testing.T) {
	dst := make([]float32, 3)

	SubInto(dst, []float32{1, 2, 3}, []float32{0.5, 0.5, 0.5})
	assert.Equal(t, []float32{0.5, 1.5, 2.5}, dst)

	SubInto(dst, []uint8{10, 20, 30}, []float32{1, 2, 3})
	assert.Equal(t, []float32{9, 18, 27}, dst)
}
