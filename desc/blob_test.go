package desc

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPositions(n int) []Point {
	pos := make([]Point, n)
	for i := range pos {
		pos[i] = Point{X: float32(i), Y: float32(i) + 0.5}
	}
	return pos
}

func TestNewViewBlob(t *testing.T) {
	blob, err := NewViewBlob(2, []float32{1, 2, 3, 4}, testPositions(2))
	require.NoError(t, err)
	assert.Equal(t, ElementTypeFloat32, blob.Elem)
	assert.Equal(t, 2, blob.Dim)
	assert.Equal(t, 2, blob.Rows())
	assert.Len(t, blob.Raw, 16)

	bytes, err := NewViewBlob(3, []uint8{1, 2, 3}, testPositions(1))
	require.NoError(t, err)
	assert.Equal(t, ElementTypeUint8, bytes.Elem)
	assert.Equal(t, []byte{1, 2, 3}, bytes.Raw)

	_, err = NewViewBlob[float32](0, nil, nil)
	assert.Error(t, err)

	_, err = NewViewBlob(2, []float32{1, 2, 3}, testPositions(2))
	assert.Error(t, err)
}

func TestViewBlob_Roundtrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	data := make([]float32, 16*8)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	blob, err := NewViewBlob(8, data, testPositions(16))
	require.NoError(t, err)

	for _, tc := range []struct {
		name        string
		compression Compression
	}{
		{"none", CompressionNone},
		{"lz4", CompressionLZ4},
		{"zstd", CompressionZSTD},
	} {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := EncodeView(blob, tc.compression)
			require.NoError(t, err)

			decoded, err := DecodeView(encoded)
			require.NoError(t, err)
			assert.Equal(t, blob.Elem, decoded.Elem)
			assert.Equal(t, blob.Dim, decoded.Dim)
			assert.Equal(t, blob.Pos, decoded.Pos)
			assert.Equal(t, blob.Raw, decoded.Raw)
		})
	}
}

// Byte descriptors with heavy repetition take the genuinely compressed
// path rather than the stored fallback.
func TestViewBlob_RoundtripCompressed(t *testing.T) {
	data := make([]byte, 32*64)
	for i := range data {
		data[i] = byte(i % 7)
	}
	blob, err := NewViewBlob(64, data, testPositions(32))
	require.NoError(t, err)

	for _, compression := range []Compression{CompressionLZ4, CompressionZSTD} {
		encoded, err := EncodeView(blob, compression)
		require.NoError(t, err)
		require.NotZero(t, binary.LittleEndian.Uint32(encoded[blobHeaderSize+4:]))

		decoded, err := DecodeView(encoded)
		require.NoError(t, err)
		assert.Equal(t, ElementTypeUint8, decoded.Elem)
		assert.Equal(t, blob.Pos, decoded.Pos)
		assert.Equal(t, blob.Raw, decoded.Raw)
	}
}

func TestViewBlob_RoundtripEmpty(t *testing.T) {
	blob, err := NewViewBlob[float32](4, nil, nil)
	require.NoError(t, err)

	encoded, err := EncodeView(blob, CompressionNone)
	require.NoError(t, err)

	decoded, err := DecodeView(encoded)
	require.NoError(t, err)
	assert.Equal(t, ElementTypeFloat32, decoded.Elem)
	assert.Equal(t, 4, decoded.Dim)
	assert.Zero(t, decoded.Rows())
	assert.Empty(t, decoded.Raw)
}

func TestEncodeView_Validation(t *testing.T) {
	_, err := EncodeView(&ViewBlob{Elem: ElementTypeInvalid}, CompressionNone)
	assert.Error(t, err)

	_, err = EncodeView(&ViewBlob{Elem: ElementTypeFloat32, Dim: -1}, CompressionNone)
	assert.Error(t, err)

	blob := &ViewBlob{Elem: ElementTypeFloat32, Dim: 2, Raw: []byte{1, 2, 3}, Pos: testPositions(1)}
	_, err = EncodeView(blob, CompressionNone)
	assert.Error(t, err)

	good := &ViewBlob{Elem: ElementTypeUint8, Dim: 2, Raw: []byte{1, 2}, Pos: testPositions(1)}
	_, err = EncodeView(good, Compression(9))
	assert.ErrorContains(t, err, "unknown compression")
}

func TestDecodeView_Errors(t *testing.T) {
	encode := func(t *testing.T) []byte {
		blob, err := NewViewBlob(2, []float32{1, 2, 3, 4}, testPositions(2))
		require.NoError(t, err)
		encoded, err := EncodeView(blob, CompressionNone)
		require.NoError(t, err)
		return encoded
	}

	t.Run("short data", func(t *testing.T) {
		_, err := DecodeView([]byte("FMVB"))
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("bad magic", func(t *testing.T) {
		encoded := encode(t)
		encoded[0] = 'X'
		_, err := DecodeView(encoded)
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("bad version", func(t *testing.T) {
		encoded := encode(t)
		encoded[4] = 9
		_, err := DecodeView(encoded)
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("bad element type", func(t *testing.T) {
		encoded := encode(t)
		encoded[5] = 99
		_, err := DecodeView(encoded)
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("payload corruption", func(t *testing.T) {
		encoded := encode(t)
		encoded[len(encoded)-1] ^= 0xFF
		_, err := DecodeView(encoded)
		assert.ErrorIs(t, err, ErrChecksumMismatch)
	})

	// The header is outside the checksum, so a tampered row count passes
	// CRC and must be caught by the body size check.
	t.Run("row count mismatch", func(t *testing.T) {
		encoded := encode(t)
		binary.LittleEndian.PutUint32(encoded[8:], 3)
		_, err := DecodeView(encoded)
		assert.ErrorIs(t, err, ErrMalformedBlob)
	})

	t.Run("unknown compression", func(t *testing.T) {
		data := make([]byte, 32*64)
		for i := range data {
			data[i] = byte(i % 7)
		}
		blob, err := NewViewBlob(64, data, testPositions(32))
		require.NoError(t, err)
		encoded, err := EncodeView(blob, CompressionZSTD)
		require.NoError(t, err)
		require.NotZero(t, binary.LittleEndian.Uint32(encoded[blobHeaderSize+4:]))

		encoded[6] = 9
		_, err = DecodeView(encoded)
		assert.ErrorContains(t, err, "unknown compression")
	})
}
