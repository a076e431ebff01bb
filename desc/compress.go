package desc

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the compression algorithm applied to a view blob's
// payload.
type Compression uint8

const (
	// CompressionNone indicates no compression.
	CompressionNone Compression = 0
	// CompressionLZ4 indicates LZ4 block compression (fast, good for hot data).
	CompressionLZ4 Compression = 1
	// CompressionZSTD indicates ZSTD block compression (better ratio, good for cold data).
	CompressionZSTD Compression = 2
)

// ZSTD encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	// Level 3 balances compression ratio vs speed
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Payload format: [UncompressedSize uint32][CompressedSize uint32][Data...]
// If CompressedSize == 0, the data is stored uncompressed.
const payloadHeaderSize = 8

// compressPayload compresses a payload using the specified algorithm.
// Falls back to storing uncompressed when compression does not help.
func compressPayload(data []byte, compression Compression) ([]byte, error) {
	var compressed []byte
	var err error

	switch compression {
	case CompressionNone:
	case CompressionLZ4:
		compressed, err = compressPayloadLZ4(data)
	case CompressionZSTD:
		compressed, err = compressPayloadZSTD(data)
	default:
		return nil, errors.New("desc: unknown compression type")
	}

	if err != nil {
		return nil, err
	}

	// If compression doesn't help (ratio > 0.9), store uncompressed
	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		result := make([]byte, payloadHeaderSize+len(data))
		binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(result[4:], 0) // 0 = uncompressed
		copy(result[payloadHeaderSize:], data)
		return result, nil
	}

	result := make([]byte, payloadHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(result[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(result[4:], uint32(len(compressed)))
	copy(result[payloadHeaderSize:], compressed)
	return result, nil
}

// compressPayloadLZ4 compresses data using LZ4.
func compressPayloadLZ4(data []byte) ([]byte, error) {
	maxCompressedSize := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, maxCompressedSize)

	n, err := lz4.CompressBlock(data, compressed, nil)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, nil // Incompressible
	}

	return compressed[:n], nil
}

// compressPayloadZSTD compresses data using ZSTD.
func compressPayloadZSTD(data []byte) ([]byte, error) {
	enc := getZstdEncoder()
	defer putZstdEncoder(enc)

	return enc.EncodeAll(data, nil), nil
}

// decompressPayload decompresses a payload written by compressPayload.
func decompressPayload(data []byte, compression Compression) ([]byte, error) {
	if len(data) < payloadHeaderSize {
		return nil, errors.New("desc: payload too small for header")
	}

	uncompressedSize := binary.LittleEndian.Uint32(data[0:])
	compressedSize := binary.LittleEndian.Uint32(data[4:])

	if compressedSize == 0 {
		// Uncompressed payload
		if uint64(len(data)) < uint64(payloadHeaderSize)+uint64(uncompressedSize) {
			return nil, errors.New("desc: payload data too small")
		}
		return data[payloadHeaderSize : payloadHeaderSize+uncompressedSize], nil
	}

	if uint64(len(data)) < uint64(payloadHeaderSize)+uint64(compressedSize) {
		return nil, errors.New("desc: compressed payload data too small")
	}

	compressedData := data[payloadHeaderSize : payloadHeaderSize+compressedSize]
	result := make([]byte, uncompressedSize)

	switch compression {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(compressedData, result)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errors.New("desc: decompressed size mismatch")
		}
		return result, nil

	case CompressionZSTD:
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)

		decoded, err := dec.DecodeAll(compressedData, result[:0])
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, errors.New("desc: decompressed size mismatch")
		}
		return decoded, nil

	default:
		return nil, errors.New("desc: unknown compression type")
	}
}
