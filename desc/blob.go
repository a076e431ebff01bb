package desc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unsafe"

	"github.com/gomvg/featmatch/internal/hash"
)

// View blob layout:
//
//	[0:4]   magic "FMVB"
//	[4]     format version
//	[5]     element type
//	[6]     compression
//	[7]     reserved
//	[8:12]  rows (uint32 LE)
//	[12:16] dimension (uint32 LE)
//	[16:20] CRC32C of the payload (uint32 LE)
//	[20:]   payload
//
// The payload holds the feature positions (rows x 2 float32 LE, x then y)
// followed by the raw descriptor buffer, compressed as a single block.
const (
	blobMagic         = "FMVB"
	blobFormatVersion = 1
	blobHeaderSize    = 20
	positionSize      = 8
)

var (
	// ErrMalformedBlob is returned when a view blob fails structural
	// validation.
	ErrMalformedBlob = errors.New("desc: malformed view blob")
	// ErrChecksumMismatch is returned when a view blob's payload fails CRC
	// validation.
	ErrChecksumMismatch = errors.New("desc: view blob checksum mismatch")
)

// ViewBlob is the decoded content of one view blob: the descriptor buffer
// and the feature position of each descriptor row.
type ViewBlob struct {
	Elem ElementType
	Dim  int
	Raw  []byte // Rows x Dim elements, row-major
	Pos  []Point
}

// Rows returns the number of descriptors in the blob.
func (b *ViewBlob) Rows() int {
	return len(b.Pos)
}

// NewViewBlob builds a ViewBlob from typed descriptors. data holds
// len(pos) x dim elements in row-major order and is copied.
func NewViewBlob[T Scalar](dim int, data []T, pos []Point) (*ViewBlob, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("desc: dimension must be positive, got %d", dim)
	}
	if len(data) != len(pos)*dim {
		return nil, fmt.Errorf("desc: data length %d does not match %d rows x %d dim", len(data), len(pos), dim)
	}

	elem := TypeOf[T]()
	var raw []byte
	if len(data) > 0 {
		raw = make([]byte, len(data)*elem.Size())
		copy(raw, unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(raw)))
	}

	return &ViewBlob{
		Elem: elem,
		Dim:  dim,
		Raw:  raw,
		Pos:  append([]Point(nil), pos...),
	}, nil
}

// EncodeView serializes a view's descriptors and positions into the blob
// format. len(Raw) must equal Rows x Dim x element size.
func EncodeView(blob *ViewBlob, compression Compression) ([]byte, error) {
	elemSize := blob.Elem.Size()
	if elemSize == 0 {
		return nil, fmt.Errorf("desc: cannot encode element type %s", blob.Elem)
	}
	if blob.Dim < 0 {
		return nil, fmt.Errorf("desc: negative dimension %d", blob.Dim)
	}
	rows := len(blob.Pos)
	if want := rows * blob.Dim * elemSize; len(blob.Raw) != want {
		return nil, fmt.Errorf("desc: descriptor buffer is %d bytes, want %d (%d rows x %d dim)",
			len(blob.Raw), want, rows, blob.Dim)
	}

	body := make([]byte, rows*positionSize+len(blob.Raw))
	for i, p := range blob.Pos {
		off := i * positionSize
		binary.LittleEndian.PutUint32(body[off:], math.Float32bits(p.X))
		binary.LittleEndian.PutUint32(body[off+4:], math.Float32bits(p.Y))
	}
	copy(body[rows*positionSize:], blob.Raw)

	payload, err := compressPayload(body, compression)
	if err != nil {
		return nil, err
	}

	out := make([]byte, blobHeaderSize+len(payload))
	copy(out[0:4], blobMagic)
	out[4] = blobFormatVersion
	out[5] = byte(blob.Elem)
	out[6] = byte(compression)
	binary.LittleEndian.PutUint32(out[8:], uint32(rows))
	binary.LittleEndian.PutUint32(out[12:], uint32(blob.Dim))
	binary.LittleEndian.PutUint32(out[16:], hash.CRC32C(payload))
	copy(out[blobHeaderSize:], payload)
	return out, nil
}

// DecodeView parses a view blob. The returned Raw buffer may alias data when
// the payload was stored uncompressed, so data must stay valid for the
// lifetime of the result.
func DecodeView(data []byte) (*ViewBlob, error) {
	if len(data) < blobHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes is below the header size", ErrMalformedBlob, len(data))
	}
	if string(data[0:4]) != blobMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrMalformedBlob)
	}
	if data[4] != blobFormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformedBlob, data[4])
	}
	elem := ElementType(data[5])
	elemSize := elem.Size()
	if elemSize == 0 {
		return nil, fmt.Errorf("%w: invalid element type %d", ErrMalformedBlob, data[5])
	}
	compression := Compression(data[6])
	rows := binary.LittleEndian.Uint32(data[8:])
	dim := binary.LittleEndian.Uint32(data[12:])
	wantSum := binary.LittleEndian.Uint32(data[16:])

	payload := data[blobHeaderSize:]
	if sum := hash.CRC32C(payload); sum != wantSum {
		return nil, fmt.Errorf("%w: got %08x, want %08x", ErrChecksumMismatch, sum, wantSum)
	}

	body, err := decompressPayload(payload, compression)
	if err != nil {
		return nil, err
	}
	want := uint64(rows)*positionSize + uint64(rows)*uint64(dim)*uint64(elemSize)
	if uint64(len(body)) != want {
		return nil, fmt.Errorf("%w: payload is %d bytes, want %d", ErrMalformedBlob, len(body), want)
	}

	pos := make([]Point, rows)
	for i := range pos {
		off := i * positionSize
		pos[i].X = math.Float32frombits(binary.LittleEndian.Uint32(body[off:]))
		pos[i].Y = math.Float32frombits(binary.LittleEndian.Uint32(body[off+4:]))
	}

	return &ViewBlob{
		Elem: elem,
		Dim:  int(dim),
		Raw:  body[int(rows)*positionSize:],
		Pos:  pos,
	}, nil
}
