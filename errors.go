package featmatch

import (
	"errors"
	"fmt"

	"github.com/gomvg/featmatch/desc"
)

var (
	// ErrBinaryDescriptors is returned when the descriptor source serves
	// packed-bit descriptors, which cascade hashing cannot match.
	ErrBinaryDescriptors = errors.New("binary descriptors are not supported")

	// ErrInvalidRatio is returned when the distance ratio is outside (0, 1].
	ErrInvalidRatio = errors.New("distance ratio must be in (0, 1]")
)

// ErrUnsupportedElementType indicates a descriptor element type the matcher
// cannot process.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnsupportedElementType struct {
	ElementType desc.ElementType
	cause       error
}

func (e *ErrUnsupportedElementType) Error() string {
	return fmt.Sprintf("unsupported descriptor element type: %s", e.ElementType)
}

func (e *ErrUnsupportedElementType) Unwrap() error { return e.cause }
