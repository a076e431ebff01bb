package desc

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/gomvg/featmatch/core"
)

// MemSource is an in-memory Source. Views are added up front; reads are
// safe for concurrent use.
type MemSource struct {
	mu         sync.RWMutex
	views      map[core.ViewID]*memView
	binaryOnly bool
}

type memView struct {
	elem ElementType
	rows int
	dim  int
	raw  []byte
	pos  []Point
}

// NewMemSource creates an empty in-memory source.
func NewMemSource() *MemSource {
	return &MemSource{views: map[core.ViewID]*memView{}}
}

// AddView stores a view's descriptors. data holds rows*dim elements in
// row-major order and is copied; pos must have one entry per row. A view
// with zero descriptors is added with empty data and pos and a positive
// dim.
func AddView[T Scalar](s *MemSource, id core.ViewID, dim int, data []T, pos []Point) error {
	if dim <= 0 {
		return fmt.Errorf("desc: view %d: dimension must be positive, got %d", id, dim)
	}
	if len(data)%dim != 0 {
		return fmt.Errorf("desc: view %d: data length %d is not a multiple of dimension %d", id, len(data), dim)
	}
	rows := len(data) / dim
	if len(pos) != rows {
		return fmt.Errorf("desc: view %d: %d positions for %d descriptors", id, len(pos), rows)
	}

	elem := TypeOf[T]()

	var raw []byte
	if len(data) > 0 {
		raw = make([]byte, len(data)*elem.Size())
		copy(raw, unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(raw)))
	}

	return s.add(id, &memView{
		elem: elem,
		rows: rows,
		dim:  dim,
		raw:  raw,
		pos:  append([]Point(nil), pos...),
	})
}

// AddBinaryView stores a packed-bit descriptor view (dim counts bytes per
// row). Sources holding binary views report BinaryOnly and are declined by
// numeric matchers.
func (s *MemSource) AddBinaryView(id core.ViewID, dim int, data []byte, pos []Point) error {
	if dim <= 0 {
		return fmt.Errorf("desc: view %d: dimension must be positive, got %d", id, dim)
	}
	if len(data)%dim != 0 {
		return fmt.Errorf("desc: view %d: data length %d is not a multiple of dimension %d", id, len(data), dim)
	}
	rows := len(data) / dim
	if len(pos) != rows {
		return fmt.Errorf("desc: view %d: %d positions for %d descriptors", id, len(pos), rows)
	}

	if err := s.add(id, &memView{
		elem: ElementTypeBinary,
		rows: rows,
		dim:  dim,
		raw:  append([]byte(nil), data...),
		pos:  append([]Point(nil), pos...),
	}); err != nil {
		return err
	}

	s.mu.Lock()
	s.binaryOnly = true
	s.mu.Unlock()
	return nil
}

func (s *MemSource) add(id core.ViewID, v *memView) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[id]; ok {
		return fmt.Errorf("desc: view %d already present", id)
	}
	s.views[id] = v
	return nil
}

func (s *MemSource) view(id core.ViewID) (*memView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownView, id)
	}
	return v, nil
}

// BinaryOnly implements Source.
func (s *MemSource) BinaryOnly() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.binaryOnly
}

// ElementType implements Source.
func (s *MemSource) ElementType(id core.ViewID) (ElementType, error) {
	v, err := s.view(id)
	if err != nil {
		return ElementTypeInvalid, err
	}
	return v.elem, nil
}

// Count implements Source.
func (s *MemSource) Count(id core.ViewID) (int, error) {
	v, err := s.view(id)
	if err != nil {
		return 0, err
	}
	return v.rows, nil
}

// Dimension implements Source.
func (s *MemSource) Dimension(id core.ViewID) (int, error) {
	v, err := s.view(id)
	if err != nil {
		return 0, err
	}
	return v.dim, nil
}

// Raw implements Source.
func (s *MemSource) Raw(id core.ViewID) ([]byte, error) {
	v, err := s.view(id)
	if err != nil {
		return nil, err
	}
	return v.raw, nil
}

// Positions implements Source.
func (s *MemSource) Positions(id core.ViewID) ([]Point, error) {
	v, err := s.view(id)
	if err != nil {
		return nil, err
	}
	return v.pos, nil
}

var _ Source = (*MemSource)(nil)
