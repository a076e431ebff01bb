package desc

import (
	"context"
	"fmt"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gomvg/featmatch/blobstore"
	"github.com/gomvg/featmatch/core"
	"github.com/gomvg/featmatch/internal/resource"
)

// Compile time check to ensure StoreSource satisfies the Source interface.
var _ Source = (*StoreSource)(nil)

const (
	defaultMaxFetchWorkers = 4
)

// StoreSourceOptions configures a StoreSource.
type StoreSourceOptions struct {
	// BinaryOnly declares that the cataloged blobs hold packed-bit
	// descriptors without raw numeric access.
	BinaryOnly bool

	// MaxFetchWorkers bounds concurrent blob fetches.
	MaxFetchWorkers int64

	// MemoryLimitBytes caps the decoded descriptor bytes held in memory.
	// Loads beyond the budget fail with resource.ErrMemoryLimitExceeded.
	// 0 means unlimited.
	MemoryLimitBytes int64

	// IOLimitBytesPerSec throttles blob download throughput.
	// 0 means unlimited.
	IOLimitBytesPerSec int64
}

// DefaultStoreSourceOptions holds the default options for a StoreSource.
var DefaultStoreSourceOptions = StoreSourceOptions{
	BinaryOnly:      false,
	MaxFetchWorkers: defaultMaxFetchWorkers,
}

// StoreSource serves descriptors out of a blob store, one encoded blob per
// view as named by a Catalog. Views are fetched and decoded on first access
// and cached for the lifetime of the source.
//
// Accessor methods fetch lazily with a background context; call Warm before
// matching to fetch the run's views in parallel under a caller context.
type StoreSource struct {
	store   blobstore.BlobStore
	catalog Catalog
	binary  bool
	res     *resource.Controller

	mu    sync.Mutex
	views map[core.ViewID]*lazyView
}

// lazyView is a view slot loaded at most once.
type lazyView struct {
	once   sync.Once
	blob   *ViewBlob
	size   int64     // decoded bytes charged against the memory budget
	closer io.Closer // retained mapping, nil when the data is owned
	err    error
}

// NewStoreSource creates a descriptor source over a blob store and catalog.
func NewStoreSource(store blobstore.BlobStore, catalog Catalog, optFns ...func(o *StoreSourceOptions)) *StoreSource {
	opts := DefaultStoreSourceOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	return &StoreSource{
		store:   store,
		catalog: catalog,
		binary:  opts.BinaryOnly,
		res: resource.NewController(resource.Config{
			MemoryLimitBytes:   opts.MemoryLimitBytes,
			MaxFetchWorkers:    opts.MaxFetchWorkers,
			IOLimitBytesPerSec: opts.IOLimitBytesPerSec,
		}),
		views: make(map[core.ViewID]*lazyView),
	}
}

// Warm fetches and decodes the given views in parallel, so that subsequent
// accessor calls are cache hits. Duplicate ids are fetched once.
func (s *StoreSource) Warm(ctx context.Context, ids []core.ViewID) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			_, err := s.view(gctx, id)
			return err
		})
	}
	return g.Wait()
}

// BinaryOnly reports whether the source serves packed-bit descriptors.
func (s *StoreSource) BinaryOnly() bool {
	return s.binary
}

// ElementType reports the element type of the view's descriptors.
func (s *StoreSource) ElementType(id core.ViewID) (ElementType, error) {
	vb, err := s.view(context.Background(), id)
	if err != nil {
		return ElementTypeInvalid, err
	}
	return vb.Elem, nil
}

// Count returns the number of descriptors of the view.
func (s *StoreSource) Count(id core.ViewID) (int, error) {
	vb, err := s.view(context.Background(), id)
	if err != nil {
		return 0, err
	}
	return vb.Rows(), nil
}

// Dimension returns the per-descriptor element count of the view.
func (s *StoreSource) Dimension(id core.ViewID) (int, error) {
	vb, err := s.view(context.Background(), id)
	if err != nil {
		return 0, err
	}
	return vb.Dim, nil
}

// Raw returns the view's descriptor buffer. Read-only; valid until Close.
func (s *StoreSource) Raw(id core.ViewID) ([]byte, error) {
	vb, err := s.view(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return vb.Raw, nil
}

// Positions returns the feature position of each descriptor row.
func (s *StoreSource) Positions(id core.ViewID) ([]Point, error) {
	vb, err := s.view(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return vb.Pos, nil
}

// MemoryUsage returns the decoded descriptor bytes currently cached.
func (s *StoreSource) MemoryUsage() int64 {
	return s.res.MemoryUsage()
}

// Close drops the cached views and releases retained mappings. The source
// must not be accessed during or after Close; buffers returned earlier
// become invalid.
func (s *StoreSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for id, lv := range s.views {
		if lv.closer != nil {
			if err := lv.closer.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		s.res.ReleaseMemory(lv.size)
		delete(s.views, id)
	}
	return firstErr
}

// PutView encodes a view and writes it to the store under name.
func PutView(ctx context.Context, store blobstore.BlobStore, name string, blob *ViewBlob, compression Compression) error {
	data, err := EncodeView(blob, compression)
	if err != nil {
		return err
	}
	return store.Put(ctx, name, data)
}

// view returns the decoded blob for a view, loading it on first access. The
// first caller's context governs the fetch.
func (s *StoreSource) view(ctx context.Context, id core.ViewID) (*ViewBlob, error) {
	name, ok := s.catalog.Blob(id)
	if !ok {
		return nil, fmt.Errorf("%w: view %d", ErrUnknownView, id)
	}

	s.mu.Lock()
	lv, ok := s.views[id]
	if !ok {
		lv = &lazyView{}
		s.views[id] = lv
	}
	s.mu.Unlock()

	lv.once.Do(func() {
		lv.blob, lv.closer, lv.size, lv.err = s.load(ctx, name)
	})
	return lv.blob, lv.err
}

// load fetches and decodes one view blob under the fetch limits.
func (s *StoreSource) load(ctx context.Context, name string) (*ViewBlob, io.Closer, int64, error) {
	if err := s.res.AcquireFetch(ctx); err != nil {
		return nil, nil, 0, err
	}
	defer s.res.ReleaseFetch()

	b, err := s.store.Open(ctx, name)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("desc: open blob %q: %w", name, err)
	}

	if err := s.res.AcquireIO(ctx, int(b.Size())); err != nil {
		_ = b.Close()
		return nil, nil, 0, err
	}

	var data []byte
	var closer io.Closer
	if m, ok := b.(blobstore.Mappable); ok {
		// Zero-copy path: decode straight out of the mapping and keep it
		// alive until Close.
		data, err = m.Bytes()
		if err != nil {
			_ = b.Close()
			return nil, nil, 0, fmt.Errorf("desc: map blob %q: %w", name, err)
		}
		closer = b
	} else {
		data, err = blobstore.ReadAll(ctx, b)
		if cerr := b.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, nil, 0, fmt.Errorf("desc: read blob %q: %w", name, err)
		}
	}

	vb, err := DecodeView(data)
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, 0, fmt.Errorf("desc: decode blob %q: %w", name, err)
	}

	size := int64(len(vb.Raw)) + int64(len(vb.Pos))*positionSize
	if err := s.res.AcquireMemory(size); err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, 0, fmt.Errorf("desc: cache view from blob %q: %w", name, err)
	}

	return vb, closer, size, nil
}
