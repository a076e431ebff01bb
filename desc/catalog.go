package desc

import (
	"fmt"
	"sort"

	"github.com/gomvg/featmatch/core"
)

// Catalog maps views to the blobs holding their encoded descriptor data.
// Implementations must be safe for concurrent readers.
type Catalog interface {
	// Blob returns the blob name for a view, or false if the view is unknown.
	Blob(id core.ViewID) (string, bool)

	// Views returns the ids of all cataloged views in ascending order.
	Views() []core.ViewID
}

// ViewBlobName returns the conventional blob name for a view. Zero padding
// keeps store listings in view order.
func ViewBlobName(id core.ViewID) string {
	return fmt.Sprintf("views/%010d.fmvb", uint32(id))
}

// StaticCatalog is an immutable in-memory Catalog.
type StaticCatalog struct {
	blobs map[core.ViewID]string
	views []core.ViewID
}

var _ Catalog = (*StaticCatalog)(nil)

// NewStaticCatalog creates a catalog from an explicit view to blob mapping.
func NewStaticCatalog(blobs map[core.ViewID]string) *StaticCatalog {
	c := &StaticCatalog{
		blobs: make(map[core.ViewID]string, len(blobs)),
		views: make([]core.ViewID, 0, len(blobs)),
	}
	for id, name := range blobs {
		c.blobs[id] = name
		c.views = append(c.views, id)
	}
	sort.Slice(c.views, func(i, j int) bool { return c.views[i] < c.views[j] })
	return c
}

// NewConventionCatalog creates a catalog that names every view's blob with
// ViewBlobName.
func NewConventionCatalog(ids []core.ViewID) *StaticCatalog {
	blobs := make(map[core.ViewID]string, len(ids))
	for _, id := range ids {
		blobs[id] = ViewBlobName(id)
	}
	return NewStaticCatalog(blobs)
}

// Blob returns the blob name for a view.
func (c *StaticCatalog) Blob(id core.ViewID) (string, bool) {
	name, ok := c.blobs[id]
	return name, ok
}

// Views returns all cataloged view ids in ascending order.
func (c *StaticCatalog) Views() []core.ViewID {
	out := make([]core.ViewID, len(c.views))
	copy(out, c.views)
	return out
}
