package core

// ViewID is the identifier of a single view (one image's descriptors and
// feature positions). It is strictly 32-bit, matching the id width used by
// upstream view bookkeeping. Used for all hot-path structures (pair groups,
// reference bitmaps, index maps).
type ViewID uint32

// MaxViewID is the maximum possible value for a ViewID.
const MaxViewID = ^ViewID(0)

// Pair names two views whose descriptors are to be matched against each
// other. I is the database side of the comparison, J the query side; result
// maps are keyed by the pair exactly as submitted.
type Pair struct {
	I ViewID
	J ViewID
}
