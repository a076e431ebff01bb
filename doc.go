// Package featmatch computes putative feature correspondences between view
// pairs of an image collection.
//
// Featmatch is the correspondence-search stage of a 3D reconstruction
// pipeline: given per-view feature descriptors and a list of view pairs, it
// finds, for every pair, the descriptor matches that survive the distance
// ratio test and deduplication. Matching is approximate via cascade hashing,
// with the final ranking done on exact squared L2 distances.
//
// # Quick Start
//
// In-memory descriptors:
//
//	ctx := context.Background()
//	src := desc.NewMemSource()
//	desc.AddView(src, 1, 128, descriptors1, positions1)
//	desc.AddView(src, 2, 128, descriptors2, positions2)
//
//	m := featmatch.New()
//	matches, _ := m.Match(ctx, src, []core.Pair{{I: 1, J: 2}})
//	for pair, corr := range matches {
//	    fmt.Println(pair, len(corr))
//	}
//
// Blob-backed descriptors:
//
//	store := blobstore.NewLocalStore("./descriptors")
//	catalog := desc.NewConventionCatalog(viewIDs)
//	src := desc.NewStoreSource(store, catalog)
//	defer src.Close()
//
//	src.Warm(ctx, viewIDs) // parallel prefetch under ctx
//	matches, _ := m.Match(ctx, src, pairs)
//
// Cloud mode:
//
//	store, _ := s3.New(ctx, "my-bucket", func(o *s3.Options) { o.Prefix = "collections/landmarks" })
//	src := desc.NewStoreSource(store, catalog)
//
// # Matching Semantics
//
// Pairs are grouped by their first view so each per-view hash index is
// built once and reused across partners. For a pair (I, J) the descriptors
// of J query the index of I; a correspondence links a row of I to a row of
// J. Candidates pass three filters:
//
//   - Ratio test: the nearest distance must not exceed ratio^2 times the
//     second nearest (squared space, inclusive).
//   - Exact deduplication: duplicate row tuples collapse to one.
//   - Positional deduplication: matches sharing a keypoint position with
//     another match in either view are dropped entirely.
//
// Pairs without surviving correspondences are absent from the result.
//
// # Progress and Cancellation
//
// Long runs report per-pair progress and stop cooperatively:
//
//	tracker := &progress.Tracker{}
//	m := featmatch.New(featmatch.WithProgress(tracker))
//	// tracker.Cancel() from another goroutine stops the run early
//
// Context cancellation aborts the run with ctx.Err; cooperative
// cancellation via the progress sink returns the matches found so far.
//
// # Key Features
//
//   - Cascade hashing with exact re-ranking (uint8 and float32 descriptors)
//   - Deterministic output independent of worker count and pair order
//   - Pluggable descriptor sources (memory, local mmap, S3, MinIO)
//   - Compressed view blobs (LZ4, Zstandard) with CRC32C checksums
//   - Structured logging via slog and pluggable metrics collection
package featmatch
