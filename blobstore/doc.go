// Package blobstore provides storage abstraction for immutable descriptor
// blobs, one blob per view.
//
// BlobStore is the interface for reading and writing blobs. Implementations
// must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: Local filesystem with mmap-backed reads
//   - MemoryStore: In-memory store for tests and small collections
//   - s3.Store: Amazon S3 with range reads and parallel uploads
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends.
// Blobs that can expose their contents as a byte slice without copying
// should also implement Mappable; ReadAll takes that path when available.
package blobstore
