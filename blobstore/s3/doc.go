// Package s3 provides an S3 implementation of the blobstore.BlobStore
// interface, plus a DynamoDB-backed view catalog.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    func(o *s3.Options) {
//	        o.Prefix = "collections/landmarks/"
//	        o.Region = "us-east-1"
//	    },
//	)
//
//	src := desc.NewStoreSource(store, catalog)
//	matches, err := matcher.Match(ctx, src, pairs)
//
// # Features
//
//   - Range reads for efficient partial fetches
//   - Multipart uploads with streaming writes
//   - CRC32C integrity validation on uploads
//   - Automatic pagination for listing
//   - Configurable prefix for multi-collection isolation
//
// # View Catalog
//
// DDBCatalog coordinates view registration across concurrent feature
// extraction workers through DynamoDB conditional writes. Each view id is
// claimed exactly once; later claims fail with ErrViewExists.
package s3
