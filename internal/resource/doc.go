// Package resource governs the resources a descriptor source may consume.
//
// The Controller bounds three things:
//
//   - Memory: budget for decoded descriptor data held in memory
//     (non-blocking, fail-fast)
//   - Concurrency: number of blob fetches in flight (weighted semaphore)
//   - IO: download throughput for blob fetches (token bucket)
//
// # Memory Budget
//
// Memory tracking uses a weighted semaphore for the hard budget and an atomic
// counter for usage. AcquireMemory is non-blocking and returns immediately
// with ErrMemoryLimitExceeded when the budget would be exceeded:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 1 << 30, // 1GB budget
//	})
//
//	if err := rc.AcquireMemory(1024 * 1024); err != nil {
//	    // ErrMemoryLimitExceeded - caller decides retry/backoff
//	}
//	defer rc.ReleaseMemory(1024 * 1024)
//
// # Fetch Slots
//
// Limits concurrent blob fetches:
//
//	rc := resource.NewController(resource.Config{
//	    MaxFetchWorkers: 4,
//	})
//
//	if err := rc.AcquireFetch(ctx); err != nil {
//	    return err
//	}
//	defer rc.ReleaseFetch()
//
// # Download Throttling
//
// Token bucket rate limiter for fetch IO:
//
//	rc := resource.NewController(resource.Config{
//	    IOLimitBytesPerSec: 100 * 1024 * 1024, // 100MB/s
//	})
//
//	if err := rc.AcquireIO(ctx, blobSize); err != nil {
//	    return err
//	}
//
// # Thread Safety
//
// All Controller methods are safe for concurrent use.
//
// # Nil Safety
//
// All methods handle a nil Controller gracefully - they become no-ops. This
// allows optional limiting without nil checks everywhere.
package resource
