package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when the decoded-view cache budget
// would be exceeded.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")

// Config holds descriptor fetch limits.
type Config struct {
	// MemoryLimitBytes is the hard budget for decoded descriptor data held
	// in memory. If 0, no limit is enforced (only tracking).
	MemoryLimitBytes int64

	// MaxFetchWorkers is the maximum number of concurrent blob fetches.
	// If 0, defaults to 1.
	MaxFetchWorkers int64

	// IOLimitBytesPerSec is the maximum download throughput for blob
	// fetches. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller governs the resources a descriptor source may consume:
// fetch concurrency, download throughput, and decoded-view memory.
//
// A nil Controller is valid and enforces nothing.
type Controller struct {
	cfg Config

	// Memory
	memSem  *semaphore.Weighted // nil if unlimited
	memUsed atomic.Int64

	// Concurrency
	fetchSem *semaphore.Weighted

	// IO
	ioLimiter *rate.Limiter
}

// NewController creates a new fetch controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxFetchWorkers <= 0 {
		cfg.MaxFetchWorkers = 1
	}

	c := &Controller{
		cfg:      cfg,
		fetchSem: semaphore.NewWeighted(cfg.MaxFetchWorkers),
	}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// AcquireMemory attempts to reserve budget for decoded descriptor data.
// Returns ErrMemoryLimitExceeded if the budget would be exceeded.
// Non-blocking - callers control retry/backoff policy.
func (c *Controller) AcquireMemory(bytes int64) error {
	if c == nil {
		return nil
	}
	if bytes <= 0 {
		return nil
	}

	if c.memSem != nil {
		if !c.memSem.TryAcquire(bytes) {
			return ErrMemoryLimitExceeded
		}
	}

	c.memUsed.Add(bytes)
	return nil
}

// ReleaseMemory releases reserved budget.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil {
		return
	}
	if bytes <= 0 {
		return
	}

	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the decoded bytes currently held.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// MemoryLimit returns the configured memory budget in bytes (0 if unlimited).
func (c *Controller) MemoryLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MemoryLimitBytes
}

// AcquireFetch reserves a fetch slot. Blocks if all slots are busy.
func (c *Controller) AcquireFetch(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.fetchSem.Acquire(ctx, 1)
}

// ReleaseFetch releases a fetch slot.
func (c *Controller) ReleaseFetch() {
	if c == nil {
		return
	}
	c.fetchSem.Release(1)
}

// AcquireIO waits until the download limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	if b := c.ioLimiter.Burst(); bytes > b {
		bytes = b // larger blobs pay at most one burst up front
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
