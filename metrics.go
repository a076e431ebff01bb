package featmatch

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    pairCounter    prometheus.Counter
//	    matchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordPairMatch(found int, duration time.Duration, err error) {
//	    p.pairCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordIndexBuild is called after each per-view index construction.
	// descriptors is the number of rows indexed, duration is the time taken,
	// err is nil if successful.
	RecordIndexBuild(descriptors int, duration time.Duration, err error)

	// RecordPairMatch is called after each pair comparison.
	// found is the number of correspondences kept after filtering,
	// duration is the time taken, err is nil if successful.
	RecordPairMatch(found int, duration time.Duration, err error)

	// RecordRun is called once per matching run.
	// pairs is the number of submitted pairs, matched the number of pairs
	// that produced correspondences, duration is the total time taken.
	RecordRun(pairs, matched int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordIndexBuild(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordPairMatch(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordRun(int, int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	IndexBuildCount      atomic.Int64
	IndexBuildErrors     atomic.Int64
	IndexBuildTotalNanos atomic.Int64
	IndexedDescriptors   atomic.Int64
	PairMatchCount       atomic.Int64
	PairMatchErrors      atomic.Int64
	PairMatchTotalNanos  atomic.Int64
	Correspondences      atomic.Int64
	RunCount             atomic.Int64
	RunErrors            atomic.Int64
	RunTotalNanos        atomic.Int64
	RunPairs             atomic.Int64
	RunMatchedPairs      atomic.Int64
}

// RecordIndexBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIndexBuild(descriptors int, duration time.Duration, err error) {
	b.IndexBuildCount.Add(1)
	b.IndexBuildTotalNanos.Add(duration.Nanoseconds())
	b.IndexedDescriptors.Add(int64(descriptors))
	if err != nil {
		b.IndexBuildErrors.Add(1)
	}
}

// RecordPairMatch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPairMatch(found int, duration time.Duration, err error) {
	b.PairMatchCount.Add(1)
	b.PairMatchTotalNanos.Add(duration.Nanoseconds())
	b.Correspondences.Add(int64(found))
	if err != nil {
		b.PairMatchErrors.Add(1)
	}
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(pairs, matched int, duration time.Duration, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(duration.Nanoseconds())
	b.RunPairs.Add(int64(pairs))
	b.RunMatchedPairs.Add(int64(matched))
	if err != nil {
		b.RunErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		IndexBuildCount:    b.IndexBuildCount.Load(),
		IndexBuildErrors:   b.IndexBuildErrors.Load(),
		IndexBuildAvgNanos: b.getAvgIndexBuildNanos(),
		IndexedDescriptors: b.IndexedDescriptors.Load(),
		PairMatchCount:     b.PairMatchCount.Load(),
		PairMatchErrors:    b.PairMatchErrors.Load(),
		PairMatchAvgNanos:  b.getAvgPairMatchNanos(),
		Correspondences:    b.Correspondences.Load(),
		RunCount:           b.RunCount.Load(),
		RunErrors:          b.RunErrors.Load(),
		RunPairs:           b.RunPairs.Load(),
		RunMatchedPairs:    b.RunMatchedPairs.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgIndexBuildNanos() int64 {
	count := b.IndexBuildCount.Load()
	if count == 0 {
		return 0
	}
	return b.IndexBuildTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgPairMatchNanos() int64 {
	count := b.PairMatchCount.Load()
	if count == 0 {
		return 0
	}
	return b.PairMatchTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	IndexBuildCount    int64
	IndexBuildErrors   int64
	IndexBuildAvgNanos int64
	IndexedDescriptors int64
	PairMatchCount     int64
	PairMatchErrors    int64
	PairMatchAvgNanos  int64
	Correspondences    int64
	RunCount           int64
	RunErrors          int64
	RunPairs           int64
	RunMatchedPairs    int64
}
