package featmatch

import (
	"log/slog"
	"runtime"

	"github.com/gomvg/featmatch/progress"
)

const (
	// DefaultDistanceRatio is the nearest/second-nearest distance ratio
	// threshold of the ratio test. Candidates whose best distance exceeds
	// this fraction of the second-best are rejected as ambiguous.
	DefaultDistanceRatio float32 = 0.8
)

type options struct {
	ratio            float32
	workers          int
	progress         progress.Sink
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Matcher behavior.
//
// Options exist to avoid exploding the API surface with per-knob
// constructor variants.
type Option func(*options)

// WithDistanceRatio configures the ratio test threshold. The comparison
// runs on squared distances, so a candidate passes when
// d1 <= ratio^2 * d2. Valid values are in (0, 1]; a ratio of 1 keeps every
// candidate that has a second-nearest neighbor.
//
// Match reports ErrInvalidRatio for values outside the valid range.
func WithDistanceRatio(ratio float32) Option {
	return func(o *options) {
		o.ratio = ratio
	}
}

// WithWorkers configures how many index builds and pair comparisons run
// concurrently. Values below 1 fall back to the number of CPUs.
func WithWorkers(workers int) Option {
	return func(o *options) {
		if workers < 1 {
			workers = runtime.NumCPU()
		}
		o.workers = workers
	}
}

// WithProgress configures a progress sink for the run. The sink observes
// one step per submitted pair and can cancel the run cooperatively.
// Pass nil to disable progress reporting.
func WithProgress(sink progress.Sink) Option {
	return func(o *options) {
		if sink == nil {
			sink = progress.Noop{}
		}
		o.progress = sink
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// operations. Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &featmatch.BasicMetricsCollector{}
//	m := featmatch.New(featmatch.WithMetricsCollector(metrics))
//	// ... run m.Match ...
//	stats := metrics.GetStats()
//	fmt.Printf("Pairs: %d, Avg latency: %dns\n", stats.PairMatchCount, stats.PairMatchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := featmatch.NewJSONLogger(slog.LevelInfo)
//	m := featmatch.New(featmatch.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		ratio:            DefaultDistanceRatio,
		workers:          runtime.NumCPU(),
		progress:         progress.Noop{},
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
