package benchmark

import (
	"strings"
	"time"
)

type workload int32

const (
	pingWorkload workload = iota
	metaWorkload
)

type Option func(*options)
type options struct {
	workload   workload
	duration   time.Duration
	nWorkers   int
	keySizeB   int
	valueSizeB int
}

func parseWorkload(workload string) workload {
	switch strings.ToLower(workload) {
	case "ping":
		return pingWorkload
	case "meta":
		return metaWorkload
	default:
		return pingWorkload
	}
}

// WithWorkload sets the workload of the benchmark, "ping" or "meta".
func WithWorkload(workload string) Option {
	return func(options *options) {
		options.workload = parseWorkload(workload)
	}
}

// WithDuration sets the duration of the benchmark.
func WithDuration(seconds int) Option {
	return func(options *options) {
		options.duration = time.Duration(seconds) * time.Second
	}
}

// WithWorkers sets the number of workers of the benchmark.
func WithWorkers(n int) Option {
	return func(options *options) {
		options.nWorkers = n
	}
}

// WithKeySize sets the size of the metadata keys written by the benchmark.
func WithKeySize(bytes int) Option {
	return func(options *options) {
		options.keySizeB = bytes
	}
}

// WithValueSize sets the size of the metadata values written by the
// benchmark.
func WithValueSize(bytes int) Option {
	return func(options *options) {
		options.valueSizeB = bytes
	}
}

// Create a benchmark options object with sane defaults.
func defaultOptions() *options {
	return &options{
		workload:   pingWorkload,
		duration:   60 * time.Second,
		nWorkers:   1,
		keySizeB:   32,
		valueSizeB: 1024,
	}
}
