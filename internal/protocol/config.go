package protocol

import (
	"time"

	"github.com/Rican7/retry/backoff"
	"github.com/Rican7/retry/strategy"
)

// Config holds the parameters of a cedrus client connection.
type Config struct {
	Dial             DialFunc      // Network dialer.
	LoginTimeout     time.Duration // Budget for dial plus login; 0 waits indefinitely.
	RequestTimeout   time.Duration // Default per-request network deadline; 0 for none.
	KeepAlivePeriod  time.Duration // Interval between keep-alive pings; 0 disables them.
	PipelineDepth    int           // Maximum number of in-flight requests on the connection.
	BufferSize       int           // Capacity hint for the read and write buffers.
	RetryLimit       uint          // Maximum number of connect retries, or 0 for unlimited.
	BackoffFactor    time.Duration // Exponential backoff factor for connect retries.
	BackoffCap       time.Duration // Maximum connect retry backoff value.
	ConcurrentProbes int64         // Maximum number of candidate servers probed at once.

	Username string // Login credentials, from the connection URI.
	Password string
	Database string // Database path, leading slash stripped.
}

// withDefaults fills in the zero fields of a config.
func (config Config) withDefaults() Config {
	if config.Dial == nil {
		config.Dial = Dial
	}
	if config.PipelineDepth == 0 {
		config.PipelineDepth = DefaultPipelineDepth
	}
	if config.BufferSize == 0 {
		config.BufferSize = DefaultBufferSize
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 100 * time.Millisecond
	}
	if config.BackoffCap == 0 {
		config.BackoffCap = time.Second
	}
	if config.ConcurrentProbes == 0 {
		config.ConcurrentProbes = MaxConcurrentProbes
	}
	return config
}

// RetryStrategies returns a configuration for the retry package based on a Config.
func (config Config) RetryStrategies() (strategies []strategy.Strategy) {
	limit, factor, cap := config.RetryLimit, config.BackoffFactor, config.BackoffCap
	// Fix for change in behavior: https://github.com/Rican7/retry/pull/12
	if limit++; limit > 1 {
		strategies = append(strategies, strategy.Limit(limit))
	}
	backoffFunc := backoff.BinaryExponential(factor)
	strategies = append(strategies,
		func(attempt uint) bool {
			if attempt > 0 {
				duration := backoffFunc(attempt)
				// Duration might be negative in case of integer overflow.
				if !(0 < duration && duration <= cap) {
					duration = cap
				}
				time.Sleep(duration)
			}
			return true
		},
	)
	return
}
