package shell

import "time"

// Option that can be used to tweak shell parameters.
type Option func(*options)

// WithTimeout sets the per-command network timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.Timeout = timeout
	}
}

type options struct {
	Timeout time.Duration
}

// Create a shell options object with sane defaults.
func defaultOptions() *options {
	return &options{
		Timeout: 10 * time.Second,
	}
}
