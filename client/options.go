package client

import "time"

// Option that can be used to tweak client parameters.
type Option func(*options)

// WithDialFunc sets a custom dial function for connecting to cedrus
// endpoints.
func WithDialFunc(dial DialFunc) Option {
	return func(options *options) {
		options.DialFunc = dial
	}
}

// WithLogFunc sets a custom log function.
func WithLogFunc(log LogFunc) Option {
	return func(options *options) {
		options.LogFunc = log
	}
}

// WithLoginTimeout bounds dialing plus login together. Zero waits
// indefinitely.
func WithLoginTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.LoginTimeout = timeout
	}
}

// WithRequestTimeout sets the default network deadline applied to requests
// submitted without one.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(options *options) {
		options.RequestTimeout = timeout
	}
}

// WithKeepAlive enables periodic keep-alive pings on an idle connection.
func WithKeepAlive(period time.Duration) Option {
	return func(options *options) {
		options.KeepAlivePeriod = period
	}
}

// WithPipelineDepth sets the maximum number of in-flight requests on the
// connection.
func WithPipelineDepth(depth int) Option {
	return func(options *options) {
		options.PipelineDepth = depth
	}
}

// WithBufferSize sets the capacity hint of the connection's read and write
// buffers.
func WithBufferSize(size int) Option {
	return func(options *options) {
		options.BufferSize = size
	}
}

// WithRetryLimit caps the number of connect attempts. Zero retries until
// the connect context is done.
func WithRetryLimit(limit uint) Option {
	return func(options *options) {
		options.RetryLimit = limit
	}
}

// WithCredentials sets the login credentials. Connecting through a URI
// overrides them with the URI's user information.
func WithCredentials(username, password string) Option {
	return func(options *options) {
		options.Username = username
		options.Password = password
	}
}

// WithDatabase sets the database the login opens. Connecting through a URI
// overrides it with the URI path.
func WithDatabase(database string) Option {
	return func(options *options) {
		options.Database = database
	}
}

type options struct {
	DialFunc        DialFunc
	LogFunc         LogFunc
	LoginTimeout    time.Duration
	RequestTimeout  time.Duration
	KeepAlivePeriod time.Duration
	PipelineDepth   int
	BufferSize      int
	RetryLimit      uint
	Username        string
	Password        string
	Database        string
}

// Create a client options object with sane defaults.
func defaultOptions() *options {
	return &options{
		DialFunc: DefaultDialFunc,
		LogFunc:  DefaultLogFunc,
	}
}
