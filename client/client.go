package client

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/cedrusdb/go-cedrus/internal/protocol"
)

// Buffer holds one reply payload. See Hold and Free for its lifetime rules.
type Buffer = protocol.Buffer

// Completion is invoked exactly once with either a reply or an error.
type Completion = protocol.Completion

// ServerError is a reply carrying a non-OK status from the server.
type ServerError = protocol.ServerError

// AddrStore provides candidate server addresses to connect to.
type AddrStore = protocol.AddrStore

// Client is a connection to a cedrus server.
type Client struct {
	conn *protocol.Conn
}

// New connects to the cedrus server at the given URI and logs in.
//
// The URI has the form `cproto://[user[:password]@]host[:port]/database`;
// the leading path segment is the database the login opens.
func New(ctx context.Context, uri string, options ...Option) (*Client, error) {
	o := defaultOptions()
	for _, option := range options {
		option(o)
	}

	address, config, err := o.config(uri)
	if err != nil {
		return nil, err
	}

	store := protocol.NewInmemAddrStore(address)
	connector := protocol.NewConnector(store, config, o.LogFunc)
	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

// Connect returns a client connected to the first reachable address in the
// given store. Credentials and the database are taken from the options.
func Connect(ctx context.Context, store AddrStore, options ...Option) (*Client, error) {
	o := defaultOptions()
	for _, option := range options {
		option(o)
	}

	connector := protocol.NewConnector(store, o.protocolConfig(), o.LogFunc)
	conn, err := connector.Connect(ctx)
	if err != nil {
		return nil, err
	}

	return &Client{conn: conn}, nil
}

// Call submits a request and blocks until its reply, its deadline, the
// caller's context or a connection failure resolves it. The returned buffer
// must be freed by the caller.
//
// A tracing.Observer carried by ctx sees the request once its frame is on
// the way to the wire, sequence number included.
func (c *Client) Call(ctx context.Context, cmd Cmd, timeout time.Duration, args ...interface{}) (*Buffer, error) {
	return c.conn.Call(ctx, cmd, timeout, args...)
}

// CallAsync submits a request and returns immediately; the completion runs
// exactly once with the reply or an error. The reply buffer is reclaimed
// when the completion returns unless the completion holds it.
func (c *Client) CallAsync(ctx context.Context, cmd Cmd, timeout time.Duration, cmpl Completion, args ...interface{}) {
	c.conn.CallAsync(ctx, cmd, timeout, cmpl, args...)
}

// Ping checks that the server answers.
func (c *Client) Ping(ctx context.Context) error {
	buf, err := c.Call(ctx, CmdPing, 0)
	if err != nil {
		return err
	}
	buf.Free()
	return nil
}

// SetUpdatesHandler installs a completion for server-initiated pushes.
func (c *Client) SetUpdatesHandler(h Completion) {
	c.conn.SetUpdatesHandler(h)
}

// SetTerminate stops background activity (keep-alive pings) ahead of Close.
func (c *Client) SetTerminate() {
	c.conn.SetTerminate()
}

// Now returns the connection's coarse clock: time elapsed since the
// connection was created, in whole seconds.
func (c *Client) Now() time.Duration {
	return time.Duration(c.conn.Now()) * time.Second
}

// PendingCompletions returns the number of asynchronous calls whose
// completion has not run yet.
func (c *Client) PendingCompletions() int {
	return c.conn.PendingCompletions()
}

// ServerStartTime returns the start time the server announced at login.
// Outer layers use it to detect server restarts. The zero time means the
// server did not announce one.
func (c *Client) ServerStartTime() time.Time {
	stamp := c.conn.ServerStartTime()
	if stamp == 0 {
		return time.Time{}
	}
	return time.Unix(stamp, 0)
}

// Close terminates the connection. Outstanding callers resolve with a
// network error.
func (c *Client) Close() error {
	return c.conn.Finalize()
}

// config derives the connect address and protocol config from a URI.
func (o *options) config(uri string) (string, protocol.Config, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", protocol.Config{}, errors.Wrap(err, "parse uri")
	}
	if u.Host == "" {
		return "", protocol.Config{}, errors.Errorf("no host in uri %q", uri)
	}

	if u.User != nil {
		o.Username = u.User.Username()
		o.Password, _ = u.User.Password()
	}
	o.Database = strings.TrimPrefix(u.Path, "/")

	return u.Host, o.protocolConfig(), nil
}

func (o *options) protocolConfig() protocol.Config {
	return protocol.Config{
		Dial:            protocol.DialFunc(o.DialFunc),
		LoginTimeout:    o.LoginTimeout,
		RequestTimeout:  o.RequestTimeout,
		KeepAlivePeriod: o.KeepAlivePeriod,
		PipelineDepth:   o.PipelineDepth,
		BufferSize:      o.BufferSize,
		RetryLimit:      o.RetryLimit,
		Username:        o.Username,
		Password:        o.Password,
		Database:        o.Database,
	}
}
