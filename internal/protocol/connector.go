package protocol

import (
	"context"
	"fmt"
	"sync"

	"github.com/Rican7/retry"
	"golang.org/x/sync/semaphore"

	"github.com/cedrusdb/go-cedrus/logging"
)

// MaxConcurrentProbes is the default maximum number of candidate servers
// dialed at once while establishing a connection.
const MaxConcurrentProbes int64 = 10

// ErrNoAvailableServer is returned by Connect when no candidate server
// could be reached and logged into.
var ErrNoAvailableServer = fmt.Errorf("no available cedrus server")

// Connector establishes connections to a cedrus server, drawing candidate
// addresses from a store and retrying with capped exponential backoff.
type Connector struct {
	store  AddrStore
	config Config
	log    logging.Func
}

// NewConnector returns a new connector that picks candidate addresses from
// the given store.
func NewConnector(store AddrStore, config Config, log logging.Func) *Connector {
	return &Connector{
		store:  store,
		config: config.withDefaults(),
		log:    log,
	}
}

// Connect returns a connection to the first candidate server that accepts
// the login, retrying until the given context is canceled or the retry
// limit is hit.
func (c *Connector) Connect(ctx context.Context) (*Conn, error) {
	var conn *Conn
	err := retry.Retry(func(attempt uint) error {
		log := func(l logging.Level, format string, a ...interface{}) {
			format = fmt.Sprintf("attempt %d: ", attempt) + format
			c.log(l, format, a...)
		}

		if attempt > 1 {
			select {
			case <-ctx.Done():
				// Stop retrying
				return nil
			default:
			}
		}

		var err error
		conn, err = c.connectAttemptAll(ctx, log)
		return err
	}, c.config.RetryStrategies()...)

	if err != nil || ctx.Err() != nil {
		return nil, ErrNoAvailableServer
	}
	if conn == nil {
		return nil, ErrNoAvailableServer
	}
	return conn, nil
}

// connectAttemptAll probes all candidate servers concurrently; the first
// connection whose login succeeds wins and the others are closed.
func (c *Connector) connectAttemptAll(ctx context.Context, log logging.Func) (*Conn, error) {
	addrs, err := c.store.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get servers: %v", err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("no addresses in store")
	}

	// The new context is cancelled as soon as a probe wins, so the losing
	// probes stop dialing.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	connCh := make(chan *Conn)
	sem := semaphore.NewWeighted(c.config.ConcurrentProbes)
	wg := &sync.WaitGroup{}
	wg.Add(len(addrs))
	go func() {
		wg.Wait()
		close(connCh)
	}()
	for _, addr := range addrs {
		go func(addr string) {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				log(logging.Warn, "server %s: %v", addr, err)
				return
			}
			defer sem.Release(1)

			conn, err := Connect(ctx, addr, c.config, log)
			if err != nil {
				log(logging.Warn, "server %s: %v", addr, err)
				return
			}
			connCh <- conn
		}(addr)
	}

	conn, ok := <-connCh
	cancel()
	if !ok {
		return nil, ErrNoAvailableServer
	}
	for extra := range connCh {
		extra.Finalize()
	}
	return conn, nil
}
