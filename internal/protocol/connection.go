package protocol

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/cedrusdb/go-cedrus/logging"
	"github.com/cedrusdb/go-cedrus/tracing"
)

// State describes the lifecycle of a connection. A failed connection is
// terminal: callers observe the stored error through the failure broadcast
// and must connect again.
type State int32

// Connection states.
const (
	StateInit State = iota
	StateConnecting
	StateConnected
	StateFailed
)

// Completion is invoked exactly once with either a reply payload or an
// error. The buffer is on loan for the duration of the call: a completion
// that retains it must call Hold.
type Completion func(buf *Buffer, err error)

// Conn is a single connection to a cedrus server. It multiplexes up to
// PipelineDepth concurrent requests over one socket, correlating replies by
// sequence number, and enforces per-request deadlines with a coarse
// one-second clock so that waiters return even when the socket is dead.
type Conn struct {
	conn net.Conn
	rd   *bufio.Reader

	mu            sync.RWMutex
	wrBuf, wrBuf2 *bytes.Buffer
	wrKick        chan struct{}

	table *table

	err    error
	errCh  chan struct{}
	termCh chan struct{}

	termOnce sync.Once

	state       int32
	now         uint32
	lastRead    int64
	pending     int32
	terminate   int32
	serverStart int64

	updates atomic.Value // Completion

	config Config
	log    logging.Func
}

// Connect dials the given address and logs in, returning a ready to use
// connection. The config's LoginTimeout bounds dial plus login together;
// zero waits indefinitely.
func Connect(ctx context.Context, address string, config Config, log logging.Func) (*Conn, error) {
	config = config.withDefaults()
	if config.PipelineDepth < 0 || config.PipelineDepth > maxPipelineDepth {
		return nil, newError(CodeInvalidArgument, "pipeline depth %d out of range", config.PipelineDepth)
	}

	c := &Conn{
		wrBuf:  bytes.NewBuffer(make([]byte, 0, config.BufferSize)),
		wrBuf2: bytes.NewBuffer(make([]byte, 0, config.BufferSize)),
		wrKick: make(chan struct{}, 1),
		errCh:  make(chan struct{}),
		termCh: make(chan struct{}),
		table:  newTable(config.PipelineDepth),
		state:  int32(StateInit),
		config: config,
		log:    log,
	}

	go c.deadlineTicker()

	loginTimeout := uint32(config.LoginTimeout / time.Second)
	atomic.StoreInt32(&c.state, int32(StateConnecting))
	if err := c.dial(ctx, address, loginTimeout); err != nil {
		c.fail(err)
		return nil, err
	}

	// The dial consumed part of the login budget.
	if loginTimeout != 0 {
		elapsed := atomic.LoadUint32(&c.now)
		if loginTimeout > elapsed {
			loginTimeout -= elapsed
		} else {
			err := newError(CodeTimeout, "login timeout")
			c.fail(err)
			return nil, err
		}
	}

	if err := c.login(ctx, loginTimeout); err != nil {
		c.fail(err)
		return nil, err
	}

	atomic.StoreInt32(&c.state, int32(StateConnected))
	c.log(logging.Debug, "connected to %s", address)

	if config.KeepAlivePeriod > 0 {
		go c.keepAlive()
	}
	return c, nil
}

func (c *Conn) dial(ctx context.Context, address string, timeout uint32) error {
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}
	conn, err := c.config.Dial(ctx, address)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return newError(CodeTimeout, "connect timeout")
		}
		return newError(CodeNetwork, "dial %s: %v", address, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}
	c.conn = conn
	c.rd = bufio.NewReaderSize(conn, c.config.BufferSize)

	go c.writeLoop()
	go c.readLoop()
	return nil
}

func (c *Conn) login(ctx context.Context, timeout uint32) error {
	buf, err := c.call(ctx, CmdLogin, timeout, []interface{}{
		c.config.Username, c.config.Password, c.config.Database,
	})
	if err != nil {
		if ErrCode(err) == CodeTimeout {
			return newError(CodeTimeout, "login timeout")
		}
		return errors.Wrap(err, "login")
	}
	defer buf.Free()

	if args := buf.Args(); len(args) > 1 {
		if stamp, ok := args[1].(int64); ok {
			atomic.StoreInt64(&c.serverStart, stamp)
		}
	}
	return nil
}

// Call submits a request and blocks until its reply, its deadline, the
// caller's context or a connection failure resolves it. A zero timeout
// falls back to the config's RequestTimeout. The returned buffer is owned
// by the caller, which must Free it.
func (c *Conn) Call(ctx context.Context, cmd Cmd, timeout time.Duration, args ...interface{}) (*Buffer, error) {
	if timeout == 0 {
		timeout = c.config.RequestTimeout
	}
	return c.call(ctx, cmd, netSeconds(timeout), args)
}

// CallAsync submits a request and returns immediately; the completion is
// invoked exactly once with the reply or an error. The reply buffer is
// freed when the completion returns, unless the completion holds it.
func (c *Conn) CallAsync(ctx context.Context, cmd Cmd, timeout time.Duration, cmpl Completion, args ...interface{}) {
	atomic.AddInt32(&c.pending, 1)
	go func() {
		defer atomic.AddInt32(&c.pending, -1)
		buf, err := c.Call(ctx, cmd, timeout, args...)
		cmpl(buf, err)
		buf.Free()
	}()
}

// netSeconds converts a request timeout to whole deadline-clock seconds,
// rounding up so that sub-second timeouts still arm a deadline.
func netSeconds(timeout time.Duration) uint32 {
	if timeout <= 0 {
		return 0
	}
	return uint32((timeout + time.Second - 1) / time.Second)
}

func (c *Conn) call(ctx context.Context, cmd Cmd, netTimeout uint32, args []interface{}) (*Buffer, error) {
	var execTimeoutMs int64
	if deadline, ok := ctx.Deadline(); ok {
		execTimeoutMs = int64(time.Until(deadline) / time.Millisecond)
		if execTimeoutMs <= 0 {
			return nil, newError(CodeCanceled, "request canceled: %v", context.DeadlineExceeded)
		}
	}

	var seq uint32
	select {
	case seq = <-c.table.seqs:
	case <-ctx.Done():
		return nil, newError(CodeCanceled, "request canceled: %v", ctx.Err())
	case <-c.errCh:
		return nil, c.Err()
	}
	sl := c.table.slot(seq)

	if netTimeout != 0 {
		atomic.StoreUint32(&sl.deadline, atomic.LoadUint32(&c.now)+netTimeout)
	}
	atomic.StoreUint32(&sl.seq, seq)

	frame, err := EncodeRequest(cmd, seq, args, execTimeoutMs)
	if err != nil {
		c.release(sl, seq)
		return nil, err
	}
	c.write(frame)
	finish := tracing.Submitted(ctx, tracing.Call{Cmd: cmd.String(), Seq: seq, Args: len(args)})

	var buf *Buffer
loop:
	for {
		select {
		case p := <-sl.reply:
			if p.seq == seq {
				buf = p.buf
				break loop
			}
			// A producer racing a previous occupant of this slot.
			p.buf.Free()
		case <-c.errCh:
			err = c.Err()
			break loop
		case timeoutSeq := <-sl.timeout:
			if timeoutSeq == seq {
				err = newError(CodeTimeout, "request timeout")
				break loop
			}
		case <-ctx.Done():
			err = newError(CodeCanceled, "request canceled: %v", ctx.Err())
			break loop
		}
	}

	c.release(sl, seq)

	if err == nil {
		if perr := buf.parse(); perr != nil {
			buf.Free()
			buf, err = nil, perr
		}
	}
	finish(err)

	if err != nil {
		return nil, err
	}
	return buf, nil
}

// release returns a slot to the pool under the next-sequence mapping.
func (c *Conn) release(sl *slot, seq uint32) {
	atomic.StoreUint32(&sl.seq, c.table.span)
	atomic.StoreUint32(&sl.deadline, 0)
	c.table.seqs <- c.table.next(seq)
}

func (c *Conn) write(buf []byte) {
	c.mu.Lock()
	c.wrBuf.Write(buf)
	c.mu.Unlock()
	select {
	case c.wrKick <- struct{}{}:
	default:
	}
}

func (c *Conn) writeLoop() {
	for {
		select {
		case <-c.errCh:
			return
		case <-c.wrKick:
		}
		c.mu.Lock()
		if c.wrBuf.Len() == 0 {
			err := c.err
			c.mu.Unlock()
			if err == nil {
				continue
			}
			return
		}
		c.wrBuf, c.wrBuf2 = c.wrBuf2, c.wrBuf
		c.mu.Unlock()

		if _, err := c.wrBuf2.WriteTo(c.conn); err != nil {
			c.fail(newError(CodeNetwork, "write: %v", err))
			return
		}
	}
}

func (c *Conn) readLoop() {
	hdr := make([]byte, HeaderSize)
	for {
		if err := c.readReply(hdr); err != nil {
			c.fail(err)
			return
		}
	}
}

func (c *Conn) readReply(hdr []byte) error {
	if _, err := io.ReadFull(c.rd, hdr); err != nil {
		return newError(CodeNetwork, "read header: %v", err)
	}
	atomic.StoreInt64(&c.lastRead, time.Now().Unix())

	_, size, seq, err := DecodeHeader(hdr)
	if err != nil {
		return err
	}
	if !c.table.valid(seq) {
		return newError(CodeProtocol, "invalid sequence number %d", seq)
	}

	sl := c.table.slot(seq)
	if atomic.LoadUint32(&sl.seq) != seq {
		// Late reply for a resolved request, or a server-initiated push.
		if h := c.updatesHandler(); h != nil {
			return c.readUpdate(h, int(size))
		}
		if _, err := io.CopyN(io.Discard, c.rd, int64(size)); err != nil {
			return newError(CodeNetwork, "drain stale reply: %v", err)
		}
		return nil
	}

	buf := newBuffer(int(size))
	if _, err := io.ReadFull(c.rd, buf.buf); err != nil {
		buf.Free()
		return newError(CodeNetwork, "read payload: %v", err)
	}
	sl.reply <- reply{seq: seq, buf: buf}
	return nil
}

// readUpdate delivers a frame owned by no live slot to the updates handler.
// The handler runs on the read loop and must not block.
func (c *Conn) readUpdate(h Completion, size int) error {
	buf := newBuffer(size)
	if _, err := io.ReadFull(c.rd, buf.buf); err != nil {
		buf.Free()
		return newError(CodeNetwork, "read update payload: %v", err)
	}
	if err := buf.parse(); err != nil {
		buf.Free()
		if _, ok := err.(*ServerError); ok {
			h(nil, err)
			return nil
		}
		return err
	}
	h(buf, nil)
	buf.Free()
	return nil
}

// deadlineTicker drives the connection's coarse clock and fires timeouts on
// overdue slots. A deadline is zeroed only when its timeout signal has been
// taken, so a firing is delivered exactly once and is retried on the next
// tick if the waiter was not yet listening.
func (c *Conn) deadlineTicker() {
	ticker := time.NewTicker(deadlineTickPeriod * time.Second)
	defer ticker.Stop()
	atomic.StoreUint32(&c.now, 0)
	for range ticker.C {
		select {
		case <-c.errCh:
			return
		case <-c.termCh:
			return
		default:
		}
		now := atomic.AddUint32(&c.now, deadlineTickPeriod)
		for i := range c.table.slots {
			sl := &c.table.slots[i]
			seq := atomic.LoadUint32(&sl.seq)
			if !c.table.valid(seq) {
				continue
			}
			deadline := atomic.LoadUint32(&sl.deadline)
			if deadline != 0 && now >= deadline {
				select {
				case sl.timeout <- seq:
					atomic.StoreUint32(&sl.deadline, 0)
				default:
				}
			}
		}
	}
}

// keepAlive pings the server periodically, skipping the ping when the link
// saw traffic more recently than one period ago.
func (c *Conn) keepAlive() {
	period := c.config.KeepAlivePeriod
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-c.errCh:
			return
		case <-c.termCh:
			return
		case <-ticker.C:
		}
		if atomic.LoadInt32(&c.terminate) != 0 {
			return
		}
		if time.Since(c.LastReadTime()) < period {
			continue
		}
		c.CallAsync(context.Background(), CmdPing, period, func(buf *Buffer, err error) {})
	}
}

// fail performs the one-shot transition to the failed state: the first
// error wins, the socket is closed exactly once and the failure channel is
// closed exactly once.
func (c *Conn) fail(err error) {
	c.mu.Lock()
	if c.err == nil {
		c.err = err
		atomic.StoreInt32(&c.state, int32(StateFailed))
		if c.conn != nil {
			c.conn.Close()
		}
		close(c.errCh)
	}
	c.mu.Unlock()
}

// Err returns the terminal error of a failed connection, or nil.
func (c *Conn) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// State returns the current connection state.
func (c *Conn) State() State {
	return State(atomic.LoadInt32(&c.state))
}

// SetUpdatesHandler installs a completion for server-initiated pushes
// multiplexed on the connection. Frames whose sequence matches no live slot
// are routed to it instead of being drained.
func (c *Conn) SetUpdatesHandler(h Completion) {
	c.updates.Store(h)
}

func (c *Conn) updatesHandler() Completion {
	if v := c.updates.Load(); v != nil {
		if h, ok := v.(Completion); ok {
			return h
		}
	}
	return nil
}

// Now returns the connection's coarse clock: whole seconds elapsed since
// the connection was created.
func (c *Conn) Now() uint32 {
	return atomic.LoadUint32(&c.now)
}

// PendingCompletions returns the number of asynchronous calls whose
// completion has not run yet.
func (c *Conn) PendingCompletions() int {
	return int(atomic.LoadInt32(&c.pending))
}

// ServerStartTime returns the server start timestamp announced in the login
// reply, in unix seconds, or 0 if the server did not announce one.
func (c *Conn) ServerStartTime() int64 {
	return atomic.LoadInt64(&c.serverStart)
}

// LastReadTime returns the time of the last successful header read.
func (c *Conn) LastReadTime() time.Time {
	return time.Unix(atomic.LoadInt64(&c.lastRead), 0)
}

// SetTerminate stops the keep-alive loop before Finalize, so no new pings
// are issued while the owner drains outstanding work.
func (c *Conn) SetTerminate() {
	atomic.StoreInt32(&c.terminate, 1)
}

// Finalize closes the connection. Outstanding and future callers resolve
// with a network error.
func (c *Conn) Finalize() error {
	c.termOnce.Do(func() {
		close(c.termCh)
	})
	c.fail(newError(CodeNetwork, "connection closed"))
	return nil
}
