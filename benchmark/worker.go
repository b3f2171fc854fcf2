package benchmark

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/cedrusdb/go-cedrus/client"
)

type work int

func (w work) String() string {
	switch w {
	case ping:
		return "ping"
	case read:
		return "read"
	case write:
		return "write"
	default:
		return "unknown"
	}
}

const (
	none work = iota
	ping
	read // a metadata get
	write

	metaNamespace = "benchmark"
)

// A worker performs requests against the server and keeps around some state
// in order to do that. `lastWork` refers to the previously executed
// operation and determines the next one; `keys` tells the worker which
// metadata keys it has written so far.
type worker struct {
	workload   workload
	lastWork   work
	tracker    *tracker
	keySizeB   int
	valueSizeB int
	keys       []string
}

// Thanks to https://stackoverflow.com/a/22892986
var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func newWorker(o *options) *worker {
	return &worker{
		workload:   o.workload,
		lastWork:   none,
		tracker:    newTracker(),
		keySizeB:   o.keySizeB,
		valueSizeB: o.valueSizeB,
	}
}

func (w *worker) randExistingKey() (string, error) {
	n := len(w.keys)
	if n == 0 {
		return "", errors.New("no keys")
	}
	return w.keys[rand.Intn(n)], nil
}

// next decides the operation to perform. The meta workload alternates
// writes and reads, starting with a write so that reads always have a key
// to hit.
func (w *worker) next() work {
	if w.workload == pingWorkload {
		return ping
	}
	if w.lastWork != write {
		return write
	}
	return read
}

func (w *worker) doPing(ctx context.Context, c *client.Client) (err error) {
	start := time.Now()
	defer w.tracker.measure(start, ping, &err)
	return c.Ping(ctx)
}

func (w *worker) doWrite(ctx context.Context, c *client.Client) (err error) {
	key := randSeq(w.keySizeB)
	value := randSeq(w.valueSizeB)
	start := time.Now()
	defer w.tracker.measure(start, write, &err)
	buf, err := c.Call(ctx, client.CmdPutMeta, 0, metaNamespace, key, value)
	if err != nil {
		return err
	}
	buf.Free()
	w.keys = append(w.keys, key)
	return nil
}

func (w *worker) doRead(ctx context.Context, c *client.Client) (err error) {
	key, err := w.randExistingKey()
	if err != nil {
		return err
	}
	start := time.Now()
	defer w.tracker.measure(start, read, &err)
	buf, err := c.Call(ctx, client.CmdGetMeta, 0, metaNamespace, key)
	if err != nil {
		return err
	}
	buf.Free()
	return nil
}

func (w *worker) run(ctx context.Context, c *client.Client) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		op := w.next()
		var err error
		switch op {
		case ping:
			err = w.doPing(ctx, c)
		case write:
			err = w.doWrite(ctx, c)
		case read:
			err = w.doRead(ctx, c)
		}
		if err != nil && ctx.Err() != nil {
			return
		}
		w.lastWork = op
	}
}
