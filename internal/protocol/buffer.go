package protocol

import (
	"sync"
)

var bufPool = sync.Pool{
	New: func() interface{} {
		return &Buffer{}
	},
}

// Buffer holds the payload of a single reply. Buffers are pooled: the owner
// must either call Free when done, or Hold to detach the buffer from the
// pool and keep it indefinitely.
type Buffer struct {
	buf  []byte
	args []interface{}
	held bool
}

func newBuffer(size int) *Buffer {
	b := bufPool.Get().(*Buffer)
	if cap(b.buf) < size {
		b.buf = make([]byte, size)
	}
	b.buf = b.buf[:size]
	b.args = b.args[:0]
	b.held = false
	return b
}

// parse splits the payload into a status and the argument list. A non-zero
// status becomes a ServerError.
func (b *Buffer) parse() error {
	d := decoder{b: b.buf}

	status, err := d.uvarint()
	if err != nil {
		return err
	}
	n, err := d.uvarint()
	if err != nil {
		return err
	}
	message, err := d.take(int(n))
	if err != nil {
		return err
	}
	if status != 0 {
		return &ServerError{Code: int(status), Message: string(message)}
	}

	if b.args, err = d.args(); err != nil {
		return err
	}
	return nil
}

// Args returns the decoded reply arguments. String arguments are sub-slices
// of the underlying payload and share its lifetime.
func (b *Buffer) Args() []interface{} {
	return b.args
}

// Hold detaches the buffer from the pool so it survives past the completion
// that received it. Argument byte slices remain valid after Hold.
func (b *Buffer) Hold() {
	b.held = true
}

// Free returns the buffer to the pool, unless it was held.
func (b *Buffer) Free() {
	if b == nil || b.held {
		return
	}
	b.args = b.args[:0]
	bufPool.Put(b)
}
