// Package tracing exposes hooks for observing requests as they move
// through a connection.
package tracing

import "context"

type contextKey struct{}

// Call describes one request at the moment its frame is handed to the
// transport.
type Call struct {
	// Cmd is the human readable command name.
	Cmd string

	// Seq is the sequence number assigned to the request. Seq modulo the
	// pipeline depth identifies the pipeline slot the request occupies.
	Seq uint32

	// Args is the number of submitted arguments, the trailing transport
	// metadata excluded.
	Args int
}

// FinishFunc marks the resolution of an observed request. The error is nil
// exactly when a well-formed OK reply was delivered to the caller.
type FinishFunc func(err error)

// Observer receives transport events for requests submitted under a
// context carrying it.
//
// Both Submitted and the returned FinishFunc may run on caller or
// completion goroutines and must be safe for concurrent use.
type Observer interface {
	// Submitted is invoked after the request has been assigned a sequence
	// number and its frame handed to the writer. The returned FinishFunc
	// is invoked exactly once when the request resolves, whether by
	// reply, timeout, cancellation or connection failure.
	Submitted(Call) FinishFunc
}

// WithObserver returns a context that routes transport events of requests
// submitted under it to the given observer.
func WithObserver(ctx context.Context, observer Observer) context.Context {
	return context.WithValue(ctx, contextKey{}, observer)
}

// Submitted notifies the context's observer, if any, that a request went
// out on the wire. The returned FinishFunc is never nil, so call sites
// need no guard.
func Submitted(ctx context.Context, call Call) FinishFunc {
	value := ctx.Value(contextKey{})
	if value == nil {
		return noopFinish
	}
	observer, ok := value.(Observer)
	if !ok {
		return noopFinish
	}
	if finish := observer.Submitted(call); finish != nil {
		return finish
	}
	return noopFinish
}

func noopFinish(error) {}
