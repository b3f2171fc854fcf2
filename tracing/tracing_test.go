package tracing_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedrusdb/go-cedrus/tracing"
)

type recordingObserver struct {
	calls []tracing.Call
	errs  []error
}

func (o *recordingObserver) Submitted(call tracing.Call) tracing.FinishFunc {
	o.calls = append(o.calls, call)
	return func(err error) {
		o.errs = append(o.errs, err)
	}
}

func TestSubmitted_NoObserver(t *testing.T) {
	finish := tracing.Submitted(context.Background(), tracing.Call{Cmd: "ping"})
	require.NotNil(t, finish)
	finish(nil) // must not panic
}

func TestSubmitted_Observer(t *testing.T) {
	observer := &recordingObserver{}
	ctx := tracing.WithObserver(context.Background(), observer)

	finish := tracing.Submitted(ctx, tracing.Call{Cmd: "select", Seq: 41, Args: 2})
	finish(fmt.Errorf("request timeout"))

	require.Len(t, observer.calls, 1)
	assert.Equal(t, "select", observer.calls[0].Cmd)
	assert.Equal(t, uint32(41), observer.calls[0].Seq)
	assert.Equal(t, 2, observer.calls[0].Args)

	require.Len(t, observer.errs, 1)
	assert.EqualError(t, observer.errs[0], "request timeout")
}

type nilFinishObserver struct{}

func (nilFinishObserver) Submitted(tracing.Call) tracing.FinishFunc {
	return nil
}

// An observer handing back a nil FinishFunc gets the noop treatment.
func TestSubmitted_NilFinish(t *testing.T) {
	ctx := tracing.WithObserver(context.Background(), nilFinishObserver{})

	finish := tracing.Submitted(ctx, tracing.Call{Cmd: "ping"})
	require.NotNil(t, finish)
	finish(nil)
}
