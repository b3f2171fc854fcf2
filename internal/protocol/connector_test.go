package protocol_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedrusdb/go-cedrus/internal/protocol"
	"github.com/cedrusdb/go-cedrus/internal/protocol/prototest"
	"github.com/cedrusdb/go-cedrus/logging"
)

// A dead candidate is skipped in favor of a live one.
func TestConnector_Connect(t *testing.T) {
	server, err := prototest.NewServer(nil)
	require.NoError(t, err)
	defer server.Close()

	store := protocol.NewInmemAddrStore("127.0.0.1:1", server.Addr())
	config := protocol.Config{
		LoginTimeout:  2 * time.Second,
		RetryLimit:    1,
		BackoffFactor: time.Millisecond,
	}
	connector := protocol.NewConnector(store, config, logging.Test(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := connector.Connect(ctx)
	require.NoError(t, err)
	defer conn.Finalize()

	buf, err := conn.Call(context.Background(), protocol.CmdPing, 0)
	require.NoError(t, err)
	buf.Free()
}

func TestConnector_NoAvailableServer(t *testing.T) {
	store := protocol.NewInmemAddrStore("127.0.0.1:1")
	config := protocol.Config{
		LoginTimeout:  time.Second,
		RetryLimit:    1,
		BackoffFactor: time.Millisecond,
	}
	connector := protocol.NewConnector(store, config, logging.Test(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := connector.Connect(ctx)
	assert.Equal(t, protocol.ErrNoAvailableServer, err)
}

func TestConnector_EmptyStore(t *testing.T) {
	store := protocol.NewInmemAddrStore()
	config := protocol.Config{
		RetryLimit:    1,
		BackoffFactor: time.Millisecond,
	}
	connector := protocol.NewConnector(store, config, logging.Test(t))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := connector.Connect(ctx)
	assert.Equal(t, protocol.ErrNoAvailableServer, err)
}

func TestInmemAddrStore(t *testing.T) {
	store := protocol.NewInmemAddrStore("a:1", "b:2")

	addrs, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a:1", "b:2"}, addrs)

	require.NoError(t, store.Set(context.Background(), []string{"c:3"}))
	addrs, err = store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"c:3"}, addrs)
}
