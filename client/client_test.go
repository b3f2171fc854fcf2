package client_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedrusdb/go-cedrus/client"
	"github.com/cedrusdb/go-cedrus/internal/protocol"
	"github.com/cedrusdb/go-cedrus/internal/protocol/prototest"
	"github.com/cedrusdb/go-cedrus/logging"
)

func newClient(t *testing.T, handler prototest.Handler, options ...client.Option) (*client.Client, *prototest.Server) {
	t.Helper()

	server, err := prototest.NewServer(handler)
	require.NoError(t, err)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	options = append([]client.Option{client.WithLogFunc(logging.Test(t))}, options...)
	c, err := client.New(ctx, "cproto://reader:secret@"+server.Addr()+"/testdb", options...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return c, server
}

func TestNew_LoginCredentials(t *testing.T) {
	type login struct {
		user, password, database string
	}
	logins := make(chan login, 1)
	handler := func(cmd protocol.Cmd, seq uint32, args []interface{}) *prototest.Reply {
		if cmd == protocol.CmdLogin {
			logins <- login{
				user:     string(args[0].([]byte)),
				password: string(args[1].([]byte)),
				database: string(args[2].([]byte)),
			}
		}
		return nil
	}
	c, _ := newClient(t, handler)
	defer c.Close()

	select {
	case l := <-logins:
		assert.Equal(t, "reader", l.user)
		assert.Equal(t, "secret", l.password)
		assert.Equal(t, "testdb", l.database)
	case <-time.After(time.Second):
		t.Fatal("no login observed")
	}
}

func TestNew_BadURI(t *testing.T) {
	_, err := client.New(context.Background(), "cproto://", client.WithLogFunc(logging.Test(t)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no host")
}

func TestClient_Ping(t *testing.T) {
	c, _ := newClient(t, nil)

	require.NoError(t, c.Ping(context.Background()))
}

func TestClient_ServerStartTime(t *testing.T) {
	c, server := newClient(t, nil)

	assert.Equal(t, time.Unix(server.StartTime(), 0), c.ServerStartTime())
}

func TestClient_MetaRoundTrip(t *testing.T) {
	var mu sync.Mutex
	meta := map[string]string{}
	handler := func(cmd protocol.Cmd, seq uint32, args []interface{}) *prototest.Reply {
		switch cmd {
		case protocol.CmdPutMeta:
			mu.Lock()
			meta[string(args[1].([]byte))] = string(args[2].([]byte))
			mu.Unlock()
			return &prototest.Reply{}
		case protocol.CmdGetMeta:
			mu.Lock()
			value := meta[string(args[1].([]byte))]
			mu.Unlock()
			return &prototest.Reply{Args: []interface{}{value}}
		}
		return nil
	}
	c, _ := newClient(t, handler)

	buf, err := c.Call(context.Background(), client.CmdPutMeta, 0, "ns", "version", "42")
	require.NoError(t, err)
	buf.Free()

	buf, err = c.Call(context.Background(), client.CmdGetMeta, 0, "ns", "version")
	require.NoError(t, err)
	defer buf.Free()
	require.Len(t, buf.Args(), 1)
	assert.Equal(t, []byte("42"), buf.Args()[0])
}

func TestClient_CallAsync(t *testing.T) {
	c, _ := newClient(t, nil)

	done := make(chan error, 1)
	c.CallAsync(context.Background(), client.CmdPing, 0, func(buf *client.Buffer, err error) {
		done <- err
	})

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("completion not invoked")
	}

	require.Eventually(t, func() bool {
		return c.PendingCompletions() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestClient_InvalidArgument(t *testing.T) {
	c, _ := newClient(t, nil)

	_, err := c.Call(context.Background(), client.CmdSelect, 0, map[string]int{})
	require.Error(t, err)
	assert.Equal(t, client.CodeInvalidArgument, client.ErrCode(err))
}

func TestClient_Now(t *testing.T) {
	c, _ := newClient(t, nil)

	assert.GreaterOrEqual(t, c.Now(), time.Duration(0))
}

func TestConnect_Store(t *testing.T) {
	server, err := prototest.NewServer(nil)
	require.NoError(t, err)
	defer server.Close()

	store := client.NewInmemAddrStore(server.Addr())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.Connect(ctx, store,
		client.WithLogFunc(logging.Test(t)),
		client.WithCredentials("reader", "secret"),
		client.WithDatabase("testdb"),
		client.WithRetryLimit(1),
	)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Ping(ctx))
}
