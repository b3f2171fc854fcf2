package shell_test

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
	"github.com/cedrusdb/go-cedrus/internal/shell"
	"github.com/cedrusdb/go-cedrus/logging"
)

func newShell(t *testing.T) *shell.Shell {
	t.Helper()

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
		case protocol.CmdEnumMeta:
			mu.Lock()
			keys := []interface{}{}
			for key := range meta {
				keys = append(keys, key)
			}
			mu.Unlock()
			return &prototest.Reply{Args: keys}
		}
		return nil
	}

	server, err := prototest.NewServer(handler)
	require.NoError(t, err)
	t.Cleanup(server.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := client.New(ctx, "cproto://"+server.Addr()+"/testdb", client.WithLogFunc(logging.Test(t)))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	return shell.New(c)
}

func TestShell_Ping(t *testing.T) {
	sh := newShell(t)

	result, err := sh.Process(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", result)
}

func TestShell_PutGet(t *testing.T) {
	sh := newShell(t)

	_, err := sh.Process(context.Background(), "put items version 42")
	require.NoError(t, err)

	result, err := sh.Process(context.Background(), "get items version")
	require.NoError(t, err)
	assert.Equal(t, "42", result)
}

func TestShell_Enum(t *testing.T) {
	sh := newShell(t)

	_, err := sh.Process(context.Background(), "put items version 42")
	require.NoError(t, err)

	result, err := sh.Process(context.Background(), "enum items")
	require.NoError(t, err)
	assert.Equal(t, "version", result)
}

func TestShell_Usage(t *testing.T) {
	sh := newShell(t)

	_, err := sh.Process(context.Background(), "get items")
	require.Error(t, err)

	_, err = sh.Process(context.Background(), "put items version")
	require.Error(t, err)
}

func TestShell_SQL(t *testing.T) {
	sh := newShell(t)

	result, err := sh.Process(context.Background(), "SELECT * FROM items")
	require.NoError(t, err)
	assert.Contains(t, result, "ok")
}

func TestShell_EmptyLine(t *testing.T) {
	sh := newShell(t)

	result, err := sh.Process(context.Background(), "   ")
	require.NoError(t, err)
	assert.Equal(t, "", result)
}
