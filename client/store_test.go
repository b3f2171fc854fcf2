package client_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedrusdb/go-cedrus/client"
)

func TestYamlAddrStore_SetGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")

	store, err := client.NewYamlAddrStore(path)
	require.NoError(t, err)

	addrs, err := store.Get(context.Background())
	require.NoError(t, err)
	assert.Empty(t, addrs)

	require.NoError(t, store.Set(context.Background(), []string{"10.0.0.1:6534", "10.0.0.2:6534"}))

	addrs, err = store.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:6534", "10.0.0.2:6534"}, addrs)
}

func TestYamlAddrStore_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servers.yaml")

	store, err := client.NewYamlAddrStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(context.Background(), []string{"10.0.0.1:6534"}))

	// The file round-trips through a fresh store.
	reloaded, err := client.NewYamlAddrStore(path)
	require.NoError(t, err)

	addrs, err := reloaded.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.1:6534"}, addrs)

	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "10.0.0.1:6534")
}
