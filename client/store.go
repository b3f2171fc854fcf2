package client

import (
	"context"
	"io/ioutil"
	"os"
	"sync"

	"github.com/google/renameio"
	"gopkg.in/yaml.v2"

	"github.com/cedrusdb/go-cedrus/internal/protocol"
)

// InmemAddrStore keeps the list of candidate cedrus servers in memory.
type InmemAddrStore = protocol.InmemAddrStore

// NewInmemAddrStore creates an AddrStore which stores its data in-memory.
var NewInmemAddrStore = protocol.NewInmemAddrStore

// YamlAddrStore persists a list of cedrus server addresses in a YAML file.
type YamlAddrStore struct {
	path  string
	addrs []string
	mu    sync.RWMutex
}

// NewYamlAddrStore creates a new YamlAddrStore backed by the given YAML
// file, which is created on the first Set if missing.
func NewYamlAddrStore(path string) (*YamlAddrStore, error) {
	addrs := []string{}

	_, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if err := yaml.Unmarshal(data, &addrs); err != nil {
			return nil, err
		}
	}

	store := &YamlAddrStore{
		path:  path,
		addrs: addrs,
	}

	return store, nil
}

// Get the current addresses.
func (s *YamlAddrStore) Get(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]string, len(s.addrs))
	copy(ret, s.addrs)
	return ret, nil
}

// Set the addresses, writing the file atomically.
func (s *YamlAddrStore) Set(ctx context.Context, addrs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := yaml.Marshal(addrs)
	if err != nil {
		return err
	}

	if err := renameio.WriteFile(s.path, data, 0600); err != nil {
		return err
	}

	s.addrs = make([]string, len(addrs))
	copy(s.addrs, addrs)

	return nil
}
