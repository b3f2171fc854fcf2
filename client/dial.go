package client

import (
	"context"
	"net"

	"github.com/cedrusdb/go-cedrus/internal/protocol"
)

// DialFunc is a function that can be used to establish a network connection.
type DialFunc = protocol.DialFunc

// DefaultDialFunc handles plain TCP and Unix socket endpoints.
func DefaultDialFunc(ctx context.Context, address string) (net.Conn, error) {
	return protocol.Dial(ctx, address)
}
