// Package shell implements the interactive line processor behind the cedrus
// command line tool.
package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/cedrusdb/go-cedrus/client"
)

// Shell can be used to implement interactive prompts for inspecting a
// cedrus database.
type Shell struct {
	client  *client.Client
	options *options
}

// New creates a new Shell over the given client.
func New(c *client.Client, options ...Option) *Shell {
	o := defaultOptions()
	for _, option := range options {
		option(o)
	}

	return &Shell{
		client:  c,
		options: o,
	}
}

// Process a single input line.
func (s *Shell) Process(ctx context.Context, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}

	switch fields[0] {
	case "ping":
		return s.processPing(ctx)
	case "get":
		if len(fields) != 3 {
			return "", fmt.Errorf("usage: get <namespace> <key>")
		}
		return s.processGet(ctx, fields[1], fields[2])
	case "put":
		if len(fields) < 4 {
			return "", fmt.Errorf("usage: put <namespace> <key> <value>")
		}
		return "", s.processPut(ctx, fields[1], fields[2], strings.Join(fields[3:], " "))
	case "enum":
		if len(fields) != 2 {
			return "", fmt.Errorf("usage: enum <namespace>")
		}
		return s.processEnum(ctx, fields[1])
	default:
		return s.processSQL(ctx, line)
	}
}

func (s *Shell) processPing(ctx context.Context) (string, error) {
	if err := s.client.Ping(ctx); err != nil {
		return "", err
	}
	return "pong", nil
}

func (s *Shell) processGet(ctx context.Context, namespace, key string) (string, error) {
	buf, err := s.client.Call(ctx, client.CmdGetMeta, s.options.Timeout, namespace, key)
	if err != nil {
		return "", err
	}
	defer buf.Free()

	if args := buf.Args(); len(args) > 0 {
		if value, ok := args[0].([]byte); ok {
			return string(value), nil
		}
	}
	return "", nil
}

func (s *Shell) processPut(ctx context.Context, namespace, key, value string) error {
	buf, err := s.client.Call(ctx, client.CmdPutMeta, s.options.Timeout, namespace, key, value)
	if err != nil {
		return err
	}
	buf.Free()
	return nil
}

func (s *Shell) processEnum(ctx context.Context, namespace string) (string, error) {
	buf, err := s.client.Call(ctx, client.CmdEnumMeta, s.options.Timeout, namespace)
	if err != nil {
		return "", err
	}
	defer buf.Free()

	keys := make([]string, 0, len(buf.Args()))
	for _, arg := range buf.Args() {
		if key, ok := arg.([]byte); ok {
			keys = append(keys, string(key))
		}
	}
	return strings.Join(keys, "\n"), nil
}

// processSQL submits the line as a query. Result payloads are opaque to the
// transport, so only their count is reported.
func (s *Shell) processSQL(ctx context.Context, query string) (string, error) {
	buf, err := s.client.Call(ctx, client.CmdSelectSQL, s.options.Timeout, query)
	if err != nil {
		return "", err
	}
	defer buf.Free()

	return fmt.Sprintf("ok (%d result argument(s))", len(buf.Args())), nil
}
