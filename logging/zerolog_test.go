package logging_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/cedrusdb/go-cedrus/logging"
)

func TestZerolog(t *testing.T) {
	buf := &bytes.Buffer{}
	f := logging.Zerolog(zerolog.New(buf))

	f(logging.Info, "connected to %s", "10.0.0.1:6534")
	assert.Contains(t, buf.String(), `"level":"info"`)
	assert.Contains(t, buf.String(), "connected to 10.0.0.1:6534")

	buf.Reset()
	f(logging.Error, "dial %s: %v", "10.0.0.1:6534", "connection refused")
	assert.Contains(t, buf.String(), `"level":"error"`)
}

func TestZerolog_DropsUnknownLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	f := logging.Zerolog(zerolog.New(buf))

	f(logging.None, "never printed")
	f(logging.Level(666), "never printed")
	assert.Empty(t, buf.String())
}

func TestZerolog_HonorsLoggerLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	f := logging.Zerolog(zerolog.New(buf).Level(zerolog.WarnLevel))

	f(logging.Debug, "too chatty")
	assert.Empty(t, buf.String())

	f(logging.Warn, "server %s: no answer", "10.0.0.1:6534")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}
