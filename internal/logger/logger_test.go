package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRespectsDebugLevel(t *testing.T) {
	var buf bytes.Buffer

	log := New(&buf, false)
	log.Debug("hidden message")
	log.Info("visible message", "module", "network")

	out := buf.String()
	assert.NotContains(t, out, "hidden message")
	assert.Contains(t, out, "visible message")
	assert.Contains(t, out, "network")

	buf.Reset()
	log = New(&buf, true)
	log.Debug("debug message")
	assert.Contains(t, buf.String(), "debug message")
}
