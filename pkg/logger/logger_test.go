package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintfBridge(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	l := New(base, "migrate", true)
	l.Printf("applied %d migrations\n", 2)

	out := buf.String()
	assert.Contains(t, out, `msg="applied 2 migrations"`)
	assert.Contains(t, out, "component=migrate")
	assert.True(t, l.Verbose())
}
