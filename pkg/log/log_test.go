package log

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "warn")
	logger.InfoContext(context.Background(), "dropped")
	logger.WarnContext(context.Background(), "kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "loud")
	logger.DebugContext(context.Background(), "dropped")
	logger.InfoContext(context.Background(), "kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestNew_LevelNamesAreCaseInsensitive(t *testing.T) {
	var buf bytes.Buffer

	logger := New(&buf, "DEBUG")
	logger.DebugContext(context.Background(), "visible")

	require.Contains(t, buf.String(), "visible")
}
