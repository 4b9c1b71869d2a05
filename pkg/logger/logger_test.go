package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/invite-harvester/pkg/logger"
)

func TestNew_RenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(&buf, "info")
	require.NoError(t, err)

	l.Info("harvest finished")
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "harvest finished", entry["message"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	l, err := logger.New(&buf, "warn")
	require.NoError(t, err)

	l.Info("hidden")
	assert.Zero(t, buf.Len())
}

func TestNew_BadLevel(t *testing.T) {
	_, err := logger.New(&bytes.Buffer{}, "loud")
	assert.Error(t, err)
}
