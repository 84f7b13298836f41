package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrNop(t *testing.T) {
	l := OrNop(nil)
	require.NotNil(t, l)
	l.Info("discarded")
}

func TestNewCLILogger_Levels(t *testing.T) {
	quiet := NewCLILogger(false)
	assert.False(t, quiet.Core().Enabled(-1), "debug should be disabled by default")
	assert.True(t, quiet.Core().Enabled(1), "warn should be enabled")

	verbose := NewCLILogger(true)
	assert.True(t, verbose.Core().Enabled(-1), "debug should be enabled in verbose mode")
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pictag.log")

	l, err := NewFileLogger(path, false)
	require.NoError(t, err)

	l.Info("refresh complete")
	require.NoError(t, Sync(l))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "refresh complete")
}

func TestSync_Nil(t *testing.T) {
	assert.NoError(t, Sync(nil))
}
