package debug

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogWritesCategoryLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")
	require.NoError(t, Enable(path))
	defer Disable()

	Log("phrase", "finalized %d notes", 3)
	before := Errors()
	Error("arp", errors.New("boom"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Debug logging started")
	assert.Contains(t, string(data), "finalized 3 notes")
	assert.Contains(t, string(data), "ERROR boom")
	assert.Equal(t, before+1, Errors())
}

func TestLogIsNoopWhenDisabled(t *testing.T) {
	Disable()
	assert.NotPanics(t, func() {
		Log("clock", "tick %d", 1)
		LogEvery(2, "clock", "tick")
	})
}
