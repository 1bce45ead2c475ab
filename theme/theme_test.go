package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gpl = `GIMP Palette
Name: test
Columns: 2
# comment
  0   0   0	black
255 255 255	white
`

func TestLoadGPL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.gpl")
	require.NoError(t, os.WriteFile(path, []byte(gpl), 0644))

	p, err := LoadGPL(path)
	require.NoError(t, err)
	assert.Equal(t, "test", p.Name)
	assert.Equal(t, []RGB{{0, 0, 0}, {255, 255, 255}}, p.Colors)
	assert.Equal(t, RGB{127, 127, 127}, p.Lookup(0.5))
	assert.Equal(t, RGB{255, 255, 255}, p.Index(9))
}

func TestLoadOrDefault(t *testing.T) {
	p, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, Default(), p)

	p, err = LoadOrDefault(filepath.Join(t.TempDir(), "missing.gpl"))
	assert.Error(t, err)
	assert.Equal(t, Default(), p)
}

func TestThemeColors(t *testing.T) {
	th := New(Default())
	assert.Equal(t, lipgloss.Color("#1a102b"), th.BG())
	assert.Equal(t, lipgloss.Color("#ffe85c"), th.Success())
	assert.Equal(t, th.Muted(), th.Velocity(0))
	assert.Equal(t, th.Success(), th.Velocity(127))
}
