package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arp/rig"
)

func TestLoadFromMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Tempo = 96
	cfg.Output.PortName = "IAC Driver Bus 1"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 96, loaded.Tempo)
	assert.Equal(t, "IAC Driver Bus 1", loaded.Output.PortName)
	require.Len(t, loaded.Rig.Arps, 2)
	// JSON numbers come back as float64
	assert.Equal(t, []any{60.0, 64.0, 67.0, 72.0}, loaded.Rig.Arps[0].Values)
}

func TestLoadFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"rig":{"arps":[{"name":"a","type":"asc","values":[1,"arps/b"]}]}}`), 0644))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Tempo)
	assert.Equal(t, "4/4", cfg.Meter)
	assert.Equal(t, 1, cfg.Output.Channel)
	assert.Equal(t, []any{1.0, "arps/b"}, cfg.Rig.Arps[0].Values)
}

func TestLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tempo":`), 0644))
	_, err := LoadFrom(path)
	assert.Error(t, err)
}

func TestRigSpec(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Tempo = 140
	cfg.Meter = "3/4"
	cfg.Output = OutputConfig{PortName: "synth port", Channel: 3}

	spec := cfg.RigSpec()
	require.Len(t, spec.Clocks, 1)
	assert.Equal(t, rig.ClockSpec{Name: rig.DefaultClockName, Tempo: 140, Meter: "3/4", Default: true}, spec.Clocks[0])
	assert.Equal(t, "synth port", spec.Instruments[0].Port)
	assert.Equal(t, 3, spec.Instruments[0].Channel)

	// the stored spec is untouched
	assert.Empty(t, cfg.Rig.Clocks)
	assert.Empty(t, cfg.Rig.Instruments[0].Port)
}

func TestRigSpecKeepsExplicitClock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rig.Clocks = []rig.ClockSpec{{Name: "a", Tempo: 80}, {Name: "b", Default: true}}

	spec := cfg.RigSpec()
	assert.Equal(t, 80, spec.Clocks[0].Tempo)
	assert.Equal(t, cfg.Tempo, spec.Clocks[1].Tempo)
	assert.Equal(t, "4/4", spec.Clocks[1].Meter)
}

func TestDefaultRigLoads(t *testing.T) {
	r := rig.New(nil)
	spec := DefaultConfig().RigSpec()
	spec.Instruments = nil
	spec.Players = nil
	spec.PhrasePlayers = nil
	require.NoError(t, r.Load(spec))
	assert.Len(t, r.Switchers(), 1)
}
