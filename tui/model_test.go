package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-arp/player"
	"go-arp/rig"
	"go-arp/theme"
)

type silent struct{}

func (silent) NoteOn(note, velocity int) {}
func (silent) NoteOff(note int)          {}

func newTestModel(t *testing.T) Model {
	t.Helper()
	r := rig.New(func(rig.InstrumentSpec) (player.Instrument, error) { return silent{}, nil })
	require.NoError(t, r.Load(rig.Spec{
		Instruments:   []rig.InstrumentSpec{{Name: "synth"}},
		Arps:          []rig.ArpSpec{{Name: "a", Type: "asc", Values: []any{60, 64}}},
		Recorders:     []rig.RecorderSpec{{Name: "keys"}},
		Players:       []rig.PlayerSpec{{Name: "p", Instrument: "synth", Notes: "arps/a"}},
		PhrasePlayers: []rig.PhrasePlayerSpec{{Name: "loop", Recorder: "keys", Instrument: "synth"}},
	}))
	return NewModel(r, theme.New(theme.Default()), "out: test")
}

func press(m Model, key string) Model {
	var msg tea.KeyMsg
	switch key {
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestTempoKeys(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "+")
	m = press(m, "+")
	m = press(m, "-")
	info, err := m.Rig.Clock("")
	require.NoError(t, err)
	assert.Equal(t, 125, info.Tempo)
}

func TestPauseKey(t *testing.T) {
	m := newTestModel(t)
	m = press(m, "p")
	info, err := m.Rig.Clock("")
	require.NoError(t, err)
	assert.False(t, info.Playing)
	assert.Contains(t, m.View(), "STOP")

	m = press(m, "p")
	info, err = m.Rig.Clock("")
	require.NoError(t, err)
	assert.True(t, info.Playing)
}

func TestSelectAndToggle(t *testing.T) {
	m := newTestModel(t)

	m = press(m, " ")
	p, err := m.Rig.Player("p")
	require.NoError(t, err)
	assert.True(t, p.Playing)

	m = press(m, "j")
	m = press(m, "j") // stays on the last row
	m = press(m, " ")
	pp, err := m.Rig.PhrasePlayer("loop")
	require.NoError(t, err)
	assert.True(t, pp.Playing)

	m = press(m, "k")
	m = press(m, " ")
	p, err = m.Rig.Player("p")
	require.NoError(t, err)
	assert.False(t, p.Playing)
}

func TestQuitStopsPlayers(t *testing.T) {
	m := newTestModel(t)
	m = press(m, " ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.(Model).View())

	p, err := m.Rig.Player("p")
	require.NoError(t, err)
	assert.False(t, p.Playing)
}

func TestView(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	assert.Contains(t, view, "120bpm")
	assert.Contains(t, view, "4/4")
	assert.Contains(t, view, "1.1")
	assert.Contains(t, view, "arps/a")
	assert.Contains(t, view, "recorders/keys")
	assert.Contains(t, view, "out: test")
	assert.Contains(t, view, "quit")
}

func TestNoteToName(t *testing.T) {
	assert.Equal(t, "C4", noteToName(60))
	assert.Equal(t, "F#3", noteToName(54))
	assert.Equal(t, "?200", noteToName(200))
}

func TestPosition(t *testing.T) {
	assert.Equal(t, "1.1", position(0, "4/4"))
	assert.Equal(t, "1.2", position(24, "4/4"))
	assert.Equal(t, "2.1", position(96, "4/4"))
	assert.Equal(t, "2.1", position(72, "3/4"))
}
