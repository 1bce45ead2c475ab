package tui

import "github.com/charmbracelet/bubbles/key"

func Key(help string, keyboardKey ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keyboardKey...), key.WithHelp(keyboardKey[0], help))
}

type keyMap struct {
	Down      key.Binding
	Up        key.Binding
	Toggle    key.Binding
	Pause     key.Binding
	TempoUp   key.Binding
	TempoDown key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	Down:      Key("select", "j", "down"),
	Up:        Key("select", "k", "up"),
	Toggle:    Key("start/stop", "space", " ", "enter"),
	Pause:     Key("pause", "p"),
	TempoUp:   Key("tempo", "+", "="),
	TempoDown: Key("tempo", "-", "_"),
	Quit:      Key("quit", "q", "ctrl+c"),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.Up, k.Toggle, k.Pause, k.TempoUp, k.TempoDown, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
