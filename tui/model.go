package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-arp/arp"
	"go-arp/clock"
	"go-arp/debug"
	"go-arp/rig"
	"go-arp/theme"
)

// refresh is how often the transport line redraws between rig updates
const refresh = 100 * time.Millisecond

// row is one selectable line: a note player or a phrase player
type row struct {
	kind string
	name string
}

type Model struct {
	Rig      *rig.Rig
	Theme    *theme.Theme
	Status   string // port summary shown under the header
	help     help.Model
	cursor   int
	quitting bool
	err      error
}

type UpdateMsg struct{}

type TickMsg time.Time

func NewModel(r *rig.Rig, th *theme.Theme, status string) Model {
	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(th.FG())
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(th.Muted())
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(th.Surface())
	return Model{
		Rig:    r,
		Theme:  th,
		Status: status,
		help:   h,
	}
}

func ListenForUpdates(r *rig.Rig) tea.Cmd {
	return func() tea.Msg {
		<-r.UpdateChan
		return UpdateMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Rig),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.err = nil
		switch {
		case key.Matches(msg, keys.Quit):
			m.quitting = true
			m.Rig.Stop()
			return m, tea.Quit

		case key.Matches(msg, keys.Pause):
			info, err := m.Rig.Clock("")
			if err != nil {
				m.err = err
				break
			}
			playing := !info.Playing
			_, m.err = m.Rig.UpdateClock(info.Name, rig.ClockUpdate{Playing: &playing})

		case key.Matches(msg, keys.TempoUp):
			m.nudgeTempo(5)

		case key.Matches(msg, keys.TempoDown):
			m.nudgeTempo(-5)

		case key.Matches(msg, keys.Down):
			if m.cursor < len(m.rows())-1 {
				m.cursor++
			}

		case key.Matches(msg, keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(msg, keys.Toggle):
			m.err = m.toggle()
		}

	case UpdateMsg:
		if n := len(m.rows()); m.cursor >= n && n > 0 {
			m.cursor = n - 1
		}
		return m, ListenForUpdates(m.Rig)

	case TickMsg:
		return m, tick()
	}

	return m, nil
}

func (m *Model) nudgeTempo(delta int) {
	info, err := m.Rig.Clock("")
	if err != nil {
		m.err = err
		return
	}
	tempo := info.Tempo + delta
	_, m.err = m.Rig.UpdateClock(info.Name, rig.ClockUpdate{Tempo: &tempo})
}

// toggle starts or stops the selected player
func (m *Model) toggle() error {
	rows := m.rows()
	if m.cursor >= len(rows) {
		return nil
	}
	sel := rows[m.cursor]
	switch sel.kind {
	case rig.KindPlayers:
		info, err := m.Rig.Player(sel.name)
		if err != nil {
			return err
		}
		playing := !info.Playing
		_, err = m.Rig.UpdatePlayer(sel.name, rig.PlayerUpdate{Playing: &playing})
		return err
	default:
		info, err := m.Rig.PhrasePlayer(sel.name)
		if err != nil {
			return err
		}
		_, err = m.Rig.SetPhrasePlaying(sel.name, !info.Playing)
		return err
	}
}

func (m Model) rows() []row {
	var rows []row
	for _, p := range m.Rig.Players() {
		rows = append(rows, row{rig.KindPlayers, p.Name})
	}
	for _, p := range m.Rig.PhrasePlayers() {
		rows = append(rows, row{rig.KindPhrasePlayers, p.Name})
	}
	return rows
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())
	activeStyle := lipgloss.NewStyle().Foreground(m.Theme.Active())
	cursorStyle := lipgloss.NewStyle().Foreground(m.Theme.Cursor()).Bold(true)
	warnStyle := lipgloss.NewStyle().Foreground(m.Theme.Warning())

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render(m.header()))
	out.WriteString("  ")
	out.WriteString(m.beats())
	out.WriteString("\n")
	if m.Status != "" {
		out.WriteString(dimStyle.Render(m.Status))
		out.WriteString("\n")
	}
	out.WriteString("\n")

	i := 0
	for _, p := range m.Rig.Players() {
		line := fmt.Sprintf("%s %-10s %-18s -> %-10s every %3d  played %d",
			m.symbol(p.Playing), p.Name, p.Notes, p.Instrument, p.Interval, p.Played)
		out.WriteString(m.styleRow(i, p.Playing, line, cursorStyle, activeStyle, fgStyle))
		out.WriteString("\n")
		i++
	}
	for _, p := range m.Rig.PhrasePlayers() {
		line := fmt.Sprintf("%s %-10s %-18s -> %-10s every %3d  notes  %d",
			m.symbol(p.Playing), p.Name, rig.KindRecorders+"/"+p.Recorder, p.Instrument, p.Length, len(p.Last))
		out.WriteString(m.styleRow(i, p.Playing, line, cursorStyle, activeStyle, fgStyle))
		out.WriteString("\n")
		i++
	}

	recorders := m.Rig.Recorders()
	if len(recorders) > 0 {
		out.WriteString("\n")
	}
	for _, r := range recorders {
		out.WriteString(dimStyle.Render(fmt.Sprintf("%-12s %4d ticks ", r.Name, r.Elapsed)))
		out.WriteString(m.phrase(r.Phrase))
		out.WriteString("\n")
	}

	if n := debug.Errors(); n > 0 {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(fmt.Sprintf("%d errors (see debug log)", n)))
	}
	if m.err != nil {
		out.WriteString("\n")
		out.WriteString(warnStyle.Render(m.err.Error()))
	}

	out.WriteString("\n\n")
	out.WriteString(m.help.View(keys))
	return out.String()
}

func (m Model) header() string {
	info, err := m.Rig.Clock("")
	if err != nil {
		return "go-arp  no clock"
	}
	state := "STOP"
	if info.Playing {
		state = "PLAY"
	}
	return fmt.Sprintf("go-arp  %s  %3dbpm  %s  %s", state, info.Tempo, info.Meter, position(info.Ticks, info.Meter))
}

// beats draws one symbol per beat of the bar, the current one highlighted
func (m Model) beats() string {
	info, err := m.Rig.Clock("")
	if err != nil {
		return ""
	}
	meter, err := clock.ParseMeter(info.Meter)
	if err != nil {
		return ""
	}
	beatTicks := meter.BarTicks() / int64(meter.Beats)
	current := int(info.Ticks%meter.BarTicks()) / int(beatTicks)

	on := lipgloss.NewStyle().Foreground(m.Theme.Success())
	off := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	var b strings.Builder
	for i := 0; i < meter.Beats; i++ {
		if i == current {
			b.WriteString(on.Render(string(m.Theme.Symbols.Beat)))
		} else {
			b.WriteString(off.Render(string(m.Theme.Symbols.Rest)))
		}
	}
	return b.String()
}

func (m Model) symbol(playing bool) string {
	if playing {
		return string(m.Theme.Symbols.Playing)
	}
	return string(m.Theme.Symbols.Stopped)
}

func (m Model) styleRow(i int, playing bool, line string, cursor, active, normal lipgloss.Style) string {
	switch {
	case i == m.cursor:
		return cursor.Render(line)
	case playing:
		return active.Render(line)
	}
	return normal.Render(line)
}

// phrase renders recorded notes by name, colored by velocity
func (m Model) phrase(notes []arp.PhraseNote) string {
	if len(notes) == 0 {
		return lipgloss.NewStyle().Foreground(m.Theme.Muted()).Render("-")
	}
	parts := make([]string, len(notes))
	for i, n := range notes {
		style := lipgloss.NewStyle().Foreground(m.Theme.Velocity(n.Velocity))
		parts[i] = style.Render(fmt.Sprintf("%c%s@%d", m.Theme.Symbols.Note, noteToName(n.Note), n.When))
	}
	return strings.Join(parts, " ")
}

// position formats ticks as bar.beat (1-based)
func position(ticks int64, meter string) string {
	m, err := clock.ParseMeter(meter)
	if err != nil {
		return ""
	}
	bar := ticks / m.BarTicks()
	beat := ticks % m.BarTicks() / (m.BarTicks() / int64(m.Beats))
	return fmt.Sprintf("%d.%d", bar+1, beat+1)
}

// noteToName converts MIDI note to readable name (e.g., "C4", "F#3")
func noteToName(note int) string {
	names := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	if note < 0 || note > 127 {
		return fmt.Sprintf("?%d", note)
	}
	octave := note/12 - 1
	return fmt.Sprintf("%s%d", names[note%12], octave)
}
