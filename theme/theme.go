package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	Playing rune // ▶ player running
	Stopped rune // ■ player stopped
	Beat    rune // ● beat in the bar
	Rest    rune // · other beats
	Note    rune // ♪ recorded note
}

func New(palette *Palette) *Theme {
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Playing: '▶',
			Stopped: '■',
			Beat:    '●',
			Rest:    '·',
			Note:    '♪',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0  // deep purple
	RoleSurface = 0.1  // dark purple
	RoleMuted   = 0.2  // purple-magenta
	RoleFG      = 0.4  // pink-purple (readable)
	RoleAccent  = 0.5  // vivid magenta
	RoleCursor  = 0.6  // rose pink
	RoleActive  = 0.7  // soft red
	RoleWarning = 0.8  // orange
	RoleSuccess = 1.0  // bright yellow
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) Surface() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSurface))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Cursor() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleCursor))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

// Velocity colors a MIDI velocity, quiet notes muted and loud ones bright
func (t *Theme) Velocity(v int) lipgloss.Color {
	if v >= 127 {
		return t.Success()
	}
	if v < 0 {
		v = 0
	}
	return t.Color(RoleMuted + (RoleSuccess-RoleMuted)*float64(v)/127)
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
