package midi

// MIDI message types
const (
	NoteOn  uint8 = 0x90
	NoteOff uint8 = 0x80
)

// Event is a note event received from an input port
type Event struct {
	Type     uint8 // NoteOn, NoteOff
	Channel  uint8
	Note     uint8
	Velocity uint8
}

// NoteHandler consumes note events (the rig forwards them to recorders)
type NoteHandler interface {
	NoteOn(note, velocity int)
	NoteOff(note int)
}

// clamp7 keeps a value in the 0-127 data byte range
func clamp7(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}
