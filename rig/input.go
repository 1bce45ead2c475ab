package rig

import (
	"go-arp/arp"
	"go-arp/player"
)

// InputRoute feeds notes played on a keyboard into a recorder and echoes
// them to an instrument. It satisfies midi.NoteHandler.
type InputRoute struct {
	rig  *Rig
	rec  *arp.PhraseRecorder
	echo player.Instrument
}

// Input builds a route into the named recorder. echo names an instrument
// and may be empty. recorder may be empty too, for echo only.
func (r *Rig) Input(recorder, echo string) (*InputRoute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	route := &InputRoute{rig: r}
	if recorder != "" {
		e, ok := r.recorders[recorder]
		if !ok {
			return nil, notFound(KindRecorders, recorder)
		}
		route.rec = e.rec
	}
	if echo != "" {
		instr, err := r.lookupInstrument(echo)
		if err != nil {
			return nil, err
		}
		route.echo = instr
	}
	return route, nil
}

func (in *InputRoute) NoteOn(note, velocity int) {
	if in.rec != nil {
		in.rig.mu.Lock()
		in.rec.RecordNoteOn(note, velocity)
		in.rig.mu.Unlock()
	}
	if in.echo != nil {
		in.echo.NoteOn(note, velocity)
	}
}

func (in *InputRoute) NoteOff(note int) {
	if in.rec != nil {
		in.rig.mu.Lock()
		in.rec.RecordNoteOff(note)
		in.rig.mu.Unlock()
	}
	if in.echo != nil {
		in.echo.NoteOff(note)
	}
}
