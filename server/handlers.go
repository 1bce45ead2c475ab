package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-arp/rig"
)

func (s *Server) getSpec(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.rig.Spec())
}

func (s *Server) deleteElement(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.rig.Delete(vars["kind"], vars["name"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clocks

func (s *Server) listClocks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.rig.Clocks()))
}

func (s *Server) getClock(w http.ResponseWriter, r *http.Request) {
	info, err := s.rig.Clock(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) createClock(w http.ResponseWriter, r *http.Request) {
	var spec rig.ClockSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.CreateClock(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) updateClock(w http.ResponseWriter, r *http.Request) {
	var u rig.ClockUpdate
	if err := decode(r, &u); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.UpdateClock(name(r), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// instruments

func (s *Server) listInstruments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.rig.Instruments()))
}

func (s *Server) getInstrument(w http.ResponseWriter, r *http.Request) {
	spec, err := s.rig.Instrument(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) createInstrument(w http.ResponseWriter, r *http.Request) {
	var spec rig.InstrumentSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	created, err := s.rig.CreateInstrument(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// arps

func (s *Server) listArps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.rig.Arps()))
}

func (s *Server) getArp(w http.ResponseWriter, r *http.Request) {
	info, err := s.rig.Arp(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) createArp(w http.ResponseWriter, r *http.Request) {
	var spec rig.ArpSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.CreateArp(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) updateArp(w http.ResponseWriter, r *http.Request) {
	var u rig.ArpUpdate
	if err := decode(r, &u); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.UpdateArp(name(r), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// switchers

func (s *Server) listSwitchers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.rig.Switchers()))
}

func (s *Server) getSwitcher(w http.ResponseWriter, r *http.Request) {
	info, err := s.rig.Switcher(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) createSwitcher(w http.ResponseWriter, r *http.Request) {
	var spec rig.SwitcherSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.CreateSwitcher(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) updateSwitcher(w http.ResponseWriter, r *http.Request) {
	var u rig.SwitcherUpdate
	if err := decode(r, &u); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.UpdateSwitcher(name(r), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// recorders

func (s *Server) listRecorders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.rig.Recorders()))
}

func (s *Server) getRecorder(w http.ResponseWriter, r *http.Request) {
	info, err := s.rig.Recorder(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) getPhrase(w http.ResponseWriter, r *http.Request) {
	phrase, err := s.rig.Phrase(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, phrase)
}

func (s *Server) createRecorder(w http.ResponseWriter, r *http.Request) {
	var spec rig.RecorderSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.CreateRecorder(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// players

func (s *Server) listPlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.rig.Players()))
}

func (s *Server) getPlayer(w http.ResponseWriter, r *http.Request) {
	info, err := s.rig.Player(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) createPlayer(w http.ResponseWriter, r *http.Request) {
	var spec rig.PlayerSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.CreatePlayer(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (s *Server) updatePlayer(w http.ResponseWriter, r *http.Request) {
	var u rig.PlayerUpdate
	if err := decode(r, &u); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.UpdatePlayer(name(r), u)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// phrase players

func (s *Server) listPhrasePlayers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, orEmpty(s.rig.PhrasePlayers()))
}

func (s *Server) getPhrasePlayer(w http.ResponseWriter, r *http.Request) {
	info, err := s.rig.PhrasePlayer(name(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) createPhrasePlayer(w http.ResponseWriter, r *http.Request) {
	var spec rig.PhrasePlayerSpec
	if err := decode(r, &spec); err != nil {
		writeError(w, err)
		return
	}
	info, err := s.rig.CreatePhrasePlayer(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

type phrasePlayerUpdate struct {
	Playing *bool `json:"playing"`
}

func (s *Server) updatePhrasePlayer(w http.ResponseWriter, r *http.Request) {
	var u phrasePlayerUpdate
	if err := decode(r, &u); err != nil {
		writeError(w, err)
		return
	}
	if u.Playing == nil {
		info, err := s.rig.PhrasePlayer(name(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)
		return
	}
	info, err := s.rig.SetPhrasePlaying(name(r), *u.Playing)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// orEmpty keeps empty lists encoding as [] rather than null
func orEmpty[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
