// Package server exposes the rig over HTTP/JSON.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"go-arp/arp"
	"go-arp/debug"
	"go-arp/player"
	"go-arp/rig"
	"go-arp/theory"
)

// Server is the HTTP control surface
type Server struct {
	rig     *rig.Rig
	router  *mux.Router
	handler http.Handler
}

// New creates a server over r
func New(r *rig.Rig) *Server {
	s := &Server{
		rig:    r,
		router: mux.NewRouter().StrictSlash(true),
	}
	s.routes()
	s.handler = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
	}).Handler(s.router)
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(logRequests)

	r.HandleFunc("/clocks", s.listClocks).Methods(http.MethodGet)
	r.HandleFunc("/clocks", s.createClock).Methods(http.MethodPost)
	r.HandleFunc("/clocks/{name}", s.getClock).Methods(http.MethodGet)
	r.HandleFunc("/clocks/{name}", s.updateClock).Methods(http.MethodPatch)

	r.HandleFunc("/instruments", s.listInstruments).Methods(http.MethodGet)
	r.HandleFunc("/instruments", s.createInstrument).Methods(http.MethodPost)
	r.HandleFunc("/instruments/{name}", s.getInstrument).Methods(http.MethodGet)

	r.HandleFunc("/arps", s.listArps).Methods(http.MethodGet)
	r.HandleFunc("/arps", s.createArp).Methods(http.MethodPost)
	r.HandleFunc("/arps/{name}", s.getArp).Methods(http.MethodGet)
	r.HandleFunc("/arps/{name}", s.updateArp).Methods(http.MethodPatch)

	r.HandleFunc("/switchers", s.listSwitchers).Methods(http.MethodGet)
	r.HandleFunc("/switchers", s.createSwitcher).Methods(http.MethodPost)
	r.HandleFunc("/switchers/{name}", s.getSwitcher).Methods(http.MethodGet)
	r.HandleFunc("/switchers/{name}", s.updateSwitcher).Methods(http.MethodPatch)

	r.HandleFunc("/recorders", s.listRecorders).Methods(http.MethodGet)
	r.HandleFunc("/recorders", s.createRecorder).Methods(http.MethodPost)
	r.HandleFunc("/recorders/{name}", s.getRecorder).Methods(http.MethodGet)
	r.HandleFunc("/recorders/{name}/phrase", s.getPhrase).Methods(http.MethodGet)

	r.HandleFunc("/players", s.listPlayers).Methods(http.MethodGet)
	r.HandleFunc("/players", s.createPlayer).Methods(http.MethodPost)
	r.HandleFunc("/players/{name}", s.getPlayer).Methods(http.MethodGet)
	r.HandleFunc("/players/{name}", s.updatePlayer).Methods(http.MethodPatch)

	r.HandleFunc("/phraseplayers", s.listPhrasePlayers).Methods(http.MethodGet)
	r.HandleFunc("/phraseplayers", s.createPhrasePlayer).Methods(http.MethodPost)
	r.HandleFunc("/phraseplayers/{name}", s.getPhrasePlayer).Methods(http.MethodGet)
	r.HandleFunc("/phraseplayers/{name}", s.updatePhrasePlayer).Methods(http.MethodPatch)

	r.HandleFunc("/spec", s.getSpec).Methods(http.MethodGet)
	r.HandleFunc("/{kind}/{name}", s.deleteElement).Methods(http.MethodDelete)
}

// Handler returns the router wrapped with CORS
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		debug.Log("server", "listening on %s", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	debug.Log("server", "stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		debug.Log("http", "%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Error("http", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps rig and engine errors to HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, rig.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rig.ErrExists),
		errors.Is(err, rig.ErrInUse),
		errors.Is(err, rig.ErrPlayerRunning):
		return http.StatusConflict
	case errors.Is(err, rig.ErrInvalid),
		errors.Is(err, arp.ErrInvalidArgument),
		errors.Is(err, arp.ErrCycle),
		errors.Is(err, player.ErrInvalidInterval),
		errors.Is(err, theory.ErrInvalidInversion),
		errors.Is(err, theory.ErrUnknownScale),
		errors.Is(err, theory.ErrUnknownKey):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body into v; unknown fields are rejected
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrapf(rig.ErrInvalid, "request body: %v", err)
	}
	return nil
}

func name(r *http.Request) string {
	return mux.Vars(r)["name"]
}
