// Package rig keeps the named elements of a live setup (clocks,
// instruments, arps, switchers, recorders and players) and applies
// create, update and delete requests to them.
//
// All elements share one lock. Clock callbacks, MIDI input and
// reconfiguration all take it, so arps only ever see one caller at a time.
package rig

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go-arp/arp"
	"go-arp/clock"
	"go-arp/debug"
	"go-arp/player"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("already exists")
	ErrInUse    = errors.New("in use")
	ErrInvalid  = errors.New("invalid element")

	// ErrPlayerRunning is returned when an update changes the interval of a
	// playing player.
	ErrPlayerRunning = player.ErrPlaying
)

// Element kinds, also the first segment of element URIs
const (
	KindClocks        = "clocks"
	KindInstruments   = "instruments"
	KindArps          = "arps"
	KindSwitchers     = "switchers"
	KindRecorders     = "recorders"
	KindPlayers       = "players"
	KindPhrasePlayers = "phraseplayers"
)

// Kinds lists element kinds in creation order
var Kinds = []string{KindClocks, KindInstruments, KindArps, KindSwitchers, KindRecorders, KindPlayers, KindPhrasePlayers}

// DefaultClockName is used when a spec has no clocks
const DefaultClockName = "default"

// InstrumentLoader opens the instrument an InstrumentSpec describes
type InstrumentLoader func(spec InstrumentSpec) (player.Instrument, error)

type clockElement struct {
	spec  ClockSpec
	clock *clock.Clock

	// set while the clock's Run loop is going
	cancel  context.CancelFunc
	stopped chan struct{}
}

type instrumentElement struct {
	spec  InstrumentSpec
	instr player.Instrument
}

type arpElement struct {
	spec ArpSpec
	arp  arp.Arp
}

// switchable is what every switcher type provides
type switchable interface {
	arp.Arp
	Switch(inner arp.Arp)
	Inner() arp.Arp
}

type switcherElement struct {
	spec SwitcherSpec
	sw   switchable
}

type recorderElement struct {
	spec RecorderSpec
	rec  *arp.PhraseRecorder
}

type playerElement struct {
	spec   PlayerSpec
	player *player.NotePlayer
}

type phrasePlayerElement struct {
	spec   PhrasePlayerSpec
	player *player.PhrasePlayer
}

type Rig struct {
	mu     sync.Mutex
	loader InstrumentLoader

	clocks        map[string]*clockElement
	instruments   map[string]*instrumentElement
	arps          map[string]*arpElement
	switchers     map[string]*switcherElement
	recorders     map[string]*recorderElement
	players       map[string]*playerElement
	phrasePlayers map[string]*phrasePlayerElement
	defaultClock  string

	runCtx context.Context
	runWG  sync.WaitGroup

	// UpdateChan receives a value shortly after a burst of changes
	UpdateChan chan struct{}
	debounced  func(f func())
}

// New creates an empty rig. loader may be nil when no instruments are used.
func New(loader InstrumentLoader) *Rig {
	return &Rig{
		loader:        loader,
		clocks:        make(map[string]*clockElement),
		instruments:   make(map[string]*instrumentElement),
		arps:          make(map[string]*arpElement),
		switchers:     make(map[string]*switcherElement),
		recorders:     make(map[string]*recorderElement),
		players:       make(map[string]*playerElement),
		phrasePlayers: make(map[string]*phrasePlayerElement),
		UpdateChan:    make(chan struct{}, 1),
		debounced:     debounce.New(50 * time.Millisecond),
	}
}

// Load creates every element of spec in dependency order. References must
// point at elements created earlier. A default clock is added when spec
// has none.
func (r *Rig) Load(spec Spec) error {
	if len(spec.Clocks) == 0 && r.DefaultClock() == "" {
		spec.Clocks = []ClockSpec{{Name: DefaultClockName, Default: true}}
	}
	for _, s := range spec.Clocks {
		if _, err := r.CreateClock(s); err != nil {
			return err
		}
	}
	for _, s := range spec.Instruments {
		if _, err := r.CreateInstrument(s); err != nil {
			return err
		}
	}
	for _, s := range spec.Arps {
		if _, err := r.CreateArp(s); err != nil {
			return err
		}
	}
	for _, s := range spec.Switchers {
		if _, err := r.CreateSwitcher(s); err != nil {
			return err
		}
	}
	for _, s := range spec.Recorders {
		if _, err := r.CreateRecorder(s); err != nil {
			return err
		}
	}
	for _, s := range spec.Players {
		if _, err := r.CreatePlayer(s); err != nil {
			return err
		}
	}
	for _, s := range spec.PhrasePlayers {
		if _, err := r.CreatePhrasePlayer(s); err != nil {
			return err
		}
	}
	return nil
}

// Spec returns the current configuration of every element
func (r *Rig) Spec() Spec {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s Spec
	for _, name := range sortedKeys(r.clocks) {
		s.Clocks = append(s.Clocks, r.clocks[name].spec)
	}
	for _, name := range sortedKeys(r.instruments) {
		s.Instruments = append(s.Instruments, r.instruments[name].spec)
	}
	for _, name := range sortedKeys(r.arps) {
		s.Arps = append(s.Arps, r.arps[name].spec)
	}
	for _, name := range sortedKeys(r.switchers) {
		s.Switchers = append(s.Switchers, r.switchers[name].spec)
	}
	for _, name := range sortedKeys(r.recorders) {
		s.Recorders = append(s.Recorders, r.recorders[name].spec)
	}
	for _, name := range sortedKeys(r.players) {
		s.Players = append(s.Players, r.players[name].spec)
	}
	for _, name := range sortedKeys(r.phrasePlayers) {
		s.PhrasePlayers = append(s.PhrasePlayers, r.phrasePlayers[name].spec)
	}
	return s
}

// Run drives every clock until ctx is done. Clocks created while running
// start immediately.
func (r *Rig) Run(ctx context.Context) {
	r.mu.Lock()
	r.runCtx = ctx
	for _, c := range r.clocks {
		r.startClock(c)
	}
	r.mu.Unlock()

	<-ctx.Done()
	r.runWG.Wait()

	r.mu.Lock()
	r.runCtx = nil
	for _, c := range r.clocks {
		c.cancel, c.stopped = nil, nil
	}
	r.mu.Unlock()
}

// Stop halts every player so no new notes are scheduled
func (r *Rig) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		p.player.Stop()
	}
	for _, p := range r.phrasePlayers {
		p.player.Stop()
	}
}

// call with r.mu held
func (r *Rig) startClock(e *clockElement) {
	if r.runCtx == nil {
		return
	}
	ctx, cancel := context.WithCancel(r.runCtx)
	stopped := make(chan struct{})
	e.cancel, e.stopped = cancel, stopped
	r.runWG.Add(1)
	go func() {
		defer r.runWG.Done()
		defer close(stopped)
		defer cancel()
		e.clock.Run(ctx)
	}()
}

// call with r.mu held
func (r *Rig) stopClock(e *clockElement) {
	if e.cancel != nil {
		e.cancel()
	}
}

// changed schedules a coalesced notification on UpdateChan
func (r *Rig) changed() {
	r.debounced(func() {
		select {
		case r.UpdateChan <- struct{}{}:
		default:
		}
	})
}

// Delete removes the named element. Elements still referenced by others
// cannot be deleted.
func (r *Rig) Delete(kind, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if users := r.usersOf(kind, name); len(users) > 0 {
		return errors.Wrapf(ErrInUse, "%s/%s is used by %s", kind, name, strings.Join(users, ", "))
	}

	switch kind {
	case KindClocks:
		e, ok := r.clocks[name]
		if !ok {
			return notFound(kind, name)
		}
		if name == r.defaultClock {
			return errors.Wrapf(ErrInUse, "%s is the default clock", name)
		}
		r.stopClock(e)
		delete(r.clocks, name)
	case KindInstruments:
		if _, ok := r.instruments[name]; !ok {
			return notFound(kind, name)
		}
		delete(r.instruments, name)
	case KindArps:
		if _, ok := r.arps[name]; !ok {
			return notFound(kind, name)
		}
		delete(r.arps, name)
	case KindSwitchers:
		if _, ok := r.switchers[name]; !ok {
			return notFound(kind, name)
		}
		delete(r.switchers, name)
	case KindRecorders:
		if _, ok := r.recorders[name]; !ok {
			return notFound(kind, name)
		}
		delete(r.recorders, name)
	case KindPlayers:
		p, ok := r.players[name]
		if !ok {
			return notFound(kind, name)
		}
		p.player.Stop()
		delete(r.players, name)
	case KindPhrasePlayers:
		p, ok := r.phrasePlayers[name]
		if !ok {
			return notFound(kind, name)
		}
		p.player.Stop()
		delete(r.phrasePlayers, name)
	default:
		return errors.Wrapf(ErrNotFound, "unknown kind %q", kind)
	}
	debug.Log("rig", "deleted %s/%s", kind, name)
	r.changed()
	return nil
}

// usersOf lists URIs of elements that reference kind/name.
// call with r.mu held
func (r *Rig) usersOf(kind, name string) []string {
	target := uri(kind, name)
	var users []string
	switch kind {
	case KindClocks:
		for _, n := range sortedKeys(r.players) {
			if r.clockName(r.players[n].spec.Clock) == name {
				users = append(users, uri(KindPlayers, n))
			}
		}
		for _, n := range sortedKeys(r.recorders) {
			if r.clockName(r.recorders[n].spec.Clock) == name {
				users = append(users, uri(KindRecorders, n))
			}
		}
	case KindInstruments:
		for _, n := range sortedKeys(r.players) {
			if r.players[n].spec.Instrument == name {
				users = append(users, uri(KindPlayers, n))
			}
		}
		for _, n := range sortedKeys(r.phrasePlayers) {
			if r.phrasePlayers[n].spec.Instrument == name {
				users = append(users, uri(KindPhrasePlayers, n))
			}
		}
	case KindArps, KindSwitchers:
		for _, n := range sortedKeys(r.arps) {
			if slices.Contains(valueRefs(r.arps[n].spec.Values), target) {
				users = append(users, uri(KindArps, n))
			}
		}
		for _, n := range sortedKeys(r.switchers) {
			s := r.switchers[n].spec
			if s.Switchee == target || slices.Contains(valueRefs(s.Values), target) {
				users = append(users, uri(KindSwitchers, n))
			}
		}
		for _, n := range sortedKeys(r.players) {
			s := r.players[n].spec
			if s.Notes == target || s.Velocity == target {
				users = append(users, uri(KindPlayers, n))
			}
		}
	case KindRecorders:
		for _, n := range sortedKeys(r.phrasePlayers) {
			if r.phrasePlayers[n].spec.Recorder == name {
				users = append(users, uri(KindPhrasePlayers, n))
			}
		}
	}
	return users
}

// DefaultClock is the clock players and recorders use when none is named
func (r *Rig) DefaultClock() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defaultClock
}

// call with r.mu held
func (r *Rig) clockName(name string) string {
	if name == "" {
		return r.defaultClock
	}
	return name
}

// call with r.mu held
func (r *Rig) lookupClock(name string) (*clock.Clock, error) {
	c, ok := r.clocks[r.clockName(name)]
	if !ok {
		return nil, notFound(KindClocks, r.clockName(name))
	}
	return c.clock, nil
}

// call with r.mu held
func (r *Rig) lookupInstrument(name string) (player.Instrument, error) {
	i, ok := r.instruments[name]
	if !ok {
		return nil, notFound(KindInstruments, name)
	}
	return i.instr, nil
}

// lookupSource resolves "arps/x" or "switchers/y"; a bare name means an arp.
// call with r.mu held
func (r *Rig) lookupSource(ref string) (arp.Arp, error) {
	kind, name := splitURI(ref)
	switch kind {
	case KindArps:
		if a, ok := r.arps[name]; ok {
			return a.arp, nil
		}
	case KindSwitchers:
		if s, ok := r.switchers[name]; ok {
			return s.sw, nil
		}
	default:
		return nil, errors.Wrapf(ErrInvalid, "%q is not an arp or switcher", ref)
	}
	return nil, notFound(kind, name)
}

// call with r.mu held
func (r *Rig) claimName(kind, name string) (string, error) {
	if name == "" {
		return uuid.New().String(), nil
	}
	if strings.Contains(name, "/") {
		return "", errors.Wrapf(ErrInvalid, "name %q contains '/'", name)
	}
	var taken bool
	switch kind {
	case KindClocks:
		_, taken = r.clocks[name]
	case KindInstruments:
		_, taken = r.instruments[name]
	case KindArps:
		_, taken = r.arps[name]
	case KindSwitchers:
		_, taken = r.switchers[name]
	case KindRecorders:
		_, taken = r.recorders[name]
	case KindPlayers:
		_, taken = r.players[name]
	case KindPhrasePlayers:
		_, taken = r.phrasePlayers[name]
	}
	if taken {
		return "", errors.Wrapf(ErrExists, "%s/%s", kind, name)
	}
	return name, nil
}

func uri(kind, name string) string {
	return kind + "/" + name
}

func splitURI(ref string) (kind, name string) {
	kind, name, ok := strings.Cut(ref, "/")
	if !ok {
		return KindArps, ref
	}
	return kind, name
}

func notFound(kind, name string) error {
	return errors.Wrapf(ErrNotFound, "%s/%s", kind, name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := maps.Keys(m)
	slices.Sort(keys)
	return keys
}
