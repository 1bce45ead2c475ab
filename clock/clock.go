// Package clock provides the musical clock that drives players: an integer
// tick counter advancing at PPQ ticks per beat, with repeating and one-shot
// callbacks.
package clock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slices"

	"go-arp/debug"
)

// PPQ is ticks per quarter note (the MIDI clock resolution)
const PPQ = 24

// Tempo limits
const (
	MinTempo     = 20
	MaxTempo     = 300
	DefaultTempo = 120
)

// Meter is a time signature, e.g. 4/4
type Meter struct {
	Beats int `json:"beats"`
	Unit  int `json:"unit"`
}

// ParseMeter parses "4/4" style strings
func ParseMeter(s string) (Meter, error) {
	var m Meter
	if _, err := fmt.Sscanf(s, "%d/%d", &m.Beats, &m.Unit); err != nil {
		return Meter{}, fmt.Errorf("parse meter %q: %w", s, err)
	}
	if m.Beats <= 0 || m.Unit <= 0 || PPQ*4%m.Unit != 0 {
		return Meter{}, fmt.Errorf("parse meter %q: unsupported", s)
	}
	return m, nil
}

func (m Meter) String() string {
	return fmt.Sprintf("%d/%d", m.Beats, m.Unit)
}

// BarTicks returns the length of one bar in ticks
func (m Meter) BarTicks() int64 {
	return int64(m.Beats * PPQ * 4 / m.Unit)
}

type schedule struct {
	id       int
	interval int64
	fn       func()
}

type delayed struct {
	at  int64
	seq int
	fn  func()
}

// Clock counts ticks and fires callbacks. Callbacks run on the goroutine
// calling Advance (the Run loop in production) without the clock's lock held,
// so they may schedule more work.
type Clock struct {
	mu        sync.Mutex
	tempo     int
	meter     Meter
	ticks     int64
	paused    bool
	nextID    int
	schedules []*schedule
	pending   []delayed
}

// New creates a clock at tempo BPM in 4/4
func New(tempo int) *Clock {
	c := &Clock{meter: Meter{Beats: 4, Unit: 4}}
	c.SetTempo(tempo)
	return c
}

// Ticks returns the current tick
func (c *Clock) Ticks() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ticks
}

// SetTempo sets the BPM, clamped to MinTempo..MaxTempo
func (c *Clock) SetTempo(bpm int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if bpm < MinTempo {
		bpm = MinTempo
	}
	if bpm > MaxTempo {
		bpm = MaxTempo
	}
	c.tempo = bpm
}

func (c *Clock) Tempo() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tempo
}

func (c *Clock) SetMeter(m Meter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.meter = m
}

func (c *Clock) Meter() Meter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.meter
}

// TickDuration is the wall-clock length of one tick at the current tempo
func (c *Clock) TickDuration() time.Duration {
	return time.Minute / time.Duration(c.Tempo()*PPQ)
}

// Pause stops Run from advancing; callbacks stay registered
func (c *Clock) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

// Resume continues after Pause
func (c *Clock) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
}

// Playing reports whether Run is advancing
func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.paused
}

// Every calls fn on every tick that is a multiple of interval. The returned
// func cancels the schedule.
func (c *Clock) Every(interval int64, fn func()) (cancel func(), err error) {
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %d", interval)
	}
	c.mu.Lock()
	c.nextID++
	s := &schedule{id: c.nextID, interval: interval, fn: fn}
	c.schedules = append(c.schedules, s)
	c.mu.Unlock()

	return func() { c.cancel(s.id) }, nil
}

func (c *Clock) cancel(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.schedules {
		if s.id == id {
			c.schedules = append(c.schedules[:i], c.schedules[i+1:]...)
			return
		}
	}
}

// After calls fn once, delay ticks from now. A delay of 0 scheduled from a
// callback still fires within the current tick.
func (c *Clock) After(delay int64, fn func()) {
	if delay < 0 {
		delay = 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	c.pending = append(c.pending, delayed{at: c.ticks + delay, seq: c.nextID, fn: fn})
}

// Pending returns the number of one-shot callbacks not yet fired
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Advance fires everything due at the current tick, then moves to the next
// tick. One-shots due now run before repeating callbacks so a note-off
// lands before the next note-on of the same pitch.
func (c *Clock) Advance() {
	c.mu.Lock()
	now := c.ticks
	c.mu.Unlock()

	c.fireDue(now)

	c.mu.Lock()
	var due []func()
	for _, s := range c.schedules {
		if now%s.interval == 0 {
			due = append(due, s.fn)
		}
	}
	c.mu.Unlock()

	for _, fn := range due {
		fn()
	}
	c.fireDue(now)

	c.mu.Lock()
	c.ticks++
	c.mu.Unlock()
	debug.LogEvery(PPQ*16, "clock", "tick %d", now)
}

// fireDue runs one-shots due at now, including ones they schedule for now
func (c *Clock) fireDue(now int64) {
	for {
		fns := c.takeDue(now)
		if len(fns) == 0 {
			return
		}
		for _, fn := range fns {
			fn()
		}
	}
}

func (c *Clock) takeDue(now int64) []func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	slices.SortStableFunc(c.pending, func(a, b delayed) bool {
		if a.at != b.at {
			return a.at < b.at
		}
		return a.seq < b.seq
	})
	n := 0
	for n < len(c.pending) && c.pending[n].at <= now {
		n++
	}
	fns := make([]func(), n)
	for i := 0; i < n; i++ {
		fns[i] = c.pending[i].fn
	}
	c.pending = c.pending[n:]
	return fns
}

// Run advances the clock in real time until ctx is done (blocking - run in
// goroutine). Deadlines are computed from the previous deadline rather than
// from wake-up time so timing doesn't drift.
func (c *Clock) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()
	next := time.Now()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if c.Playing() {
				c.Advance()
			}
			next = next.Add(c.TickDuration())
			wait := time.Until(next)
			if wait < 0 {
				// fell behind (suspend, debugger); don't burst to catch up
				debug.Log("clock", "late by %v", -wait)
				next = time.Now()
				wait = 0
			}
			timer.Reset(wait)
		}
	}
}
