// Package scrollsync keeps two scrollable panes proportionally aligned.
package scrollsync

import (
	"math"
	"sync"
	"time"

	"pkt.systems/inkwell/internal/schedule"
)

// DefaultFrame is the idle tick after which a synchronized write stops
// suppressing feedback.
const DefaultFrame = 16 * time.Millisecond

// Side names one of the two panes.
type Side string

const (
	// Editor is the source text pane.
	Editor Side = "editor"
	// Preview is the rendered pane.
	Preview Side = "preview"
)

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Editor {
		return Preview
	}
	return Editor
}

// Valid reports whether s names a pane.
func (s Side) Valid() bool {
	return s == Editor || s == Preview
}

// Pane is a scrollable viewport.
type Pane interface {
	ScrollTop() float64
	ScrollHeight() float64
	ClientHeight() float64
	SetScrollTop(top float64)
}

// Geometry is a Pane held in memory, used where the real viewport lives elsewhere.
type Geometry struct {
	Top    float64 `json:"scrollTop"`
	Height float64 `json:"scrollHeight"`
	Client float64 `json:"clientHeight"`
}

// ScrollTop implements Pane.
func (g *Geometry) ScrollTop() float64 { return g.Top }

// ScrollHeight implements Pane.
func (g *Geometry) ScrollHeight() float64 { return g.Height }

// ClientHeight implements Pane.
func (g *Geometry) ClientHeight() float64 { return g.Client }

// SetScrollTop implements Pane.
func (g *Geometry) SetScrollTop(top float64) { g.Top = top }

// Percent returns how far p is scrolled, 0 at the top and 1 at the bottom.
func Percent(p Pane) float64 {
	return p.ScrollTop() / math.Max(p.ScrollHeight()-p.ClientHeight(), 1)
}

// Synchronizer mirrors scroll position from one pane to the other. A write it
// makes to a pane raises that pane's echo, so the scroll event the write
// produces is not synced back. The flag is cleared one frame later.
type Synchronizer struct {
	clock schedule.Clock
	frame time.Duration

	mu      sync.Mutex
	panes   map[Side]Pane
	syncing map[Side]bool
	timers  map[Side]schedule.Timer
	gens    map[Side]uint64
}

// New returns a synchronizer for the two panes. A nil clock uses the real
// clock and a non-positive frame uses DefaultFrame.
func New(editor, preview Pane, clock schedule.Clock, frame time.Duration) *Synchronizer {
	if clock == nil {
		clock = schedule.RealClock()
	}
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &Synchronizer{
		clock:   clock,
		frame:   frame,
		panes:   map[Side]Pane{Editor: editor, Preview: preview},
		syncing: map[Side]bool{},
		timers:  map[Side]schedule.Timer{},
		gens:    map[Side]uint64{},
	}
}

// OnScroll handles a scroll event from source. It reports whether the other
// pane was moved; events caused by the synchronizer's own writes are ignored.
func (s *Synchronizer) OnScroll(source Side) bool {
	if !source.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.syncing[source] {
		return false
	}
	from := s.panes[source]
	target := source.Other()
	to := s.panes[target]
	if from == nil || to == nil {
		return false
	}
	percent := Percent(from)
	s.syncing[target] = true
	to.SetScrollTop(percent * (to.ScrollHeight() - to.ClientHeight()))
	if t := s.timers[target]; t != nil {
		t.Stop()
	}
	s.gens[target]++
	gen := s.gens[target]
	s.timers[target] = s.clock.AfterFunc(s.frame, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		// A timer that fired while being replaced must not end the newer suppression.
		if gen != s.gens[target] {
			return
		}
		s.syncing[target] = false
		delete(s.timers, target)
	})
	return true
}

// Suppressed reports whether events from side are currently ignored.
func (s *Synchronizer) Suppressed(side Side) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncing[side]
}
