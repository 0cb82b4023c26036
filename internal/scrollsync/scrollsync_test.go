package scrollsync

import (
	"math"
	"testing"
	"time"

	"pkt.systems/inkwell/internal/schedule"
)

func newPair(t *testing.T) (*Geometry, *Geometry, *schedule.ManualClock, *Synchronizer) {
	t.Helper()
	editor := &Geometry{Height: 1100, Client: 100}
	preview := &Geometry{Height: 2100, Client: 100}
	clock := schedule.NewManualClock(time.Unix(0, 0))
	return editor, preview, clock, New(editor, preview, clock, 0)
}

func TestOnScrollMapsProportionally(t *testing.T) {
	editor, preview, _, s := newPair(t)
	editor.SetScrollTop(500)
	if !s.OnScroll(Editor) {
		t.Fatalf("expected preview to move")
	}
	if math.Abs(preview.Top-1000) > 1e-9 {
		t.Fatalf("expected preview at 1000, got %v", preview.Top)
	}
}

func TestOnScrollSuppressesEcho(t *testing.T) {
	editor, preview, clock, s := newPair(t)
	editor.SetScrollTop(250)
	s.OnScroll(Editor)
	if !s.Suppressed(Preview) {
		t.Fatalf("expected preview suppressed after sync write")
	}
	preview.SetScrollTop(preview.Top + 1)
	if s.OnScroll(Preview) {
		t.Fatalf("echo event synced back to editor")
	}
	if editor.Top != 250 {
		t.Fatalf("editor moved by echo: %v", editor.Top)
	}
	clock.Advance(DefaultFrame - time.Millisecond)
	if !s.Suppressed(Preview) {
		t.Fatalf("suppression cleared before the frame elapsed")
	}
	clock.Advance(time.Millisecond)
	if s.Suppressed(Preview) {
		t.Fatalf("suppression not cleared after frame")
	}
	preview.SetScrollTop(2000)
	if !s.OnScroll(Preview) {
		t.Fatalf("expected user scroll on preview to sync")
	}
	if math.Abs(editor.Top-1000) > 1e-9 {
		t.Fatalf("expected editor at bottom, got %v", editor.Top)
	}
}

func TestPercentAvoidsDivideByZero(t *testing.T) {
	short := &Geometry{Top: 0, Height: 50, Client: 100}
	if got := Percent(short); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	equal := &Geometry{Top: 3, Height: 100, Client: 100}
	if got := Percent(equal); got != 3 {
		t.Fatalf("expected denominator of 1, got %v", got)
	}
}

func TestOnScrollInvalidSide(t *testing.T) {
	_, _, _, s := newPair(t)
	if s.OnScroll(Side("sidebar")) {
		t.Fatalf("expected invalid side to be ignored")
	}
}

type firedTimer struct{}

func (firedTimer) Stop() bool { return false }

// firedClock hands out timers that have already fired, so Stop never cancels
// and the test runs each callback by hand.
type firedClock struct {
	callbacks []func()
}

func (c *firedClock) Now() time.Time { return time.Unix(0, 0) }

func (c *firedClock) AfterFunc(_ time.Duration, f func()) schedule.Timer {
	c.callbacks = append(c.callbacks, f)
	return firedTimer{}
}

func TestOnScrollIgnoresStaleClear(t *testing.T) {
	editor := &Geometry{Height: 1100, Client: 100}
	preview := &Geometry{Height: 2100, Client: 100}
	clock := &firedClock{}
	s := New(editor, preview, clock, 0)

	editor.SetScrollTop(100)
	s.OnScroll(Editor)
	editor.SetScrollTop(200)
	s.OnScroll(Editor)
	if len(clock.callbacks) != 2 {
		t.Fatalf("expected two scheduled clears, got %d", len(clock.callbacks))
	}

	clock.callbacks[0]()
	if !s.Suppressed(Preview) {
		t.Fatalf("stale clear ended suppression of the latest write")
	}
	clock.callbacks[1]()
	if s.Suppressed(Preview) {
		t.Fatalf("latest clear did not end suppression")
	}
}
