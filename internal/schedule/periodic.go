package schedule

import (
	"sync"
	"time"
)

// Periodic runs fn every interval until stopped.
type Periodic struct {
	clock    Clock
	interval time.Duration
	fn       func()

	mu      sync.Mutex
	timer   Timer
	gen     uint64
	running bool
}

// NewPeriodic returns a stopped periodic task. A nil clock uses the real clock.
func NewPeriodic(clock Clock, interval time.Duration, fn func()) *Periodic {
	if clock == nil {
		clock = RealClock()
	}
	return &Periodic{clock: clock, interval: interval, fn: fn}
}

// Start begins ticking. Starting a running task restarts its interval.
func (p *Periodic) Start() {
	if p.interval <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.running = true
	p.gen++
	p.scheduleLocked(p.gen)
}

// Stop halts ticking.
func (p *Periodic) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

// Running reports whether the task is started.
func (p *Periodic) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Periodic) scheduleLocked(gen uint64) {
	p.timer = p.clock.AfterFunc(p.interval, func() {
		p.mu.Lock()
		if !p.running || gen != p.gen {
			p.mu.Unlock()
			return
		}
		p.mu.Unlock()
		p.fn()
		p.mu.Lock()
		if p.running && gen == p.gen {
			p.scheduleLocked(gen)
		}
		p.mu.Unlock()
	})
}

func (p *Periodic) stopLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.running = false
	p.gen++
}
