// Package sched registers one-shot timers. Callbacks always run on a
// single goroutine, so the state they touch needs no locking.
package sched

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Handle identifies a pending timer. The zero Handle is never issued.
type Handle uint64

// Timers is the timer registration service
type Timers interface {
	Now() time.Time
	// After calls fn once, d from now
	After(d time.Duration, fn func()) Handle
	// Cancel drops a pending timer; unknown or fired handles are ignored
	Cancel(h Handle)
}

type pending struct {
	h   Handle
	due time.Time
	fn  func()
}

// Manual is a Timers driven by Advance, for tests and offline rendering
type Manual struct {
	now     time.Time
	next    Handle
	pending []pending
}

// NewManual creates a manual clock reading now
func NewManual(now time.Time) *Manual {
	return &Manual{now: now}
}

func (m *Manual) Now() time.Time { return m.now }

func (m *Manual) After(d time.Duration, fn func()) Handle {
	m.next++
	m.pending = append(m.pending, pending{h: m.next, due: m.now.Add(d), fn: fn})
	return m.next
}

func (m *Manual) Cancel(h Handle) {
	for i, p := range m.pending {
		if p.h == h {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			return
		}
	}
}

// Pending returns the number of timers not yet fired
func (m *Manual) Pending() int { return len(m.pending) }

// Advance moves the clock forward by d, firing due timers in order of
// their due time. Timers registered by callbacks fire too if they fall
// inside the window.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now.Add(d)
	fired := 0
	for {
		sort.SliceStable(m.pending, func(i, j int) bool {
			return m.pending[i].due.Before(m.pending[j].due)
		})
		if len(m.pending) == 0 || m.pending[0].due.After(target) {
			break
		}
		p := m.pending[0]
		m.pending = m.pending[1:]
		if p.due.After(m.now) {
			m.now = p.due
		}
		p.fn()
		fired++
	}
	m.now = target
	return fired
}

// Loop is a Timers backed by real time. Expired timers and posted
// events are queued and run one at a time by Run.
type Loop struct {
	mu     sync.Mutex
	next   Handle
	timers map[Handle]*time.Timer
	queue  chan func()
}

// NewLoop creates an event loop; call Run to process events
func NewLoop() *Loop {
	return &Loop{
		timers: make(map[Handle]*time.Timer),
		queue:  make(chan func(), 64),
	}
}

func (l *Loop) Now() time.Time { return time.Now() }

func (l *Loop) After(d time.Duration, fn func()) Handle {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.next++
	h := l.next
	l.timers[h] = time.AfterFunc(d, func() {
		l.Post(func() {
			if l.take(h) {
				fn()
			}
		})
	})
	return h
}

// take removes a live timer and reports whether it was still pending
func (l *Loop) take(h Handle) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.timers[h]; !ok {
		return false
	}
	delete(l.timers, h)
	return true
}

func (l *Loop) Cancel(h Handle) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t, ok := l.timers[h]; ok {
		t.Stop()
		delete(l.timers, h)
	}
}

// Post queues fn to run on the loop goroutine
func (l *Loop) Post(fn func()) {
	l.queue <- fn
}

// Run processes events until ctx is done
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.stopAll()
			return ctx.Err()
		case fn := <-l.queue:
			fn()
		}
	}
}

func (l *Loop) stopAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
}

// Sweep is a logical timer with at most one outstanding handle.
// Arming it again cancels the pending firing first.
type Sweep struct {
	t Timers
	h Handle
}

// NewSweep creates an unarmed sweep timer on t
func NewSweep(t Timers) *Sweep {
	return &Sweep{t: t}
}

// Arm schedules fn d from now, replacing any pending firing
func (s *Sweep) Arm(d time.Duration, fn func()) {
	s.Stop()
	s.h = s.t.After(d, func() {
		s.h = 0
		fn()
	})
}

// Stop cancels the pending firing, if any
func (s *Sweep) Stop() {
	if s.h != 0 {
		s.t.Cancel(s.h)
		s.h = 0
	}
}

// Armed reports whether a firing is pending
func (s *Sweep) Armed() bool { return s.h != 0 }
