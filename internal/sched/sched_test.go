package sched

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual(epoch)
	var got []string
	m.After(300*time.Millisecond, func() { got = append(got, "c") })
	m.After(100*time.Millisecond, func() { got = append(got, "a") })
	h := m.After(200*time.Millisecond, func() { got = append(got, "x") })
	m.After(200*time.Millisecond, func() { got = append(got, "b") })
	m.Cancel(h)

	assert.Equal(t, 2, m.Advance(250*time.Millisecond))
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, epoch.Add(250*time.Millisecond), m.Now())
	assert.Equal(t, 1, m.Pending())

	m.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestManualCallbackSeesDueTime(t *testing.T) {
	m := NewManual(epoch)
	var at []time.Duration
	var tick func()
	tick = func() {
		at = append(at, m.Now().Sub(epoch))
		m.After(100*time.Millisecond, tick)
	}
	m.After(100*time.Millisecond, tick)

	m.Advance(350 * time.Millisecond)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}, at)
}

func TestSweepSingleHandle(t *testing.T) {
	m := NewManual(epoch)
	s := NewSweep(m)
	fired := 0

	s.Arm(time.Second, func() { fired++ })
	s.Arm(time.Second, func() { fired++ })
	assert.Equal(t, 1, m.Pending())
	assert.True(t, s.Armed())

	m.Advance(time.Second)
	assert.Equal(t, 1, fired)
	assert.False(t, s.Armed())

	s.Arm(time.Second, func() { fired++ })
	s.Stop()
	m.Advance(2 * time.Second)
	assert.Equal(t, 1, fired)
}

func TestLoopRunsCallbacks(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	var order []int
	canceled := l.After(time.Millisecond, func() { order = append(order, -1) })
	l.Cancel(canceled)
	l.After(5*time.Millisecond, func() {
		order = append(order, 2)
		close(done)
	})
	l.Post(func() { order = append(order, 1) })

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("timer never fired")
	}
	cancel()
	require.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, []int{1, 2}, order)
}
