package idle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeSource reports whatever idle reading the test sets.
type fakeSource struct {
	seconds float64
	err     error
}

func (f *fakeSource) IdleSeconds() (float64, error) { return f.seconds, f.err }

type edgeCounter struct {
	idle   int
	active int
}

func newTestMonitor(source *fakeSource, clock func() time.Time, edges *edgeCounter) *Monitor {
	return NewMonitor(Config{
		Source:    source,
		Log:       zap.NewNop(),
		OnIdle:    func() { edges.idle++ },
		OnActive:  func() { edges.active++ },
		Threshold: 5 * time.Minute,
		Interval:  time.Second,
		Now:       clock,
	})
}

func TestEdgesFireExactlyOncePerCrossing(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := &fakeSource{}
	var edges edgeCounter
	m := newTestMonitor(source, clock, &edges)

	// Below threshold: nothing fires, on any number of polls.
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second)
		m.Poll()
	}
	assert.Equal(t, edgeCounter{}, edges)
	assert.False(t, m.IsIdle())

	// Crossing up fires the idle callback once, not once per poll.
	source.seconds = 301
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second)
		m.Poll()
	}
	assert.Equal(t, edgeCounter{idle: 1}, edges)
	assert.True(t, m.IsIdle())

	// Crossing back fires the active callback once.
	source.seconds = 0.2
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second)
		m.Poll()
	}
	assert.Equal(t, edgeCounter{idle: 1, active: 1}, edges)
	assert.False(t, m.IsIdle())
}

func TestThresholdBoundaryIsInclusive(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := &fakeSource{seconds: 300}
	var edges edgeCounter
	m := newTestMonitor(source, clock, &edges)

	now = now.Add(time.Second)
	m.Poll()
	assert.Equal(t, 1, edges.idle, "at-threshold reading counts as idle")
}

func TestSetThresholdAppliesWithoutRestart(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := &fakeSource{seconds: 120}
	var edges edgeCounter
	m := newTestMonitor(source, clock, &edges)

	now = now.Add(time.Second)
	m.Poll()
	assert.Equal(t, 0, edges.idle, "2 minutes is under the 5 minute default")

	m.SetThreshold(time.Minute)
	now = now.Add(time.Second)
	m.Poll()
	assert.Equal(t, 1, edges.idle, "same reading crosses the lowered threshold")
}

func TestSuspendForcesIdleAndResumeForcesActive(t *testing.T) {
	t.Parallel()
	source := &fakeSource{seconds: 0.1}
	var edges edgeCounter
	m := newTestMonitor(source, time.Now, &edges)

	// Suspend forces idle even though measured idle time is near zero.
	m.NotifySuspend()
	assert.Equal(t, edgeCounter{idle: 1}, edges)
	assert.True(t, m.IsIdle())

	m.NotifySuspend()
	assert.Equal(t, edgeCounter{idle: 1}, edges, "already idle, no second edge")

	m.NotifyResume()
	assert.Equal(t, edgeCounter{idle: 1, active: 1}, edges)
	assert.False(t, m.IsIdle())

	m.NotifyResume()
	assert.Equal(t, edgeCounter{idle: 1, active: 1}, edges, "already active, no second edge")
}

func TestPollGapImpliesSuspend(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := &fakeSource{seconds: 0.5}
	var edges edgeCounter
	m := newTestMonitor(source, clock, &edges)

	now = now.Add(time.Second)
	m.Poll()
	assert.Equal(t, edgeCounter{}, edges)

	// The host slept for ten minutes between polls: the monitor must
	// synthesize the suspend (idle edge) and, with fresh input on this
	// poll, the resume (active edge).
	now = now.Add(10 * time.Minute)
	m.Poll()
	assert.Equal(t, edgeCounter{idle: 1, active: 1}, edges)
	assert.False(t, m.IsIdle())
}

func TestSourceErrorKeepsState(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 8, 12, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	source := &fakeSource{seconds: 600}
	var edges edgeCounter
	m := newTestMonitor(source, clock, &edges)

	now = now.Add(time.Second)
	m.Poll()
	assert.True(t, m.IsIdle())

	source.err = assert.AnError
	now = now.Add(time.Second)
	m.Poll()
	assert.True(t, m.IsIdle(), "a failed reading must not flip the state")
	assert.Equal(t, edgeCounter{idle: 1}, edges)
}

func TestStartStopLifecycle(t *testing.T) {
	t.Parallel()
	source := &fakeSource{}
	m := NewMonitor(Config{
		Source:   source,
		Log:      zap.NewNop(),
		Interval: 5 * time.Millisecond,
	})

	m.Start()
	time.Sleep(30 * time.Millisecond)
	m.Stop()
	// Stop twice must not panic or hang.
	m.Stop()
}
