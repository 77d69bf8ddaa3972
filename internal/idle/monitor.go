package idle

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultThreshold is how long without input counts as idle.
	DefaultThreshold = 5 * time.Minute

	// DefaultInterval is the polling cadence, which also bounds how
	// promptly an idle transition is observed.
	DefaultInterval = time.Second
)

// InputSource measures seconds since the last user input. A platform with
// native idle-change events can implement Monitor's behavior directly and
// skip the poll loop entirely.
type InputSource interface {
	IdleSeconds() (float64, error)
}

// Config wires a Monitor. OnIdle and OnActive fire exactly once per edge,
// from the monitor goroutine.
type Config struct {
	Source   InputSource
	Log      *zap.Logger
	OnIdle   func()
	OnActive func()

	Threshold time.Duration // defaults to DefaultThreshold
	Interval  time.Duration // defaults to DefaultInterval
	Now       func() time.Time
}

// Monitor polls the input source and raises edge-triggered idle/active
// transitions when the measured idle time crosses the threshold.
type Monitor struct {
	source   InputSource
	log      *zap.Logger
	onIdle   func()
	onActive func()
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	threshold time.Duration
	idle      bool
	lastPoll  time.Time
	quit      chan struct{}
	done      chan struct{}
}

func NewMonitor(cfg Config) *Monitor {
	m := &Monitor{
		source:    cfg.Source,
		log:       cfg.Log,
		onIdle:    cfg.OnIdle,
		onActive:  cfg.OnActive,
		threshold: cfg.Threshold,
		interval:  cfg.Interval,
		now:       cfg.Now,
	}
	if m.threshold <= 0 {
		m.threshold = DefaultThreshold
	}
	if m.interval <= 0 {
		m.interval = DefaultInterval
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.log == nil {
		m.log = zap.NewNop()
	}
	if m.onIdle == nil {
		m.onIdle = func() {}
	}
	if m.onActive == nil {
		m.onActive = func() {}
	}
	return m
}

// Start launches the poll loop. Stop ends it; the monitor is single-use.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.quit != nil {
		m.mu.Unlock()
		return
	}
	m.quit = make(chan struct{})
	m.done = make(chan struct{})
	m.lastPoll = m.now()
	m.mu.Unlock()

	go m.run()
}

func (m *Monitor) Stop() {
	m.mu.Lock()
	quit, done := m.quit, m.done
	m.mu.Unlock()
	if quit == nil {
		return
	}
	select {
	case <-quit:
	default:
		close(quit)
	}
	<-done
}

// IsIdle reports the current side of the threshold.
func (m *Monitor) IsIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.idle
}

// SetThreshold reconfigures the idle threshold without restarting the
// poll loop; the next poll evaluates against the new value.
func (m *Monitor) SetThreshold(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.threshold = d
	m.mu.Unlock()
}

// NotifySuspend forces an immediate idle transition, regardless of what
// the input source reports. Platforms with suspend notifications call
// this on the way down.
func (m *Monitor) NotifySuspend() {
	if m.toIdle() {
		m.log.Info("system suspend, forcing idle")
		m.onIdle()
	}
}

// NotifyResume forces an immediate active transition if currently idle.
func (m *Monitor) NotifyResume() {
	if m.toActive() {
		m.log.Info("system resume, forcing active")
		m.onActive()
	}
}

func (m *Monitor) run() {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.quit:
			return
		case <-ticker.C:
			m.Poll()
		}
	}
}

// Poll takes one sample and raises whatever edges it implies. Exported so
// event-driven platforms (and tests) can drive the monitor without the
// internal ticker.
func (m *Monitor) Poll() {
	now := m.now()

	m.mu.Lock()
	last := m.lastPoll
	m.lastPoll = now
	threshold := m.threshold
	m.mu.Unlock()

	// A poll arriving far later than the cadence means the host slept
	// through the gap. Treat it as a missed suspend notification.
	if gap := now.Sub(last); !last.IsZero() && gap > m.interval*5 && gap > 2*time.Second {
		m.log.Debug("poll gap, assuming suspend", zap.Duration("gap", gap))
		m.NotifySuspend()
	}

	idleFor, err := m.source.IdleSeconds()
	if err != nil {
		m.log.Debug("idle source read failed", zap.Error(err))
		return
	}

	if time.Duration(idleFor*float64(time.Second)) >= threshold {
		if m.toIdle() {
			m.log.Info("idle threshold crossed", zap.Float64("idle_seconds", idleFor))
			m.onIdle()
		}
	} else {
		if m.toActive() {
			m.log.Info("user active again")
			m.onActive()
		}
	}
}

func (m *Monitor) toIdle() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idle {
		return false
	}
	m.idle = true
	return true
}

func (m *Monitor) toActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.idle {
		return false
	}
	m.idle = false
	return true
}
