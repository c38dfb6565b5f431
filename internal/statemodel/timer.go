package statemodel

import "time"

// TimerState is the lifecycle of a software timer
type TimerState int

const (
	TimerIdle TimerState = iota
	TimerRunning
)

func (s TimerState) String() string {
	if s == TimerRunning {
		return "running"
	}
	return "idle"
}

// timer is a one-shot software timer polled by the model on every tick
type timer struct {
	name     string
	event    EventID
	state    TimerState
	deadline time.Time
	duration time.Duration
}

func newTimer(name string) *timer {
	return &timer{
		name:  name,
		event: TimeoutEvent(name),
	}
}

// start (re)arms the timer; a running timer is restarted from now
func (t *timer) start(now time.Time, d time.Duration) {
	t.state = TimerRunning
	t.duration = d
	t.deadline = now.Add(d)
}

func (t *timer) stop() bool {
	wasRunning := t.state == TimerRunning
	t.state = TimerIdle
	return wasRunning
}

// expired reports a deadline crossing once and returns the timer to idle
func (t *timer) expired(now time.Time) bool {
	if t.state != TimerRunning || now.Before(t.deadline) {
		return false
	}
	t.state = TimerIdle
	return true
}

// StartTimer arms the named timer. It fires once, enqueueing
// <name>_timeout, unless stopped or restarted first.
func (m *StateModel) StartTimer(name string, d time.Duration) error {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	t, ok := m.timers[name]
	if !ok {
		return &ConfigError{Op: "StartTimer", Subject: name, Err: ErrUnknownTimer}
	}
	if !m.running.Load() {
		return ErrNotRunning
	}
	t.start(m.clock.Now(), d)
	m.logger.Debugf("timer started: %s (%v)", name, d)
	return nil
}

// StopTimer returns the named timer to idle. Stopping an idle timer is a no-op.
func (m *StateModel) StopTimer(name string) error {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	t, ok := m.timers[name]
	if !ok {
		return &ConfigError{Op: "StopTimer", Subject: name, Err: ErrUnknownTimer}
	}
	if t.stop() {
		m.logger.Debugf("timer stopped: %s", name)
	}
	return nil
}

// TimerActive reports whether the named timer is running
func (m *StateModel) TimerActive(name string) bool {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	t, ok := m.timers[name]
	return ok && t.state == TimerRunning
}

// stopAllTimers halts every owned timer
func (m *StateModel) stopAllTimers() {
	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	for _, t := range m.timerOrder {
		if t.stop() {
			m.logger.Debugf("timer stopped (cleanup): %s", t.name)
		}
	}
}

// pollTimers enqueues a timeout event for every timer whose deadline passed
func (m *StateModel) pollTimers(now time.Time) {
	var fired []EventID

	m.timerMu.Lock()
	for _, t := range m.timerOrder {
		if t.expired(now) {
			fired = append(fired, t.event)
		}
	}
	m.timerMu.Unlock()

	for _, ev := range fired {
		m.logger.Debugf("timer fired: %s", ev)
		m.enqueue(ev)
	}
}
