package statemodel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// StateModel is the event-driven engine. It owns the state table, the
// registered buttons, timers and custom events, and the current state, and
// drives a Controller from a cooperative polling loop.
type StateModel struct {
	controller Controller
	table      *StateTable
	queue      EventQueue

	clock    clockwork.Clock
	logger   Logger
	debug    bool
	maxDepth int

	mu          sync.RWMutex
	events      map[EventID]struct{}
	buttons     []*button
	buttonNames map[string]struct{}
	configErrs  []error
	sealed      bool
	done        chan struct{}

	timers     map[string]*timer
	timerOrder []*timer
	timerMu    sync.Mutex

	running atomic.Bool
	current atomic.Int64

	// dispatch recursion depth, touched only on the loop goroutine
	depth int
}

// Option is a functional option for configuring a StateModel
type Option func(*StateModel)

// WithLogger sets the logger for the model
func WithLogger(l Logger) Option {
	return func(m *StateModel) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithDebug enables transition tracing at info level
func WithDebug(debug bool) Option {
	return func(m *StateModel) {
		m.debug = debug
	}
}

// WithClock sets the time source used for ticks, timers and debouncing
func WithClock(c clockwork.Clock) Option {
	return func(m *StateModel) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithMaxDispatchDepth bounds how deep ProcessEvent may recurse from callbacks
func WithMaxDispatchDepth(depth int) Option {
	return func(m *StateModel) {
		if depth > 0 {
			m.maxDepth = depth
		}
	}
}

// New creates a stopped model with n states driving controller
func New(n int, controller Controller, opts ...Option) (*StateModel, error) {
	if n < 1 {
		return nil, &ConfigError{Op: "New", Err: ErrInvalidStateCount}
	}
	if controller == nil {
		return nil, &ConfigError{Op: "New", Err: ErrNilController}
	}

	m := &StateModel{
		controller:  controller,
		table:       NewStateTable(n),
		clock:       clockwork.NewRealClock(),
		logger:      NopLogger,
		maxDepth:    DefaultMaxDispatchDepth,
		events:      make(map[EventID]struct{}),
		buttonNames: make(map[string]struct{}),
		timers:      make(map[string]*timer),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// States returns the number of states
func (m *StateModel) States() int {
	return m.table.Size()
}

// reject records a configuration error so Start refuses to run
func (m *StateModel) reject(op, subject string, err error) error {
	cerr := &ConfigError{Op: op, Subject: subject, Err: err}
	m.configErrs = append(m.configErrs, cerr)
	m.logger.Warnf("configuration rejected: %v", cerr)
	return cerr
}

// registerLocked adds event names to the registry, all or nothing
func (m *StateModel) registerLocked(names ...EventID) error {
	for _, ev := range names {
		if _, ok := m.events[ev]; ok {
			return fmt.Errorf("%w: event %q", ErrDuplicateName, ev)
		}
	}
	for _, ev := range names {
		m.events[ev] = struct{}{}
	}
	return nil
}

// AddCustomEvent registers an event name for use in transitions and Send
func (m *StateModel) AddCustomEvent(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	const op = "AddCustomEvent"
	if m.sealed {
		return &ConfigError{Op: op, Subject: name, Err: ErrRegistrationClosed}
	}
	if name == "" {
		return m.reject(op, name, ErrEmptyName)
	}
	if err := m.registerLocked(EventID(name)); err != nil {
		return m.reject(op, name, err)
	}
	return nil
}

// AddButton registers a debounced button. It emits <name>_press and
// <name>_release once a new level has held for debounce.
func (m *StateModel) AddButton(name string, input DigitalInput, debounce time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	const op = "AddButton"
	if m.sealed {
		return &ConfigError{Op: op, Subject: name, Err: ErrRegistrationClosed}
	}
	if name == "" {
		return m.reject(op, name, ErrEmptyName)
	}
	if input == nil {
		return m.reject(op, name, ErrNilInput)
	}
	if _, ok := m.buttonNames[name]; ok {
		return m.reject(op, name, ErrDuplicateName)
	}
	if err := m.registerLocked(PressEvent(name), ReleaseEvent(name)); err != nil {
		return m.reject(op, name, err)
	}

	m.buttonNames[name] = struct{}{}
	m.buttons = append(m.buttons, newButton(name, input, debounce))
	return nil
}

// AddTimer registers a named one-shot timer emitting <name>_timeout
func (m *StateModel) AddTimer(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	const op = "AddTimer"
	if m.sealed {
		return &ConfigError{Op: op, Subject: name, Err: ErrRegistrationClosed}
	}
	if name == "" {
		return m.reject(op, name, ErrEmptyName)
	}

	m.timerMu.Lock()
	defer m.timerMu.Unlock()

	if _, ok := m.timers[name]; ok {
		return m.reject(op, name, ErrDuplicateName)
	}
	if err := m.registerLocked(TimeoutEvent(name)); err != nil {
		return m.reject(op, name, err)
	}

	t := newTimer(name)
	m.timers[name] = t
	m.timerOrder = append(m.timerOrder, t)
	return nil
}

// AddTransition moves the model from source to dest on any of events.
// All events must already be registered and none may already be mapped
// from source.
func (m *StateModel) AddTransition(source State, events []EventID, dest State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	const op = "AddTransition"
	subject := stateSubject(source, dest)
	if m.sealed {
		return &ConfigError{Op: op, Subject: subject, Err: ErrRegistrationClosed}
	}
	for _, ev := range events {
		if _, ok := m.events[ev]; !ok {
			return m.reject(op, subject, fmt.Errorf("%w: %q", ErrUnknownEvent, ev))
		}
	}
	if err := m.table.Add(source, events, dest); err != nil {
		return m.reject(op, subject, err)
	}
	return nil
}

func stateSubject(source, dest State) string {
	return fmt.Sprintf("%d->%d", source, dest)
}

// Validate returns every configuration error recorded so far
func (m *StateModel) Validate() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validateLocked()
}

func (m *StateModel) validateLocked() error {
	if len(m.configErrs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidConfiguration}, m.configErrs...)...)
}

// Registered reports whether event is known to the model
func (m *StateModel) Registered(event EventID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.events[event]
	return ok
}

// CurrentState returns the current state. Safe from any goroutine.
func (m *StateModel) CurrentState() State {
	return State(m.current.Load())
}

// Running reports whether the model is processing events
func (m *StateModel) Running() bool {
	return m.running.Load()
}

// start performs the Stopped -> Running transition. started is false when
// the model was already running.
func (m *StateModel) start() (done chan struct{}, started bool, err error) {
	m.mu.Lock()
	if m.running.Load() {
		m.mu.Unlock()
		return nil, false, nil
	}
	if err := m.validateLocked(); err != nil {
		m.mu.Unlock()
		return nil, false, err
	}

	m.sealed = true
	for _, b := range m.buttons {
		b.reset()
	}
	m.depth = 0
	m.current.Store(0)
	m.done = make(chan struct{})
	done = m.done
	m.running.Store(true)
	m.mu.Unlock()

	m.logger.Infof("state model started with %d states", m.table.Size())
	m.trace("entering initial state 0")
	m.controller.StateEntered(0, NoEvent)
	return done, true, nil
}

// Start moves the model to Running in state 0 and fires the initial
// StateEntered. It does not poll; drive the model with Tick, or use Run.
// Starting a running model is a no-op.
func (m *StateModel) Start() error {
	_, _, err := m.start()
	return err
}

// Run starts the model and polls it every period until Stop is called or
// ctx is cancelled. Run on an already running model returns immediately.
func (m *StateModel) Run(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = DefaultTickPeriod
	}

	done, started, err := m.start()
	if err != nil {
		return err
	}
	if !started {
		m.logger.Debugf("state model already running")
		return nil
	}

	ticker := m.clock.NewTicker(period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return nil
		case <-done:
			return nil
		case <-ticker.Chan():
			m.Tick()
		}
	}
}

// Stop halts the model and all of its timers and discards pending events.
// No callback starts after Stop returns, but a callback already running on
// the loop goroutine is not interrupted; callers on other goroutines that
// need the loop idle wait for Run to return. Safe to call from callbacks and
// from other goroutines; stopping a stopped model is a no-op.
func (m *StateModel) Stop() {
	m.mu.Lock()
	if !m.running.Load() {
		m.mu.Unlock()
		return
	}
	m.running.Store(false)
	close(m.done)
	m.mu.Unlock()

	m.stopAllTimers()
	if n := m.queue.Clear(); n > 0 {
		m.logger.Debugf("discarded %d pending events on stop", n)
	}
	m.logger.Infof("state model stopped in state %d", m.CurrentState())
}

// Tick runs one iteration of the polling loop: buttons, timers, StateDo,
// then at most one queued event.
func (m *StateModel) Tick() {
	if !m.running.Load() {
		return
	}

	now := m.clock.Now()
	m.pollButtons(now)
	m.pollTimers(now)

	if !m.running.Load() {
		return
	}
	m.controller.StateDo(m.CurrentState())

	if !m.running.Load() {
		return
	}
	event, ok := m.queue.Dequeue()
	if !ok {
		return
	}
	m.dispatch(event)
}

// enqueue adds an event unless the model is stopped
func (m *StateModel) enqueue(event EventID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.running.Load() {
		return false
	}
	m.queue.Enqueue(event)
	return true
}

// Send queues a registered event for a later tick. Safe from any goroutine.
func (m *StateModel) Send(event EventID) error {
	if !m.Registered(event) {
		m.logger.Warnf("dropping unregistered event %q", event)
		return ErrUnknownEvent
	}
	if !m.enqueue(event) {
		m.logger.Debugf("dropping event %s: model stopped", event)
		return ErrNotRunning
	}
	return nil
}

// ProcessEvent dispatches a registered event immediately, before returning.
// It is meant for callbacks running on the loop goroutine; a StateEntered
// callback may use it to force a further transition within the same tick.
// Other goroutines must use Send.
func (m *StateModel) ProcessEvent(event EventID) error {
	if !m.Registered(event) {
		m.logger.Warnf("dropping unregistered event %q", event)
		return ErrUnknownEvent
	}
	if !m.running.Load() {
		return ErrNotRunning
	}
	m.dispatch(event)
	return nil
}

// dispatch resolves event against the table. A matching transition, even a
// self-transition, fires StateLeft, updates the state, then fires
// StateEntered. Anything else is offered to StateEvent.
func (m *StateModel) dispatch(event EventID) {
	if !m.running.Load() {
		return
	}
	if m.depth >= m.maxDepth {
		m.logger.Warnf("dispatch depth %d reached, dropping event %s", m.maxDepth, event)
		return
	}
	m.depth++
	defer func() { m.depth-- }()

	current := m.CurrentState()
	if dest, ok := m.table.Resolve(current, event); ok {
		m.trace("transition %d -[%s]-> %d", current, event, dest)
		m.controller.StateLeft(current, event)
		m.current.Store(int64(dest))
		if !m.running.Load() {
			return
		}
		m.controller.StateEntered(dest, event)
		return
	}

	if m.controller.StateEvent(current, event) {
		m.trace("event %s handled in state %d", event, current)
		return
	}
	m.logger.Debugf("event %s unhandled in state %d, dropped", event, current)
}

func (m *StateModel) trace(format string, v ...interface{}) {
	if m.debug {
		m.logger.Infof(format, v...)
		return
	}
	m.logger.Debugf(format, v...)
}
