package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"room-monitor/internal/fsm"
	"room-monitor/internal/hardware"
	"room-monitor/internal/logger"
	"room-monitor/internal/messaging"
	"room-monitor/internal/room"
	"room-monitor/internal/statemodel"
)

// Options configures a RoomSystem
type Options struct {
	Room      int
	Threshold int
	Instance  string

	TickPeriod     time.Duration
	SensorCooldown time.Duration
	ButtonDebounce time.Duration
	BeepDuration   time.Duration

	// Debug traces every transition at info level
	Debug bool
	Clock clockwork.Clock
}

func (o *Options) applyDefaults() {
	if o.TickPeriod <= 0 {
		o.TickPeriod = statemodel.DefaultTickPeriod
	}
	if o.SensorCooldown <= 0 {
		o.SensorCooldown = fsm.DefaultSensorCooldown
	}
	if o.ButtonDebounce <= 0 {
		o.ButtonDebounce = fsm.DefaultButtonDebounce
	}
	if o.BeepDuration <= 0 {
		o.BeepDuration = 150 * time.Millisecond
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
}

// RoomSystem is the room monitor: it owns the occupancy counter and the
// state model, and drives the actuators from the model's callbacks.
type RoomSystem struct {
	opts    Options
	logger  *logger.Logger
	io      HardwareIO
	redis   MessagingClient
	buzzer  Buzzer
	display Display
	leds    *hardware.LedBank
	room    *room.Room
	model   *statemodel.StateModel

	// loop goroutine only
	lastSensor  bool
	sensorFault bool

	mu           sync.Mutex
	initialized  bool
	stopLoop     context.CancelFunc
	loopDone     chan struct{}
	shutdownOnce sync.Once
}

// NewRoomSystem wires the controller to its collaborators. A nil redis,
// buzzer or display disables that collaborator.
func NewRoomSystem(opts Options, io HardwareIO, redis MessagingClient, buzzer Buzzer, display Display, l *logger.Logger) (*RoomSystem, error) {
	if io == nil {
		return nil, errors.New("hardware IO is required")
	}
	if l == nil {
		l = logger.Nop()
	}
	if redis == nil {
		redis = messaging.NopClient{}
	}
	if buzzer == nil {
		buzzer = nopBuzzer{}
	}
	if display == nil {
		display = nopDisplay{}
	}
	opts.applyDefaults()

	s := &RoomSystem{
		opts:    opts,
		logger:  l,
		io:      io,
		redis:   redis,
		buzzer:  buzzer,
		display: display,
		leds:    hardware.NewLedBank(io),
		room:    room.New(opts.Room, opts.Threshold, l.WithTag("room")),
	}

	model, err := statemodel.New(fsm.StateCount, s,
		statemodel.WithLogger(l.WithTag("engine")),
		statemodel.WithDebug(opts.Debug),
		statemodel.WithClock(opts.Clock),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create state model: %w", err)
	}
	if err := fsm.Define(model, fsm.Inputs{
		Discharge: s.input(hardware.ChannelButtonDischarge),
		Reset:     s.input(hardware.ChannelButtonReset),
		Debounce:  opts.ButtonDebounce,
	}); err != nil {
		return nil, fmt.Errorf("failed to define room model: %w", err)
	}
	s.model = model

	return s, nil
}

// input adapts a hardware channel to a button input
func (s *RoomSystem) input(channel string) statemodel.DigitalInput {
	return statemodel.DigitalInputFunc(func() (bool, error) {
		return s.io.ReadDigitalInput(channel)
	})
}

// Start initialises hardware and the local bus. The state model itself is
// started by Run.
func (s *RoomSystem) Start() error {
	s.logger.Infof("Starting room monitor for room %d (threshold %d)", s.opts.Room, s.opts.Threshold)

	s.redis.SetCallbacks(messaging.Callbacks{
		CommandCallback: s.handleRoomCommand,
		RefreshCallback: s.handleRefreshRequest,
	})

	if err := s.redis.Connect(); err != nil {
		// The mirror is optional; keep monitoring without it
		s.logger.Warnf("Local bus unavailable, continuing without it: %v", err)
		if err := s.redis.Close(); err != nil {
			s.logger.Warnf("Failed to close local bus: %v", err)
		}
		s.redis = messaging.NopClient{}
	}

	if err := s.io.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize hardware: %w", err)
	}

	if err := s.leds.Off(); err != nil {
		s.logger.Warnf("Failed to reset indicators: %v", err)
	}

	if err := s.redis.StartListening(); err != nil {
		return fmt.Errorf("failed to start local bus listeners: %w", err)
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	s.logger.Infof("Room monitor initialized")
	return nil
}

// Run drives the state model until ctx is cancelled or the system shuts down
func (s *RoomSystem) Run(ctx context.Context) error {
	s.mu.Lock()
	if !s.initialized {
		s.mu.Unlock()
		return errors.New("room monitor not started")
	}
	if s.loopDone != nil {
		s.mu.Unlock()
		return errors.New("room monitor already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.stopLoop, s.loopDone = cancel, done
	s.mu.Unlock()

	defer close(done)
	defer cancel()
	return s.model.Run(ctx, s.opts.TickPeriod)
}

// Shutdown stops the model, switches the indicators off, blanks the display
// and releases the hardware. Safe to call more than once, but not from a
// model callback: it waits for the loop goroutine to return from Run.
func (s *RoomSystem) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Infof("Shutting down room monitor")

		s.mu.Lock()
		s.initialized = false
		stopLoop, loopDone := s.stopLoop, s.loopDone
		s.mu.Unlock()

		if stopLoop != nil {
			stopLoop()
		}
		s.model.Stop()
		// A callback already in flight still owns the outputs
		if loopDone != nil {
			<-loopDone
		}

		if err := s.leds.Off(); err != nil {
			s.logger.Warnf("Failed to switch indicators off: %v", err)
		}
		if err := s.display.Clear(); err != nil {
			s.logger.Warnf("Failed to clear display: %v", err)
		}
		if err := s.buzzer.Close(); err != nil {
			s.logger.Warnf("Failed to silence buzzer: %v", err)
		}
		if err := s.display.Close(); err != nil {
			s.logger.Warnf("Failed to close display: %v", err)
		}
		if err := s.redis.Close(); err != nil {
			s.logger.Warnf("Failed to close local bus: %v", err)
		}
		s.io.Cleanup()

		s.logger.Infof("Room monitor stopped with %d patients", s.room.Count())
	})
}

// CurrentState returns the model state
func (s *RoomSystem) CurrentState() statemodel.State {
	return s.model.CurrentState()
}

// PatientCount returns the current occupancy
func (s *RoomSystem) PatientCount() int {
	return s.room.Count()
}
