package hardware

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"room-monitor/internal/logger"

	"github.com/warthog618/go-gpiocdev"
)

// InputLine describes a GPIO input
type InputLine struct {
	Offset    int
	ActiveLow bool
	PullUp    bool
	Debounce  time.Duration // kernel debounce, zero disables
}

// Pins maps channel names to GPIO line offsets on one chip
type Pins struct {
	Chip    string
	Inputs  map[string]InputLine
	Outputs map[string]int
}

// DefaultPins returns the stock wiring on DefaultChip
func DefaultPins() Pins {
	p := Pins{
		Chip:    DefaultChip,
		Inputs:  make(map[string]InputLine, len(DefaultInputs)),
		Outputs: make(map[string]int, len(DefaultOutputs)),
	}
	for name, in := range DefaultInputs {
		p.Inputs[name] = in
	}
	for name, off := range DefaultOutputs {
		p.Outputs[name] = off
	}
	return p
}

// Validate rejects a line offset used by more than one channel
func (p Pins) Validate() error {
	used := make(map[int]string)
	claim := func(name string, offset int) error {
		if offset < 0 {
			return fmt.Errorf("channel %s: invalid line offset %d", name, offset)
		}
		if other, ok := used[offset]; ok {
			return fmt.Errorf("line %d assigned to both %s and %s", offset, other, name)
		}
		used[offset] = name
		return nil
	}
	for _, name := range sortedKeys(p.Inputs) {
		if err := claim(name, p.Inputs[name].Offset); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(p.Outputs) {
		if err := claim(name, p.Outputs[name]); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type LinuxHardwareIO struct {
	logger  *logger.Logger
	pins    Pins
	chip    *gpiocdev.Chip
	lines   map[string]*gpiocdev.Line
	outputs map[string]bool
	mu      sync.RWMutex
}

func NewLinuxHardwareIO(pins Pins, l *logger.Logger) *LinuxHardwareIO {
	if l == nil {
		l = logger.Nop()
	}
	if pins.Chip == "" {
		pins.Chip = DefaultChip
	}
	return &LinuxHardwareIO{
		logger:  l,
		pins:    pins,
		lines:   make(map[string]*gpiocdev.Line),
		outputs: make(map[string]bool),
	}
}

// outputOptions builds the line request for an output; every output is
// requested low so no indicator lights before the model decides
func outputOptions() []gpiocdev.LineReqOption {
	return []gpiocdev.LineReqOption{
		gpiocdev.AsOutput(0),
		gpiocdev.WithConsumer(Consumer),
	}
}

// inputOptions builds the line request for an input
func inputOptions(in InputLine) []gpiocdev.LineReqOption {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithConsumer(Consumer),
	}
	if in.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	if in.PullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	if in.Debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(in.Debounce))
	}
	return opts
}

func (io *LinuxHardwareIO) Initialize() error {
	io.logger.Infof("Initializing hardware IO on %s", io.pins.Chip)

	if err := io.pins.Validate(); err != nil {
		return fmt.Errorf("invalid pin map: %w", err)
	}

	chip, err := gpiocdev.NewChip(io.pins.Chip, gpiocdev.WithConsumer(Consumer))
	if err != nil {
		return fmt.Errorf("failed to open GPIO chip %s: %w", io.pins.Chip, err)
	}

	io.mu.Lock()
	defer io.mu.Unlock()
	io.chip = chip

	for _, name := range sortedKeys(io.pins.Outputs) {
		offset := io.pins.Outputs[name]
		line, err := chip.RequestLine(offset, outputOptions()...)
		if err != nil {
			io.releaseLocked()
			return fmt.Errorf("failed to request GPIO line %d for %s: %w", offset, name, err)
		}

		io.lines[name] = line
		io.outputs[name] = true
		io.logger.Infof("Configured DO %s: line=%d", name, offset)
	}

	for _, name := range sortedKeys(io.pins.Inputs) {
		in := io.pins.Inputs[name]
		line, err := chip.RequestLine(in.Offset, inputOptions(in)...)
		if err != nil {
			io.releaseLocked()
			return fmt.Errorf("failed to request GPIO line %d for %s: %w", in.Offset, name, err)
		}

		io.lines[name] = line
		io.logger.Infof("Configured DI %s: line=%d active-low=%v pull-up=%v", name, in.Offset, in.ActiveLow, in.PullUp)
	}

	return nil
}

// ReadDigitalInput returns the logical level of an input; active-low lines
// read true when pulled down.
func (io *LinuxHardwareIO) ReadDigitalInput(channel string) (bool, error) {
	io.mu.RLock()
	line, ok := io.lines[channel]
	isOutput := io.outputs[channel]
	io.mu.RUnlock()

	if !ok || isOutput {
		return false, fmt.Errorf("unknown input channel: %s", channel)
	}

	val, err := line.Value()
	if err != nil {
		return false, fmt.Errorf("failed to read DI %s: %w", channel, err)
	}
	return val == 1, nil
}

func (io *LinuxHardwareIO) WriteDigitalOutput(channel string, value bool) error {
	io.mu.RLock()
	line, ok := io.lines[channel]
	isOutput := io.outputs[channel]
	io.mu.RUnlock()

	if !ok || !isOutput {
		return fmt.Errorf("unknown digital output channel: %s", channel)
	}

	val := 0
	if value {
		val = 1
	}

	if err := line.SetValue(val); err != nil {
		return fmt.Errorf("failed to set DO %s=%v: %w", channel, value, err)
	}

	io.logger.Debugf("Set DO %s=%v", channel, value)
	return nil
}

func (io *LinuxHardwareIO) releaseLocked() {
	for name, line := range io.lines {
		line.Close()
		io.logger.Debugf("Closed GPIO line for %s", name)
	}
	io.lines = make(map[string]*gpiocdev.Line)
	io.outputs = make(map[string]bool)

	if io.chip != nil {
		io.chip.Close()
		io.chip = nil
	}
}

func (io *LinuxHardwareIO) Cleanup() {
	io.mu.Lock()
	defer io.mu.Unlock()

	io.logger.Infof("Cleaning up hardware resources")
	io.releaseLocked()
	io.logger.Infof("Hardware cleanup complete")
}
