package hardware

import (
	"errors"
	"fmt"

	"room-monitor/internal/types"
)

// OutputWriter is anything that can drive a named digital output
type OutputWriter interface {
	WriteDigitalOutput(channel string, value bool) error
}

// levelLeds maps each capacity level to the LED that signals it
var levelLeds = map[types.CapacityLevel]string{
	types.LevelLow:    ChannelLedGreen,
	types.LevelMedium: ChannelLedYellow,
	types.LevelHigh:   ChannelLedRed,
}

var ledOrder = []string{ChannelLedGreen, ChannelLedYellow, ChannelLedRed}

// LedBank is the green/yellow/red indicator set. At most one LED is lit.
type LedBank struct {
	out OutputWriter
}

func NewLedBank(out OutputWriter) *LedBank {
	return &LedBank{out: out}
}

// Show lights the LED for level and turns the others off
func (b *LedBank) Show(level types.CapacityLevel) error {
	want, ok := levelLeds[level]
	if !ok {
		return fmt.Errorf("no indicator for capacity level %q", level)
	}

	var errs []error
	// Off first so two LEDs are never lit together
	for _, ch := range ledOrder {
		if ch != want {
			errs = append(errs, b.out.WriteDigitalOutput(ch, false))
		}
	}
	errs = append(errs, b.out.WriteDigitalOutput(want, true))
	return errors.Join(errs...)
}

// Off turns every LED off
func (b *LedBank) Off() error {
	var errs []error
	for _, ch := range ledOrder {
		errs = append(errs, b.out.WriteDigitalOutput(ch, false))
	}
	return errors.Join(errs...)
}
