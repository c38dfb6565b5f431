package fsm

import (
	"errors"
	"time"

	"room-monitor/internal/statemodel"
)

// Timing constants
const (
	DefaultButtonDebounce = 50 * time.Millisecond
	DefaultSensorCooldown = 2 * time.Second
)

// Inputs are the level inputs backing the two buttons
type Inputs struct {
	Discharge statemodel.DigitalInput
	Reset     statemodel.DigitalInput
	Debounce  time.Duration
}

var customEvents = []statemodel.EventID{
	EvMotionDetected,
	EvGreenWarning,
	EvYellowWarning,
	EvRedWarning,
	EvBackToIdle,
	EvRemoteAdmit,
	EvRemoteDischarge,
	EvRemoteReset,
}

// Define registers the room monitor's buttons, timer, custom events and
// transitions on m. All registrations are attempted; the returned error
// joins every rejection.
func Define(m *statemodel.StateModel, in Inputs) error {
	if m.States() != StateCount {
		return &statemodel.ConfigError{Op: "Define", Err: statemodel.ErrInvalidStateCount}
	}

	var errs []error
	add := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	add(m.AddButton(ButtonDischarge, in.Discharge, in.Debounce))
	add(m.AddButton(ButtonReset, in.Reset, in.Debounce))
	add(m.AddTimer(TimerSensorCooldown))
	for _, ev := range customEvents {
		add(m.AddCustomEvent(string(ev)))
	}

	// From Rest
	add(m.AddTransition(StateRest, []statemodel.EventID{EvMotionDetected, EvRemoteAdmit}, StateCapacityCalculated))

	// From CapacityCalculated
	add(m.AddTransition(StateCapacityCalculated, []statemodel.EventID{EvGreenWarning}, StateCapacityLow))
	add(m.AddTransition(StateCapacityCalculated, []statemodel.EventID{EvYellowWarning}, StateCapacityMedium))
	add(m.AddTransition(StateCapacityCalculated, []statemodel.EventID{EvRedWarning}, StateCapacityHigh))

	// Warning states fall back to Rest
	add(m.AddTransition(StateCapacityLow, []statemodel.EventID{EvBackToIdle}, StateRest))
	add(m.AddTransition(StateCapacityMedium, []statemodel.EventID{EvBackToIdle}, StateRest))
	add(m.AddTransition(StateCapacityHigh, []statemodel.EventID{EvBackToIdle}, StateRest))

	return errors.Join(errs...)
}
