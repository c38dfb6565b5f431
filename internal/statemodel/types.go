package statemodel

import "time"

// State identifies a state of the model. Valid values are [0, N).
type State int

// EventID is the symbolic name of an event
type EventID string

// NoEvent is handed to StateEntered for the initial entry into state 0
const NoEvent EventID = ""

const (
	pressSuffix   = "_press"
	releaseSuffix = "_release"
	timeoutSuffix = "_timeout"
)

// PressEvent returns the event emitted when the named button is pressed
func PressEvent(button string) EventID {
	return EventID(button + pressSuffix)
}

// ReleaseEvent returns the event emitted when the named button is released
func ReleaseEvent(button string) EventID {
	return EventID(button + releaseSuffix)
}

// TimeoutEvent returns the event emitted when the named timer expires
func TimeoutEvent(timer string) EventID {
	return EventID(timer + timeoutSuffix)
}

const (
	// DefaultTickPeriod is used by Run when no positive period is given
	DefaultTickPeriod = 100 * time.Millisecond
	// DefaultMaxDispatchDepth bounds synchronous ProcessEvent recursion
	DefaultMaxDispatchDepth = 32
)

// Logger is the leveled sink the engine reports to
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}

// NopLogger discards all output
var NopLogger Logger = nopLogger{}
