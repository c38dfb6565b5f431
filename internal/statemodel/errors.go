package statemodel

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidStateCount    = errors.New("state count must be at least 1")
	ErrNilController        = errors.New("controller is nil")
	ErrStateOutOfRange      = errors.New("state out of range")
	ErrEmptyEventSet        = errors.New("transition has no triggering events")
	ErrAmbiguousTransition  = errors.New("event already mapped from source state")
	ErrUnknownEvent         = errors.New("event not registered")
	ErrUnknownTimer         = errors.New("timer not registered")
	ErrEmptyName            = errors.New("name is empty")
	ErrDuplicateName        = errors.New("name already registered")
	ErrNilInput             = errors.New("button input is nil")
	ErrRegistrationClosed   = errors.New("registration is closed once the model has started")
	ErrInvalidConfiguration = errors.New("model configuration is invalid")
	ErrNotRunning           = errors.New("state model is not running")
)

// ConfigError reports a rejected registration
type ConfigError struct {
	Op      string // registration call, e.g. "AddTransition"
	Subject string // what was being registered
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Subject == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Subject, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err carries a ConfigError
func IsConfigError(err error) bool {
	var e *ConfigError
	return errors.As(err, &e)
}
