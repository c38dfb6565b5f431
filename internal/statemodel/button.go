package statemodel

import "time"

// DigitalInput is a level input; Read reports true while it is active
type DigitalInput interface {
	Read() (bool, error)
}

// DigitalInputFunc adapts a function to DigitalInput
type DigitalInputFunc func() (bool, error)

func (f DigitalInputFunc) Read() (bool, error) {
	return f()
}

// button turns a raw level into debounced press/release edges. A new level
// must hold for the debounce period before it becomes the stable level.
type button struct {
	name     string
	input    DigitalInput
	debounce time.Duration
	press    EventID
	release  EventID

	baselined    bool
	stable       bool
	pending      bool
	pendingSince time.Time
}

func newButton(name string, input DigitalInput, debounce time.Duration) *button {
	if debounce < 0 {
		debounce = 0
	}
	return &button{
		name:     name,
		input:    input,
		debounce: debounce,
		press:    PressEvent(name),
		release:  ReleaseEvent(name),
	}
}

// reset forgets the stable level; the next poll takes a new baseline
func (b *button) reset() {
	b.baselined = false
}

// poll samples the input and returns the edge event, if any
func (b *button) poll(now time.Time) (EventID, bool, error) {
	raw, err := b.input.Read()
	if err != nil {
		return NoEvent, false, err
	}

	// A level held at start-up is the baseline, not an edge
	if !b.baselined {
		b.baselined = true
		b.stable = raw
		b.pending = raw
		b.pendingSince = now
		return NoEvent, false, nil
	}

	if raw != b.pending {
		b.pending = raw
		b.pendingSince = now
	}
	if b.pending == b.stable || now.Sub(b.pendingSince) < b.debounce {
		return NoEvent, false, nil
	}

	b.stable = b.pending
	if b.stable {
		return b.press, true, nil
	}
	return b.release, true, nil
}

// pollButtons enqueues the debounced edges of every registered button
func (m *StateModel) pollButtons(now time.Time) {
	for _, b := range m.buttons {
		ev, ok, err := b.poll(now)
		if err != nil {
			m.logger.Warnf("failed to read button %s: %v", b.name, err)
			continue
		}
		if ok {
			m.logger.Debugf("button edge: %s", ev)
			m.enqueue(ev)
		}
	}
}
