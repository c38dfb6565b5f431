package statemodel

import "fmt"

// StateTable maps (source state, event) to a destination state
type StateTable struct {
	rows []map[EventID]State
}

// NewStateTable creates an empty table for n states
func NewStateTable(n int) *StateTable {
	rows := make([]map[EventID]State, n)
	for i := range rows {
		rows[i] = make(map[EventID]State)
	}
	return &StateTable{rows: rows}
}

// Size returns the number of states the table covers
func (t *StateTable) Size() int {
	return len(t.rows)
}

func (t *StateTable) valid(s State) bool {
	return s >= 0 && int(s) < len(t.rows)
}

// Add maps every event in events from source to dest. The whole call is
// validated before the table is touched, so a rejected call leaves the
// table unchanged.
func (t *StateTable) Add(source State, events []EventID, dest State) error {
	if !t.valid(source) {
		return fmt.Errorf("%w: source %d not in [0,%d)", ErrStateOutOfRange, source, len(t.rows))
	}
	if !t.valid(dest) {
		return fmt.Errorf("%w: destination %d not in [0,%d)", ErrStateOutOfRange, dest, len(t.rows))
	}
	if len(events) == 0 {
		return ErrEmptyEventSet
	}

	row := t.rows[source]
	seen := make(map[EventID]struct{}, len(events))
	for _, ev := range events {
		if existing, ok := row[ev]; ok {
			return fmt.Errorf("%w: %q from state %d already leads to %d", ErrAmbiguousTransition, ev, source, existing)
		}
		if _, ok := seen[ev]; ok {
			return fmt.Errorf("%w: %q listed twice for state %d", ErrAmbiguousTransition, ev, source)
		}
		seen[ev] = struct{}{}
	}

	for _, ev := range events {
		row[ev] = dest
	}
	return nil
}

// Resolve looks up the destination for event from source
func (t *StateTable) Resolve(source State, event EventID) (State, bool) {
	if !t.valid(source) {
		return 0, false
	}
	dest, ok := t.rows[source][event]
	return dest, ok
}

// Count returns the number of (event -> destination) entries from source
func (t *StateTable) Count(source State) int {
	if !t.valid(source) {
		return 0
	}
	return len(t.rows[source])
}
