package statemodel

// Controller receives the lifecycle callbacks of a StateModel.
//
// All callbacks run on the goroutine that drives the model (Run or Tick) and
// must return promptly: a slow callback delays button and timer polling for
// the whole system. Callbacks may call ProcessEvent to dispatch an event
// immediately, Send to defer it to a later tick, or Stop.
type Controller interface {
	// StateEntered fires once on entry, with the event that caused it
	// (NoEvent for the initial entry).
	StateEntered(state State, event EventID)
	// StateLeft fires once on exit, with the event that caused it.
	StateLeft(state State, event EventID)
	// StateDo fires once per tick while the model is in state.
	StateDo(state State)
	// StateEvent is offered events that match no transition from state.
	// It reports whether the event was consumed.
	StateEvent(state State, event EventID) bool
}
