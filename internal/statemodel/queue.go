package statemodel

import "sync"

// EventQueue is an unbounded FIFO of pending events. Enqueue never blocks
// and is safe from any goroutine.
type EventQueue struct {
	mu     sync.Mutex
	events []EventID
}

// Enqueue appends an event to the back of the queue
func (q *EventQueue) Enqueue(event EventID) {
	q.mu.Lock()
	q.events = append(q.events, event)
	q.mu.Unlock()
}

// Dequeue pops the oldest event, reporting false when the queue is empty
func (q *EventQueue) Dequeue() (EventID, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return NoEvent, false
	}
	event := q.events[0]
	q.events = q.events[1:]
	if len(q.events) == 0 {
		q.events = nil
	}
	return event, true
}

// Len returns the number of pending events
func (q *EventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Clear drops all pending events and returns how many were dropped
func (q *EventQueue) Clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.events)
	q.events = nil
	return n
}
