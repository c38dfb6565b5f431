package room

import (
	"sync"

	"room-monitor/internal/logger"
	"room-monitor/internal/types"
)

// Room tracks the number of patients in a room against its capacity threshold
type Room struct {
	number    int
	threshold int
	logger    *logger.Logger

	mu    sync.RWMutex
	count int
}

// New creates an empty room
func New(number, threshold int, l *logger.Logger) *Room {
	if l == nil {
		l = logger.Nop()
	}
	return &Room{
		number:    number,
		threshold: threshold,
		logger:    l,
	}
}

func (r *Room) Number() int {
	return r.number
}

func (r *Room) Threshold() int {
	return r.threshold
}

func (r *Room) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.count
}

// AddPatient increments the count
func (r *Room) AddPatient() int {
	r.mu.Lock()
	r.count++
	n := r.count
	r.mu.Unlock()

	r.logger.Infof("Patient added to room %d. Current count: %d", r.number, n)
	return n
}

// RemovePatient decrements the count. An empty room stays at zero and false
// is returned.
func (r *Room) RemovePatient() bool {
	r.mu.Lock()
	if r.count == 0 {
		r.mu.Unlock()
		r.logger.Warnf("No patients to remove from room %d", r.number)
		return false
	}
	r.count--
	n := r.count
	r.mu.Unlock()

	r.logger.Infof("Patient removed from room %d. Current count: %d", r.number, n)
	return true
}

// Reset sets the count back to zero
func (r *Room) Reset() {
	r.mu.Lock()
	r.count = 0
	r.mu.Unlock()

	r.logger.Infof("Patient count of room %d reset to 0", r.number)
}

func (r *Room) IsOverCapacity() bool {
	return r.Count() > r.threshold
}

func (r *Room) IsAtCapacity() bool {
	return r.Count() == r.threshold
}

func (r *Room) IsBelowCapacity() bool {
	return r.Count() < r.threshold
}

// Level classifies the current count. Reaching the threshold exactly is
// medium; only exceeding it is high.
func (r *Room) Level() types.CapacityLevel {
	count := r.Count()
	switch {
	case count > r.threshold:
		return types.LevelHigh
	case count == r.threshold:
		return types.LevelMedium
	default:
		return types.LevelLow
	}
}
