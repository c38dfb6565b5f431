package types

import "time"

// CapacityLevel is how full a room is relative to its threshold
type CapacityLevel string

const (
	LevelLow    CapacityLevel = "low"
	LevelMedium CapacityLevel = "medium"
	LevelHigh   CapacityLevel = "high"
)

// RoomStatus is the snapshot mirrored to the local bus after every
// classification
type RoomStatus struct {
	Room      int
	Count     int
	Threshold int
	Level     CapacityLevel
	State     string
	Instance  string
	Timestamp time.Time
}
