package fsm

import "room-monitor/internal/statemodel"

// Room states
const (
	StateRest               statemodel.State = 0
	StateCapacityCalculated statemodel.State = 1
	StateCapacityLow        statemodel.State = 2
	StateCapacityMedium     statemodel.State = 3
	StateCapacityHigh       statemodel.State = 4

	StateCount = 5
)

// Custom events
const (
	// Occupancy
	EvMotionDetected statemodel.EventID = "motion_detected"
	EvGreenWarning   statemodel.EventID = "green_warning"
	EvYellowWarning  statemodel.EventID = "yellow_warning"
	EvRedWarning     statemodel.EventID = "red_warning"
	EvBackToIdle     statemodel.EventID = "back_to_idle"

	// Local command inbox
	EvRemoteAdmit     statemodel.EventID = "remote_admit"
	EvRemoteDischarge statemodel.EventID = "remote_discharge"
	EvRemoteReset     statemodel.EventID = "remote_reset"
)

// Buttons
const (
	ButtonDischarge = "button1"
	ButtonReset     = "button2"
)

// Timers
const (
	TimerSensorCooldown = "sensor_cooldown"
)

// Derived events
var (
	EvDischargePressed = statemodel.PressEvent(ButtonDischarge)
	EvResetPressed     = statemodel.PressEvent(ButtonReset)
	EvCooldownTimeout  = statemodel.TimeoutEvent(TimerSensorCooldown)
)

var stateNames = [StateCount]string{
	"rest",
	"capacity-calculated",
	"capacity-low",
	"capacity-medium",
	"capacity-high",
}

// StateName returns a readable name for a room state
func StateName(s statemodel.State) string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// IsWarningState reports whether s is one of the capacity warning states
func IsWarningState(s statemodel.State) bool {
	return s == StateCapacityLow || s == StateCapacityMedium || s == StateCapacityHigh
}
