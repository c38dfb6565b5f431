package core

import (
	"room-monitor/internal/fsm"
	"room-monitor/internal/hardware"
	"room-monitor/internal/statemodel"
	"room-monitor/internal/types"
)

// Ensure RoomSystem implements statemodel.Controller
var _ statemodel.Controller = (*RoomSystem)(nil)

// warningNotes is the tone played on entering each warning state
var warningNotes = map[statemodel.State]int{
	fsm.StateCapacityLow:    hardware.DO,
	fsm.StateCapacityMedium: hardware.RE,
	fsm.StateCapacityHigh:   hardware.MI,
}

func (s *RoomSystem) StateEntered(state statemodel.State, event statemodel.EventID) {
	s.logger.Debugf("Entered %s (event %q)", fsm.StateName(state), event)

	switch state {
	case fsm.StateRest:
		if event == statemodel.NoEvent {
			s.primeSensor()
		}
		s.updateIndicators()
		s.showCount(state)
		if event == fsm.EvBackToIdle {
			// Ignore the sensor while the admitted patient walks past it
			if err := s.model.StartTimer(fsm.TimerSensorCooldown, s.opts.SensorCooldown); err != nil {
				s.logger.Warnf("Failed to start sensor cooldown: %v", err)
			}
		}

	case fsm.StateCapacityCalculated:
		s.room.AddPatient()
		s.showCount(state)
		s.classify()

	default:
		if !fsm.IsWarningState(state) {
			s.logger.Warnf("Entered unknown state %d", state)
			return
		}
		s.beep(warningNotes[state])
		s.showCount(state)
		s.updateIndicators()
		s.publishStatus(state)
		s.processEvent(fsm.EvBackToIdle)
	}
}

func (s *RoomSystem) StateLeft(state statemodel.State, event statemodel.EventID) {
	s.logger.Debugf("Left %s on %s", fsm.StateName(state), event)
}

func (s *RoomSystem) StateDo(state statemodel.State) {
	if state != fsm.StateRest {
		return
	}

	active, ok := s.readSensor()
	if !ok {
		return
	}
	rising := active && !s.lastSensor
	s.lastSensor = active
	if !rising {
		return
	}

	if s.model.TimerActive(fsm.TimerSensorCooldown) {
		s.logger.Debugf("Motion ignored during sensor cooldown")
		return
	}
	s.logger.Infof("Motion detected in room %d", s.opts.Room)
	s.processEvent(fsm.EvMotionDetected)
}

func (s *RoomSystem) StateEvent(state statemodel.State, event statemodel.EventID) bool {
	if state != fsm.StateRest {
		return false
	}

	switch event {
	case fsm.EvDischargePressed, fsm.EvRemoteDischarge:
		s.beep(hardware.FA)
		if s.room.RemovePatient() {
			s.logger.Infof("Patient discharged (%s)", event)
		}
		s.refresh(state)
		return true

	case fsm.EvResetPressed, fsm.EvRemoteReset:
		s.beep(hardware.SO)
		s.room.Reset()
		s.logger.Infof("Patient count reset (%s)", event)
		s.refresh(state)
		return true

	case fsm.EvCooldownTimeout:
		s.logger.Debugf("Sensor re-armed")
		return true
	}

	return false
}

// classify routes a freshly updated count to its warning state. A count
// equal to the threshold is medium, not high.
func (s *RoomSystem) classify() {
	switch s.room.Level() {
	case types.LevelHigh:
		s.processEvent(fsm.EvRedWarning)
	case types.LevelMedium:
		s.processEvent(fsm.EvYellowWarning)
	default:
		s.processEvent(fsm.EvGreenWarning)
	}
}

func (s *RoomSystem) processEvent(event statemodel.EventID) {
	if err := s.model.ProcessEvent(event); err != nil {
		s.logger.Warnf("Failed to process %s: %v", event, err)
	}
}

// primeSensor takes the sensor level at start-up as the baseline so a
// sensor that is already active does not count as motion
func (s *RoomSystem) primeSensor() {
	active, ok := s.readSensor()
	s.lastSensor = ok && active
}

func (s *RoomSystem) readSensor() (bool, bool) {
	active, err := s.io.ReadDigitalInput(hardware.ChannelSensor)
	if err != nil {
		if !s.sensorFault {
			s.logger.Warnf("Failed to read motion sensor: %v", err)
			s.sensorFault = true
		}
		return false, false
	}
	if s.sensorFault {
		s.logger.Infof("Motion sensor readable again")
		s.sensorFault = false
	}
	return active, true
}
