package core

import (
	"fmt"

	"room-monitor/internal/fsm"
	"room-monitor/internal/statemodel"
	"room-monitor/internal/types"
)

// updateIndicators lights the LED matching the current capacity level
func (s *RoomSystem) updateIndicators() {
	if err := s.leds.Show(s.room.Level()); err != nil {
		s.logger.Warnf("Failed to update indicators: %v", err)
	}
}

func countText(count int, state statemodel.State) string {
	return fmt.Sprintf("Patient Count: %d\nState: %d", count, state)
}

func (s *RoomSystem) showCount(state statemodel.State) {
	if err := s.display.ShowText(countText(s.room.Count(), state)); err != nil {
		s.logger.Warnf("Failed to update display: %v", err)
	}
}

func (s *RoomSystem) beep(note int) {
	if err := s.buzzer.Beep(note, s.opts.BeepDuration); err != nil {
		s.logger.Warnf("Failed to beep: %v", err)
	}
}

func (s *RoomSystem) status(state statemodel.State) types.RoomStatus {
	return types.RoomStatus{
		Room:      s.opts.Room,
		Count:     s.room.Count(),
		Threshold: s.opts.Threshold,
		Level:     s.room.Level(),
		State:     fsm.StateName(state),
		Instance:  s.opts.Instance,
		Timestamp: s.opts.Clock.Now(),
	}
}

func (s *RoomSystem) publishStatus(state statemodel.State) {
	if err := s.redis.PublishRoomStatus(s.status(state)); err != nil {
		s.logger.Warnf("Failed to publish room status: %v", err)
	}
}

// refresh brings every output in line with the count after an in-place change
func (s *RoomSystem) refresh(state statemodel.State) {
	s.showCount(state)
	s.updateIndicators()
	s.publishStatus(state)
}
