package core

import (
	"fmt"

	"room-monitor/internal/fsm"
	"room-monitor/internal/messaging"
	"room-monitor/internal/statemodel"
)

var commandEvents = map[messaging.Command]statemodel.EventID{
	messaging.CommandAdmit:     fsm.EvRemoteAdmit,
	messaging.CommandDischarge: fsm.EvRemoteDischarge,
	messaging.CommandReset:     fsm.EvRemoteReset,
}

// handleRoomCommand queues a command from the local bus for the model loop.
// It runs on the listener goroutine, so it never touches the model directly.
func (s *RoomSystem) handleRoomCommand(cmd messaging.Command) error {
	s.logger.Debugf("Handling room command: %s", cmd)

	event, ok := commandEvents[cmd]
	if !ok {
		return fmt.Errorf("unsupported room command: %s", cmd)
	}
	if err := s.model.Send(event); err != nil {
		return fmt.Errorf("failed to queue %s: %w", event, err)
	}
	return nil
}

// handleRefreshRequest republishes the current status
func (s *RoomSystem) handleRefreshRequest() error {
	s.logger.Debugf("Handling refresh request")
	return s.redis.PublishRoomStatus(s.status(s.model.CurrentState()))
}
