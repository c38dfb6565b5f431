package core

import (
	"time"

	"room-monitor/internal/messaging"
	"room-monitor/internal/types"
)

// MessagingClient defines the interface for the local bus operations needed by RoomSystem
type MessagingClient interface {
	SetCallbacks(callbacks messaging.Callbacks)
	Connect() error
	StartListening() error
	Close() error

	PublishRoomStatus(status types.RoomStatus) error
}

// HardwareIO defines the interface for GPIO operations needed by RoomSystem
type HardwareIO interface {
	Initialize() error
	Cleanup()

	ReadDigitalInput(channel string) (bool, error)
	WriteDigitalOutput(channel string, value bool) error
}

// Buzzer plays a tone without blocking the caller
type Buzzer interface {
	Beep(frequency int, duration time.Duration) error
	Close() error
}

// Display shows short status text
type Display interface {
	ShowText(text string) error
	Clear() error
	Close() error
}

type nopBuzzer struct{}

func (nopBuzzer) Beep(int, time.Duration) error { return nil }
func (nopBuzzer) Close() error                  { return nil }

type nopDisplay struct{}

func (nopDisplay) ShowText(string) error { return nil }
func (nopDisplay) Clear() error          { return nil }
func (nopDisplay) Close() error          { return nil }
