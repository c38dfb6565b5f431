package messaging

import "room-monitor/internal/types"

// NopClient stands in for the Redis client when the local bus is disabled
type NopClient struct{}

func (NopClient) SetCallbacks(Callbacks)                   {}
func (NopClient) Connect() error                           { return nil }
func (NopClient) StartListening() error                    { return nil }
func (NopClient) PublishRoomStatus(types.RoomStatus) error { return nil }
func (NopClient) Close() error                             { return nil }
