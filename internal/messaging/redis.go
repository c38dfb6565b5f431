package messaging

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"room-monitor/internal/logger"
	"room-monitor/internal/types"

	"github.com/redis/go-redis/v9"
)

// Command is a request taken from a room's command inbox
type Command string

const (
	CommandAdmit     Command = "admit"
	CommandDischarge Command = "discharge"
	CommandReset     Command = "reset"
)

// BroadcastChannel carries requests addressed to every room monitor on the bus
const BroadcastChannel = "rooms"

type Callbacks struct {
	CommandCallback func(Command) error
	RefreshCallback func() error // "refresh" on the broadcast channel
}

type RedisClient struct {
	client    *redis.Client
	room      int
	callbacks Callbacks
	logger    *logger.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

func NewRedisClient(addr string, room int, l *logger.Logger, callbacks Callbacks) *RedisClient {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   0,
		}),
		room:      room,
		callbacks: callbacks,
		logger:    l,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetCallbacks replaces the handlers; call before StartListening
func (r *RedisClient) SetCallbacks(callbacks Callbacks) {
	r.callbacks = callbacks
}

// StatusKey is the hash holding the latest status of a room
func StatusKey(room int) string {
	return fmt.Sprintf("room:%d", room)
}

// CommandKey is the list a room monitor pops commands from
func CommandKey(room int) string {
	return fmt.Sprintf("room:%d:command", room)
}

// ParseCommand validates a raw inbox value
func ParseCommand(value string) (Command, error) {
	switch c := Command(value); c {
	case CommandAdmit, CommandDischarge, CommandReset:
		return c, nil
	default:
		return "", fmt.Errorf("invalid room command: %s", value)
	}
}

func (r *RedisClient) Connect() error {
	r.logger.Infof("Attempting to connect to Redis at %s", r.client.Options().Addr)

	if err := r.client.Ping(r.ctx).Err(); err != nil {
		r.logger.Infof("Redis connection failed: %v", err)
		return fmt.Errorf("redis connection failed: %w", err)
	}
	r.logger.Infof("Successfully connected to Redis")

	// Commands queued while no monitor was running are stale
	dropped, err := r.client.Del(r.ctx, CommandKey(r.room)).Result()
	if err != nil {
		r.logger.Warnf("Failed to clear stale commands: %v", err)
	} else if dropped > 0 {
		r.logger.Infof("Discarded stale command list %s", CommandKey(r.room))
	}

	return nil
}

// StartListening starts the command inbox and broadcast listeners
func (r *RedisClient) StartListening() error {
	r.logger.Infof("Starting Redis listeners")

	pubsub := r.client.Subscribe(r.ctx, BroadcastChannel)
	r.logger.Infof("Subscribed to Redis channel: %s", BroadcastChannel)

	r.wg.Add(2)
	go r.redisListener(pubsub)
	go r.listCommandListener(CommandKey(r.room), r.handleRoomCommand)

	return nil
}

func (r *RedisClient) listCommandListener(key string, handler func(string) error) {
	defer r.wg.Done()
	r.logger.Infof("Starting list command listener for %s", key)

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting %s listener", key)
			return
		default:
			// Short timeout so cancellation is noticed
			result, err := r.client.BRPop(r.ctx, 5*time.Second, key).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					continue
				}
				if errors.Is(err, context.Canceled) {
					r.logger.Infof("Context cancelled, exiting %s listener", key)
					return
				}
				r.logger.Warnf("Error reading from %s list: %v", key, err)
				// Back off instead of spinning on a dead connection
				select {
				case <-r.ctx.Done():
					return
				case <-time.After(time.Second):
				}
				continue
			}

			if len(result) >= 2 { // BRPOP returns [key, value]
				value := result[1]
				r.logger.Debugf("Received command from %s: %s", key, value)
				if err := handler(value); err != nil {
					r.logger.Warnf("Error handling %s command: %v", key, err)
				}
			}
		}
	}
}

func (r *RedisClient) handleRoomCommand(value string) error {
	if r.callbacks.CommandCallback == nil {
		return nil
	}
	cmd, err := ParseCommand(value)
	if err != nil {
		r.logger.Infof("Invalid room command value: %s", value)
		return err
	}
	return r.callbacks.CommandCallback(cmd)
}

func (r *RedisClient) redisListener(pubsub *redis.PubSub) {
	defer r.wg.Done()
	defer pubsub.Close()

	r.logger.Infof("Starting Redis message listener")
	channel := pubsub.Channel()

	for {
		select {
		case <-r.ctx.Done():
			r.logger.Infof("Context cancelled, exiting listener")
			return
		case msg, ok := <-channel:
			if !ok || msg == nil {
				r.logger.Warnf("Redis channel closed, broadcast listener stopped")
				return
			}

			r.logger.Debugf("Received Redis message: channel=%s payload=%s", msg.Channel, msg.Payload)

			switch msg.Payload {
			case "refresh":
				if r.callbacks.RefreshCallback != nil {
					if err := r.callbacks.RefreshCallback(); err != nil {
						r.logger.Infof("Failed to handle refresh request: %v", err)
					}
				}
			default:
				r.logger.Debugf("Unhandled broadcast payload: %s", msg.Payload)
			}
		}
	}
}

// statusFields flattens a status into the fields of the room hash
func statusFields(status types.RoomStatus) map[string]interface{} {
	return map[string]interface{}{
		"count":     status.Count,
		"threshold": status.Threshold,
		"level":     string(status.Level),
		"state":     status.State,
		"instance":  status.Instance,
		"timestamp": status.Timestamp.Format(time.RFC3339),
	}
}

// PublishRoomStatus atomically updates the room hash, appends to the event
// stream and notifies subscribers
func (r *RedisClient) PublishRoomStatus(status types.RoomStatus) error {
	r.logger.Debugf("Publishing room status: count=%d level=%s", status.Count, status.Level)

	pipe := r.client.Pipeline()
	pipe.HSet(r.ctx, StatusKey(status.Room), statusFields(status))
	pipe.XAdd(r.ctx, &redis.XAddArgs{
		Stream: "events:rooms",
		MaxLen: 1000,
		Approx: true,
		Values: map[string]interface{}{
			"room":  status.Room,
			"count": status.Count,
			"level": string(status.Level),
		},
	})
	pipe.Publish(r.ctx, "room", strconv.Itoa(status.Room))
	_, err := pipe.Exec(r.ctx)

	if err != nil {
		r.logger.Warnf("Failed to publish room status: %v", err)
		return err
	}
	return nil
}

// SendCommand pushes a command onto a room's inbox
func (r *RedisClient) SendCommand(room int, cmd Command) error {
	if err := r.client.LPush(r.ctx, CommandKey(room), string(cmd)).Err(); err != nil {
		r.logger.Infof("Failed to send command '%s' to room %d: %v", cmd, room, err)
		return err
	}
	r.logger.Infof("Sent command '%s' to room %d", cmd, room)
	return nil
}

func (r *RedisClient) Close() error {
	r.logger.Infof("Closing Redis client")
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Infof("All Redis goroutines finished")
	case <-time.After(5 * time.Second):
		r.logger.Infof("Timeout waiting for Redis goroutines to finish")
	}

	return r.client.Close()
}
