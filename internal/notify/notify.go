package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel calendar events are published on
const DefaultChannel = "room_calendar_events"

// CalendarEvent announces that a room's calendar for a date has committed
// a change. Subscribers re-read the calendar; the event carries no slots.
type CalendarEvent struct {
	RoomID    string    `json:"room_id"`
	Date      string    `json:"date"`
	RequestID string    `json:"request_id"`
	Action    string    `json:"action"`
	At        time.Time `json:"at"`
}

// Notifier publishes calendar events after a transaction commits
type Notifier interface {
	Publish(ctx context.Context, event CalendarEvent) error
}

// Nop discards every event
type Nop struct{}

func (Nop) Publish(context.Context, CalendarEvent) error { return nil }

// RedisNotifier publishes events as JSON on a Redis channel
type RedisNotifier struct {
	client  *redis.Client
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisNotifier{client: client, channel: channel}
}

// Publish sends event to the configured channel
func (n *RedisNotifier) Publish(ctx context.Context, event CalendarEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode calendar event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish calendar event: %w", err)
	}
	return nil
}

// Close releases the underlying client
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []CalendarEvent
}

func (r *Recorder) Publish(_ context.Context, event CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []CalendarEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CalendarEvent, len(r.events))
	copy(out, r.events)
	return out
}
