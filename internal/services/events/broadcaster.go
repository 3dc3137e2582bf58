package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast
type EventType string

const (
	EventTypeStageStarted   EventType = "stage.started"
	EventTypeStageCompleted EventType = "stage.completed"
	EventTypeStageDegraded  EventType = "stage.degraded"
	EventTypeEntityCreated  EventType = "entity.created"
	EventTypeEntityFailed   EventType = "entity.failed"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType              `json:"type"`
	RequestID string                 `json:"request_id"`
	Stage     string                 `json:"stage,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// Publisher is the narrow telemetry port consumed by the pipeline.
type Publisher interface {
	PublishStage(ctx context.Context, requestID string, eventType EventType, stage string, data map[string]interface{})
	PublishResult(ctx context.Context, requestID string, eventType EventType, data map[string]interface{})
}

// Broadcaster publishes pipeline events to Redis Pub/Sub for SSE distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// Ensure Broadcaster implements Publisher
var _ Publisher = (*Broadcaster)(nil)

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// ChannelFor returns the pub/sub channel for a generation request.
func ChannelFor(requestID string) string {
	return fmt.Sprintf("forge-events:%s", requestID)
}

// PublishStage publishes a per-stage lifecycle event. Publishing is best
// effort: a failed publish is logged and never fails the pipeline.
func (b *Broadcaster) PublishStage(ctx context.Context, requestID string, eventType EventType, stage string, data map[string]interface{}) {
	b.publish(ctx, Event{
		Type:      eventType,
		RequestID: requestID,
		Stage:     stage,
		Data:      data,
	})
}

// PublishResult publishes a terminal event for a generation request.
func (b *Broadcaster) PublishResult(ctx context.Context, requestID string, eventType EventType, data map[string]interface{}) {
	b.publish(ctx, Event{
		Type:      eventType,
		RequestID: requestID,
		Data:      data,
	})
}

func (b *Broadcaster) publish(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "type", event.Type, "error", err)
		return
	}

	channel := ChannelFor(event.RequestID)
	if err := b.redisClient.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Warn("Failed to publish event",
			"type", event.Type,
			"channel", channel,
			"error", err)
	}
}

// NopPublisher discards all events. Used when no broadcaster is wired.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) PublishStage(ctx context.Context, requestID string, eventType EventType, stage string, data map[string]interface{}) {
}

func (NopPublisher) PublishResult(ctx context.Context, requestID string, eventType EventType, data map[string]interface{}) {
}
