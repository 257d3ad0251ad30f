package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stampeo/backend/internal/config"
)

// Redis channel the push gateway subscribes to for real-time customer
// notifications ("one stamp to go", "your reward is ready").
const eventsChannel = "loyalty:events"

// RedisClient publishes loyalty events to Redis for the push gateway.
// Publishing is fire-and-forget from the ledger's point of view; a
// down Redis only costs real-time nudges, never a check-in.
type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *RedisClient {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.URL,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisClient{client: client, ctx: context.Background()}
}

// Event is the wire shape of a published loyalty event.
type Event struct {
	Type      JobType     `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Publish sends an event to the events channel.
func (r *RedisClient) Publish(eventType JobType, payload interface{}) error {
	data, err := json.Marshal(Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := r.client.Publish(r.ctx, eventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Ping checks connectivity at startup.
func (r *RedisClient) Ping() error {
	return r.client.Ping(r.ctx).Err()
}

// Close closes the Redis client
func (r *RedisClient) Close() error {
	return r.client.Close()
}
