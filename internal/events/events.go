// Package events fans activity out to Redis and NATS subscribers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

// Event describes a mutation that other systems may react to.
type Event struct {
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   *uint          `json:"entity_id,omitempty"`
	ActorID    uint           `json:"actor_id"`
	ActorRole  string         `json:"actor_role"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// natsPublisher is the subset of *nats.Conn the publisher needs.
type natsPublisher interface {
	Publish(subject string, data []byte) error
}

type broadcaster struct {
	redis        *redis.Client
	redisChannel string
	nats         natsPublisher
	natsSubject  string
}

// NewPublisher publishes to whichever transports are configured. Nil clients
// and empty subjects are skipped.
func NewPublisher(redisClient *redis.Client, redisChannel string, natsConn *nats.Conn, natsSubject string) Publisher {
	b := &broadcaster{
		redis:        redisClient,
		redisChannel: redisChannel,
		natsSubject:  natsSubject,
	}
	if natsConn != nil {
		b.nats = natsConn
	}
	return b
}

func (b *broadcaster) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	if b.redis != nil && b.redisChannel != "" {
		if err := b.redis.Publish(ctx, b.redisChannel, payload).Err(); err != nil {
			return fmt.Errorf("publish to redis: %w", err)
		}
	}

	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			return fmt.Errorf("publish to nats: %w", err)
		}
	}

	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// ConnectNATS dials the NATS server used for activity fan-out.
func ConnectNATS(url, clientName string) (*nats.Conn, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url must not be empty")
	}

	conn, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return conn, nil
}
