package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	eventsv1 "contracthub/contracts/gen/events/v1"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// RedisBus publishes change events on Redis pub/sub channels named
// prefix + topic. Delivery is at most once; the outbox is the durable copy.
type RedisBus struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewRedisBus(client *redis.Client, prefix string, logger *slog.Logger) *RedisBus {
	if logger == nil {
		logger = slog.Default()
	}
	prefix = strings.TrimSpace(prefix)
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	return &RedisBus{client: client, prefix: prefix, logger: logger}
}

func (b *RedisBus) channel(topic string) string {
	return b.prefix + topic
}

func (b *RedisBus) Publish(ctx context.Context, topic string, event eventsv1.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := b.client.Publish(ctx, b.channel(topic), payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe starts a receive loop for topic until ctx is cancelled. Redis
// pub/sub has no consumer groups; consumerGroup only labels log lines.
func (b *RedisBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, eventsv1.Envelope) error,
) error {
	pubsub := b.client.Subscribe(ctx, b.channel(topic))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("redis subscribe %s: %w", topic, err)
	}

	go func() {
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case message, ok := <-messages:
				if !ok {
					return
				}
				var event eventsv1.Envelope
				if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
					b.logger.Error("redis event decode failed",
						"event", "redis_consume_decode_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"error", err.Error(),
					)
					continue
				}
				if err := handler(ctx, event); err != nil {
					logHandlerFailure(b.logger, topic, consumerGroup, event, err)
				}
			}
		}
	}()
	return nil
}
