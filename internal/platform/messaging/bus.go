package messaging

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	eventsv1 "contracthub/contracts/gen/events/v1"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultBufferSize = 128

// Handler consumes one change event.
type Handler func(context.Context, eventsv1.Envelope) error

// consumerGroup is one queue per (topic, group). Handlers subscribed under
// the same group compete for its events; distinct groups each see every
// event.
type consumerGroup struct {
	name    string
	queue   chan eventsv1.Envelope
	members int
}

// InProcessBus is a publish/subscribe bus for single-process deployments
// and tests. A full group queue drops the event rather than block the
// publisher; drops are counted.
type InProcessBus struct {
	mu         sync.RWMutex
	topics     map[string]map[string]*consumerGroup
	bufferSize int
	dropped    atomic.Int64
	drops      metric.Int64Counter
	logger     *slog.Logger
}

type BusOption func(*InProcessBus)

// WithBufferSize bounds each consumer group queue. Non-positive sizes keep
// the default.
func WithBufferSize(size int) BusOption {
	return func(b *InProcessBus) {
		if size > 0 {
			b.bufferSize = size
		}
	}
}

func NewInProcessBus(logger *slog.Logger, opts ...BusOption) *InProcessBus {
	if logger == nil {
		logger = slog.Default()
	}
	b := &InProcessBus{
		topics:     make(map[string]map[string]*consumerGroup),
		bufferSize: defaultBufferSize,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(b)
	}
	drops, err := otel.Meter("internal/platform/messaging").Int64Counter("contracthub.bus.dropped_events",
		metric.WithDescription("Events dropped because a consumer group queue was full"),
	)
	if err == nil {
		b.drops = drops
	}
	return b
}

// Dropped reports how many deliveries were discarded since the bus started.
func (b *InProcessBus) Dropped() int64 {
	return b.dropped.Load()
}

func (b *InProcessBus) Publish(ctx context.Context, topic string, event eventsv1.Envelope) error {
	b.mu.RLock()
	groups := make([]*consumerGroup, 0, len(b.topics[topic]))
	for _, group := range b.topics[topic] {
		groups = append(groups, group)
	}
	b.mu.RUnlock()

	for _, group := range groups {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case group.queue <- event:
		default:
			b.dropped.Add(1)
			if b.drops != nil {
				b.drops.Add(ctx, 1, metric.WithAttributes(
					attribute.String("topic", topic),
					attribute.String("consumer_group", group.name),
				))
			}
			b.logger.Warn("dropping event for full consumer group",
				"event", "bus_publish_drop",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"consumer_group", group.name,
				"event_id", event.EventID,
			)
		}
	}

	b.logger.Debug("event published",
		"event", "bus_publish",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"event_id", event.EventID,
		"consumer_groups", len(groups),
	)
	return nil
}

// Subscribe joins consumerGroup on topic until ctx is cancelled.
func (b *InProcessBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, eventsv1.Envelope) error,
) error {
	group := b.join(topic, consumerGroup)

	go func() {
		for {
			select {
			case <-ctx.Done():
				b.leave(topic, group)
				return
			case event := <-group.queue:
				if err := handler(ctx, event); err != nil {
					logHandlerFailure(b.logger, topic, consumerGroup, event, err)
				}
			}
		}
	}()
	return nil
}

func (b *InProcessBus) join(topic string, name string) *consumerGroup {
	b.mu.Lock()
	defer b.mu.Unlock()

	groups, ok := b.topics[topic]
	if !ok {
		groups = make(map[string]*consumerGroup)
		b.topics[topic] = groups
	}
	group, ok := groups[name]
	if !ok {
		group = &consumerGroup{name: name, queue: make(chan eventsv1.Envelope, b.bufferSize)}
		groups[name] = group
	}
	group.members++
	return group
}

// leave drops the group once its last member is gone. Queued events for a
// group with no members are discarded with it.
func (b *InProcessBus) leave(topic string, group *consumerGroup) {
	b.mu.Lock()
	defer b.mu.Unlock()

	group.members--
	if group.members > 0 {
		return
	}
	groups := b.topics[topic]
	if groups[group.name] == group {
		delete(groups, group.name)
	}
	if len(groups) == 0 {
		delete(b.topics, topic)
	}
}

func logHandlerFailure(logger *slog.Logger, topic string, consumerGroup string, event eventsv1.Envelope, err error) {
	logger.Error("consumer handler failed",
		"event", "bus_consume_failed",
		"module", "internal/platform/messaging",
		"layer", "platform",
		"topic", topic,
		"consumer_group", consumerGroup,
		"event_id", event.EventID,
		"event_type", event.EventType,
		"error", err.Error(),
	)
}
