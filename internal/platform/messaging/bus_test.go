package messaging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	eventsv1 "contracthub/contracts/gen/events/v1"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInProcessBusDeliversToSubscribers(t *testing.T) {
	bus := NewInProcessBus(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan eventsv1.Envelope, 2)
	for _, group := range []string{"a", "b"} {
		if err := bus.Subscribe(ctx, eventsv1.EventJobCompleted, group, func(_ context.Context, event eventsv1.Envelope) error {
			received <- event
			return nil
		}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}
	if err := bus.Subscribe(ctx, eventsv1.EventJobStarted, "other", func(context.Context, eventsv1.Envelope) error {
		t.Errorf("unexpected delivery to another topic")
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	event := eventsv1.Envelope{EventID: "evt-1", EventType: eventsv1.EventJobCompleted}
	if err := bus.Publish(ctx, eventsv1.EventJobCompleted, event); err != nil {
		t.Fatalf("publish: %v", err)
	}

	for i := 0; i < 2; i++ {
		select {
		case got := <-received:
			if got.EventID != "evt-1" {
				t.Fatalf("unexpected event: %+v", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i+1)
		}
	}
}

func TestInProcessBusKeepsConsumingAfterHandlerError(t *testing.T) {
	bus := NewInProcessBus(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 2)
	if err := bus.Subscribe(ctx, "topic", "group", func(_ context.Context, event eventsv1.Envelope) error {
		calls <- event.EventID
		if event.EventID == "bad" {
			return errors.New("handler failed")
		}
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, id := range []string{"bad", "good"} {
		if err := bus.Publish(ctx, "topic", eventsv1.Envelope{EventID: id}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	for _, want := range []string{"bad", "good"} {
		select {
		case got := <-calls:
			if got != want {
				t.Fatalf("expected %s, got %s", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func TestInProcessBusUnsubscribesOnCancel(t *testing.T) {
	bus := NewInProcessBus(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())

	if err := bus.Subscribe(ctx, "topic", "group", func(context.Context, eventsv1.Envelope) error { return nil }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for {
		bus.mu.RLock()
		remaining := len(bus.topics["topic"])
		bus.mu.RUnlock()
		if remaining == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("subscriber was not removed after cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if err := bus.Publish(context.Background(), "topic", eventsv1.Envelope{EventID: "late"}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}

func TestInProcessBusSharesEventsWithinConsumerGroup(t *testing.T) {
	bus := NewInProcessBus(quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var deliveries atomic.Int64
	done := make(chan struct{}, 10)
	for i := 0; i < 2; i++ {
		if err := bus.Subscribe(ctx, "topic", "feed", func(context.Context, eventsv1.Envelope) error {
			deliveries.Add(1)
			done <- struct{}{}
			return nil
		}); err != nil {
			t.Fatalf("subscribe: %v", err)
		}
	}

	const published = 5
	for i := 0; i < published; i++ {
		if err := bus.Publish(ctx, "topic", eventsv1.Envelope{EventID: "evt"}); err != nil {
			t.Fatalf("publish: %v", err)
		}
	}
	for i := 0; i < published; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d", i+1)
		}
	}
	select {
	case <-done:
		t.Fatalf("an event was delivered to more than one member of the group")
	case <-time.After(50 * time.Millisecond):
	}
	if got := deliveries.Load(); got != published {
		t.Fatalf("expected %d deliveries, got %d", published, got)
	}
}

func TestInProcessBusCountsDropsForFullGroup(t *testing.T) {
	bus := NewInProcessBus(quietLogger(), WithBufferSize(1))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	defer close(release)
	if err := bus.Subscribe(ctx, "topic", "slow", func(context.Context, eventsv1.Envelope) error {
		<-release
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	for _, id := range []string{"a", "b", "c"} {
		if err := bus.Publish(ctx, "topic", eventsv1.Envelope{EventID: id}); err != nil {
			t.Fatalf("publish %s: %v", id, err)
		}
	}
	if bus.Dropped() < 1 {
		t.Fatalf("expected at least one dropped event, got %d", bus.Dropped())
	}
}
