package natsbus

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/vikasvdk5/WestBay/internal/config"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := New(config.NATSConfig{
		Port:    0, // Random port
		DataDir: t.TempDir(),
	})
	if err != nil {
		t.Fatalf("failed to create bus: %v", err)
	}
	t.Cleanup(bus.Close)
	return bus
}

func TestBusStartStop(t *testing.T) {
	bus := newTestBus(t)
	if bus.ClientURL() == "" {
		t.Fatal("expected non-empty client URL")
	}
}

func TestSessionEventPubSub(t *testing.T) {
	bus := newTestBus(t)

	client, err := NewClient(bus)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	received := make(chan string, 1)
	_, err = client.Subscribe(TopicEventsSessions, func(msg *nats.Msg) {
		received <- string(msg.Data)
	})
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	topic := TopicSessionEvents("s-42")
	if err := client.PublishJSON(topic, map[string]string{"type": "session_started"}); err != nil {
		t.Fatalf("publish json error: %v", err)
	}
	client.Flush()

	select {
	case data := <-received:
		if data != `{"type":"session_started"}` {
			t.Errorf("unexpected payload: %s", data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestWorkerEventsMatchWildcard(t *testing.T) {
	bus := newTestBus(t)

	client, err := NewClient(bus)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	defer client.Close()

	received := make(chan struct{}, 1)
	_, err = client.Subscribe(TopicEventsAll, func(msg *nats.Msg) {
		received <- struct{}{}
	})
	if err != nil {
		t.Fatalf("subscribe error: %v", err)
	}

	if err := client.Publish(TopicWorkerEvents("s-42", "narrator"), []byte("{}")); err != nil {
		t.Fatalf("publish error: %v", err)
	}
	client.Flush()

	select {
	case <-received:
	case <-time.After(2 * time.Second):
		t.Fatal("worker event did not match the events.> wildcard")
	}
}

func TestTopicNames(t *testing.T) {
	if got := TopicSessionEvents("s1"); got != "events.session.s1" {
		t.Errorf("expected events.session.s1, got %s", got)
	}
	if got := TopicWorkerEvents("s1", "analyst"); got != "events.session.s1.worker.analyst" {
		t.Errorf("expected events.session.s1.worker.analyst, got %s", got)
	}
}
