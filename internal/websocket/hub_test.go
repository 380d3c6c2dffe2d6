package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/pluspoint/pluspoint/internal/logging"
)

// mockClient creates a Client with a send channel but no real connection.
func mockClient(hub *Hub) *Client {
	return &Client{
		hub:  hub,
		conn: nil,
		send: make(chan []byte, sendBufferSize),
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())

	c1 := mockClient(hub)
	c2 := mockClient(hub)

	hub.Register(c1)
	hub.Register(c2)

	if got := hub.ClientCount(); got != 2 {
		t.Fatalf("expected 2 clients, got %d", got)
	}

	hub.Unregister(c1)
	hub.Unregister(c2)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestDoubleUnregister(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := mockClient(hub)
	hub.Register(c)
	hub.Unregister(c)
	// Should not panic
	hub.Unregister(c)

	if got := hub.ClientCount(); got != 0 {
		t.Fatalf("expected 0 clients, got %d", got)
	}
}

func TestPublishReachesOnlySubscribers(t *testing.T) {
	hub := NewHub(logging.Discard())

	subscribed := mockClient(hub)
	other := mockClient(hub)
	hub.Register(subscribed)
	hub.Register(other)

	topic := ChildTasksTopic("child-1")
	hub.Subscribe(subscribed, topic)
	hub.Subscribe(other, ChildTasksTopic("child-2"))

	hub.Publish(NewMessage(topic, "task", "completed", "task-1", nil))

	select {
	case data := <-subscribed.send:
		var got Message
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got.Topic != topic {
			t.Errorf("topic = %q, want %q", got.Topic, topic)
		}
		if got.Entity != "task" || got.Action != "completed" || got.ID != "task-1" {
			t.Errorf("unexpected message: %+v", got)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}

	select {
	case <-other.send:
		t.Fatal("message delivered to client subscribed to a different topic")
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub(logging.Discard())

	c := mockClient(hub)
	hub.Register(c)

	topic := ProfileTopic("child-1")
	hub.Subscribe(c, topic)
	hub.Unsubscribe(c, topic)

	hub.Publish(NewMessage(topic, "profile", "balance_changed", "child-1", nil))

	select {
	case <-c.send:
		t.Fatal("message delivered after unsubscribe")
	default:
	}
}

func TestPublishEmptyHub(t *testing.T) {
	hub := NewHub(logging.Discard())
	// Should not panic
	hub.Publish(NewMessage(ShopTopic("parent-1"), "shop_item", "created", "item-1", nil))
}

func TestPublishFullBuffer(t *testing.T) {
	hub := NewHub(logging.Discard())

	c := mockClient(hub)
	hub.Register(c)

	topic := NotificationsTopic("parent-1")
	hub.Subscribe(c, topic)

	// Fill the send buffer
	for i := 0; i < sendBufferSize; i++ {
		hub.Publish(NewMessage(topic, "notification", "created", "", nil))
	}

	// This should drop the message, not panic or block
	hub.Publish(NewMessage(topic, "notification", "dropped", "", nil))

	count := 0
	for {
		select {
		case <-c.send:
			count++
		default:
			goto done
		}
	}
done:
	if count != sendBufferSize {
		t.Errorf("expected %d messages, got %d", sendBufferSize, count)
	}

	hub.Unregister(c)
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewHub(logging.Discard())
	var wg sync.WaitGroup

	topic := ParentTasksTopic("parent-1")
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := mockClient(hub)
			hub.Register(c)
			hub.Subscribe(c, topic)
			hub.Publish(NewMessage(topic, "task", "created", "", nil))
			for {
				select {
				case <-c.send:
				default:
					hub.Unregister(c)
					return
				}
			}
		}()
	}

	wg.Wait()

	if got := hub.ClientCount(); got != 0 {
		t.Errorf("expected 0 clients after concurrent test, got %d", got)
	}
}
