package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Message is a change event published for one store subtree.
type Message struct {
	Topic  string         `json:"topic"`
	Entity string         `json:"entity"`
	Action string         `json:"action"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage creates a Message for a subtree topic.
func NewMessage(topic, entity, action, id string, extra map[string]any) Message {
	return Message{
		Topic:  topic,
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Topic helpers name the subscribable subtrees.
func ProfileTopic(profileID string) string      { return fmt.Sprintf("profiles/%s", profileID) }
func ChildTasksTopic(childID string) string     { return fmt.Sprintf("tasks/child/%s", childID) }
func ParentTasksTopic(parentID string) string   { return fmt.Sprintf("tasks/parent/%s", parentID) }
func ShopTopic(parentID string) string          { return fmt.Sprintf("shop/%s", parentID) }
func PurchasesTopic(childID string) string      { return fmt.Sprintf("purchases/%s", childID) }
func NotificationsTopic(parentID string) string { return fmt.Sprintf("notifications/%s", parentID) }

// Hub maintains the set of active WebSocket clients and their topic
// subscriptions. Publish and Unsubscribe are serialized by the hub lock, so
// once Unsubscribe returns no later publish can reach the client for that
// topic.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]map[string]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]map[string]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub with no subscriptions.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = make(map[string]struct{})
	h.mu.Unlock()
}

// Unregister removes a client and all its subscriptions, closing its send
// channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Subscribe adds a topic to a client's subscription set.
func (h *Hub) Subscribe(c *Client, topic string) {
	h.mu.Lock()
	if topics, ok := h.clients[c]; ok {
		topics[topic] = struct{}{}
	}
	h.mu.Unlock()
}

// Unsubscribe removes a topic from a client's subscription set.
func (h *Hub) Unsubscribe(c *Client, topic string) {
	h.mu.Lock()
	if topics, ok := h.clients[c]; ok {
		delete(topics, topic)
	}
	h.mu.Unlock()
}

// Publish sends a message to every client subscribed to its topic.
func (h *Hub) Publish(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal publish", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c, topics := range h.clients {
		if _, ok := topics[msg.Topic]; !ok {
			continue
		}
		select {
		case c.send <- data:
		default:
			// Client buffer full — drop message to avoid blocking
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
