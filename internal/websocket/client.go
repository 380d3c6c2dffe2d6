package websocket

import (
	"context"
	"encoding/json"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
)

// command is a client-to-server subscription request.
type command struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Topic  string `json:"topic"`
}

// Client represents a single WebSocket connection. allowed restricts which
// topics the connection may subscribe to, based on the authenticated profile.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	send    chan []byte
	allowed map[string]struct{}
}

// NewClient creates a Client tied to the given hub and connection, permitted
// to subscribe only to the given topics.
func NewClient(hub *Hub, conn *ws.Conn, allowedTopics []string) *Client {
	allowed := make(map[string]struct{}, len(allowedTopics))
	for _, t := range allowedTopics {
		allowed[t] = struct{}{}
	}
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendBufferSize),
		allowed: allowed,
	}
}

// Run registers the client, starts the write pump, and runs the read pump.
// It blocks until the connection is closed, then unregisters.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go c.writePump(ctx)
	c.readPump(ctx)
}

// readPump processes subscribe/unsubscribe commands. It returns on error
// (connection close), which triggers cleanup.
func (c *Client) readPump(ctx context.Context) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}

		var cmd command
		if err := json.Unmarshal(data, &cmd); err != nil {
			continue
		}
		if _, ok := c.allowed[cmd.Topic]; !ok {
			continue
		}

		switch cmd.Action {
		case "subscribe":
			c.hub.Subscribe(c, cmd.Topic)
		case "unsubscribe":
			c.hub.Unsubscribe(c, cmd.Topic)
		}
	}
}

// writePump drains the send channel and writes messages to the WebSocket.
// It also sends periodic pings to detect stale connections.
func (c *Client) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				// Hub closed the channel — connection is done
				return
			}
			if err := c.conn.Write(ctx, ws.MessageText, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
