package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	sendBufferSize = 32
	writeTimeout   = 10 * time.Second
)

// wsClient bridges one gorilla websocket connection to the hub. Outbound
// events pass through a buffered channel drained by the write pump; a full
// buffer drops the event rather than blocking the broadcasting turn.
type wsClient struct {
	id     string
	socket *websocket.Conn
	send   chan Event
	logger *zap.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func newWSClient(id string, socket *websocket.Conn, logger *zap.Logger) *wsClient {
	return &wsClient{
		id:     id,
		socket: socket,
		send:   make(chan Event, sendBufferSize),
		logger: logger,
		closed: make(chan struct{}),
	}
}

func (c *wsClient) ID() string {
	return c.id
}

func (c *wsClient) Deliver(evt Event) {
	select {
	case c.send <- evt:
	case <-c.closed:
	default:
		c.logger.Warn("dropping event for slow consumer",
			zap.String("connection_id", c.id),
			zap.String("event", evt.Event))
	}
}

func (c *wsClient) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.socket.Close()
	})
}

// readPump consumes inbound frames and dispatches them to the protocol in
// arrival order, preserving per-connection ordering end to end. It returns
// when the connection drops, after running the disconnect cascade.
func (c *wsClient) readPump(protocol *Protocol) {
	defer func() {
		c.close()
		protocol.HandleDisconnect(c.id)
	}()

	for {
		_, raw, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.logger.Warn("websocket read failed",
					zap.String("connection_id", c.id),
					zap.Error(err))
			}
			return
		}

		var envelope Envelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			c.logger.Warn("unparseable frame",
				zap.String("connection_id", c.id),
				zap.Error(err))
			continue
		}
		protocol.HandleIntent(c.id, envelope)
	}
}

// writePump serializes outbound events onto the socket.
func (c *wsClient) writePump() {
	for {
		select {
		case evt := <-c.send:
			_ = c.socket.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.socket.WriteJSON(evt); err != nil {
				c.close()
				return
			}
		case <-c.closed:
			return
		}
	}
}
