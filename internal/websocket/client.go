package websocket

import (
	"encoding/json"
	"log"
	"time"

	"market-assist-be/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 * 1024
)

// Client is a middleman between one websocket connection and the hub.
type Client struct {
	Hub *Hub

	Conn *websocket.Conn

	// ConnectionId identifies this connection across the cluster.
	ConnectionId string

	// SessionId of the bound chat session. Zero until session_init.
	SessionId uuid.UUID

	// Buffered channel of outbound frames.
	Send chan []byte
}

// Emit serializes an event and queues it for the write pump. A slow reader
// loses frames rather than blocking the protocol loop.
func (c *Client) Emit(event dto.OutboundEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("emit marshal error for connection %s: %v", c.ConnectionId, err)
		return
	}
	select {
	case c.Send <- data:
	default:
		log.Printf("send buffer full for connection %s, dropping %s", c.ConnectionId, event.EventType())
	}
}

// readPump pumps frames from the websocket connection through the handler.
// Frames are processed one at a time, so events from one client are handled
// strictly in arrival order.
func (c *Client) readPump(handler *SessionHandler) {
	defer func() {
		handler.OnDisconnect()
		if c.SessionId != uuid.Nil {
			c.Hub.Unbind(c)
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("readPump error for connection %s: %v", c.ConnectionId, err)
			}
			break
		}
		handler.HandleFrame(raw)
		if handler.State() == StateClosed {
			break
		}
	}
}

// writePump pumps frames from the Send channel to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Flush any frames queued behind this one.
			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
