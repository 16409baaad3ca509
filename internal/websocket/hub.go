package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"market-assist-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const clusterChannel = "assistant_cluster_events"

// Hub groups live connections by chat session so a reply or typing indicator
// produced on one tab reaches every tab of the same conversation. Cross
// instance fan-out goes through Redis pub/sub.
type Hub struct {
	// id distinguishes this instance's published frames from siblings', so
	// the subscriber never redelivers what this instance already handed out.
	id string

	// Registered clients map: SessionID -> List of Clients (multi-tab)
	clients map[uuid.UUID][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	// Redis connection for cross-instance fan-out. Nil disables it.
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		id:         uuid.NewString(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[uuid.UUID][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionId] = append(h.clients[client.SessionId], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client joined session group", map[string]interface{}{"session_id": client.SessionId})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionId]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionId] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.SessionId]) == 0 {
					delete(h.clients, client.SessionId)
					h.logger.Info("Hub", "Session group emptied", map[string]interface{}{"session_id": client.SessionId})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Bind adds a client to a session group once its session is established.
func (h *Hub) Bind(client *Client) {
	h.register <- client
}

// Unbind removes a client from its session group and closes its send channel.
// Only for disconnects; a live re-init goes through Rebind.
func (h *Hub) Unbind(client *Client) {
	h.unregister <- client
}

// Rebind moves a live client from its current session group to another
// without touching the send channel.
func (h *Hub) Rebind(client *Client, sessionId uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.SessionId]; ok {
		for i, c := range clients {
			if c == client {
				h.clients[client.SessionId] = append(clients[:i], clients[i+1:]...)
				break
			}
		}
		if len(h.clients[client.SessionId]) == 0 {
			delete(h.clients, client.SessionId)
		}
	}

	client.SessionId = sessionId
	h.clients[sessionId] = append(h.clients[sessionId], client)
}

// RelayToSession delivers a frame to every other client bound to the session,
// locally and on sibling instances. The originating client already received
// its own copy from the handler.
func (h *Hub) RelayToSession(sessionId uuid.UUID, data []byte, exclude *Client) {
	h.mu.RLock()
	clients, ok := h.clients[sessionId]
	h.mu.RUnlock()

	if ok {
		for _, client := range clients {
			if client == exclude {
				continue
			}
			select {
			case client.Send <- data:
			default:
				h.logger.Warn("Hub", "Client send buffer full, dropping frame", map[string]interface{}{"session_id": sessionId})
				close(client.Send)
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		jsonPayload, _ := json.Marshal(clusterFrame{
			TargetSessionID: sessionId.String(),
			OriginHub:       h.id,
			Origin:          h.originFor(exclude),
			Message:         data,
		})
		h.rdb.Publish(context.Background(), clusterChannel, jsonPayload)
	}
}

// clusterFrame is the cross-instance fan-out envelope.
type clusterFrame struct {
	TargetSessionID string          `json:"target_session_id"`
	OriginHub       string          `json:"origin_hub"`
	Origin          string          `json:"origin"`
	Message         json.RawMessage `json:"message"`
}

func (h *Hub) originFor(client *Client) string {
	if client == nil {
		return ""
	}
	return client.ConnectionId
}

func (h *Hub) subscribeToRedis() {
	// Every instance subscribes to the one cluster channel and filters by the
	// session groups it holds locally.
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for msg := range ch {
		var frame clusterFrame
		if err := json.Unmarshal([]byte(msg.Payload), &frame); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}
		h.deliverClusterFrame(frame)
	}
}

// deliverClusterFrame fans one cluster frame out to the local session group.
// Frames this instance published are dropped entirely: their local delivery
// already happened in RelayToSession, and redelivering them would double every
// relayed frame for a second tab on the same instance.
func (h *Hub) deliverClusterFrame(frame clusterFrame) {
	if frame.OriginHub == h.id {
		return
	}

	sid, err := uuid.Parse(frame.TargetSessionID)
	if err != nil {
		return
	}

	h.mu.RLock()
	clients, ok := h.clients[sid]
	h.mu.RUnlock()

	if !ok {
		return
	}

	for _, client := range clients {
		if client.ConnectionId == frame.Origin {
			continue
		}
		select {
		case client.Send <- frame.Message:
		default:
			close(client.Send)
			h.unregister <- client
		}
	}
}
