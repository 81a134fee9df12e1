package sse

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Event struct {
	ID   string      `json:"id,omitempty"`
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Client struct {
	ID     string
	UserID uuid.UUID
	Send   chan []byte
}

type userMessage struct {
	UserID uuid.UUID
	Event  Event
}

// Hub fans in-app notifications out to the connected streams of a user. A
// user may hold several streams; each gets its own copy.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	publish    chan *userMessage
	done       chan struct{}
	mu         sync.RWMutex
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan *userMessage, 256),
		done:       make(chan struct{}),
		log:        log,
	}
}

// Run serves registrations and deliveries until ctx is done, then closes
// every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.Send)
			}
			close(h.done)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case msg := <-h.publish:
			data, err := json.Marshal(msg.Event)
			if err != nil {
				h.log.Error("failed to encode event", zap.String("type", msg.Event.Type), zap.Error(err))
				continue
			}
			h.mu.RLock()
			for _, client := range h.clients {
				if client.UserID != msg.UserID {
					continue
				}
				select {
				case client.Send <- data:
				default:
					h.log.Warn("client buffer full, dropping event",
						zap.String("client_id", client.ID),
						zap.String("type", msg.Event.Type))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds client to the hub. It reports false once Run has stopped;
// the client's Send channel is then never used.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected reports whether the user has at least one open stream.
func (h *Hub) Connected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

// PublishToUser queues ev for every stream of userID. It blocks only when
// the hub's queue is full, and gives up when ctx is done.
func (h *Hub) PublishToUser(ctx context.Context, userID uuid.UUID, ev Event) error {
	select {
	case h.publish <- &userMessage{UserID: userID, Event: ev}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
