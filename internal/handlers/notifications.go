package handlers

import (
	"github.com/dimitrije/hackteams-api/internal/sse"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type NotificationHandler struct {
	hub *sse.Hub
}

func NewNotificationHandler(hub *sse.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// Stream holds an SSE connection open and forwards the caller's in-app
// notifications until the client disconnects or the hub shuts down.
func (h *NotificationHandler) Stream(c *drift.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	sseCtx := c.SSE()

	clientID := uuid.New().String()
	client := &sse.Client{
		ID:     clientID,
		UserID: userID,
		Send:   make(chan []byte, 64),
	}

	if !h.hub.Register(client) {
		return
	}

	if err := sseCtx.SendJSON(map[string]string{
		"type":      "connected",
		"client_id": clientID,
	}, "system", ""); err != nil {
		h.hub.Unregister(client)
		return
	}

	done := c.Request.Context().Done()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				// closed by the hub
				return
			}
			if err := sseCtx.Send(string(msg), "notification", ""); err != nil {
				h.hub.Unregister(client)
				return
			}
		case <-done:
			h.hub.Unregister(client)
			return
		}
	}
}
