package notify

import (
	"context"

	"github.com/dimitrije/hackteams-api/internal/sse"
	"github.com/google/uuid"
)

type userPublisher interface {
	Connected(userID uuid.UUID) bool
	PublishToUser(ctx context.Context, userID uuid.UUID, ev sse.Event) error
}

// InAppChannel pushes notifications onto the recipient's open event
// streams. Offline users are skipped; there is no inbox.
type InAppChannel struct {
	hub userPublisher
}

func NewInAppChannel(hub userPublisher) *InAppChannel {
	return &InAppChannel{hub: hub}
}

func (c *InAppChannel) Name() string { return "in_app" }

func (c *InAppChannel) Deliver(ctx context.Context, n Notification) error {
	if n.Recipient.UserID == uuid.Nil || !c.hub.Connected(n.Recipient.UserID) {
		return ErrSkipped
	}
	return c.hub.PublishToUser(ctx, n.Recipient.UserID, sse.Event{
		ID:   n.ID,
		Type: string(n.Template),
		Data: n.Data,
	})
}
