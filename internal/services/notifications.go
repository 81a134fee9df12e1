package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/hackteams-api/internal/models"
	"github.com/dimitrije/hackteams-api/internal/notify"
	"github.com/dimitrije/hackteams-api/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func userRecipient(ctx context.Context, r store.Reader, userID uuid.UUID) (notify.Recipient, error) {
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return notify.Recipient{}, err
	}
	return notify.Recipient{UserID: u.ID, Email: u.Email, Name: u.DisplayName()}, nil
}

func memberRecipient(m models.TeamMember) notify.Recipient {
	rcpt := notify.Recipient{
		Email: m.Email,
		Name:  m.Fields.FirstName,
	}
	if m.UserID != nil {
		rcpt.UserID = *m.UserID
	}
	return rcpt
}

func teamPath(teamID uuid.UUID) string {
	return fmt.Sprintf("/teams/%s", teamID)
}

// notifyUser looks up userID and queues one notification. Lookup failures
// are logged only; the change they report is already committed.
func notifyUser(ctx context.Context, n notify.Notifier, r store.Reader, log *zap.Logger, userID uuid.UUID, tmpl notify.Template, data map[string]string) {
	rcpt, err := userRecipient(ctx, r, userID)
	if err != nil {
		log.Warn("failed to resolve notification recipient",
			zap.String("user_id", userID.String()),
			zap.String("template", string(tmpl)),
			zap.Error(err))
		return
	}
	n.Notify(ctx, notify.Notification{Recipient: rcpt, Template: tmpl, Data: data})
}
