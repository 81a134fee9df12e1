// Package notify delivers membership and merge notifications after the
// owning transaction has committed. Delivery is best effort: failures are
// logged and counted, never reported back to the caller.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Template string

const (
	TemplateTeamInvite           Template = "team_invite"
	TemplateMemberJoined         Template = "member_joined"
	TemplateMergeInviteReceived  Template = "merge_invite_received"
	TemplateMergeInviteRejected  Template = "merge_invite_rejected"
	TemplateMergeInviteCancelled Template = "merge_invite_cancelled"
	TemplateMergeCompleted       Template = "merge_completed"
)

// Recipient is addressed by user id for in-app delivery and by email for
// mail. Either may be empty.
type Recipient struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

type Notification struct {
	ID        string
	Recipient Recipient
	Template  Template
	Data      map[string]string
	CreatedAt time.Time
}

// Notifier accepts a notification without waiting for delivery.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Channel is one delivery medium.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, n Notification) error
}

// ErrSkipped is returned by a Channel that does not apply to a notification,
// e.g. mail without an address.
var ErrSkipped = errors.New("notify: channel skipped")

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) {}
