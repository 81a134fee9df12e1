package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/dimitrije/hackteams-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSMTPConfig() config.SMTPConfig {
	return config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "user@example.com",
		Password: "password",
		From:     "noreply@example.com",
	}
}

func TestEmailChannel_IsConfigured(t *testing.T) {
	assert.True(t, NewEmailChannel(testSMTPConfig(), "", RetryPolicy{}).IsConfigured())

	for _, mutate := range []func(*config.SMTPConfig){
		func(c *config.SMTPConfig) { c.Host = "" },
		func(c *config.SMTPConfig) { c.Username = "" },
		func(c *config.SMTPConfig) { c.Password = "" },
		func(c *config.SMTPConfig) { c.From = "" },
	} {
		cfg := testSMTPConfig()
		mutate(&cfg)
		assert.False(t, NewEmailChannel(cfg, "", RetryPolicy{}).IsConfigured())
	}
}

func TestEmailChannel_Deliver_NotConfigured(t *testing.T) {
	ch := NewEmailChannel(config.SMTPConfig{}, "", RetryPolicy{})

	err := ch.Deliver(context.Background(), Notification{
		Recipient: Recipient{Email: "to@example.com"},
		Template:  TemplateMemberJoined,
	})
	assert.ErrorIs(t, err, ErrSkipped)
}

func TestEmailChannel_Deliver_NoAddress(t *testing.T) {
	ch := NewEmailChannel(testSMTPConfig(), "", RetryPolicy{})

	err := ch.Deliver(context.Background(), Notification{Template: TemplateMemberJoined})
	assert.ErrorIs(t, err, ErrSkipped)
}

func TestEmailChannel_Deliver_Sends(t *testing.T) {
	ch := NewEmailChannel(testSMTPConfig(), "https://teams.example.com", RetryPolicy{})
	var gotAddr string
	var gotTo []string
	var gotMsg string
	ch.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := ch.Deliver(context.Background(), Notification{
		Recipient: Recipient{Email: "leader@example.com"},
		Template:  TemplateMergeInviteReceived,
		Data: map[string]string{
			"team_name":        "Owls",
			"sender_team_name": "Hawks",
			"path":             "/teams/123/merge-invitations",
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"leader@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Hawks wants to merge with Owls")
	assert.Contains(t, gotMsg, "https://teams.example.com/teams/123/merge-invitations")
}

func TestEmailChannel_Deliver_SubjectStaysOnOneLine(t *testing.T) {
	ch := NewEmailChannel(testSMTPConfig(), "", RetryPolicy{})
	var gotMsg string
	ch.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	err := ch.Deliver(context.Background(), Notification{
		Recipient: Recipient{Email: "leader@example.com"},
		Template:  TemplateMergeInviteReceived,
		Data: map[string]string{
			"team_name":        "Owls",
			"sender_team_name": "Evil\r\nBcc: victim@example.com",
		},
	})
	require.NoError(t, err)

	headers, _, found := strings.Cut(gotMsg, "\r\n\r\n")
	require.True(t, found)
	for _, line := range strings.Split(headers, "\r\n") {
		assert.False(t, strings.HasPrefix(line, "Bcc:"), line)
	}
	assert.Contains(t, headers, "Subject: Evil Bcc: victim@example.com wants to merge with Owls")
}

func TestEmailChannel_Deliver_EncodesNonASCIISubject(t *testing.T) {
	ch := NewEmailChannel(testSMTPConfig(), "", RetryPolicy{})
	var gotMsg string
	ch.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		gotMsg = string(msg)
		return nil
	}

	err := ch.Deliver(context.Background(), Notification{
		Recipient: Recipient{Email: "leader@example.com"},
		Template:  TemplateMemberJoined,
		Data:      map[string]string{"member_name": "Đorđe", "team_name": "Sove"},
	})

	require.NoError(t, err)
	assert.Contains(t, gotMsg, "Subject: =?utf-8?q?")
	assert.NotContains(t, gotMsg, "Subject: Đorđe")
}

func TestEmailChannel_Deliver_RejectsRecipientWithLineBreak(t *testing.T) {
	ch := NewEmailChannel(testSMTPConfig(), "", RetryPolicy{})
	sent := false
	ch.send = func(string, smtp.Auth, string, []string, []byte) error {
		sent = true
		return nil
	}

	err := ch.Deliver(context.Background(), Notification{
		Recipient: Recipient{Email: "to@example.com\r\nBcc: victim@example.com"},
		Template:  TemplateMemberJoined,
		Data:      map[string]string{"member_name": "Ana", "team_name": "Owls"},
	})

	assert.ErrorIs(t, err, errInvalidRecipient)
	assert.False(t, sent)
}

func TestEmailChannel_Deliver_RetriesThenFails(t *testing.T) {
	ch := NewEmailChannel(testSMTPConfig(), "", RetryPolicy{MaxRetries: 2, InitialBackoff: time.Millisecond})
	attempts := 0
	ch.send = func(string, smtp.Auth, string, []string, []byte) error {
		attempts++
		return errors.New("connection refused")
	}

	err := ch.Deliver(context.Background(), Notification{
		Recipient: Recipient{Email: "to@example.com"},
		Template:  TemplateMemberJoined,
		Data:      map[string]string{"member_name": "Ana", "team_name": "Owls"},
	})

	assert.EqualError(t, err, "connection refused")
	assert.Equal(t, 3, attempts)
}

func TestEmailChannel_Deliver_RetrySucceeds(t *testing.T) {
	ch := NewEmailChannel(testSMTPConfig(), "", RetryPolicy{MaxRetries: 3, InitialBackoff: time.Millisecond})
	attempts := 0
	ch.send = func(string, smtp.Auth, string, []string, []byte) error {
		attempts++
		if attempts < 2 {
			return errors.New("temporary failure")
		}
		return nil
	}

	err := ch.Deliver(context.Background(), Notification{
		Recipient: Recipient{Email: "to@example.com"},
		Template:  TemplateMemberJoined,
		Data:      map[string]string{"member_name": "Ana", "team_name": "Owls"},
	})

	assert.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, err := render(Notification{Template: "nope"}, "")
	assert.ErrorContains(t, err, "unknown template")
}

func TestRender_EscapesHTML(t *testing.T) {
	_, body, err := render(Notification{
		Template: TemplateMergeInviteReceived,
		Data: map[string]string{
			"team_name":        "Owls",
			"sender_team_name": "<script>alert(1)</script>",
			"message":          "let's merge",
		},
	}, "http://localhost:8080")

	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
