package notify

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"
	"time"
	"unicode"

	"github.com/cenkalti/backoff/v4"
	"github.com/dimitrije/hackteams-api/internal/config"
)

var errInvalidRecipient = errors.New("recipient address contains control characters")

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type RetryPolicy struct {
	MaxRetries     uint64
	InitialBackoff time.Duration
}

type EmailChannel struct {
	cfg     config.SMTPConfig
	baseURL string
	retry   RetryPolicy
	send    sendMailFunc
}

func NewEmailChannel(cfg config.SMTPConfig, baseURL string, retry RetryPolicy) *EmailChannel {
	return &EmailChannel{
		cfg:     cfg,
		baseURL: baseURL,
		retry:   retry,
		send:    smtp.SendMail,
	}
}

func (c *EmailChannel) Name() string { return "email" }

func (c *EmailChannel) IsConfigured() bool {
	return c.cfg.Host != "" && c.cfg.Username != "" && c.cfg.Password != "" && c.cfg.From != ""
}

func (c *EmailChannel) Deliver(ctx context.Context, n Notification) error {
	if !c.IsConfigured() || n.Recipient.Email == "" {
		return ErrSkipped
	}
	if strings.IndexFunc(n.Recipient.Email, unicode.IsControl) >= 0 {
		return errInvalidRecipient
	}

	subject, body, err := render(n, c.baseURL)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", c.cfg.Host, c.cfg.Port)
	auth := smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		c.cfg.From, n.Recipient.Email, encodeHeader(subject), body)

	b := backoff.NewExponentialBackOff()
	if c.retry.InitialBackoff > 0 {
		b.InitialInterval = c.retry.InitialBackoff
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.retry.MaxRetries), ctx)

	return backoff.Retry(func() error {
		return c.send(addr, auth, c.cfg.From, []string{n.Recipient.Email}, []byte(msg))
	}, policy)
}

// encodeHeader folds a rendered value onto one line and Q-encodes it when it
// is not plain ASCII.
func encodeHeader(v string) string {
	v = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, v)
	return mime.QEncoding.Encode("utf-8", strings.Join(strings.Fields(v), " "))
}
