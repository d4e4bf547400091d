// Package smtp delivers confirmation mail through a plain SMTP relay.
package smtp

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
	"github.com/worldvote/api/internal/core/ports"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	NoTLS    bool // test relays speak plain SMTP
}

type Mailer struct {
	cfg Config
}

var _ ports.Mailer = (*Mailer)(nil)

func NewMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	msg.Subject(subject)
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("failed to set mail sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("failed to set mail recipient: %w", err)
	}
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)
	msg.SetCharset(mail.CharsetUTF8)

	opts := []mail.Option{mail.WithPort(m.cfg.Port)}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}
	if m.cfg.NoTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	c, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to build smtp client: %w", err)
	}
	return c.DialAndSend(msg)
}
