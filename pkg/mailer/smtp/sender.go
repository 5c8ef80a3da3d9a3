// Package smtp implements mailer.Sender over SMTP with go-mail. Inline
// attachments become related parts carrying a Content-ID header.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"strings"

	mail "github.com/go-mail/mail"

	"github.com/crombie/crombieversario/pkg/logger"
	"github.com/crombie/crombieversario/pkg/mailer"
)

// dialer is the part of *mail.Dialer the sender uses.
type dialer interface {
	DialAndSend(m ...*mail.Message) error
}

type Sender struct {
	dialer dialer
	config Config
	log    *slog.Logger
}

type Option func(*Sender)

// WithLogger logs every attempt at debug level and failures at error level.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sender) {
		if l != nil {
			s.log = l
		}
	}
}

func withDialer(d dialer) Option {
	return func(s *Sender) { s.dialer = d }
}

func New(cfg Config, opts ...Option) (*Sender, error) {
	if cfg.SenderEmail == "" {
		return nil, mailer.ErrNoSender
	}

	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.Timeout = cfg.Timeout
	d.TLSConfig = &tls.Config{
		ServerName:         cfg.Host,
		InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // opt-in for local relays
	}
	switch cfg.TLSMode {
	case TLSSSL:
		d.SSL = true
	case TLSStartTLS:
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case TLSNone:
		d.StartTLSPolicy = mail.NoStartTLS
	case TLSAuto, "":
		d.StartTLSPolicy = mail.OpportunisticStartTLS
	default:
		return nil, fmt.Errorf("smtp: unknown TLS mode %q", cfg.TLSMode)
	}

	s := &Sender{dialer: d, config: cfg, log: logger.NewNope()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send builds the MIME message and delivers it. go-mail has no context
// support, so ctx is only checked before dialing; Config.Timeout bounds the call.
func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := s.message(email)
	s.log.DebugContext(ctx, "smtp send",
		slog.String("host", s.config.Host),
		slog.String("to", strings.Join(email.To, ",")),
		slog.String("tls_mode", s.config.TLSMode),
	)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.log.ErrorContext(ctx, "smtp send failed",
			slog.String("to", strings.Join(email.To, ",")),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (s *Sender) message(email *mailer.Email) *mail.Message {
	m := mail.NewMessage()

	from := email.From
	if from == "" {
		from = mailer.Recipient(s.config.SenderName, s.config.SenderEmail)
	}
	m.SetHeader("From", from)
	m.SetHeader("To", email.To...)
	m.SetHeader("Subject", email.Subject)
	if email.ReplyTo != "" {
		m.SetHeader("Reply-To", email.ReplyTo)
	}
	for k, v := range email.Headers {
		m.SetHeader(k, v)
	}

	if email.Text != "" {
		m.SetBody("text/plain", email.Text)
		m.AddAlternative("text/html", email.HTML)
	} else {
		m.SetBody("text/html", email.HTML)
	}

	for _, a := range email.Attachments {
		content := a.Content
		settings := []mail.FileSetting{
			mail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(content)
				return err
			}),
		}
		header := map[string][]string{}
		if a.ContentType != "" {
			header["Content-Type"] = []string{a.ContentType}
		}

		if a.Inline() {
			header["Content-ID"] = []string{"<" + a.ContentID + ">"}
			settings = append(settings, mail.SetHeader(header))
			m.Embed(a.Filename, settings...)
			continue
		}
		if len(header) > 0 {
			settings = append(settings, mail.SetHeader(header))
		}
		m.Attach(a.Filename, settings...)
	}

	return m
}

var _ mailer.Sender = (*Sender)(nil)
