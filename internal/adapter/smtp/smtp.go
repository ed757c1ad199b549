// Package smtp delivers mail through an SMTP relay using gomail.
package smtp

import (
	"context"
	"errors"
	"io"

	"healthmate/internal/domain"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

var _ domain.Mailer = (*Mailer)(nil)

// Config holds the SMTP relay settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Mailer implements domain.Mailer.
type Mailer struct {
	from   string
	dialer dialer
	log    *zap.Logger
}

// New creates a Mailer for cfg.
func New(cfg Config, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		log:    log,
	}
}

// Send builds and delivers m. The context is only checked before dialing;
// gomail does not support cancellation.
func (s *Mailer) Send(ctx context.Context, m domain.MailMessage) error {
	if len(m.To) == 0 {
		return errors.New("mail has no recipients")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.dialer.DialAndSend(s.build(m)); err != nil {
		s.log.Error("send mail failed", zap.Strings("to", m.To), zap.String("subject", m.Subject), zap.Error(err))
		return err
	}
	s.log.Info("mail sent", zap.Strings("to", m.To), zap.String("subject", m.Subject))
	return nil
}

func (s *Mailer) build(m domain.MailMessage) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", m.To...)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	msg.SetHeader("Subject", m.Subject)

	switch {
	case m.Text != "" && m.HTML != "":
		msg.SetBody("text/plain", m.Text)
		msg.AddAlternative("text/html", m.HTML)
	case m.HTML != "":
		msg.SetBody("text/html", m.HTML)
	default:
		msg.SetBody("text/plain", m.Text)
	}

	for _, a := range m.Attachments {
		data := a.Data
		settings := []gomail.FileSetting{
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gomail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		msg.Attach(a.Filename, settings...)
	}
	return msg
}
