package memory

import (
	"context"
	"sync"

	"healthmate/internal/domain"

	"go.uber.org/zap"
)

var (
	_ domain.Mailer         = (*Outbox)(nil)
	_ domain.EventPublisher = (*EventLog)(nil)
)

// Outbox is a Mailer that keeps messages instead of sending them. It is
// used when no SMTP server is configured.
type Outbox struct {
	mu   sync.Mutex
	sent []domain.MailMessage
	log  *zap.Logger
}

// NewOutbox creates an Outbox that logs every message it receives.
func NewOutbox(log *zap.Logger) *Outbox {
	if log == nil {
		log = zap.NewNop()
	}
	return &Outbox{log: log}
}

// Send records m.
func (o *Outbox) Send(ctx context.Context, m domain.MailMessage) error {
	o.mu.Lock()
	o.sent = append(o.sent, m)
	o.mu.Unlock()

	o.log.Info("mail queued in outbox",
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
		zap.Int("attachments", len(m.Attachments)),
	)
	return nil
}

// Sent returns a copy of every recorded message.
func (o *Outbox) Sent() []domain.MailMessage {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]domain.MailMessage(nil), o.sent...)
}

// EventLog is an EventPublisher that logs and keeps events. It is used when
// no broker is configured.
type EventLog struct {
	mu     sync.Mutex
	events []domain.Event
	log    *zap.Logger
}

// NewEventLog creates an EventLog.
func NewEventLog(log *zap.Logger) *EventLog {
	if log == nil {
		log = zap.NewNop()
	}
	return &EventLog{log: log}
}

// Publish records e.
func (l *EventLog) Publish(ctx context.Context, routingKey string, e domain.Event) error {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()

	l.log.Debug("event",
		zap.String("routing_key", routingKey),
		zap.String("type", e.Type),
		zap.Int64("user_id", e.UserID),
		zap.String("kind", e.Kind),
	)
	return nil
}

// Events returns a copy of every published event.
func (l *EventLog) Events() []domain.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.Event(nil), l.events...)
}
