package domain

import (
	"context"
	"time"
)

// KeyValueStore holds short-lived secrets such as OTP codes and refresh
// tokens. Get reports false when the key is missing or expired.
type KeyValueStore interface {
	Put(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
	// Incr adds one to the counter under key and returns the new count.
	// A counter created by Incr expires after ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Attachment is a file sent along with a mail message.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MailMessage is an outgoing email.
type MailMessage struct {
	To          []string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, m MailMessage) error
}

// Event types published by the services.
const (
	EventMetricRecorded    = "metric.recorded"
	EventHealthAlert       = "health.alert"
	EventPremiumActivated  = "subscription.premium"
	EventSubscriptionRenew = "subscription.renewed"
)

// Event is a domain event published to interested consumers.
type Event struct {
	Type    string    `json:"type"`
	UserID  int64     `json:"userId"`
	Kind    string    `json:"kind,omitempty"`
	Day     string    `json:"date,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, e Event) error
}

// CheckoutSession is a hosted payment page created by the payment provider.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentEvent is a verified notification from the payment provider.
type PaymentEvent struct {
	Type      string
	SessionID string
	UserID    int64
}

// PaymentCompleted is the provider event type that activates Premium.
const PaymentCompleted = "checkout.session.completed"

// PaymentProvider creates checkout sessions and verifies webhooks.
type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, userID int64) (*CheckoutSession, error)
	// SessionStatus returns the user id stored on a checkout session and
	// whether the session has been paid.
	SessionStatus(ctx context.Context, sessionID string) (userID int64, paid bool, err error)
	ParseWebhook(payload []byte, signature string) (*PaymentEvent, error)
}

// Identity is the verified subject of a third-party ID token.
type Identity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// IdentityVerifier verifies ID tokens issued by an OAuth provider.
type IdentityVerifier interface {
	Verify(ctx context.Context, provider, rawIDToken string) (*Identity, error)
}
