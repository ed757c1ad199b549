// Package stripe implements domain.PaymentProvider with Stripe Checkout.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"healthmate/internal/domain"

	stripego "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

var _ domain.PaymentProvider = (*Provider)(nil)

// Premium checkout pricing.
const (
	PremiumAmountCents = 1200
	PremiumCurrency    = "usd"
	PremiumProductName = "Premium Subscription"
	PremiumDescription = "One-month Premium subscription for $12"
)

const metadataUserID = "userId"

// Config holds the Stripe credentials and redirect targets.
type Config struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

type sessionClient interface {
	New(params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error)
	Get(id string, params *stripego.CheckoutSessionParams) (*stripego.CheckoutSession, error)
}

// Provider talks to the Stripe API.
type Provider struct {
	cfg      Config
	sessions sessionClient
}

// New creates a Provider for cfg.
func New(cfg Config) (*Provider, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &Provider{cfg: cfg, sessions: sc.CheckoutSessions}, nil
}

// CreateCheckoutSession opens a one-time card payment for one month of
// Premium. The user id is stored in the session and payment metadata.
func (p *Provider) CreateCheckoutSession(ctx context.Context, userID int64) (*domain.CheckoutSession, error) {
	uid := strconv.FormatInt(userID, 10)
	params := &stripego.CheckoutSessionParams{
		Mode:               stripego.String(string(stripego.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		LineItems: []*stripego.CheckoutSessionLineItemParams{{
			PriceData: &stripego.CheckoutSessionLineItemPriceDataParams{
				Currency: stripego.String(PremiumCurrency),
				ProductData: &stripego.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripego.String(PremiumProductName),
					Description: stripego.String(PremiumDescription),
				},
				UnitAmount: stripego.Int64(PremiumAmountCents),
			},
			Quantity: stripego.Int64(1),
		}},
		SuccessURL: stripego.String(p.cfg.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripego.String(p.cfg.CancelURL + "?session_id={CHECKOUT_SESSION_ID}"),
		PaymentIntentData: &stripego.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{metadataUserID: uid},
		},
	}
	params.Context = ctx
	params.AddMetadata(metadataUserID, uid)

	s, err := p.sessions.New(params)
	if err != nil {
		return nil, err
	}
	return &domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// SessionStatus returns the user id stored on a checkout session, or 0
// when the metadata has none, and whether Stripe reports it paid.
func (p *Provider) SessionStatus(ctx context.Context, sessionID string) (int64, bool, error) {
	params := &stripego.CheckoutSessionParams{}
	params.Context = ctx
	s, err := p.sessions.Get(sessionID, params)
	if err != nil {
		return 0, false, err
	}
	userID, err := metadataUser(s.Metadata)
	if err != nil {
		return 0, false, err
	}
	return userID, s.PaymentStatus == stripego.CheckoutSessionPaymentStatusPaid, nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
func (p *Provider) ParseWebhook(payload []byte, signature string) (*domain.PaymentEvent, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, p.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}

	out := &domain.PaymentEvent{Type: string(ev.Type)}
	if ev.Type != stripego.EventTypeCheckoutSessionCompleted {
		return out, nil
	}
	var s stripego.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = s.ID
	out.UserID, err = metadataUser(s.Metadata)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func metadataUser(md map[string]string) (int64, error) {
	raw, ok := md[metadataUserID]
	if !ok || raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id in session metadata: %q", raw)
	}
	return id, nil
}
