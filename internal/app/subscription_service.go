package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthmate/internal/domain"

	"go.uber.org/zap"
)

// SubscriptionService drives the Free to Premium lifecycle.
type SubscriptionService struct {
	users    domain.UserRepository
	subs     domain.SubscriptionRepository
	payments domain.PaymentProvider
	events   domain.EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(
	users domain.UserRepository,
	subs domain.SubscriptionRepository,
	payments domain.PaymentProvider,
	events domain.EventPublisher,
	log *zap.Logger,
) *SubscriptionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SubscriptionService{
		users:    users,
		subs:     subs,
		payments: payments,
		events:   events,
		log:      log,
		now:      time.Now,
	}
}

// Initialize puts a user without any subscription on the Free plan.
func (s *SubscriptionService) Initialize(ctx context.Context, userID int64) (*domain.Subscription, error) {
	existing, err := s.subs.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrSubscriptionExists
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if err := s.users.UpdatePlan(ctx, userID, domain.PlanFree); err != nil {
		return nil, err
	}
	sub := domain.NewSubscription(userID, domain.PlanFree, s.now())
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	return sub, nil
}

// Checkout opens a payment session for a one-month Premium subscription.
func (s *SubscriptionService) Checkout(ctx context.Context, userID int64) (*domain.CheckoutSession, error) {
	if s.payments == nil {
		return nil, errors.New("payments are not configured")
	}
	sess, err := s.payments.CreateCheckoutSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	s.log.Info("checkout session created", zap.Int64("user_id", userID), zap.String("session_id", sess.ID))
	return sess, nil
}

// HandleWebhook verifies a provider notification and activates Premium for
// completed checkouts. Any other event type is rejected.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*domain.Subscription, error) {
	if s.payments == nil {
		return nil, errors.New("payments are not configured")
	}
	if signature == "" {
		return nil, invalid("payment signature header is missing")
	}
	ev, err := s.payments.ParseWebhook(payload, signature)
	if err != nil {
		return nil, invalid("%v", err)
	}
	if ev.Type != domain.PaymentCompleted {
		s.log.Info("unhandled payment event", zap.String("type", ev.Type))
		return nil, ErrUnhandledEvent
	}
	if ev.UserID == 0 {
		return nil, invalid("user id is missing in session metadata")
	}
	return s.activatePremium(ctx, ev.UserID)
}

// ConfirmCheckout handles the provider's success redirect. The session must
// belong to the caller and be paid.
func (s *SubscriptionService) ConfirmCheckout(ctx context.Context, callerID int64, sessionID string) (*domain.Subscription, error) {
	paid, err := s.checkSessionOwner(ctx, callerID, sessionID)
	if err != nil {
		return nil, err
	}
	if !paid {
		s.log.Warn("unpaid checkout confirmation", zap.Int64("user_id", callerID), zap.String("session_id", sessionID))
		return nil, ErrPaymentIncomplete
	}
	return s.activatePremium(ctx, callerID)
}

// CancelCheckout handles the provider's cancel redirect. Nothing changes.
func (s *SubscriptionService) CancelCheckout(ctx context.Context, callerID int64, sessionID string) error {
	if _, err := s.checkSessionOwner(ctx, callerID, sessionID); err != nil {
		return err
	}
	s.log.Info("checkout canceled", zap.Int64("user_id", callerID), zap.String("session_id", sessionID))
	return nil
}

// Renew starts a new Premium window once the current one has elapsed.
func (s *SubscriptionService) Renew(ctx context.Context, userID int64) (*domain.Subscription, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Plan != domain.PlanPremium {
		return nil, ErrNoPremium
	}
	sub, err := s.subs.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	now := s.now()
	if sub.Active(now) {
		return nil, ErrSubscriptionActive
	}
	sub.StartDate = now
	sub.EndDate = now.AddDate(0, domain.SubscriptionPeriodMonths, 0)
	sub.UpdatedAt = now
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.Event{Type: domain.EventSubscriptionRenew, UserID: userID})
	return sub, nil
}

// Details returns the caller's subscription.
func (s *SubscriptionService) Details(ctx context.Context, userID int64) (*domain.Subscription, error) {
	sub, err := s.subs.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// checkSessionOwner reports whether the caller's session is paid.
func (s *SubscriptionService) checkSessionOwner(ctx context.Context, callerID int64, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, invalid("session_id is required")
	}
	if s.payments == nil {
		return false, errors.New("payments are not configured")
	}
	owner, paid, err := s.payments.SessionStatus(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("retrieve checkout session: %w", err)
	}
	if owner == 0 {
		return false, invalid("user id not found in session metadata")
	}
	if owner != callerID {
		return false, ErrForbidden
	}
	return paid, nil
}

// activatePremium is idempotent: repeated completions for the same user
// replace the window instead of adding a subscription.
func (s *SubscriptionService) activatePremium(ctx context.Context, userID int64) (*domain.Subscription, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if err := s.users.UpdatePlan(ctx, userID, domain.PlanPremium); err != nil {
		return nil, err
	}
	sub := domain.NewSubscription(userID, domain.PlanPremium, s.now())
	if err := s.subs.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("upsert subscription: %w", err)
	}
	s.log.Info("premium activated", zap.Int64("user_id", userID), zap.Time("end_date", sub.EndDate))
	s.publish(ctx, domain.Event{Type: domain.EventPremiumActivated, UserID: userID})
	return sub, nil
}

func (s *SubscriptionService) publish(ctx context.Context, e domain.Event) {
	if s.events == nil {
		return
	}
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, e.Type, e); err != nil {
		s.log.Warn("publish event failed", zap.String("type", e.Type), zap.Error(err))
	}
}
