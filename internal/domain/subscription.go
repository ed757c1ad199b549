package domain

import (
	"context"
	"time"
)

// SubscriptionPeriodMonths is the length of every subscription window.
const SubscriptionPeriodMonths = 1

// Subscription is a user's billing window. There is at most one per user.
type Subscription struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Type      Plan      `json:"type"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewSubscription returns a one-period subscription of the given plan
// starting at now.
func NewSubscription(userID int64, plan Plan, now time.Time) *Subscription {
	return &Subscription{
		UserID:    userID,
		Type:      plan,
		StartDate: now,
		EndDate:   now.AddDate(0, SubscriptionPeriodMonths, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Active reports whether the window has not yet elapsed at now.
func (s *Subscription) Active(now time.Time) bool {
	return s.EndDate.After(now)
}

// SubscriptionRepository is the persistence port for subscriptions.
// GetByUser returns (nil, nil) when the user has none.
type SubscriptionRepository interface {
	GetByUser(ctx context.Context, userID int64) (*Subscription, error)
	Create(ctx context.Context, s *Subscription) error
	// Upsert creates or replaces the user's subscription.
	Upsert(ctx context.Context, s *Subscription) error
	Update(ctx context.Context, s *Subscription) error
}
