package postgres

import (
	"context"
	"database/sql"

	"healthmate/internal/domain"
)

// SubscriptionRepo implements domain.SubscriptionRepository on DB.
type SubscriptionRepo struct {
	db *DB
}

// NewSubscriptionRepo wraps a DB as a SubscriptionRepository.
func NewSubscriptionRepo(db *DB) *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

type execQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertSubscription(ctx context.Context, q execQuerier, s *domain.Subscription) error {
	return q.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, type, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		s.UserID, string(s.Type), s.StartDate, s.EndDate, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
}

// GetByUser returns the user's subscription or (nil, nil).
func (r *SubscriptionRepo) GetByUser(ctx context.Context, userID int64) (*domain.Subscription, error) {
	var (
		s   domain.Subscription
		typ string
	)
	err := r.db.sql.QueryRowContext(ctx,
		`SELECT id, user_id, type, start_date, end_date, created_at, updated_at
		FROM subscriptions WHERE user_id = $1`, userID,
	).Scan(&s.ID, &s.UserID, &typ, &s.StartDate, &s.EndDate, &s.CreatedAt, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.Type = domain.Plan(typ)
	return &s, nil
}

// Create inserts a new subscription.
func (r *SubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	return insertSubscription(ctx, r.db.sql, s)
}

// Upsert creates the user's subscription or replaces its window in place.
// The row keeps its ID and creation time.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.Subscription) error {
	return r.db.sql.QueryRowContext(ctx,
		`INSERT INTO subscriptions (user_id, type, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			type = EXCLUDED.type,
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		s.UserID, string(s.Type), s.StartDate, s.EndDate, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID, &s.CreatedAt)
}

// Update rewrites the window of an existing subscription.
func (r *SubscriptionRepo) Update(ctx context.Context, s *domain.Subscription) error {
	_, err := r.db.sql.ExecContext(ctx,
		`UPDATE subscriptions SET type = $1, start_date = $2, end_date = $3, updated_at = $4
		WHERE id = $5`,
		string(s.Type), s.StartDate, s.EndDate, s.UpdatedAt, s.ID,
	)
	return err
}
