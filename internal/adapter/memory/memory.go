// Package memory implements in-memory adapters for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"healthmate/internal/domain"
)

// ErrDuplicateEmail is returned when creating a user whose email exists.
var ErrDuplicateEmail = domain.ErrDuplicateEmail

// DB implements an in-memory database storage.
type DB struct {
	mu            sync.Mutex
	users         []*domain.User
	subscriptions map[int64]*domain.Subscription // by user id
	conversations []domain.Conversation

	userIDCounter         int64
	subscriptionIDCounter int64
	conversationIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		subscriptions: make(map[int64]*domain.Subscription),
	}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SubscriptionRepository = (*SubscriptionRepo)(nil)
var _ domain.ConversationRepository = (*ConversationRepo)(nil)

// --- UserRepository ---

// GetByEmail retrieves a user by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByID retrieves a user by ID.
func (db *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if u := db.userLocked(id); u != nil {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

// Create stores a user and its first subscription under one lock, so
// neither is visible without the other.
func (db *DB) Create(ctx context.Context, u *domain.User, sub *domain.Subscription) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, existing := range db.users {
		if existing.Email == u.Email {
			return ErrDuplicateEmail
		}
	}

	db.userIDCounter++
	u.ID = db.userIDCounter
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	cp := *u
	db.users = append(db.users, &cp)

	if sub != nil {
		sub.UserID = u.ID
		db.putSubscriptionLocked(sub)
	}
	return nil
}

// List returns every user, oldest first.
func (db *DB) List(ctx context.Context) ([]domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	out := make([]domain.User, 0, len(db.users))
	for _, u := range db.users {
		out = append(out, *u)
	}
	return out, nil
}

// CountByMonth returns signups per UTC calendar month, ascending.
func (db *DB) CountByMonth(ctx context.Context) ([]domain.MonthlyCount, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	counts := map[string]int{}
	for _, u := range db.users {
		counts[u.CreatedAt.UTC().Format("2006-01")]++
	}
	out := make([]domain.MonthlyCount, 0, len(counts))
	for m, c := range counts {
		out = append(out, domain.MonthlyCount{Month: m, Count: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

// UpdatePassword replaces a user's password hash.
func (db *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return db.updateUser(id, func(u *domain.User) { u.PasswordHash = passwordHash })
}

// UpdatePlan sets a user's plan.
func (db *DB) UpdatePlan(ctx context.Context, id int64, plan domain.Plan) error {
	return db.updateUser(id, func(u *domain.User) { u.Plan = plan })
}

// UpdateSettings replaces a user's thresholds and targets.
func (db *DB) UpdateSettings(ctx context.Context, id int64, th domain.Thresholds, tg domain.Targets) error {
	return db.updateUser(id, func(u *domain.User) {
		u.Thresholds = th
		u.Targets = tg
	})
}

func (db *DB) updateUser(id int64, fn func(u *domain.User)) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	u := db.userLocked(id)
	if u == nil {
		return errors.New("user not found")
	}
	fn(u)
	return nil
}

func (db *DB) userLocked(id int64) *domain.User {
	for _, u := range db.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (db *DB) putSubscriptionLocked(sub *domain.Subscription) {
	if existing, ok := db.subscriptions[sub.UserID]; ok {
		sub.ID = existing.ID
		sub.CreatedAt = existing.CreatedAt
	} else {
		db.subscriptionIDCounter++
		sub.ID = db.subscriptionIDCounter
	}
	cp := *sub
	db.subscriptions[sub.UserID] = &cp
}

// --- SubscriptionRepository ---

// SubscriptionRepo implements subscription persistence.
type SubscriptionRepo struct {
	db *DB
}

// NewSubscriptionRepo creates a new subscription repository.
func (db *DB) NewSubscriptionRepo() *SubscriptionRepo {
	return &SubscriptionRepo{db: db}
}

// GetByUser returns the user's subscription.
func (r *SubscriptionRepo) GetByUser(ctx context.Context, userID int64) (*domain.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.subscriptions[userID]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

// Create adds a subscription. A user can only have one.
func (r *SubscriptionRepo) Create(ctx context.Context, s *domain.Subscription) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.subscriptions[s.UserID]; ok {
		return errors.New("subscription already exists")
	}
	r.db.putSubscriptionLocked(s)
	return nil
}

// Upsert creates or replaces the user's subscription.
func (r *SubscriptionRepo) Upsert(ctx context.Context, s *domain.Subscription) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.putSubscriptionLocked(s)
	return nil
}

// Update replaces an existing subscription.
func (r *SubscriptionRepo) Update(ctx context.Context, s *domain.Subscription) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.subscriptions[s.UserID]; !ok {
		return errors.New("subscription not found")
	}
	r.db.putSubscriptionLocked(s)
	return nil
}

// --- ConversationRepository ---

// ConversationRepo implements conversation persistence.
type ConversationRepo struct {
	db *DB
}

// NewConversationRepo creates a new conversation repository.
func (db *DB) NewConversationRepo() *ConversationRepo {
	return &ConversationRepo{db: db}
}

// Create stores a conversation.
func (r *ConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.conversationIDCounter++
	c.ID = r.db.conversationIDCounter
	cp := *c
	cp.Contents = append([]domain.Message(nil), c.Contents...)
	r.db.conversations = append(r.db.conversations, cp)
	return nil
}

// ListByUser returns the user's conversations, newest first.
func (r *ConversationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var out []domain.Conversation
	for _, c := range r.db.conversations {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// GetByID retrieves a conversation.
func (r *ConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, c := range r.db.conversations {
		if c.ID == id {
			cp := c
			return &cp, nil
		}
	}
	return nil, nil
}

// Delete removes a conversation.
func (r *ConversationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for i, c := range r.db.conversations {
		if c.ID == id {
			r.db.conversations = append(r.db.conversations[:i], r.db.conversations[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
