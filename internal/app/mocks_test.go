package app_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"healthmate/internal/domain"
)

// ---------------------------------------------------------------------------
// Mock repositories (function-fields pattern)
// ---------------------------------------------------------------------------

type mockUserRepo struct {
	getByEmailFn     func(ctx context.Context, email string) (*domain.User, error)
	getByIDFn        func(ctx context.Context, id int64) (*domain.User, error)
	createFn         func(ctx context.Context, u *domain.User, sub *domain.Subscription) error
	listFn           func(ctx context.Context) ([]domain.User, error)
	countByMonthFn   func(ctx context.Context) ([]domain.MonthlyCount, error)
	updatePasswordFn func(ctx context.Context, id int64, hash string) error
	updatePlanFn     func(ctx context.Context, id int64, plan domain.Plan) error
	updateSettingsFn func(ctx context.Context, id int64, th domain.Thresholds, tg domain.Targets) error
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, u *domain.User, sub *domain.Subscription) error {
	if m.createFn != nil {
		return m.createFn(ctx, u, sub)
	}
	u.ID = 1
	sub.UserID = 1
	return nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) CountByMonth(ctx context.Context) ([]domain.MonthlyCount, error) {
	if m.countByMonthFn != nil {
		return m.countByMonthFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, hash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

func (m *mockUserRepo) UpdatePlan(ctx context.Context, id int64, plan domain.Plan) error {
	if m.updatePlanFn != nil {
		return m.updatePlanFn(ctx, id, plan)
	}
	return nil
}

func (m *mockUserRepo) UpdateSettings(ctx context.Context, id int64, th domain.Thresholds, tg domain.Targets) error {
	if m.updateSettingsFn != nil {
		return m.updateSettingsFn(ctx, id, th, tg)
	}
	return nil
}

type mockSubRepo struct {
	getByUserFn func(ctx context.Context, userID int64) (*domain.Subscription, error)
	createFn    func(ctx context.Context, s *domain.Subscription) error
	upsertFn    func(ctx context.Context, s *domain.Subscription) error
	updateFn    func(ctx context.Context, s *domain.Subscription) error
}

func (m *mockSubRepo) GetByUser(ctx context.Context, userID int64) (*domain.Subscription, error) {
	if m.getByUserFn != nil {
		return m.getByUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockSubRepo) Create(ctx context.Context, s *domain.Subscription) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	return nil
}

func (m *mockSubRepo) Upsert(ctx context.Context, s *domain.Subscription) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, s)
	}
	return nil
}

func (m *mockSubRepo) Update(ctx context.Context, s *domain.Subscription) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, s)
	}
	return nil
}

type mockMetricRepo[R any] struct {
	addFn    func(ctx context.Context, r *R) (int64, error)
	latestFn func(ctx context.Context, userID int64, day string) (*R, error)
	listFn   func(ctx context.Context, userID int64, day string) ([]R, error)
	weekFn   func(ctx context.Context, userID int64) ([]domain.WeekdayAggregate, error)
}

func (m *mockMetricRepo[R]) AddRecord(ctx context.Context, r *R) (int64, error) {
	if m.addFn != nil {
		return m.addFn(ctx, r)
	}
	return 1, nil
}

func (m *mockMetricRepo[R]) LatestForDay(ctx context.Context, userID int64, day string) (*R, error) {
	if m.latestFn != nil {
		return m.latestFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockMetricRepo[R]) ListForDay(ctx context.Context, userID int64, day string) ([]R, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, day)
	}
	return nil, nil
}

func (m *mockMetricRepo[R]) WeekdayTotals(ctx context.Context, userID int64) ([]domain.WeekdayAggregate, error) {
	if m.weekFn != nil {
		return m.weekFn(ctx, userID)
	}
	return nil, nil
}

type mockConversationRepo struct {
	createFn func(ctx context.Context, c *domain.Conversation) error
	listFn   func(ctx context.Context, userID int64) ([]domain.Conversation, error)
	getFn    func(ctx context.Context, id int64) (*domain.Conversation, error)
	deleteFn func(ctx context.Context, id int64) (bool, error)
}

func (m *mockConversationRepo) Create(ctx context.Context, c *domain.Conversation) error {
	if m.createFn != nil {
		return m.createFn(ctx, c)
	}
	c.ID = 1
	return nil
}

func (m *mockConversationRepo) ListByUser(ctx context.Context, userID int64) ([]domain.Conversation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id int64) (*domain.Conversation, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, nil
}

func (m *mockConversationRepo) Delete(ctx context.Context, id int64) (bool, error) {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Mock ports
// ---------------------------------------------------------------------------

// mapStore is a KeyValueStore without expiry.
type mapStore struct {
	mu sync.Mutex
	m  map[string]string
}

func newMapStore() *mapStore { return &mapStore{m: map[string]string{}} }

func (s *mapStore) Put(_ context.Context, key, value string, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}

func (s *mapStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *mapStore) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, _ := strconv.ParseInt(s.m[key], 10, 64)
	n++
	s.m[key] = strconv.FormatInt(n, 10)
	return n, nil
}

type mockMailer struct {
	sendFn func(ctx context.Context, m domain.MailMessage) error
	sent   []domain.MailMessage
}

func (m *mockMailer) Send(ctx context.Context, msg domain.MailMessage) error {
	if m.sendFn != nil {
		return m.sendFn(ctx, msg)
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockVerifier struct {
	verifyFn func(ctx context.Context, provider, raw string) (*domain.Identity, error)
}

func (m *mockVerifier) Verify(ctx context.Context, provider, raw string) (*domain.Identity, error) {
	if m.verifyFn != nil {
		return m.verifyFn(ctx, provider, raw)
	}
	return nil, errors.New("not verified")
}

type mockPayments struct {
	createFn  func(ctx context.Context, userID int64) (*domain.CheckoutSession, error)
	statusFn  func(ctx context.Context, sessionID string) (int64, bool, error)
	webhookFn func(payload []byte, sig string) (*domain.PaymentEvent, error)
}

func (m *mockPayments) CreateCheckoutSession(ctx context.Context, userID int64) (*domain.CheckoutSession, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID)
	}
	return &domain.CheckoutSession{ID: "cs_test", URL: "https://pay.example/cs_test"}, nil
}

func (m *mockPayments) SessionStatus(ctx context.Context, sessionID string) (int64, bool, error) {
	if m.statusFn != nil {
		return m.statusFn(ctx, sessionID)
	}
	return 0, false, nil
}

func (m *mockPayments) ParseWebhook(payload []byte, sig string) (*domain.PaymentEvent, error) {
	if m.webhookFn != nil {
		return m.webhookFn(payload, sig)
	}
	return nil, errors.New("bad signature")
}

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *eventRecorder) Publish(_ context.Context, _ string, e domain.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *eventRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
