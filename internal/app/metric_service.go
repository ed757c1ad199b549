package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"healthmate/internal/domain"

	"go.uber.org/zap"
)

// MetricService encapsulates the logging use cases shared by every metric kind.
type MetricService[R any] struct {
	kind   domain.Kind[R]
	repo   domain.MetricRepository[R]
	users  domain.UserRepository
	events domain.EventPublisher
	log    *zap.Logger
	now    func() time.Time
}

// NewMetricService creates a MetricService for kind backed by repo.
func NewMetricService[R any](
	kind domain.Kind[R],
	repo domain.MetricRepository[R],
	users domain.UserRepository,
	events domain.EventPublisher,
	log *zap.Logger,
) *MetricService[R] {
	if log == nil {
		log = zap.NewNop()
	}
	return &MetricService[R]{
		kind:   kind,
		repo:   repo,
		users:  users,
		events: events,
		log:    log.With(zap.String("metric", kind.Name)),
		now:    time.Now,
	}
}

// Kind returns the metric kind served.
func (s *MetricService[R]) Kind() domain.Kind[R] { return s.kind }

// Record validates r, derives its computed fields and stores it for userID.
func (s *MetricService[R]) Record(ctx context.Context, userID int64, r *R) error {
	e := s.kind.Entry(r)
	e.UserID = userID
	if err := s.kind.Prepare(r); err != nil {
		return invalid("%v", err)
	}
	e.CreatedAt = s.now().UTC()

	id, err := s.repo.AddRecord(ctx, r)
	if err != nil {
		return fmt.Errorf("add %s record: %w", s.kind.Name, err)
	}
	e.ID = id

	s.publish(ctx, domain.EventMetricRecorded, domain.Event{
		Type:   domain.EventMetricRecorded,
		UserID: userID,
		Kind:   s.kind.Name,
		Day:    e.Day,
	})
	return nil
}

// ForDay returns the latest record of the calendar day containing date.
func (s *MetricService[R]) ForDay(ctx context.Context, userID int64, date string) (*R, error) {
	day, err := domain.ParseDay(date)
	if err != nil {
		return nil, invalid("%v", err)
	}
	r, err := s.repo.LatestForDay(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRecordNotFound
	}
	return r, nil
}

// Check compares the day's record against the user's thresholds. A result
// outside the healthy range is published as an alert.
func (s *MetricService[R]) Check(ctx context.Context, userID int64, date string) (domain.Assessment, error) {
	if s.kind.Check == nil {
		return domain.Assessment{}, invalid("%s has no threshold check", s.kind.Name)
	}
	r, err := s.ForDay(ctx, userID, date)
	if err != nil {
		return domain.Assessment{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.Assessment{}, err
	}
	if u == nil {
		return domain.Assessment{}, ErrUserNotFound
	}

	a := s.kind.Check(r, u)
	if !a.Within {
		s.publish(ctx, domain.EventHealthAlert, domain.Event{
			Type:    domain.EventHealthAlert,
			UserID:  userID,
			Kind:    s.kind.Name,
			Day:     s.kind.Entry(r).Day,
			Message: a.Message(),
		})
	}
	return a, nil
}

// Weekly returns the user's aggregates by day of week, Saturday first.
func (s *MetricService[R]) Weekly(ctx context.Context, userID int64) ([]domain.WeeklySlot, error) {
	totals, err := s.repo.WeekdayTotals(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.ProjectWeek(totals, s.kind.Weekly), nil
}

// Daily folds every record of the calendar day into the kind's daily
// aggregates. It returns the records too so callers can fold non-numeric
// fields. Both are empty when nothing was logged.
func (s *MetricService[R]) Daily(ctx context.Context, userID int64, day string) (map[string]float64, []R, error) {
	records, err := s.repo.ListForDay(ctx, userID, day)
	if err != nil {
		return nil, nil, err
	}
	values := make([]map[string]float64, 0, len(records))
	for i := range records {
		values = append(values, s.kind.Values(&records[i]))
	}
	return domain.Fold(values, s.kind.Daily), records, nil
}

func (s *MetricService[R]) publish(ctx context.Context, key string, e domain.Event) {
	if s.events == nil {
		return
	}
	e.At = s.now().UTC()
	if err := s.events.Publish(ctx, key, e); err != nil && !errors.Is(err, context.Canceled) {
		s.log.Warn("publish event failed", zap.String("type", e.Type), zap.Error(err))
	}
}
