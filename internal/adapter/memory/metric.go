package memory

import (
	"context"
	"maps"
	"sort"
	"sync"

	"healthmate/internal/domain"
)

// MetricStore keeps the records of one metric kind.
type MetricStore[R any] struct {
	kind domain.Kind[R]

	mu        sync.Mutex
	records   []R
	idCounter int64
}

// NewMetricStore creates an empty store for kind.
func NewMetricStore[R any](kind domain.Kind[R]) *MetricStore[R] {
	return &MetricStore[R]{kind: kind}
}

// AddRecord stores a record and returns its ID.
func (s *MetricStore[R]) AddRecord(ctx context.Context, r *R) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.idCounter++
	s.kind.Entry(r).ID = s.idCounter
	s.records = append(s.records, cloneRecord(*r))
	return s.idCounter, nil
}

// LatestForDay returns the most recently created record of the day.
func (s *MetricStore[R]) LatestForDay(ctx context.Context, userID int64, day string) (*R, error) {
	recs, _ := s.ListForDay(ctx, userID, day)
	if len(recs) == 0 {
		return nil, nil
	}
	latest := recs[len(recs)-1]
	return &latest, nil
}

// ListForDay returns the day's records in creation order.
func (s *MetricStore[R]) ListForDay(ctx context.Context, userID int64, day string) ([]R, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []R
	for i := range s.records {
		e := s.kind.Entry(&s.records[i])
		if e.UserID == userID && e.Day == day {
			out = append(out, cloneRecord(s.records[i]))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := s.kind.Entry(&out[i]), s.kind.Entry(&out[j])
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

// WeekdayTotals folds all of the user's records by day of week.
func (s *MetricStore[R]) WeekdayTotals(ctx context.Context, userID int64) ([]domain.WeekdayAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var days []string
	var values []map[string]float64
	for i := range s.records {
		e := s.kind.Entry(&s.records[i])
		if e.UserID != userID {
			continue
		}
		days = append(days, e.Day)
		values = append(values, s.kind.Values(&s.records[i]))
	}
	return domain.FoldByWeekday(days, values, s.kind.Weekly), nil
}

// cloneRecord copies the map fields of r so stored records share no state
// with callers.
func cloneRecord[R any](r R) R {
	switch v := any(&r).(type) {
	case *domain.StepRecord:
		v.HourlySteps = maps.Clone(v.HourlySteps)
	case *domain.HeartRateRecord:
		v.TimeInZone = maps.Clone(v.TimeInZone)
		v.HourlyHeartRates = maps.Clone(v.HourlyHeartRates)
	case *domain.BloodPressureRecord:
		v.TimeInZone = maps.Clone(v.TimeInZone)
	}
	return r
}
