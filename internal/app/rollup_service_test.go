package app_test

import (
	"context"
	"errors"
	"testing"

	"healthmate/internal/app"
	"healthmate/internal/domain"
)

func newRollup(users *mockUserRepo, steps *mockMetricRepo[domain.StepRecord], hr *mockMetricRepo[domain.HeartRateRecord]) *app.RollupService {
	return app.NewRollupService(users,
		app.NewMetricService(domain.Steps, steps, users, nil, nil),
		app.NewMetricService(domain.Sleep, &mockMetricRepo[domain.SleepRecord]{}, users, nil, nil),
		app.NewMetricService(domain.HeartRate, hr, users, nil, nil),
		app.NewMetricService(domain.SpO2, &mockMetricRepo[domain.SpO2Record]{}, users, nil, nil),
		app.NewMetricService(domain.BloodPressure, &mockMetricRepo[domain.BloodPressureRecord]{}, users, nil, nil),
	)
}

func TestRollup_FallbackTargets(t *testing.T) {
	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) { return &domain.User{ID: id}, nil },
	}
	steps := &mockMetricRepo[domain.StepRecord]{
		listFn: func(_ context.Context, _ int64, day string) ([]domain.StepRecord, error) {
			return []domain.StepRecord{
				{Entry: domain.Entry{Day: day}, Steps: 3000, DistanceKm: 2, CaloriesBurned: 100},
				{Entry: domain.Entry{Day: day}, Steps: 1000, DistanceKm: 1, CaloriesBurned: 50},
			}, nil
		},
	}
	hr := &mockMetricRepo[domain.HeartRateRecord]{
		listFn: func(_ context.Context, _ int64, day string) ([]domain.HeartRateRecord, error) {
			return []domain.HeartRateRecord{
				{HeartRate: 70, TimeInZone: map[string]int{"0-80": 30}},
				{HeartRate: 90, TimeInZone: map[string]int{"80-100": 30}},
			}, nil
		},
	}
	r, err := newRollup(users, steps, hr).ForDay(context.Background(), 1, "2025-10-20")
	if err != nil {
		t.Fatalf("ForDay: %v", err)
	}
	if r.Steps["totalSteps"] != float64(4000) || r.Steps["totalDistance"] != float64(3) {
		t.Errorf("steps = %v", r.Steps)
	}
	if r.Steps["targetSteps"] != 10000 || r.Steps["targetCalories"] != 300.0 || r.Steps["targetDistance"] != 5.0 {
		t.Errorf("targets = %v", r.Steps)
	}
	if r.HeartRate["averageHeartRate"] != float64(80) {
		t.Errorf("heartRate = %v", r.HeartRate)
	}
	zones := r.HeartRate["timeInZone"].(map[string]int)
	if zones["0-80"] != 30 || zones["80-100"] != 30 || zones["110+"] != 0 {
		t.Errorf("timeInZone = %v", zones)
	}
	if len(r.Sleep) != 0 || len(r.SpO2) != 0 || len(r.BloodPressure) != 0 {
		t.Errorf("expected empty objects for unlogged metrics, got %v %v %v", r.Sleep, r.SpO2, r.BloodPressure)
	}
}

func TestRollup_UserTargets(t *testing.T) {
	users := &mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			return &domain.User{ID: id, Targets: domain.Targets{StepTarget: 8000, CalorieTarget: 250, DistanceTarget: 4}}, nil
		},
	}
	r, err := newRollup(users, &mockMetricRepo[domain.StepRecord]{}, &mockMetricRepo[domain.HeartRateRecord]{}).
		ForDay(context.Background(), 1, "2025-10-20")
	if err != nil {
		t.Fatalf("ForDay: %v", err)
	}
	if r.Steps["targetSteps"] != 8000 || r.Steps["targetCalories"] != 250.0 || r.Steps["targetDistance"] != 4.0 {
		t.Errorf("targets = %v", r.Steps)
	}
	if r.Steps["totalSteps"] != float64(0) {
		t.Errorf("totalSteps = %v; want 0", r.Steps["totalSteps"])
	}
}

func TestRollup_UserMissing(t *testing.T) {
	_, err := newRollup(&mockUserRepo{}, &mockMetricRepo[domain.StepRecord]{}, &mockMetricRepo[domain.HeartRateRecord]{}).
		ForDay(context.Background(), 1, "2025-10-20")
	if !errors.Is(err, app.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
