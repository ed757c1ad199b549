//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"healthmate/internal/domain"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("healthmate"),
		tcpostgres.WithUsername("healthmate"),
		tcpostgres.WithPassword("healthmate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	db, err := Open(dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newUser(email string, created time.Time) *domain.User {
	return &domain.User{
		Email:        email,
		PasswordHash: "hash",
		Name:         "Test",
		Role:         domain.RoleUser,
		Plan:         domain.PlanFree,
		Thresholds:   domain.DefaultThresholds(),
		CreatedAt:    created,
	}
}

func TestUsersAndSubscriptions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC)

	u := newUser("a@b.co", now)
	h := 180.0
	u.Height = &h
	sub := domain.NewSubscription(0, domain.PlanFree, now)
	if err := db.Create(ctx, u, sub); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.ID == 0 || sub.ID == 0 || sub.UserID != u.ID {
		t.Fatalf("ids not assigned: user %d sub %+v", u.ID, sub)
	}
	if err := db.Create(ctx, newUser("a@b.co", now), nil); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("duplicate email: got %v", err)
	}

	got, err := db.GetByEmail(ctx, "a@b.co")
	if err != nil || got == nil {
		t.Fatalf("GetByEmail: %v %v", got, err)
	}
	if got.Height == nil || *got.Height != 180 || got.Weight != nil {
		t.Errorf("profile round trip: height %v weight %v", got.Height, got.Weight)
	}
	if got.Thresholds.SpO2 != 95 || got.Plan != domain.PlanFree {
		t.Errorf("got %+v", got)
	}
	if missing, err := db.GetByID(ctx, 9999); err != nil || missing != nil {
		t.Errorf("missing user: %v %v", missing, err)
	}

	subs := NewSubscriptionRepo(db)
	premium := domain.NewSubscription(u.ID, domain.PlanPremium, now.AddDate(0, 0, 3))
	if err := subs.Upsert(ctx, premium); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if premium.ID != sub.ID {
		t.Errorf("upsert changed id: %d != %d", premium.ID, sub.ID)
	}
	stored, err := subs.GetByUser(ctx, u.ID)
	if err != nil || stored == nil || stored.Type != domain.PlanPremium {
		t.Fatalf("GetByUser: %+v %v", stored, err)
	}

	if err := db.Create(ctx, newUser("c@d.co", now.AddDate(0, -1, 0)), nil); err != nil {
		t.Fatal(err)
	}
	months, err := db.CountByMonth(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(months) != 2 || months[0].Month != "2025-09" || months[1].Count != 1 {
		t.Errorf("CountByMonth = %+v", months)
	}
}

func TestMetricStore(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2025, 10, 20, 9, 0, 0, 0, time.UTC)
	u := newUser("m@b.co", now)
	if err := db.Create(ctx, u, nil); err != nil {
		t.Fatal(err)
	}

	store := NewMetricStore(db, domain.Steps, StepsTable)
	for i, n := range []int{1000, 3000} {
		r := &domain.StepRecord{Steps: n, DistanceKm: 1, HourlySteps: map[int]int{8: n}}
		r.UserID = u.ID
		r.Day = "2025-10-20" // Monday
		r.CreatedAt = now.Add(time.Duration(i) * time.Minute)
		if _, err := store.AddRecord(ctx, r); err != nil {
			t.Fatalf("AddRecord: %v", err)
		}
	}

	latest, err := store.LatestForDay(ctx, u.ID, "2025-10-20")
	if err != nil || latest == nil {
		t.Fatalf("LatestForDay: %v %v", latest, err)
	}
	if latest.Steps != 3000 || latest.HourlySteps[8] != 3000 || latest.Day != "2025-10-20" {
		t.Errorf("latest = %+v", latest)
	}
	all, err := store.ListForDay(ctx, u.ID, "2025-10-20")
	if err != nil || len(all) != 2 {
		t.Fatalf("ListForDay: %d %v", len(all), err)
	}

	totals, err := store.WeekdayTotals(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(totals) != 1 || totals[0].DayOfWeek != 2 || totals[0].Values["totalSteps"] != 4000 {
		t.Errorf("WeekdayTotals = %+v", totals)
	}

	bp := NewMetricStore(db, domain.BloodPressure, BloodPressureTable)
	r := &domain.BloodPressureRecord{Systolic: 130, Diastolic: 85, TimeInZone: map[string]int{domain.ZoneBPHigh: 1}}
	r.UserID = u.ID
	r.Day = "2025-10-20"
	r.CreatedAt = now
	if _, err := bp.AddRecord(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, err := bp.LatestForDay(ctx, u.ID, "2025-10-20")
	if err != nil || got == nil || got.TimeInZone[domain.ZoneBPHigh] != 1 {
		t.Errorf("blood pressure round trip: %+v %v", got, err)
	}
}
