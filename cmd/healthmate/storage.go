package main

import (
	"fmt"

	"healthmate/internal/adapter/memory"
	"healthmate/internal/adapter/postgres"
	"healthmate/internal/config"
	"healthmate/internal/domain"

	"go.uber.org/zap"
)

// storage bundles every repository the services need.
type storage struct {
	users         domain.UserRepository
	subs          domain.SubscriptionRepository
	conversations domain.ConversationRepository
	steps         domain.MetricRepository[domain.StepRecord]
	sleep         domain.MetricRepository[domain.SleepRecord]
	heartRate     domain.MetricRepository[domain.HeartRateRecord]
	spo2          domain.MetricRepository[domain.SpO2Record]
	bloodPressure domain.MetricRepository[domain.BloodPressureRecord]
	close         func() error
}

// openStorage uses PostgreSQL when DATABASE_URL is set and falls back to
// process memory otherwise.
func openStorage(cfg *config.Config, logger *zap.Logger) (*storage, error) {
	if cfg.Database.URL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		db := memory.New()
		return &storage{
			users:         db,
			subs:          db.NewSubscriptionRepo(),
			conversations: db.NewConversationRepo(),
			steps:         memory.NewMetricStore(domain.Steps),
			sleep:         memory.NewMetricStore(domain.Sleep),
			heartRate:     memory.NewMetricStore(domain.HeartRate),
			spo2:          memory.NewMetricStore(domain.SpO2),
			bloodPressure: memory.NewMetricStore(domain.BloodPressure),
			close:         func() error { return nil },
		}, nil
	}

	db, err := postgres.Open(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	logger.Info("connected to postgres")
	return &storage{
		users:         db,
		subs:          postgres.NewSubscriptionRepo(db),
		conversations: postgres.NewConversationRepo(db),
		steps:         postgres.NewMetricStore(db, domain.Steps, postgres.StepsTable),
		sleep:         postgres.NewMetricStore(db, domain.Sleep, postgres.SleepTable),
		heartRate:     postgres.NewMetricStore(db, domain.HeartRate, postgres.HeartRateTable),
		spo2:          postgres.NewMetricStore(db, domain.SpO2, postgres.SpO2Table),
		bloodPressure: postgres.NewMetricStore(db, domain.BloodPressure, postgres.BloodPressureTable),
		close:         db.Close,
	}, nil
}
