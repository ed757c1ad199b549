package main

import (
	"context"
	"fmt"
	"time"

	"healthmate/internal/adapter/badger"
	"healthmate/internal/adapter/memory"
	"healthmate/internal/adapter/redis"
	"healthmate/internal/config"
	"healthmate/internal/domain"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	redisKeyPrefix = "healthmate:"
	sweepInterval  = time.Minute
)

// provideTokenStore opens the store holding OTPs, reset windows and
// refresh tokens.
func provideTokenStore(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (domain.KeyValueStore, error) {
	switch cfg.Store.Backend {
	case config.StoreBadger:
		s, err := badger.Open(cfg.Store.BadgerDir)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		logger.Info("token store ready", zap.String("backend", "badger"), zap.String("dir", cfg.Store.BadgerDir))
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return s.Close() }})
		return s, nil

	case config.StoreRedis:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s, err := redis.Open(ctx, cfg.Store.RedisURL, redisKeyPrefix)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		logger.Info("token store ready", zap.String("backend", "redis"))
		lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return s.Close() }})
		return s, nil

	default:
		kv := memory.NewKV()
		done := make(chan struct{})
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go sweep(kv, done, logger)
				return nil
			},
			OnStop: func(ctx context.Context) error {
				close(done)
				return nil
			},
		})
		logger.Info("token store ready", zap.String("backend", "memory"))
		return kv, nil
	}
}

func sweep(kv *memory.KV, done <-chan struct{}, logger *zap.Logger) {
	t := time.NewTicker(sweepInterval)
	defer t.Stop()
	for {
		select {
		case <-done:
			return
		case <-t.C:
			if n := kv.Sweep(); n > 0 {
				logger.Debug("expired tokens swept", zap.Int("count", n))
			}
		}
	}
}
