package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// DB wraps a *sql.DB and implements domain repository interfaces.
type DB struct {
	sql *sql.DB
}

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(connStr string) (*DB, error) {
	s, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}
	s.SetMaxOpenConns(10)
	s.SetMaxIdleConns(5)
	s.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.PingContext(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}

	d := &DB{sql: s}
	if err := d.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error {
	return d.sql.PingContext(ctx)
}

// Migrate creates the schema. Every statement is idempotent.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user' CHECK(role IN ('admin','user')),
			plan TEXT CHECK(plan IN ('Free','Premium')),
			profile_image TEXT NOT NULL DEFAULT '',
			language TEXT NOT NULL DEFAULT '',
			birthday DATE,
			height DOUBLE PRECISION,
			gender TEXT NOT NULL DEFAULT '',
			weight DOUBLE PRECISION,
			phone_number TEXT NOT NULL DEFAULT '',
			restful_threshold DOUBLE PRECISION NOT NULL DEFAULT 3,
			light_threshold DOUBLE PRECISION NOT NULL DEFAULT 2,
			awake_threshold DOUBLE PRECISION NOT NULL DEFAULT 2,
			spo2_threshold DOUBLE PRECISION NOT NULL DEFAULT 95,
			systolic_threshold INTEGER NOT NULL DEFAULT 120,
			diastolic_threshold INTEGER NOT NULL DEFAULT 80,
			daily_goal INTEGER NOT NULL DEFAULT 0,
			step_target INTEGER NOT NULL DEFAULT 0,
			calorie_target DOUBLE PRECISION NOT NULL DEFAULT 0,
			distance_target DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			type TEXT NOT NULL CHECK(type IN ('Free','Premium')),
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS conversations (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			contents JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL
		);`,
		"CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations(user_id);",
		`CREATE TABLE IF NOT EXISTS step_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			steps INTEGER NOT NULL CHECK(steps >= 0),
			distance_km DOUBLE PRECISION NOT NULL CHECK(distance_km >= 0),
			calories_burned DOUBLE PRECISION NOT NULL CHECK(calories_burned >= 0),
			hourly_steps JSONB NOT NULL DEFAULT '{}',
			minutes_walked DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS sleep_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			total_sleep_hours DOUBLE PRECISION NOT NULL,
			restful_sleep_hours DOUBLE PRECISION NOT NULL,
			light_sleep_hours DOUBLE PRECISION NOT NULL,
			awake_hours DOUBLE PRECISION NOT NULL,
			total_sleep_minutes DOUBLE PRECISION NOT NULL,
			restful_sleep_minutes DOUBLE PRECISION NOT NULL,
			light_sleep_minutes DOUBLE PRECISION NOT NULL,
			awake_minutes DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS heart_rate_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			heart_rate INTEGER NOT NULL CHECK(heart_rate > 0),
			time_in_zone JSONB NOT NULL DEFAULT '{}',
			hourly_heart_rates JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS spo2_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			spo2 DOUBLE PRECISION NOT NULL CHECK(spo2 >= 0 AND spo2 <= 100),
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS blood_pressure_records (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			day DATE NOT NULL,
			systolic INTEGER NOT NULL CHECK(systolic > 0),
			diastolic INTEGER NOT NULL CHECK(diastolic > 0),
			time_in_zone JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL
		);`,
	}
	for _, table := range []string{"step_records", "sleep_records", "heart_rate_records", "spo2_records", "blood_pressure_records"} {
		stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_user_day ON %s(user_id, day);", table, table))
	}

	for _, stmt := range stmts {
		if _, err := d.sql.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
