// Package postgres implements the domain repositories using PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthmate/internal/domain"

	"github.com/lib/pq"
)

// ErrDuplicateEmail is returned by Create when the email is already registered.
var ErrDuplicateEmail = domain.ErrDuplicateEmail

const userColumns = `id, email, password_hash, name, role, plan, profile_image, language,
	birthday, height, gender, weight, phone_number,
	restful_threshold, light_threshold, awake_threshold, spo2_threshold,
	systolic_threshold, diastolic_threshold,
	daily_goal, step_target, calorie_target, distance_target, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var (
		u        domain.User
		role     string
		plan     sql.NullString
		birthday sql.NullTime
		height   sql.NullFloat64
		weight   sql.NullFloat64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &plan,
		&u.ProfileImage, &u.Language, &birthday, &height, &u.Gender, &weight, &u.PhoneNumber,
		&u.Restful, &u.Light, &u.Awake, &u.Thresholds.SpO2, &u.Systolic, &u.Diastolic,
		&u.DailyGoal, &u.StepTarget, &u.CalorieTarget, &u.DistanceTarget, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = domain.Role(role)
	u.Plan = domain.Plan(plan.String)
	if birthday.Valid {
		b := birthday.Time
		u.Birthday = &b
	}
	if height.Valid {
		h := height.Float64
		u.Height = &h
	}
	if weight.Valid {
		w := weight.Float64
		u.Weight = &w
	}
	return &u, nil
}

func (d *DB) getUser(ctx context.Context, where string, arg any) (*domain.User, error) {
	u, err := scanUser(d.sql.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail retrieves a user by email.
func (d *DB) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return d.getUser(ctx, "email = $1", email)
}

// GetByID retrieves a user by ID.
func (d *DB) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return d.getUser(ctx, "id = $1", id)
}

// Create inserts the user and its initial subscription in one transaction.
func (d *DB) Create(ctx context.Context, u *domain.User, sub *domain.Subscription) error {
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var plan sql.NullString
	if u.Plan != "" {
		plan = sql.NullString{String: string(u.Plan), Valid: true}
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, name, role, plan, profile_image, language,
			birthday, height, gender, weight, phone_number,
			restful_threshold, light_threshold, awake_threshold, spo2_threshold,
			systolic_threshold, diastolic_threshold,
			daily_goal, step_target, calorie_target, distance_target, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id`,
		u.Email, u.PasswordHash, u.Name, string(u.Role), plan, u.ProfileImage, u.Language,
		u.Birthday, u.Height, u.Gender, u.Weight, u.PhoneNumber,
		u.Restful, u.Light, u.Awake, u.Thresholds.SpO2, u.Systolic, u.Diastolic,
		u.DailyGoal, u.StepTarget, u.CalorieTarget, u.DistanceTarget, u.CreatedAt,
	).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if sub != nil {
		sub.UserID = u.ID
		if err := insertSubscription(ctx, tx, sub); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns every user, oldest first.
func (d *DB) List(ctx context.Context) ([]domain.User, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// CountByMonth groups user creation by calendar month, ascending.
func (d *DB) CountByMonth(ctx context.Context) ([]domain.MonthlyCount, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM') AS month, COUNT(*)
		FROM users GROUP BY month ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.MonthlyCount
	for rows.Next() {
		var m domain.MonthlyCount
		if err := rows.Scan(&m.Month, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdatePassword replaces the stored password hash.
func (d *DB) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	_, err := d.sql.ExecContext(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, id)
	return err
}

// UpdatePlan sets the user's plan.
func (d *DB) UpdatePlan(ctx context.Context, id int64, plan domain.Plan) error {
	_, err := d.sql.ExecContext(ctx, "UPDATE users SET plan = $1 WHERE id = $2", string(plan), id)
	return err
}

// UpdateSettings replaces the user's thresholds and targets.
func (d *DB) UpdateSettings(ctx context.Context, id int64, th domain.Thresholds, tg domain.Targets) error {
	_, err := d.sql.ExecContext(ctx,
		`UPDATE users SET restful_threshold = $1, light_threshold = $2, awake_threshold = $3,
			spo2_threshold = $4, systolic_threshold = $5, diastolic_threshold = $6,
			daily_goal = $7, step_target = $8, calorie_target = $9, distance_target = $10
		WHERE id = $11`,
		th.Restful, th.Light, th.Awake, th.SpO2, th.Systolic, th.Diastolic,
		tg.DailyGoal, tg.StepTarget, tg.CalorieTarget, tg.DistanceTarget, id,
	)
	return err
}
