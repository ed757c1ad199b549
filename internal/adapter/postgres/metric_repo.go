package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"healthmate/internal/domain"
)

// Table maps a metric record onto its PostgreSQL table. Columns excludes
// the shared id, user_id, day and created_at columns.
type Table[R any] struct {
	Name    string
	Columns []string
	// Args returns the values for Columns, in order.
	Args func(r *R) []any
	// Dest returns scan destinations for Columns, in order.
	Dest func(r *R) []any
}

// MetricStore implements domain.MetricRepository[R] over one table.
type MetricStore[R any] struct {
	db    *DB
	kind  domain.Kind[R]
	table Table[R]
}

// NewMetricStore returns the store for kind backed by table.
func NewMetricStore[R any](db *DB, kind domain.Kind[R], table Table[R]) *MetricStore[R] {
	return &MetricStore[R]{db: db, kind: kind, table: table}
}

// AddRecord inserts r and returns its ID.
func (s *MetricStore[R]) AddRecord(ctx context.Context, r *R) (int64, error) {
	e := s.kind.Entry(r)
	cols := append([]string{"user_id", "day", "created_at"}, s.table.Columns...)
	args := append([]any{e.UserID, e.Day, e.CreatedAt}, s.table.Args(r)...)
	marks := make([]string, len(cols))
	for i := range marks {
		marks[i] = fmt.Sprintf("$%d", i+1)
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		s.table.Name, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if err := s.db.sql.QueryRowContext(ctx, q, args...).Scan(&e.ID); err != nil {
		return 0, err
	}
	return e.ID, nil
}

func (s *MetricStore[R]) selectColumns() string {
	cols := append([]string{"id", "user_id", "to_char(day, 'YYYY-MM-DD')", "created_at"}, s.table.Columns...)
	return strings.Join(cols, ", ")
}

func (s *MetricStore[R]) scan(row rowScanner) (*R, error) {
	var r R
	e := s.kind.Entry(&r)
	dest := append([]any{&e.ID, &e.UserID, &e.Day, &e.CreatedAt}, s.table.Dest(&r)...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &r, nil
}

// LatestForDay returns the most recent record of the day or (nil, nil).
func (s *MetricStore[R]) LatestForDay(ctx context.Context, userID int64, day string) (*R, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = $1 AND day = $2 ORDER BY created_at DESC, id DESC LIMIT 1",
		s.selectColumns(), s.table.Name)
	r, err := s.scan(s.db.sql.QueryRowContext(ctx, q, userID, day))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListForDay returns every record of the day in insertion order.
func (s *MetricStore[R]) ListForDay(ctx context.Context, userID int64, day string) ([]R, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE user_id = $1 AND day = $2 ORDER BY created_at, id",
		s.selectColumns(), s.table.Name)
	rows, err := s.db.sql.QueryContext(ctx, q, userID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []R
	for rows.Next() {
		r, err := s.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// WeekdayTotals folds the user's records by day of week in SQL.
// PostgreSQL numbers Sunday 0, so 1 is added to match domain.DayOfWeek.
func (s *MetricStore[R]) WeekdayTotals(ctx context.Context, userID int64) ([]domain.WeekdayAggregate, error) {
	aggs := s.kind.Weekly
	exprs := make([]string, len(aggs))
	for i, a := range aggs {
		fn := "SUM"
		if a.Op == domain.Avg {
			fn = "AVG"
		}
		exprs[i] = fmt.Sprintf("COALESCE(%s(%s), 0)::float8", fn, a.Column)
	}
	q := fmt.Sprintf(`SELECT EXTRACT(DOW FROM day)::int + 1 AS dow, %s
		FROM %s WHERE user_id = $1 GROUP BY dow ORDER BY dow`,
		strings.Join(exprs, ", "), s.table.Name)

	rows, err := s.db.sql.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.WeekdayAggregate
	for rows.Next() {
		var dow int
		vals := make([]float64, len(aggs))
		dest := make([]any, 0, len(aggs)+1)
		dest = append(dest, &dow)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		w := domain.WeekdayAggregate{DayOfWeek: dow, Values: make(map[string]float64, len(aggs))}
		for i, a := range aggs {
			w.Values[a.Name] = vals[i]
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// jsonb stores any JSON-encodable value in a JSONB column.
type jsonb struct {
	v any
}

// Value encodes as text; lib/pq would send a []byte as bytea.
func (j jsonb) Value() (driver.Value, error) {
	b, err := json.Marshal(j.v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j jsonb) Scan(src any) error {
	switch b := src.(type) {
	case []byte:
		return json.Unmarshal(b, j.v)
	case string:
		return json.Unmarshal([]byte(b), j.v)
	case nil:
		return nil
	default:
		return fmt.Errorf("jsonb: unsupported source %T", src)
	}
}

// StepsTable stores domain.StepRecord.
var StepsTable = Table[domain.StepRecord]{
	Name:    "step_records",
	Columns: []string{"steps", "distance_km", "calories_burned", "hourly_steps", "minutes_walked"},
	Args: func(r *domain.StepRecord) []any {
		return []any{r.Steps, r.DistanceKm, r.CaloriesBurned, jsonb{r.HourlySteps}, r.MinutesWalked}
	},
	Dest: func(r *domain.StepRecord) []any {
		return []any{&r.Steps, &r.DistanceKm, &r.CaloriesBurned, jsonb{&r.HourlySteps}, &r.MinutesWalked}
	},
}

// SleepTable stores domain.SleepRecord.
var SleepTable = Table[domain.SleepRecord]{
	Name: "sleep_records",
	Columns: []string{
		"total_sleep_hours", "restful_sleep_hours", "light_sleep_hours", "awake_hours",
		"total_sleep_minutes", "restful_sleep_minutes", "light_sleep_minutes", "awake_minutes",
	},
	Args: func(r *domain.SleepRecord) []any {
		return []any{
			r.TotalSleepHours, r.RestfulSleepHours, r.LightSleepHours, r.AwakeHours,
			r.TotalSleepMinutes, r.RestfulSleepMinutes, r.LightSleepMinutes, r.AwakeMinutes,
		}
	},
	Dest: func(r *domain.SleepRecord) []any {
		return []any{
			&r.TotalSleepHours, &r.RestfulSleepHours, &r.LightSleepHours, &r.AwakeHours,
			&r.TotalSleepMinutes, &r.RestfulSleepMinutes, &r.LightSleepMinutes, &r.AwakeMinutes,
		}
	},
}

// HeartRateTable stores domain.HeartRateRecord.
var HeartRateTable = Table[domain.HeartRateRecord]{
	Name:    "heart_rate_records",
	Columns: []string{"heart_rate", "time_in_zone", "hourly_heart_rates"},
	Args: func(r *domain.HeartRateRecord) []any {
		return []any{r.HeartRate, jsonb{r.TimeInZone}, jsonb{r.HourlyHeartRates}}
	},
	Dest: func(r *domain.HeartRateRecord) []any {
		return []any{&r.HeartRate, jsonb{&r.TimeInZone}, jsonb{&r.HourlyHeartRates}}
	},
}

// SpO2Table stores domain.SpO2Record.
var SpO2Table = Table[domain.SpO2Record]{
	Name:    "spo2_records",
	Columns: []string{"spo2"},
	Args:    func(r *domain.SpO2Record) []any { return []any{r.SpO2} },
	Dest:    func(r *domain.SpO2Record) []any { return []any{&r.SpO2} },
}

// BloodPressureTable stores domain.BloodPressureRecord.
var BloodPressureTable = Table[domain.BloodPressureRecord]{
	Name:    "blood_pressure_records",
	Columns: []string{"systolic", "diastolic", "time_in_zone"},
	Args: func(r *domain.BloodPressureRecord) []any {
		return []any{r.Systolic, r.Diastolic, jsonb{r.TimeInZone}}
	},
	Dest: func(r *domain.BloodPressureRecord) []any {
		return []any{&r.Systolic, &r.Diastolic, jsonb{&r.TimeInZone}}
	},
}
