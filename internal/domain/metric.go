package domain

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Entry is the part every metric record shares.
type Entry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Day       string    `json:"date"`
	CreatedAt time.Time `json:"createdAt"`
}

// AggOp selects how a value is folded across records.
type AggOp int

const (
	// Sum adds values together.
	Sum AggOp = iota
	// Avg takes the arithmetic mean over the records folded.
	Avg
)

// Aggregate names one folded output of a metric kind.
type Aggregate struct {
	Name   string // response key
	Column string // storage column, also the key used in Kind.Values
	Op     AggOp
}

// Assessment is the result of comparing a day's record against thresholds.
type Assessment struct {
	Within   bool     `json:"within"`
	Messages []string `json:"messages"`
}

// Message joins the assessment lines into one advisory text.
func (a Assessment) Message() string {
	return strings.Join(a.Messages, "\n")
}

// Kind describes one metric: how its records are validated and derived,
// how they are classified against a user's thresholds, and how they fold
// into weekly and daily aggregates.
type Kind[R any] struct {
	Name  string // URL segment and event label
	Label string // human label used in messages

	Entry   func(r *R) *Entry
	Prepare func(r *R) error
	Values  func(r *R) map[string]float64
	Check   func(r *R, u *User) Assessment

	Weekly []Aggregate
	Daily  []Aggregate
}

// MetricRepository is the persistence port shared by every metric kind.
type MetricRepository[R any] interface {
	AddRecord(ctx context.Context, r *R) (int64, error)
	// LatestForDay returns the most recent record of the day or (nil, nil).
	LatestForDay(ctx context.Context, userID int64, day string) (*R, error)
	ListForDay(ctx context.Context, userID int64, day string) ([]R, error)
	// WeekdayTotals folds every record of the user by day of week.
	WeekdayTotals(ctx context.Context, userID int64) ([]WeekdayAggregate, error)
}

// Fold reduces a set of per-record values according to aggs.
// It returns nil when there is nothing to fold.
func Fold(values []map[string]float64, aggs []Aggregate) map[string]float64 {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]float64, len(aggs))
	for _, a := range aggs {
		var total float64
		for _, v := range values {
			total += v[a.Column]
		}
		if a.Op == Avg {
			total /= float64(len(values))
		}
		out[a.Name] = total
	}
	return out
}

func prepareEntry(e *Entry) error {
	day, err := ParseDay(e.Day)
	if err != nil {
		return err
	}
	e.Day = day
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
