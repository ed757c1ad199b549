// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrDuplicateEmail is returned by UserRepository.Create when the email is
// already registered.
var ErrDuplicateEmail = errors.New("email already registered")

// Role is the authorization role of a user.
type Role string

// Known roles.
const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Plan is the billing plan a user is on.
type Plan string

// Known plans. An empty Plan means the user never had a subscription.
const (
	PlanFree    Plan = "Free"
	PlanPremium Plan = "Premium"
)

// Thresholds are the per-user values a day's metric is compared against.
type Thresholds struct {
	Restful   float64 `json:"restfulThreshold"`
	Light     float64 `json:"lightThreshold"`
	Awake     float64 `json:"awakeThreshold"`
	SpO2      float64 `json:"spo2Threshold"`
	Systolic  int     `json:"systolicThreshold"`
	Diastolic int     `json:"diastolicThreshold"`
}

// DefaultThresholds returns the thresholds applied at account creation.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Restful:   3,
		Light:     2,
		Awake:     2,
		SpO2:      95,
		Systolic:  120,
		Diastolic: 80,
	}
}

// Targets are the per-user activity goals. Zero means "not set".
type Targets struct {
	DailyGoal      int     `json:"dailyGoal"`
	StepTarget     int     `json:"stepTarget"`
	CalorieTarget  float64 `json:"calorieTarget"`
	DistanceTarget float64 `json:"distanceTarget"`
}

// Fallback targets used by the daily rollup when the user has not set one.
const (
	FallbackStepTarget     = 10000
	FallbackCalorieTarget  = 300.0
	FallbackDistanceTarget = 5.0
)

// Profile holds optional personal details collected at signup.
type Profile struct {
	ProfileImage string     `json:"profileImage,omitempty"`
	Language     string     `json:"language,omitempty"`
	Birthday     *time.Time `json:"birthday,omitempty"`
	Height       *float64   `json:"height,omitempty"`
	Gender       string     `json:"gender,omitempty"`
	Weight       *float64   `json:"weight,omitempty"`
	PhoneNumber  string     `json:"phoneNumber,omitempty"`
}

// User represents an account holder.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	Plan         Plan   `json:"plan"`
	Profile
	Thresholds
	Targets
	CreatedAt time.Time `json:"createdAt"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// MonthlyCount is the number of users created in one calendar month.
type MonthlyCount struct {
	Month string `json:"month"` // YYYY-MM
	Count int    `json:"count"`
}

// UserRepository defines the port for user persistence operations.
// Lookups return (nil, nil) when the user does not exist.
type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	// Create stores the user and its initial subscription atomically,
	// assigning IDs to both.
	Create(ctx context.Context, u *User, sub *Subscription) error
	List(ctx context.Context) ([]User, error)
	CountByMonth(ctx context.Context) ([]MonthlyCount, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdatePlan(ctx context.Context, id int64, plan Plan) error
	UpdateSettings(ctx context.Context, id int64, th Thresholds, tg Targets) error
}
