package app

import (
	"context"

	"healthmate/internal/domain"
)

// SettingsUpdate is a partial update of thresholds and targets. Nil fields
// are left unchanged.
type SettingsUpdate struct {
	RestfulThreshold   *float64 `json:"restfulThreshold"`
	LightThreshold     *float64 `json:"lightThreshold"`
	AwakeThreshold     *float64 `json:"awakeThreshold"`
	SpO2Threshold      *float64 `json:"spo2Threshold"`
	SystolicThreshold  *int     `json:"systolicThreshold"`
	DiastolicThreshold *int     `json:"diastolicThreshold"`
	DailyGoal          *int     `json:"dailyGoal"`
	StepTarget         *int     `json:"stepTarget"`
	CalorieTarget      *float64 `json:"calorieTarget"`
	DistanceTarget     *float64 `json:"distanceTarget"`
}

// UserService serves a user's own profile and settings.
type UserService struct {
	users domain.UserRepository
}

// NewUserService creates a UserService.
func NewUserService(users domain.UserRepository) *UserService {
	return &UserService{users: users}
}

// Me returns the caller's profile.
func (s *UserService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// SetDailyGoal sets the step count the steps check compares against.
func (s *UserService) SetDailyGoal(ctx context.Context, userID int64, target int) (*domain.User, error) {
	return s.UpdateSettings(ctx, userID, SettingsUpdate{DailyGoal: &target})
}

// UpdateSettings applies a partial settings update and returns the result.
func (s *UserService) UpdateSettings(ctx context.Context, userID int64, in SettingsUpdate) (*domain.User, error) {
	u, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	th, tg := u.Thresholds, u.Targets

	for name, v := range map[string]*float64{
		"restfulThreshold": in.RestfulThreshold,
		"lightThreshold":   in.LightThreshold,
		"awakeThreshold":   in.AwakeThreshold,
		"calorieTarget":    in.CalorieTarget,
		"distanceTarget":   in.DistanceTarget,
	} {
		if v != nil && *v < 0 {
			return nil, invalid("%s must not be negative", name)
		}
	}
	for name, v := range map[string]*int{
		"systolicThreshold":  in.SystolicThreshold,
		"diastolicThreshold": in.DiastolicThreshold,
		"dailyGoal":          in.DailyGoal,
		"stepTarget":         in.StepTarget,
	} {
		if v != nil && *v < 0 {
			return nil, invalid("%s must not be negative", name)
		}
	}
	if in.SpO2Threshold != nil && (*in.SpO2Threshold < 0 || *in.SpO2Threshold > 100) {
		return nil, invalid("spo2Threshold must be within [0, 100]")
	}

	setF(&th.Restful, in.RestfulThreshold)
	setF(&th.Light, in.LightThreshold)
	setF(&th.Awake, in.AwakeThreshold)
	setF(&th.SpO2, in.SpO2Threshold)
	setI(&th.Systolic, in.SystolicThreshold)
	setI(&th.Diastolic, in.DiastolicThreshold)
	setI(&tg.DailyGoal, in.DailyGoal)
	setI(&tg.StepTarget, in.StepTarget)
	setF(&tg.CalorieTarget, in.CalorieTarget)
	setF(&tg.DistanceTarget, in.DistanceTarget)

	if err := s.users.UpdateSettings(ctx, userID, th, tg); err != nil {
		return nil, err
	}
	u.Thresholds, u.Targets = th, tg
	return u, nil
}

func setF(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setI(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
