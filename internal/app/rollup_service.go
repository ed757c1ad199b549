package app

import (
	"context"

	"healthmate/internal/domain"
)

// Rollup is the cross-metric summary of one calendar day. Metrics with no
// records for the day are empty objects.
type Rollup struct {
	Date          string         `json:"date"`
	Steps         map[string]any `json:"steps"`
	Sleep         map[string]any `json:"sleep"`
	HeartRate     map[string]any `json:"heartRate"`
	SpO2          map[string]any `json:"spo2"`
	BloodPressure map[string]any `json:"bloodPressure"`
}

// RollupService builds the daily cross-metric summary.
type RollupService struct {
	users         domain.UserRepository
	steps         *MetricService[domain.StepRecord]
	sleep         *MetricService[domain.SleepRecord]
	heartRate     *MetricService[domain.HeartRateRecord]
	spo2          *MetricService[domain.SpO2Record]
	bloodPressure *MetricService[domain.BloodPressureRecord]
}

// NewRollupService creates a RollupService over the per-metric services.
func NewRollupService(
	users domain.UserRepository,
	steps *MetricService[domain.StepRecord],
	sleep *MetricService[domain.SleepRecord],
	heartRate *MetricService[domain.HeartRateRecord],
	spo2 *MetricService[domain.SpO2Record],
	bloodPressure *MetricService[domain.BloodPressureRecord],
) *RollupService {
	return &RollupService{
		users:         users,
		steps:         steps,
		sleep:         sleep,
		heartRate:     heartRate,
		spo2:          spo2,
		bloodPressure: bloodPressure,
	}
}

// ForDay returns the rollup for the calendar day containing date. Step
// totals always carry the user's targets, falling back to defaults.
func (s *RollupService) ForDay(ctx context.Context, userID int64, date string) (*Rollup, error) {
	day, err := domain.ParseDay(date)
	if err != nil {
		return nil, invalid("%v", err)
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}

	out := &Rollup{Date: day}

	stepTotals, _, err := s.steps.Daily(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	out.Steps = map[string]any{
		"totalSteps":     stepTotals["totalSteps"],
		"totalDistance":  stepTotals["totalDistance"],
		"totalCalories":  stepTotals["totalCalories"],
		"targetSteps":    orInt(u.StepTarget, domain.FallbackStepTarget),
		"targetCalories": orFloat(u.CalorieTarget, domain.FallbackCalorieTarget),
		"targetDistance": orFloat(u.DistanceTarget, domain.FallbackDistanceTarget),
	}

	sleepTotals, _, err := s.sleep.Daily(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	out.Sleep = toAny(sleepTotals)

	hrTotals, hrRecords, err := s.heartRate.Daily(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	out.HeartRate = toAny(hrTotals)
	if len(hrRecords) > 0 {
		zones := make(map[string]int, len(domain.HeartRateZones))
		for _, z := range domain.HeartRateZones {
			zones[z] = 0
		}
		for _, r := range hrRecords {
			for z, m := range r.TimeInZone {
				zones[z] += m
			}
		}
		out.HeartRate["timeInZone"] = zones
	}

	spo2Totals, _, err := s.spo2.Daily(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	out.SpO2 = toAny(spo2Totals)

	bpTotals, _, err := s.bloodPressure.Daily(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	out.BloodPressure = toAny(bpTotals)

	return out, nil
}

func toAny(m map[string]float64) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func orFloat(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
