package domain

import (
	"errors"
	"fmt"
)

// StepsPerMinute is the walking pace used to derive minutes walked.
const StepsPerMinute = 80

// StepRecord is one day's step sample.
type StepRecord struct {
	Entry
	Steps          int         `json:"steps"`
	DistanceKm     float64     `json:"distanceKm"`
	CaloriesBurned float64     `json:"caloriesBurned"`
	HourlySteps    map[int]int `json:"hourlySteps"`
	MinutesWalked  float64     `json:"minutesWalked"`
}

// Steps is the step-count metric.
var Steps = Kind[StepRecord]{
	Name:  "steps",
	Label: "steps",
	Entry: func(r *StepRecord) *Entry { return &r.Entry },
	Prepare: func(r *StepRecord) error {
		if err := prepareEntry(&r.Entry); err != nil {
			return err
		}
		if r.Steps < 0 || r.DistanceKm < 0 || r.CaloriesBurned < 0 {
			return errors.New("steps, distanceKm and caloriesBurned must not be negative")
		}
		for h, n := range r.HourlySteps {
			if h < 0 || h > 23 {
				return fmt.Errorf("hourlySteps: hour %d out of range", h)
			}
			if n < 0 {
				return fmt.Errorf("hourlySteps: negative count at hour %d", h)
			}
		}
		if r.HourlySteps == nil {
			r.HourlySteps = map[int]int{}
		}
		r.MinutesWalked = float64(r.Steps) / StepsPerMinute
		return nil
	},
	Values: func(r *StepRecord) map[string]float64 {
		return map[string]float64{
			"steps":           float64(r.Steps),
			"distance_km":     r.DistanceKm,
			"calories_burned": r.CaloriesBurned,
		}
	},
	Check: func(r *StepRecord, u *User) Assessment {
		goal := u.DailyGoal
		if goal <= 0 {
			return Assessment{Within: true, Messages: []string{
				fmt.Sprintf("You walked %d steps. Set a daily goal to track your progress.", r.Steps),
			}}
		}
		if r.Steps < goal {
			return Assessment{Messages: []string{
				fmt.Sprintf("You walked %d steps, short of your daily goal of %d steps. Keep moving!", r.Steps, goal),
			}}
		}
		return Assessment{Within: true, Messages: []string{
			fmt.Sprintf("You walked %d steps and reached your daily goal of %d steps. Keep up the good work!", r.Steps, goal),
		}}
	},
	Weekly: []Aggregate{
		{Name: "totalSteps", Column: "steps", Op: Sum},
		{Name: "totalDistance", Column: "distance_km", Op: Sum},
		{Name: "totalCalories", Column: "calories_burned", Op: Sum},
	},
	Daily: []Aggregate{
		{Name: "totalSteps", Column: "steps", Op: Sum},
		{Name: "totalDistance", Column: "distance_km", Op: Sum},
		{Name: "totalCalories", Column: "calories_burned", Op: Sum},
	},
}
