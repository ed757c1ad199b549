package domain

import (
	"errors"
	"fmt"
)

// SleepRecord is one night's sleep sample. The minute fields are derived.
type SleepRecord struct {
	Entry
	TotalSleepHours     float64 `json:"totalSleepHours"`
	RestfulSleepHours   float64 `json:"restfulSleepHours"`
	LightSleepHours     float64 `json:"lightSleepHours"`
	AwakeHours          float64 `json:"awakeHours"`
	TotalSleepMinutes   float64 `json:"totalSleepMinutes"`
	RestfulSleepMinutes float64 `json:"restfulSleepMinutes"`
	LightSleepMinutes   float64 `json:"lightSleepMinutes"`
	AwakeMinutes        float64 `json:"awakeMinutes"`
}

// Sleep is the sleep metric.
var Sleep = Kind[SleepRecord]{
	Name:  "sleep",
	Label: "sleep",
	Entry: func(r *SleepRecord) *Entry { return &r.Entry },
	Prepare: func(r *SleepRecord) error {
		if err := prepareEntry(&r.Entry); err != nil {
			return err
		}
		if r.TotalSleepHours < 0 || r.RestfulSleepHours < 0 || r.LightSleepHours < 0 || r.AwakeHours < 0 {
			return errors.New("sleep hours must not be negative")
		}
		r.TotalSleepMinutes = r.TotalSleepHours * 60
		r.RestfulSleepMinutes = r.RestfulSleepHours * 60
		r.LightSleepMinutes = r.LightSleepHours * 60
		r.AwakeMinutes = r.AwakeHours * 60
		return nil
	},
	Values: func(r *SleepRecord) map[string]float64 {
		return map[string]float64{
			"total_sleep_hours":   r.TotalSleepHours,
			"restful_sleep_hours": r.RestfulSleepHours,
			"light_sleep_hours":   r.LightSleepHours,
			"awake_hours":         r.AwakeHours,
		}
	},
	Check: func(r *SleepRecord, u *User) Assessment {
		var msgs []string
		if r.RestfulSleepHours < u.Restful {
			msgs = append(msgs, fmt.Sprintf("Your restful sleep is below the threshold of %s hours. You need more restful sleep.", formatFloat(u.Restful)))
		}
		if r.LightSleepHours < u.Light {
			msgs = append(msgs, fmt.Sprintf("Your light sleep is below the threshold of %s hours. You need more light sleep.", formatFloat(u.Light)))
		}
		if r.AwakeHours > u.Awake {
			msgs = append(msgs, fmt.Sprintf("You were awake for more than the threshold of %s hours. Try to improve your sleep quality.", formatFloat(u.Awake)))
		}
		if len(msgs) == 0 {
			return Assessment{Within: true, Messages: []string{
				"Your sleep data is within the recommended thresholds. Keep up the good work!",
			}}
		}
		return Assessment{Messages: msgs}
	},
	Weekly: []Aggregate{
		{Name: "averageTotalSleepHours", Column: "total_sleep_hours", Op: Avg},
		{Name: "averageRestfulSleepHours", Column: "restful_sleep_hours", Op: Avg},
		{Name: "averageLightSleepHours", Column: "light_sleep_hours", Op: Avg},
		{Name: "averageAwakeHours", Column: "awake_hours", Op: Avg},
	},
	Daily: []Aggregate{
		{Name: "totalSleepHours", Column: "total_sleep_hours", Op: Sum},
		{Name: "restfulSleepHours", Column: "restful_sleep_hours", Op: Sum},
		{Name: "lightSleepHours", Column: "light_sleep_hours", Op: Sum},
		{Name: "awakeHours", Column: "awake_hours", Op: Sum},
	},
}
