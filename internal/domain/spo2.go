package domain

import (
	"errors"
	"fmt"
)

// SpO2Record is one blood-oxygen saturation sample, in percent.
type SpO2Record struct {
	Entry
	SpO2 float64 `json:"spo2"`
}

// SpO2 is the blood-oxygen metric.
var SpO2 = Kind[SpO2Record]{
	Name:  "spo2",
	Label: "SpO2",
	Entry: func(r *SpO2Record) *Entry { return &r.Entry },
	Prepare: func(r *SpO2Record) error {
		if err := prepareEntry(&r.Entry); err != nil {
			return err
		}
		if r.SpO2 < 0 || r.SpO2 > 100 {
			return errors.New("spo2 must be within [0, 100]")
		}
		return nil
	},
	Values: func(r *SpO2Record) map[string]float64 {
		return map[string]float64{"spo2": r.SpO2}
	},
	Check: func(r *SpO2Record, u *User) Assessment {
		if r.SpO2 < u.Thresholds.SpO2 {
			return Assessment{Messages: []string{
				fmt.Sprintf("Your SpO2 level of %s%% is below the threshold of %s%%. Please take necessary actions.",
					formatFloat(r.SpO2), formatFloat(u.Thresholds.SpO2)),
			}}
		}
		return Assessment{Within: true, Messages: []string{
			fmt.Sprintf("Your SpO2 level of %s%% is within the healthy range. Keep up the good work!", formatFloat(r.SpO2)),
		}}
	},
	Weekly: []Aggregate{
		{Name: "averageSpO2", Column: "spo2", Op: Avg},
	},
	Daily: []Aggregate{
		{Name: "averageSpo2", Column: "spo2", Op: Avg},
	},
}
