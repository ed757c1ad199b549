package domain

import (
	"errors"
	"fmt"
)

// Blood-pressure zone labels.
const (
	ZoneBPNormal       = "normal"
	ZoneBPHigh         = "high"
	ZoneBPHypertension = "hypertension"
)

// BloodPressureZones lists every blood-pressure zone label.
var BloodPressureZones = []string{ZoneBPNormal, ZoneBPHigh, ZoneBPHypertension}

// BloodPressureRecord is one blood-pressure reading in mmHg.
type BloodPressureRecord struct {
	Entry
	Systolic   int            `json:"systolic"`
	Diastolic  int            `json:"diastolic"`
	TimeInZone map[string]int `json:"timeInZone"`
}

// BloodPressureZone classifies a reading. Both values must be at or under
// a zone's ceiling for the reading to fall in it.
func BloodPressureZone(systolic, diastolic int) string {
	switch {
	case systolic <= 120 && diastolic <= 80:
		return ZoneBPNormal
	case systolic <= 139 && diastolic <= 89:
		return ZoneBPHigh
	default:
		return ZoneBPHypertension
	}
}

// BloodPressure is the blood-pressure metric.
var BloodPressure = Kind[BloodPressureRecord]{
	Name:  "blood-pressure",
	Label: "blood pressure",
	Entry: func(r *BloodPressureRecord) *Entry { return &r.Entry },
	Prepare: func(r *BloodPressureRecord) error {
		if err := prepareEntry(&r.Entry); err != nil {
			return err
		}
		if r.Systolic <= 0 || r.Diastolic <= 0 {
			return errors.New("systolic and diastolic must be positive")
		}
		r.TimeInZone = ZoneCredit(BloodPressureZones, BloodPressureZone(r.Systolic, r.Diastolic))
		return nil
	},
	Values: func(r *BloodPressureRecord) map[string]float64 {
		return map[string]float64{
			"systolic":  float64(r.Systolic),
			"diastolic": float64(r.Diastolic),
		}
	},
	Check: func(r *BloodPressureRecord, u *User) Assessment {
		if r.Systolic > u.Systolic || r.Diastolic > u.Diastolic {
			return Assessment{Messages: []string{
				fmt.Sprintf("Warning: Your BP of %d/%d exceeds the healthy threshold. Please take action and consult a doctor.", r.Systolic, r.Diastolic),
			}}
		}
		return Assessment{Within: true, Messages: []string{
			fmt.Sprintf("Your BP of %d/%d is within the healthy range. Keep up the good work!", r.Systolic, r.Diastolic),
		}}
	},
	Weekly: []Aggregate{
		{Name: "averageSystolic", Column: "systolic", Op: Avg},
		{Name: "averageDiastolic", Column: "diastolic", Op: Avg},
	},
	Daily: []Aggregate{
		{Name: "systolicAvg", Column: "systolic", Op: Avg},
		{Name: "diastolicAvg", Column: "diastolic", Op: Avg},
	},
}
