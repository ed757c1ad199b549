package domain

import (
	"errors"
	"fmt"
)

// Heart-rate zone labels, lowest first.
const (
	ZoneHR0To80    = "0-80"
	ZoneHR80To100  = "80-100"
	ZoneHR100To110 = "100-110"
	ZoneHR110Plus  = "110+"
)

// HeartRateZones lists every heart-rate zone label in ascending order.
var HeartRateZones = []string{ZoneHR0To80, ZoneHR80To100, ZoneHR100To110, ZoneHR110Plus}

// ZoneCreditMinutes is the fixed credit given to the zone of each sample.
const ZoneCreditMinutes = 30

// Healthy resting heart-rate band, inclusive.
const (
	HeartRateMin = 60
	HeartRateMax = 100
)

// HeartRateRecord is one heart-rate sample.
type HeartRateRecord struct {
	Entry
	HeartRate        int            `json:"heartRate"`
	TimeInZone       map[string]int `json:"timeInZone"`
	HourlyHeartRates map[string]int `json:"hourlyHeartRates"`
}

// HeartRateZone returns the zone a heart rate falls in. Ties go to the
// lower zone.
func HeartRateZone(bpm int) string {
	switch {
	case bpm <= 80:
		return ZoneHR0To80
	case bpm <= 100:
		return ZoneHR80To100
	case bpm <= 110:
		return ZoneHR100To110
	default:
		return ZoneHR110Plus
	}
}

// ZoneCredit builds a time-in-zone map with every label present and the
// given zone credited.
func ZoneCredit(labels []string, zone string) map[string]int {
	m := make(map[string]int, len(labels))
	for _, l := range labels {
		m[l] = 0
	}
	m[zone] = ZoneCreditMinutes
	return m
}

// HeartRate is the heart-rate metric.
var HeartRate = Kind[HeartRateRecord]{
	Name:  "heart-rate",
	Label: "heart rate",
	Entry: func(r *HeartRateRecord) *Entry { return &r.Entry },
	Prepare: func(r *HeartRateRecord) error {
		if err := prepareEntry(&r.Entry); err != nil {
			return err
		}
		if r.HeartRate <= 0 {
			return errors.New("heartRate must be positive")
		}
		for k, v := range r.HourlyHeartRates {
			if v < 0 {
				return fmt.Errorf("hourlyHeartRates: negative value at %s", k)
			}
		}
		if r.HourlyHeartRates == nil {
			r.HourlyHeartRates = map[string]int{}
		}
		r.TimeInZone = ZoneCredit(HeartRateZones, HeartRateZone(r.HeartRate))
		return nil
	},
	Values: func(r *HeartRateRecord) map[string]float64 {
		return map[string]float64{"heart_rate": float64(r.HeartRate)}
	},
	Check: func(r *HeartRateRecord, _ *User) Assessment {
		if r.HeartRate < HeartRateMin || r.HeartRate > HeartRateMax {
			return Assessment{Messages: []string{
				fmt.Sprintf("Your heart rate of %d BPM is outside the healthy range. Please take rest and monitor your health.", r.HeartRate),
			}}
		}
		return Assessment{Within: true, Messages: []string{
			fmt.Sprintf("Your heart rate of %d BPM is within the healthy range. Keep up the good work!", r.HeartRate),
		}}
	},
	Weekly: []Aggregate{
		{Name: "averageHeartRate", Column: "heart_rate", Op: Avg},
	},
	Daily: []Aggregate{
		{Name: "averageHeartRate", Column: "heart_rate", Op: Avg},
	},
}
