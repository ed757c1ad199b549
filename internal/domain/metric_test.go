package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"healthmate/internal/domain"
)

func TestParseDay(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"2025-10-20", "2025-10-20", false},
		{"2025-10-20T23:10:00Z", "2025-10-20", false},
		{"2025-10-20T23:10:00-05:00", "2025-10-21", false},
		{"2025-10-20T00:00:00.000Z", "2025-10-20", false},
		{"", "", true},
		{"20/10/2025", "", true},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := domain.ParseDay(tc.in)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseDay(%q) expected error", tc.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDay(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("ParseDay(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStepsPrepare(t *testing.T) {
	r := domain.StepRecord{Entry: domain.Entry{Day: "2025-10-20"}, Steps: 100}
	if err := domain.Steps.Prepare(&r); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if r.MinutesWalked != 1.25 {
		t.Errorf("MinutesWalked = %v; want 1.25", r.MinutesWalked)
	}

	bad := domain.StepRecord{Entry: domain.Entry{Day: "2025-10-20"}, Steps: -1}
	if err := domain.Steps.Prepare(&bad); err == nil {
		t.Error("expected error for negative steps")
	}
	hour := domain.StepRecord{Entry: domain.Entry{Day: "2025-10-20"}, HourlySteps: map[int]int{24: 5}}
	if err := domain.Steps.Prepare(&hour); err == nil {
		t.Error("expected error for hour 24")
	}
}

func TestSleepPrepare(t *testing.T) {
	r := domain.SleepRecord{
		Entry:             domain.Entry{Day: "2025-10-20"},
		TotalSleepHours:   7.5,
		RestfulSleepHours: 2.5,
		LightSleepHours:   4,
		AwakeHours:        1,
	}
	if err := domain.Sleep.Prepare(&r); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if r.TotalSleepMinutes != 450 || r.RestfulSleepMinutes != 150 || r.LightSleepMinutes != 240 || r.AwakeMinutes != 60 {
		t.Errorf("unexpected minutes: %+v", r)
	}
}

func TestHeartRateZone(t *testing.T) {
	tests := []struct {
		bpm  int
		want string
	}{
		{50, "0-80"},
		{80, "0-80"},
		{81, "80-100"},
		{100, "80-100"},
		{105, "100-110"},
		{110, "100-110"},
		{111, "110+"},
	}
	for _, tc := range tests {
		if got := domain.HeartRateZone(tc.bpm); got != tc.want {
			t.Errorf("HeartRateZone(%d) = %q; want %q", tc.bpm, got, tc.want)
		}
	}
}

func TestHeartRate105(t *testing.T) {
	r := domain.HeartRateRecord{Entry: domain.Entry{Day: "2025-10-20"}, HeartRate: 105}
	if err := domain.HeartRate.Prepare(&r); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	want := map[string]int{"0-80": 0, "80-100": 0, "100-110": 30, "110+": 0}
	for k, v := range want {
		if r.TimeInZone[k] != v {
			t.Errorf("TimeInZone[%q] = %d; want %d", k, r.TimeInZone[k], v)
		}
	}
	a := domain.HeartRate.Check(&r, &domain.User{})
	if a.Within {
		t.Error("expected 105 BPM to be outside the healthy range")
	}
	if !strings.Contains(a.Message(), "outside the healthy range") {
		t.Errorf("unexpected message %q", a.Message())
	}
}

func TestBloodPressureZone(t *testing.T) {
	tests := []struct {
		sys, dia int
		want     string
	}{
		{120, 80, "normal"},
		{121, 80, "high"},
		{139, 89, "high"},
		{140, 70, "hypertension"},
		{110, 95, "hypertension"},
	}
	for _, tc := range tests {
		if got := domain.BloodPressureZone(tc.sys, tc.dia); got != tc.want {
			t.Errorf("BloodPressureZone(%d, %d) = %q; want %q", tc.sys, tc.dia, got, tc.want)
		}
	}
}

func TestBloodPressureCheck(t *testing.T) {
	u := &domain.User{Thresholds: domain.DefaultThresholds()}
	high := domain.BloodPressureRecord{Systolic: 130, Diastolic: 85}
	a := domain.BloodPressure.Check(&high, u)
	want := "Warning: Your BP of 130/85 exceeds the healthy threshold. Please take action and consult a doctor."
	if a.Within || a.Message() != want {
		t.Errorf("got %+v; want warning %q", a, want)
	}
	ok := domain.BloodPressureRecord{Systolic: 120, Diastolic: 80}
	if a := domain.BloodPressure.Check(&ok, u); !a.Within {
		t.Errorf("expected 120/80 to be within range, got %+v", a)
	}
}

func TestSpO2Check(t *testing.T) {
	u := &domain.User{Thresholds: domain.DefaultThresholds()}
	low := domain.SpO2Record{SpO2: 94.5}
	a := domain.SpO2.Check(&low, u)
	want := "Your SpO2 level of 94.5% is below the threshold of 95%. Please take necessary actions."
	if a.Within || a.Message() != want {
		t.Errorf("got %q; want %q", a.Message(), want)
	}
	eq := domain.SpO2Record{SpO2: 95}
	if a := domain.SpO2.Check(&eq, u); !a.Within {
		t.Error("expected spo2 equal to threshold to be within range")
	}
	bad := domain.SpO2Record{Entry: domain.Entry{Day: "2025-10-20"}, SpO2: 101}
	if err := domain.SpO2.Prepare(&bad); err == nil {
		t.Error("expected error for spo2 above 100")
	}
}

func TestSleepCheck(t *testing.T) {
	u := &domain.User{Thresholds: domain.DefaultThresholds()}
	r := domain.SleepRecord{RestfulSleepHours: 2, LightSleepHours: 1.5, AwakeHours: 3}
	a := domain.Sleep.Check(&r, u)
	if a.Within {
		t.Fatal("expected violations")
	}
	want := []string{
		"Your restful sleep is below the threshold of 3 hours. You need more restful sleep.",
		"Your light sleep is below the threshold of 2 hours. You need more light sleep.",
		"You were awake for more than the threshold of 2 hours. Try to improve your sleep quality.",
	}
	if len(a.Messages) != len(want) {
		t.Fatalf("got %d messages; want %d", len(a.Messages), len(want))
	}
	for i := range want {
		if a.Messages[i] != want[i] {
			t.Errorf("message %d = %q; want %q", i, a.Messages[i], want[i])
		}
	}

	good := domain.SleepRecord{RestfulSleepHours: 3, LightSleepHours: 2, AwakeHours: 2}
	if a := domain.Sleep.Check(&good, u); !a.Within || len(a.Messages) != 1 {
		t.Errorf("expected single all-clear message, got %+v", a)
	}
}

func TestStepsCheck(t *testing.T) {
	r := domain.StepRecord{Steps: 4000}
	if a := domain.Steps.Check(&r, &domain.User{Targets: domain.Targets{DailyGoal: 5000}}); a.Within {
		t.Error("expected goal missed")
	}
	if a := domain.Steps.Check(&r, &domain.User{Targets: domain.Targets{DailyGoal: 4000}}); !a.Within {
		t.Error("expected goal reached")
	}
}

func TestFold(t *testing.T) {
	if got := domain.Fold(nil, domain.Sleep.Weekly); got != nil {
		t.Errorf("Fold(nil) = %v; want nil", got)
	}
	values := []map[string]float64{
		{"heart_rate": 60},
		{"heart_rate": 90},
	}
	got := domain.Fold(values, domain.HeartRate.Weekly)
	if got["averageHeartRate"] != 75 {
		t.Errorf("averageHeartRate = %v; want 75", got["averageHeartRate"])
	}
}

func TestProjectWeek(t *testing.T) {
	// 2025-10-18 is a Saturday.
	dow, err := domain.DayOfWeek("2025-10-18")
	if err != nil {
		t.Fatal(err)
	}
	if dow != 7 {
		t.Fatalf("DayOfWeek(Saturday) = %d; want 7", dow)
	}

	rec := domain.StepRecord{Entry: domain.Entry{Day: "2025-10-18"}, Steps: 1000, DistanceKm: 1, CaloriesBurned: 40}
	totals := domain.FoldByWeekday(
		[]string{rec.Day},
		[]map[string]float64{domain.Steps.Values(&rec)},
		domain.Steps.Weekly,
	)
	week := domain.ProjectWeek(totals, domain.Steps.Weekly)
	if len(week) != 7 {
		t.Fatalf("len(week) = %d; want 7", len(week))
	}
	if week[0].Day != "Saturday" || week[0].Values["totalSteps"] != 1000 {
		t.Errorf("Saturday slot = %+v", week[0])
	}
	for _, slot := range week[1:] {
		if slot.Values["totalSteps"] != 0 {
			t.Errorf("%s slot = %+v; want zero", slot.Day, slot)
		}
	}
	if week[6].Day != "Friday" {
		t.Errorf("last slot = %q; want Friday", week[6].Day)
	}

	b, err := json.Marshal(week[0])
	if err != nil {
		t.Fatal(err)
	}
	var flat map[string]any
	if err := json.Unmarshal(b, &flat); err != nil {
		t.Fatal(err)
	}
	if flat["day"] != "Saturday" || flat["totalSteps"] != float64(1000) {
		t.Errorf("unexpected JSON %s", b)
	}
}
