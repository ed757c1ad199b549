package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// DisplayWeek is the order weekly aggregates are returned in.
var DisplayWeek = [7]time.Weekday{
	time.Saturday,
	time.Sunday,
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
}

// WeekdayAggregate holds the folded values of one day of week.
// DayOfWeek uses 1=Sunday..7=Saturday.
type WeekdayAggregate struct {
	DayOfWeek int
	Values    map[string]float64
}

// WeeklySlot is one entry of a weekly aggregate response.
type WeeklySlot struct {
	Day    string
	Values map[string]float64
}

// MarshalJSON flattens the slot into {"day": ..., <name>: <value>, ...}.
func (s WeeklySlot) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(s.Values)+1)
	for k, v := range s.Values {
		m[k] = v
	}
	m["day"] = s.Day
	return json.Marshal(m)
}

// ProjectWeek lays the per-weekday aggregates onto DisplayWeek, filling
// missing days with zero for every aggregate in aggs.
func ProjectWeek(totals []WeekdayAggregate, aggs []Aggregate) []WeeklySlot {
	byDay := make(map[int]map[string]float64, len(totals))
	for _, t := range totals {
		byDay[t.DayOfWeek] = t.Values
	}

	out := make([]WeeklySlot, 0, len(DisplayWeek))
	for _, wd := range DisplayWeek {
		values := make(map[string]float64, len(aggs))
		found := byDay[int(wd)+1]
		for _, a := range aggs {
			values[a.Name] = found[a.Name]
		}
		out = append(out, WeeklySlot{Day: wd.String(), Values: values})
	}
	return out
}

// FoldByWeekday groups per-record values by the day of week of their day
// key and folds each group. Records with an unparseable day are skipped.
func FoldByWeekday(days []string, values []map[string]float64, aggs []Aggregate) []WeekdayAggregate {
	groups := make(map[int][]map[string]float64)
	for i, day := range days {
		dow, err := DayOfWeek(day)
		if err != nil {
			continue
		}
		groups[dow] = append(groups[dow], values[i])
	}

	out := make([]WeekdayAggregate, 0, len(groups))
	for dow, vs := range groups {
		out = append(out, WeekdayAggregate{DayOfWeek: dow, Values: Fold(vs, aggs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfWeek < out[j].DayOfWeek })
	return out
}
