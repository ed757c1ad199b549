package adapthttp

import (
	"errors"
	"net/http"

	"healthmate/internal/app"
	"healthmate/internal/domain"

	"github.com/go-chi/chi/v5"
)

// mountMetric registers the create, lookup, check and weekly routes of
// one metric kind under /{kind}.
func mountMetric[R any](r chi.Router, s *Server, svc *app.MetricService[R]) {
	base := "/" + svc.Kind().Name

	r.Post(base, func(w http.ResponseWriter, r *http.Request) {
		var rec R
		if err := parseJSON(r, &rec); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := svc.Record(r.Context(), currentUser(r).ID, &rec); err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, &rec)
	})

	r.Get(base+"/check", func(w http.ResponseWriter, r *http.Request) {
		date, ok := requireDate(w, r)
		if !ok {
			return
		}
		a, err := svc.Check(r.Context(), currentUser(r).ID, date)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"date":     date,
			"within":   a.Within,
			"message":  a.Message(),
			"messages": a.Messages,
		})
	})

	r.Get(base+"/weekly", func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.Weekly(r.Context(), currentUser(r).ID)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"weekly": slots})
	})

	r.Get(base+"/{date}", func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.ForDay(r.Context(), currentUser(r).ID, chi.URLParam(r, "date"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	})
}

func requireDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, errors.New("date query parameter is required"))
		return "", false
	}
	return date, true
}

func (s *Server) handleSetTarget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target *int `json:"target"`
	}
	if err := parseJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.Target == nil || *req.Target <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("target must be a positive number"))
		return
	}
	u, err := s.svc.Users.SetDailyGoal(r.Context(), currentUser(r).ID, *req.Target)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dailyGoal": u.DailyGoal})
}

// zoneTable reports every label, including those never credited.
func zoneTable(labels []string, stored map[string]int) map[string]int {
	out := make(map[string]int, len(labels))
	for _, l := range labels {
		out[l] = stored[l]
	}
	return out
}

func (s *Server) handleHeartRateZones(w http.ResponseWriter, r *http.Request) {
	date, ok := requireDate(w, r)
	if !ok {
		return
	}
	rec, err := s.svc.HeartRate.ForDay(r.Context(), currentUser(r).ID, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":       rec.Day,
		"heartRate":  rec.HeartRate,
		"timeInZone": zoneTable(domain.HeartRateZones, rec.TimeInZone),
	})
}

func (s *Server) handleBloodPressureZones(w http.ResponseWriter, r *http.Request) {
	date, ok := requireDate(w, r)
	if !ok {
		return
	}
	rec, err := s.svc.BloodPressure.ForDay(r.Context(), currentUser(r).ID, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":       rec.Day,
		"systolic":   rec.Systolic,
		"diastolic":  rec.Diastolic,
		"timeInZone": zoneTable(domain.BloodPressureZones, rec.TimeInZone),
	})
}

func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	date, ok := requireDate(w, r)
	if !ok {
		return
	}
	rollup, err := s.svc.Rollup.ForDay(r.Context(), currentUser(r).ID, date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rollup)
}
