package models

import (
	"sort"
	"time"
)

// DateLayout is the calendar-date format used by FRED and the API.
const DateLayout = "2006-01-02"

// Observation is a single dated value of an economic series.
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an ordered, de-duplicated sequence of observations for one
// economic indicator. Observations are ascending by date.
type Series struct {
	Key          string        `json:"key"`
	Label        string        `json:"label"`
	Observations []Observation `json:"observations"`
}

// NewSeries builds a Series from unordered observations. Dates are truncated
// to calendar days, sorted ascending, and duplicates collapse to the last one seen.
func NewSeries(key, label string, obs []Observation) Series {
	byDate := make(map[time.Time]float64, len(obs))
	for _, o := range obs {
		byDate[Day(o.Date)] = o.Value
	}
	out := make([]Observation, 0, len(byDate))
	for d, v := range byDate {
		out = append(out, Observation{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return Series{Key: key, Label: label, Observations: out}
}

// EmptySeries returns a series with identity but no observations.
func EmptySeries(key, label string) Series {
	return Series{Key: key, Label: label, Observations: []Observation{}}
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.Observations) }

// IsEmpty reports whether the series has no observations.
func (s Series) IsEmpty() bool { return len(s.Observations) == 0 }

// First returns the earliest observation.
func (s Series) First() (Observation, bool) {
	if s.IsEmpty() {
		return Observation{}, false
	}
	return s.Observations[0], true
}

// Last returns the latest observation.
func (s Series) Last() (Observation, bool) {
	if s.IsEmpty() {
		return Observation{}, false
	}
	return s.Observations[len(s.Observations)-1], true
}

// Values returns the observation values in date order.
func (s Series) Values() []float64 {
	vals := make([]float64, len(s.Observations))
	for i, o := range s.Observations {
		vals[i] = o.Value
	}
	return vals
}

// Dates returns the observation dates in order.
func (s Series) Dates() []time.Time {
	dates := make([]time.Time, len(s.Observations))
	for i, o := range s.Observations {
		dates[i] = o.Date
	}
	return dates
}

// Slice returns the observations dated within [from, to], both inclusive.
// A zero bound is open.
func (s Series) Slice(from, to time.Time) Series {
	out := make([]Observation, 0)
	for _, o := range s.Observations {
		if !from.IsZero() && o.Date.Before(Day(from)) {
			continue
		}
		if !to.IsZero() && o.Date.After(Day(to)) {
			break
		}
		out = append(out, o)
	}
	return Series{Key: s.Key, Label: s.Label, Observations: out}
}

// Scale multiplies every value by k.
func (s Series) Scale(k float64) Series {
	out := make([]Observation, len(s.Observations))
	for i, o := range s.Observations {
		out[i] = Observation{Date: o.Date, Value: o.Value * k}
	}
	return Series{Key: s.Key, Label: s.Label, Observations: out}
}

// Day truncates t to its calendar date in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders t as YYYY-MM-DD, or "" for the zero time.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}
