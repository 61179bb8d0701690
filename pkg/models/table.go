package models

import (
	"sort"
	"time"
)

// Row is one date of a JoinedTable. A key absent from Values is missing,
// which is distinct from a zero reading.
type Row struct {
	Date   time.Time          `json:"date"`
	Values map[string]float64 `json:"values"`
}

// Value returns the value for key and whether it is defined on this row.
func (r Row) Value(key string) (float64, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// JoinedTable is the outer join of several series on date.
type JoinedTable struct {
	Keys []string `json:"keys"`
	Rows []Row    `json:"rows"`
}

// Join outer-joins the given series on date. The table has one row for every
// date present in at least one input, in ascending order.
func Join(series ...Series) JoinedTable {
	t := JoinedTable{Keys: make([]string, 0, len(series))}
	rows := make(map[time.Time]map[string]float64)

	for _, s := range series {
		t.Keys = append(t.Keys, s.Key)
		for _, o := range s.Observations {
			vals, ok := rows[o.Date]
			if !ok {
				vals = make(map[string]float64, len(series))
				rows[o.Date] = vals
			}
			vals[s.Key] = o.Value
		}
	}

	t.Rows = make([]Row, 0, len(rows))
	for d, vals := range rows {
		t.Rows = append(t.Rows, Row{Date: d, Values: vals})
	}
	sort.Slice(t.Rows, func(i, j int) bool { return t.Rows[i].Date.Before(t.Rows[j].Date) })
	return t
}

// Column extracts the defined values of key as a Series.
func (t JoinedTable) Column(key string) Series {
	obs := make([]Observation, 0, len(t.Rows))
	for _, r := range t.Rows {
		if v, ok := r.Values[key]; ok {
			obs = append(obs, Observation{Date: r.Date, Value: v})
		}
	}
	return Series{Key: key, Label: key, Observations: obs}
}

// NoticeLevel classifies a Notice.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is a visible, non-fatal message for the presentation layer,
// e.g. a series that could not be fetched.
type Notice struct {
	Level     NoticeLevel `json:"level"`
	SeriesKey string      `json:"series_key,omitempty"`
	Message   string      `json:"message"`
}
