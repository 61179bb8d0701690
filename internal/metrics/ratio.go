package metrics

import (
	"time"

	"github.com/seenimoa/fedlens/pkg/models"
)

// Ratio returns a/b on the dates present in both series. Dates where b is
// zero are omitted rather than producing an infinity.
func Ratio(a, b models.Series) models.Series {
	den := make(map[time.Time]float64, b.Len())
	for _, o := range b.Observations {
		den[o.Date] = o.Value
	}

	out := make([]models.Observation, 0)
	for _, o := range a.Observations {
		v, ok := den[o.Date]
		if !ok || v == 0 {
			continue
		}
		out = append(out, models.Observation{Date: o.Date, Value: o.Value / v})
	}
	return models.Series{
		Key:          a.Key + "/" + b.Key,
		Label:        a.Label + " / " + b.Label,
		Observations: out,
	}
}

// PurchasingPowerIndex normalises a price level so the first observation is
// exactly 1.0 and later observations show the share of purchasing power
// retained: first/v[i]. Zero price levels are skipped.
func PurchasingPowerIndex(s models.Series) (models.Series, error) {
	first, ok := s.First()
	if !ok {
		return models.Series{}, ErrEmptySeries
	}
	if first.Value == 0 {
		return models.Series{}, &InsufficientData{SeriesKey: s.Key, Required: 1, Actual: s.Len(), Reason: "reference value is zero"}
	}

	out := make([]models.Observation, 0, s.Len())
	out = append(out, models.Observation{Date: first.Date, Value: 1.0})
	for _, o := range s.Observations[1:] {
		if o.Value == 0 {
			continue
		}
		out = append(out, models.Observation{Date: o.Date, Value: first.Value / o.Value})
	}
	return models.Series{Key: s.Key, Label: s.Label + " purchasing power", Observations: out}, nil
}

// PurchasingPowerLost returns 1 - first/last, the share of purchasing power
// lost between the first and last price level.
func PurchasingPowerLost(s models.Series) (float64, error) {
	if s.IsEmpty() {
		return 0, ErrEmptySeries
	}
	first, _ := s.First()
	last, _ := s.Last()
	if last.Value == 0 {
		return 0, &InsufficientData{SeriesKey: s.Key, Required: 1, Actual: s.Len(), Reason: "latest value is zero"}
	}
	return 1 - first.Value/last.Value, nil
}
