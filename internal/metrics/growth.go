// Package metrics derives growth rates, ratios, purchasing-power indices,
// per-period aggregates and correlations from economic series.
//
// Every function is pure: no I/O, no caching and no shared state.
package metrics

import (
	"fmt"
	"math"

	"github.com/seenimoa/fedlens/pkg/models"
)

// daysPerYear matches the calendar year length used for annualising spans.
const daysPerYear = 365.25

// PeriodChange returns (v[i]-v[i-lag])/v[i-lag] for every i >= lag, dated at
// observation i. The first lag observations have no result and are omitted.
// Points whose base value is zero are skipped, so the result has exactly
// len(s)-lag observations only when no base value is zero.
func PeriodChange(s models.Series, lag int) (models.Series, error) {
	if lag < 1 {
		return models.Series{}, fmt.Errorf("period change lag %d: %w", lag, ErrInvalidArgument)
	}
	n := s.Len()
	if n <= lag {
		return models.Series{}, insufficient(s.Key, lag+1, n)
	}

	out := make([]models.Observation, 0, n-lag)
	for i := lag; i < n; i++ {
		base := s.Observations[i-lag].Value
		if base == 0 {
			continue
		}
		out = append(out, models.Observation{
			Date:  s.Observations[i].Date,
			Value: (s.Observations[i].Value - base) / base,
		})
	}
	return models.Series{Key: s.Key, Label: s.Label, Observations: out}, nil
}

// MeanPeriodChange averages PeriodChange(s, lag). With monthly data and
// lag 12 this is the average year-over-year inflation rate.
func MeanPeriodChange(s models.Series, lag int) (float64, error) {
	pc, err := PeriodChange(s, lag)
	if err != nil {
		return 0, err
	}
	if pc.IsEmpty() {
		return 0, insufficient(s.Key, lag+1, 0)
	}
	return Mean(pc.Values()), nil
}

// CAGR returns the compound annual growth rate between the first and last
// observation: (last/first)^(1/years) - 1.
//
// years is the calendar span between the endpoints measured in whole periods
// of 1/periodsPerYear years, so two annual observations ten years apart
// compound over ten years.
func CAGR(s models.Series, periodsPerYear float64) (float64, error) {
	first, last, err := endpoints(s, periodsPerYear)
	if err != nil {
		return 0, err
	}

	spanYears := last.Date.Sub(first.Date).Hours() / 24 / daysPerYear
	periods := math.Round(spanYears * periodsPerYear)
	if periods < 1 {
		return 0, &InsufficientData{SeriesKey: s.Key, Required: 2, Actual: s.Len(), Reason: "endpoints span less than one period"}
	}
	return compound(first.Value, last.Value, periods/periodsPerYear), nil
}

// CountCAGR is CAGR with years approximated as count/periodsPerYear, the
// approximation used for long monthly histories.
func CountCAGR(s models.Series, periodsPerYear float64) (float64, error) {
	first, last, err := endpoints(s, periodsPerYear)
	if err != nil {
		return 0, err
	}
	years := float64(s.Len()) / periodsPerYear
	return compound(first.Value, last.Value, years), nil
}

func endpoints(s models.Series, periodsPerYear float64) (models.Observation, models.Observation, error) {
	if periodsPerYear <= 0 {
		return models.Observation{}, models.Observation{}, fmt.Errorf("periods per year %v: %w", periodsPerYear, ErrInvalidArgument)
	}
	if s.Len() < 2 {
		return models.Observation{}, models.Observation{}, insufficient(s.Key, 2, s.Len())
	}
	first, _ := s.First()
	last, _ := s.Last()
	if first.Value <= 0 || last.Value <= 0 {
		return models.Observation{}, models.Observation{}, &InsufficientData{
			SeriesKey: s.Key, Required: 2, Actual: s.Len(), Reason: "endpoints must be positive",
		}
	}
	return first, last, nil
}

func compound(first, last, years float64) float64 {
	return math.Pow(last/first, 1/years) - 1
}

// TotalChange returns last/first - 1.
func TotalChange(s models.Series) (float64, error) {
	if s.Len() < 2 {
		return 0, insufficient(s.Key, 2, s.Len())
	}
	first, _ := s.First()
	last, _ := s.Last()
	if first.Value == 0 {
		return 0, &InsufficientData{SeriesKey: s.Key, Required: 2, Actual: s.Len(), Reason: "first value is zero"}
	}
	return last.Value/first.Value - 1, nil
}

// Latest returns the most recent observation.
func Latest(s models.Series) (models.Observation, error) {
	last, ok := s.Last()
	if !ok {
		return models.Observation{}, insufficient(s.Key, 1, 0)
	}
	return last, nil
}

// Mean returns the arithmetic mean, or NaN for no values.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
