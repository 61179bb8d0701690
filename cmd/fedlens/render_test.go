package main

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/seenimoa/fedlens/internal/dashboard"
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/metrics"
	"github.com/seenimoa/fedlens/pkg/models"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		v    float64
		unit string
		want string
	}{
		{1000000, dashboard.UnitLevel, "1,000,000"},
		{1234.5, dashboard.UnitLevel, "1,234.5"},
		{12.5, dashboard.UnitPercent, "12.5%"},
		{8, dashboard.UnitUSD, "$8"},
		{-2.5, dashboard.UnitUSD, "-$2.5"},
		{math.NaN(), dashboard.UnitPercent, "n/a"},
		{math.Inf(1), dashboard.UnitLevel, "n/a"},
	}
	for _, tt := range tests {
		if got := formatValue(tt.v, tt.unit); got != tt.want {
			t.Errorf("formatValue(%v, %q) = %q, want %q", tt.v, tt.unit, got, tt.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := normalizeKey("  cpiaucsl "); got != "CPIAUCSL" {
		t.Errorf("normalizeKey = %q", got)
	}
}

func TestPrintPeriods(t *testing.T) {
	var buf bytes.Buffer
	printPeriods(&buf, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC))
	out := buf.String()
	if !strings.Contains(out, "1913-12-23 to 2024-06-15") {
		t.Errorf("fed creation range missing:\n%s", out)
	}
	if got := strings.Count(out, "\n"); got != len(eras.Periods()) {
		t.Errorf("printed %d lines, want %d", got, len(eras.Periods()))
	}
}

func TestPrintSeriesTail(t *testing.T) {
	var obs []models.Observation
	for i := 0; i < 30; i++ {
		obs = append(obs, models.Observation{Date: time.Date(2022, time.Month(1+i), 1, 0, 0, 0, 0, time.UTC), Value: 1000 + float64(i)})
	}
	s := models.NewSeries("M2SL", "M2 Money Stock", obs)

	var buf bytes.Buffer
	printSeries(&buf, s, eras.Range{}, 3)
	out := buf.String()
	if !strings.Contains(out, "M2 Money Stock (M2SL)") || !strings.Contains(out, "earliest to latest") {
		t.Errorf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "Observations: 30") {
		t.Errorf("count missing:\n%s", out)
	}
	if strings.Contains(out, "2024-03-01") {
		t.Errorf("tail should hold 3 rows:\n%s", out)
	}
	if !strings.Contains(out, "2024-06-01") || !strings.Contains(out, "1,029") {
		t.Errorf("latest row missing:\n%s", out)
	}
}

func TestPrintReport(t *testing.T) {
	gain := 4.5
	m := metrics.Matrix{
		Keys:   []string{"A", "B"},
		Values: map[metrics.Pair]float64{{A: "A", B: "A"}: 1, {A: "B", B: "B"}: 1},
	}
	rep := &dashboard.Report{
		Title:   "Two Eras Comparison",
		Period:  eras.PeriodSinceNixonShock,
		Range:   eras.Range{Start: eras.NixonShock, End: time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)},
		Figures: []dashboard.Figure{{Key: "x", Label: "Dollar Purchasing Power Lost", Value: 87.5, Unit: dashboard.UnitPercent}},
		Eras: []dashboard.EraSummary{
			{Name: "Gold Standard", AvgInflation: &gain},
		},
		Buckets:     []metrics.BucketResult{{Label: "2020s", Count: 6, Insufficient: true}},
		Correlation: &m,
		Notices:     []models.Notice{{Level: models.NoticeWarning, SeriesKey: "GDP", Message: "Could not load GDP"}},
	}

	var buf bytes.Buffer
	printReport(&buf, rep)
	out := buf.String()
	for _, want := range []string{
		"Two Eras Comparison",
		"1971-08-15 to 2024-06-15",
		"87.5%",
		"Avg inflation: 4.5%  GDP growth: n/a",
		"2020s",
		"insufficient data",
		"n/a",
		"[warning] Could not load GDP",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
