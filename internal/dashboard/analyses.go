package dashboard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fedlens/internal/catalog"
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/fetcher"
	"github.com/seenimoa/fedlens/internal/logging"
	"github.com/seenimoa/fedlens/internal/metrics"
	"github.com/seenimoa/fedlens/pkg/models"
)

// Analysis names an available analysis.
type Analysis string

const (
	Complete     Analysis = "complete"
	Fiscal       Analysis = "fiscal"
	Monetary     Analysis = "monetary"
	Debasement   Analysis = "debasement"
	BrettonWoods Analysis = "bretton-woods"
	Fiat         Analysis = "fiat"
	TwoEras      Analysis = "two-eras"
)

// AnalysisInfo describes an analysis for listings.
type AnalysisInfo struct {
	Name        Analysis `json:"name"`
	Title       string   `json:"title"`
	Series      []string `json:"series"`
	FullHistory bool     `json:"full_history"` // ignores the selected period
}

type definition struct {
	info   AnalysisInfo
	derive func(ctx context.Context, s *Service, rep *Report, today time.Time) error
}

// minCorrelationSeries is the number of loaded series below which the
// correlation matrix is not computed.
const minCorrelationSeries = 3

// fiatDecadesFrom is the first year of the decade breakdown.
const fiatDecadesFrom = 1971

var order = []Analysis{Complete, Fiscal, Monetary, Debasement, BrettonWoods, Fiat, TwoEras}

// registry is populated in init because the derive functions read it back,
// which would otherwise form an initialization cycle.
var registry map[Analysis]definition

func init() {
	registry = map[Analysis]definition{
		Complete: {
			info: AnalysisInfo{
				Name:   Complete,
				Title:  "Complete Analysis",
				Series: []string{"M2SL", "CPIAUCSL", "FGEXPND", "DGS10", "FEDFUNDS", "GDP"},
			},
			derive: deriveComplete,
		},
		Fiscal: {
			info: AnalysisInfo{
				Name:   Fiscal,
				Title:  "Fiscal Policy Deep Dive",
				Series: []string{"FGEXPND", "FYFSD", "FYGFDPUN", "GDP"},
			},
			derive: deriveFiscal,
		},
		Monetary: {
			info: AnalysisInfo{
				Name:   Monetary,
				Title:  "Monetary Policy Exposure",
				Series: []string{"M1SL", "M2SL", "BASE", "CPIAUCSL", "FEDFUNDS"},
			},
			derive: deriveMonetary,
		},
		Debasement: {
			info: AnalysisInfo{
				Name:        Debasement,
				Title:       "Dollar Debasement Tracker",
				Series:      []string{"CPIAUCSL", "DTWEXBGS", "DGS10"},
				FullHistory: true,
			},
			derive: deriveDebasement,
		},
		BrettonWoods: {
			info: AnalysisInfo{
				Name:   BrettonWoods,
				Title:  "Bretton Woods Era (1913-1971)",
				Series: []string{"CPIAUCSL", "FGEXPND", "GDP", "UNRATE"},
			},
			derive: deriveBrettonWoods,
		},
		Fiat: {
			info: AnalysisInfo{
				Name:   Fiat,
				Title:  "Fiat Currency Era (Post-1971)",
				Series: []string{"M2SL", "CPIAUCSL", "FGEXPND", "GDP", "FEDFUNDS", "FYGFDPUN"},
			},
			derive: deriveFiat,
		},
		TwoEras: {
			info: AnalysisInfo{
				Name:   TwoEras,
				Title:  "Two Eras Comparison: Dollar Value & Economic Impact",
				Series: []string{"CPIAUCSL", "FGEXPND", "GDP", "M2SL", "FYGFDPUN"},
			},
			derive: deriveTwoEras,
		},
	}
}

// Analyses lists the available analyses in display order.
func Analyses() []AnalysisInfo {
	out := make([]AnalysisInfo, 0, len(order))
	for _, name := range order {
		info := registry[name].info
		info.Series = append([]string(nil), info.Series...)
		out = append(out, info)
	}
	return out
}

// ParseAnalysis resolves a name, case-insensitively.
func ParseAnalysis(name string) (Analysis, error) {
	a := Analysis(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := registry[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAnalysis, name)
	}
	return a, nil
}

func deriveComplete(_ context.Context, s *Service, rep *Report, _ time.Time) error {
	keys := registry[Complete].info.Series
	latestFigures(rep, keys)

	loaded := make([]models.Series, 0, len(keys))
	for _, k := range keys {
		if ser, ok := rep.Series[k]; ok {
			loaded = append(loaded, ser)
		}
	}
	if len(loaded) < minCorrelationSeries {
		rep.addNotice(models.NoticeInfo, "", fmt.Sprintf(
			"Correlation matrix needs at least %d series, %d loaded", minCorrelationSeries, len(loaded)))
		return nil
	}
	m := metrics.CorrelationMatrix(models.Join(loaded...))
	rep.Correlation = &m
	return nil
}

func deriveFiscal(_ context.Context, s *Service, rep *Report, _ time.Time) error {
	latestFigures(rep, registry[Fiscal].info.Series)

	debt, okDebt := rep.Series["FYGFDPUN"]
	gdp, okGDP := rep.Series["GDP"]
	if !okDebt || !okGDP {
		return nil
	}
	ratio := metrics.Ratio(debt, gdp).Scale(100)
	ratio.Key = "debt_to_gdp"
	ratio.Label = "Debt-to-GDP Ratio (%)"
	rep.Derived[ratio.Key] = ratio

	last, err := metrics.Latest(ratio)
	if err != nil {
		s.metricFailed(rep, "FYGFDPUN", "Debt-to-GDP ratio", err)
		return nil
	}
	rep.addFigure(Figure{
		Key:   "debt_to_gdp",
		Label: "Current Debt-to-GDP Ratio",
		Value: last.Value,
		Unit:  UnitPercent,
		AsOf:  models.FormatDate(last.Date),
	})
	return nil
}

// yoy derives the year-over-year percentage change of key, if loaded.
func yoy(s *Service, rep *Report, key, derivedKey, label string) {
	ser, ok := rep.Series[key]
	if !ok {
		return
	}
	lag := int(catalog.PeriodsPerYear(key))
	pc, err := metrics.PeriodChange(ser, lag)
	if err != nil {
		s.metricFailed(rep, key, label, err)
		return
	}
	pc = pc.Scale(100)
	pc.Key, pc.Label = derivedKey, label
	rep.Derived[derivedKey] = pc

	if last, err := metrics.Latest(pc); err == nil {
		rep.addFigure(Figure{
			Key:       derivedKey,
			Label:     "Latest " + label,
			Value:     last.Value,
			Unit:      UnitPercent,
			SeriesKey: key,
			AsOf:      models.FormatDate(last.Date),
		})
	}
}

func deriveMonetary(_ context.Context, s *Service, rep *Report, _ time.Time) error {
	latestFigures(rep, registry[Monetary].info.Series)
	yoy(s, rep, "M2SL", "m2_yoy", "M2 Year-over-Year Growth (%)")
	yoy(s, rep, "CPIAUCSL", "cpi_yoy", "CPI Year-over-Year Inflation (%)")
	return nil
}

// purchasingPower adds the purchasing-power index of CPI together with the
// share lost and the present cost of one base-period dollar.
func purchasingPower(s *Service, rep *Report, cpi models.Series) {
	ppi, err := metrics.PurchasingPowerIndex(cpi)
	if err != nil {
		s.metricFailed(rep, cpi.Key, "Purchasing power index", err)
		return
	}
	ppi.Key = "purchasing_power"
	rep.Derived[ppi.Key] = ppi

	first, _ := ppi.First()
	current, _ := ppi.Last()
	baseYear := first.Date.Format("2006")

	rep.addFigure(Figure{
		Key:       "purchasing_power_lost",
		Label:     "Dollar Purchasing Power Lost Since " + baseYear,
		Value:     (1 - current.Value) * 100,
		Unit:      UnitPercent,
		SeriesKey: cpi.Key,
		AsOf:      models.FormatDate(current.Date),
	})
	rep.addFigure(Figure{
		Key:       "cost_of_base_dollar",
		Label:     "Today's Cost of $1.00 from " + baseYear,
		Value:     1 / current.Value,
		Unit:      UnitUSD,
		SeriesKey: cpi.Key,
		AsOf:      models.FormatDate(current.Date),
	})
}

func deriveDebasement(_ context.Context, s *Service, rep *Report, _ time.Time) error {
	cpi, ok := rep.Series["CPIAUCSL"]
	if ok {
		purchasingPower(s, rep, cpi)
	}
	latestFigures(rep, []string{"DTWEXBGS", "DGS10"})
	return nil
}

// percentFigure computes fn(series) and adds it as a percentage figure.
func percentFigure(s *Service, rep *Report, key, figKey, label string, fn func(models.Series) (float64, error)) {
	ser, ok := rep.Series[key]
	if !ok {
		return
	}
	v, err := fn(ser)
	if err != nil {
		s.metricFailed(rep, key, label, err)
		return
	}
	rep.addFigure(Figure{Key: figKey, Label: label, Value: v * 100, Unit: UnitPercent, SeriesKey: key})
}

func meanYoY(key string) func(models.Series) (float64, error) {
	return func(s models.Series) (float64, error) {
		return metrics.MeanPeriodChange(s, int(catalog.PeriodsPerYear(key)))
	}
}

func cagr(key string) func(models.Series) (float64, error) {
	return func(s models.Series) (float64, error) {
		return metrics.CAGR(s, catalog.PeriodsPerYear(key))
	}
}

func deriveBrettonWoods(_ context.Context, s *Service, rep *Report, _ time.Time) error {
	percentFigure(s, rep, "CPIAUCSL", "avg_inflation", "Average Annual Inflation", meanYoY("CPIAUCSL"))
	percentFigure(s, rep, "FGEXPND", "spending_cagr", "Government Spending Growth (CAGR)", cagr("FGEXPND"))
	percentFigure(s, rep, "GDP", "gdp_cagr", "GDP Growth (CAGR)", cagr("GDP"))

	if u, ok := rep.Series["UNRATE"]; ok && !u.IsEmpty() {
		rep.addFigure(Figure{
			Key:       "avg_unemployment",
			Label:     "Average Unemployment Rate",
			Value:     metrics.Mean(u.Values()),
			Unit:      UnitPercent,
			SeriesKey: "UNRATE",
		})
	}
	return nil
}

func deriveFiat(_ context.Context, s *Service, rep *Report, today time.Time) error {
	percentFigure(s, rep, "M2SL", "m2_increase", "Money Supply Increase", metrics.TotalChange)
	percentFigure(s, rep, "CPIAUCSL", "purchasing_power_lost", "Dollar Purchasing Power Lost", metrics.PurchasingPowerLost)
	percentFigure(s, rep, "FGEXPND", "spending_increase", "Government Spending Increase", metrics.TotalChange)
	percentFigure(s, rep, "FYGFDPUN", "debt_increase", "Federal Debt Increase", metrics.TotalChange)

	cpi, ok := rep.Series["CPIAUCSL"]
	if !ok {
		return nil
	}
	rep.Buckets = metrics.BucketByPeriod(cpi, eras.Decades(fiatDecadesFrom, today))
	for _, b := range rep.Buckets {
		if !b.Insufficient {
			continue
		}
		s.log.WithFields(logrus.Fields{
			logging.FieldAnalysis: rep.Analysis,
			logging.FieldSeries:   cpi.Key,
			logging.FieldBucket:   b.Label,
		}).Warnf("bucket has %d observations, reporting 0", b.Count)
		rep.addNotice(models.NoticeInfo, cpi.Key, fmt.Sprintf(
			"%s: only %d observations, average inflation shown as 0", b.Label, b.Count))
	}
	return nil
}

// Era descriptions for the two-eras comparison.
var (
	goldEraSeries = []string{"CPIAUCSL", "FGEXPND", "GDP"}
	fiatEraSeries = []string{"CPIAUCSL", "FGEXPND", "GDP", "M2SL", "FYGFDPUN"}
)

func deriveTwoEras(ctx context.Context, s *Service, rep *Report, today time.Time) error {
	type eraData struct {
		series  map[string]models.Series
		notices []models.Notice
	}
	var gold, fiat eraData
	goldRange, fiatRange := eras.GoldStandardEra(), eras.FiatEra(today)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		gold.series, gold.notices = fetcher.FetchAll(gctx, s.src, s.concurrency, goldEraSeries, goldRange)
		return nil
	})
	g.Go(func() error {
		fiat.series, fiat.notices = fetcher.FetchAll(gctx, s.src, s.concurrency, fiatEraSeries, fiatRange)
		return nil
	})
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	rep.Notices = append(rep.Notices, gold.notices...)
	rep.Notices = append(rep.Notices, fiat.notices...)

	goldSummary := summarizeEra(s, rep, "Gold Standard (1913-1971)", goldRange, gold.series, false)
	goldSummary.CurrencyBacking, goldSummary.MonetarySystem = "Partial Gold", "Central Banking"
	fiatSummary := summarizeEra(s, rep, "Fiat Currency (1971-Present)", fiatRange, fiat.series, true)
	fiatSummary.CurrencyBacking, fiatSummary.MonetarySystem = "None (Fiat)", "Central Bank Monopoly"
	rep.Eras = []EraSummary{goldSummary, fiatSummary}

	if len(gold.series) == 0 || len(fiat.series) == 0 {
		rep.addNotice(models.NoticeWarning, "", "Insufficient data available for era comparison")
	}

	if cpi, ok := fiat.series["CPIAUCSL"]; ok {
		purchasingPower(s, rep, cpi)
	}
	return nil
}

// summarizeEra averages inflation and approximates GDP growth over an era.
// GDP growth counts observations to estimate years, which tolerates the
// gaps typical of early records.
func summarizeEra(s *Service, rep *Report, name string, rng eras.Range, data map[string]models.Series, withPP bool) EraSummary {
	sum := EraSummary{Name: name, Range: rng, SeriesLoaded: []string{}}
	for _, k := range fiatEraSeries {
		if _, ok := data[k]; ok {
			sum.SeriesLoaded = append(sum.SeriesLoaded, k)
		}
	}

	if cpi, ok := data["CPIAUCSL"]; ok {
		if v, err := metrics.MeanPeriodChange(cpi, int(catalog.PeriodsPerYear("CPIAUCSL"))); err == nil {
			sum.AvgInflation = ptr(v * 100)
		} else {
			s.metricFailed(rep, "CPIAUCSL", name+" average inflation", err)
		}
		if withPP {
			if v, err := metrics.PurchasingPowerLost(cpi); err == nil {
				sum.PurchasingPowerLost = ptr(v * 100)
			}
		}
	}
	if gdp, ok := data["GDP"]; ok {
		if v, err := metrics.CountCAGR(gdp, catalog.PeriodsPerYear("GDP")); err == nil {
			sum.GDPGrowth = ptr(v * 100)
		} else {
			s.metricFailed(rep, "GDP", name+" GDP growth", err)
		}
	}
	return sum
}
