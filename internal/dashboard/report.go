package dashboard

import (
	"time"

	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/metrics"
	"github.com/seenimoa/fedlens/pkg/models"
)

// Units attached to figures.
const (
	UnitPercent = "%"
	UnitLevel   = "level"
	UnitIndex   = "index"
	UnitUSD     = "USD"
)

// Figure is a single headline number of a report.
type Figure struct {
	Key       string  `json:"key"`
	Label     string  `json:"label"`
	Value     float64 `json:"value"`
	Unit      string  `json:"unit"`
	SeriesKey string  `json:"series_key,omitempty"`
	AsOf      string  `json:"as_of,omitempty"`
}

// EraSummary compares one monetary era. Nil fields could not be computed.
type EraSummary struct {
	Name                string     `json:"name"`
	Range               eras.Range `json:"range"`
	CurrencyBacking     string     `json:"currency_backing"`
	MonetarySystem      string     `json:"monetary_system"`
	AvgInflation        *float64   `json:"avg_inflation_pct"`
	GDPGrowth           *float64   `json:"avg_gdp_growth_pct"`
	PurchasingPowerLost *float64   `json:"purchasing_power_lost_pct,omitempty"`
	SeriesLoaded        []string   `json:"series_loaded"`
}

// Report is everything the presentation layer needs to render one analysis.
type Report struct {
	Analysis    Analysis                 `json:"analysis"`
	Title       string                   `json:"title"`
	Period      string                   `json:"period"`
	Range       eras.Range               `json:"range"`
	Series      map[string]models.Series `json:"series"`
	Derived     map[string]models.Series `json:"derived,omitempty"`
	Figures     []Figure                 `json:"figures"`
	Correlation *metrics.Matrix          `json:"correlation,omitempty"`
	Buckets     []metrics.BucketResult   `json:"buckets,omitempty"`
	Eras        []EraSummary             `json:"eras,omitempty"`
	Notices     []models.Notice          `json:"notices"`
	GeneratedAt time.Time                `json:"generated_at"`
}

// Figure returns the figure with key.
func (r *Report) Figure(key string) (Figure, bool) {
	for _, f := range r.Figures {
		if f.Key == key {
			return f, true
		}
	}
	return Figure{}, false
}

func (r *Report) addFigure(f Figure) {
	r.Figures = append(r.Figures, f)
}

func (r *Report) addNotice(level models.NoticeLevel, seriesKey, msg string) {
	r.Notices = append(r.Notices, models.Notice{Level: level, SeriesKey: seriesKey, Message: msg})
}

func ptr(v float64) *float64 { return &v }
