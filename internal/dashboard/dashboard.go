// Package dashboard turns an analysis request into a Report: it resolves the
// period, fetches the series the analysis needs and derives its metrics.
//
// A missing series or a metric that cannot be computed never fails the
// request. The affected figure is left out and a notice explains why.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/fedlens/internal/catalog"
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/fetcher"
	"github.com/seenimoa/fedlens/internal/logging"
	"github.com/seenimoa/fedlens/internal/telemetry"
	"github.com/seenimoa/fedlens/pkg/models"
)

// ErrUnknownAnalysis is returned for an analysis name that is not offered.
var ErrUnknownAnalysis = errors.New("unknown analysis")

// Request selects an analysis and a period label (see eras.Periods).
type Request struct {
	Analysis Analysis
	Period   string
}

// Options configures a Service. Zero values select the defaults.
type Options struct {
	Concurrency int
	Logger      logrus.FieldLogger
	Clock       func() time.Time
}

// Service computes reports from a series source.
type Service struct {
	src         fetcher.Source
	concurrency int
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewService creates a Service reading series from src.
func NewService(src fetcher.Source, opts Options) *Service {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		src:         src,
		concurrency: opts.Concurrency,
		log:         opts.Logger,
		now:         opts.Clock,
	}
}

// Run computes the requested analysis. It only fails for an unknown analysis
// or a cancelled context.
func (s *Service) Run(ctx context.Context, req Request) (*Report, error) {
	def, ok := registry[req.Analysis]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAnalysis, req.Analysis)
	}
	period := strings.TrimSpace(req.Period)
	if period == "" {
		period = eras.PeriodSinceNixonShock
	}

	today := s.now()
	rng := eras.ResolveRange(period, today)
	if def.info.FullHistory {
		rng = eras.FullHistory(today)
	}

	rep := &Report{
		Analysis:    def.info.Name,
		Title:       def.info.Title,
		Period:      period,
		Range:       rng,
		Derived:     map[string]models.Series{},
		Figures:     []Figure{},
		Notices:     []models.Notice{},
		GeneratedAt: today,
	}

	series, notices := fetcher.FetchAll(ctx, s.src, s.concurrency, def.info.Series, rng)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rep.Series = series
	rep.Notices = append(rep.Notices, notices...)

	if err := def.derive(ctx, s, rep, today); err != nil {
		return nil, err
	}

	telemetry.RecordAnalysis(string(def.info.Name))
	s.log.WithFields(logrus.Fields{
		logging.FieldAnalysis: def.info.Name,
		logging.FieldRange:    rng.String(),
	}).Infof("analysis complete: %d series, %d figures, %d notices", len(rep.Series), len(rep.Figures), len(rep.Notices))
	return rep, nil
}

// metricFailed records a derived metric that could not be computed.
func (s *Service) metricFailed(rep *Report, seriesKey, what string, err error) {
	s.log.WithFields(logrus.Fields{
		logging.FieldAnalysis: rep.Analysis,
		logging.FieldSeries:   seriesKey,
		logging.FieldCause:    err.Error(),
	}).Warn("derived metric skipped")
	rep.addNotice(models.NoticeWarning, seriesKey, fmt.Sprintf("%s unavailable: %v", what, err))
}

// latestFigures adds the most recent value of every loaded series, in key order.
func latestFigures(rep *Report, keys []string) {
	for _, key := range keys {
		s, ok := rep.Series[key]
		if !ok {
			continue
		}
		last, ok := s.Last()
		if !ok {
			continue
		}
		rep.addFigure(Figure{
			Key:       "latest_" + strings.ToLower(key),
			Label:     "Latest " + catalog.Label(key),
			Value:     last.Value,
			Unit:      UnitLevel,
			SeriesKey: key,
			AsOf:      models.FormatDate(last.Date),
		})
	}
}
