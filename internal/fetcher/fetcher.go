// Package fetcher retrieves economic series through a provider and memoizes
// them for a fixed window. A failed fetch never aborts the caller: it yields
// an empty series, a *FetchFailure and a visible notice.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/fedlens/internal/catalog"
	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/infra"
	"github.com/seenimoa/fedlens/internal/logging"
	"github.com/seenimoa/fedlens/internal/provider"
	"github.com/seenimoa/fedlens/internal/providers/fred"
	"github.com/seenimoa/fedlens/internal/telemetry"
	"github.com/seenimoa/fedlens/pkg/models"
)

// DefaultTTL is how long a fetched series is served from memory.
const DefaultTTL = time.Hour

// Source is anything that can produce a series for a date range.
type Source interface {
	Fetch(ctx context.Context, key string, rng eras.Range) (models.Series, error)
}

// FetchFailure reports a series that could not be retrieved.
type FetchFailure struct {
	SeriesKey string
	Range     eras.Range
	Cause     error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("fetch %s [%s]: %v", e.SeriesKey, e.Range, e.Cause)
}

func (e *FetchFailure) Unwrap() error { return e.Cause }

// Options configures a Fetcher. Zero values select the defaults.
type Options struct {
	TTL         time.Duration
	Concurrency int // parallel requests in FetchAll; 1 = sequential
	Logger      logrus.FieldLogger
	Clock       func() time.Time
	// OnNotice, when set, receives every notice as it is raised.
	OnNotice func(models.Notice)
}

// Fetcher fetches series through a provider with a TTL cache in front.
// Concurrent misses for the same key may both reach the provider; the last
// response stored wins.
type Fetcher struct {
	provider    provider.Provider
	cache       *infra.Cache
	log         logrus.FieldLogger
	concurrency int
	onNotice    func(models.Notice)
}

var _ Source = (*Fetcher)(nil)

// New creates a Fetcher backed by p.
func New(p provider.Provider, opts Options) *Fetcher {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Fetcher{
		provider:    p,
		cache:       infra.NewCacheWithClock(opts.TTL, opts.Clock),
		log:         opts.Logger,
		concurrency: opts.Concurrency,
		onNotice:    opts.OnNotice,
	}
}

func cacheKey(key string, rng eras.Range) string {
	return key + "|" + models.FormatDate(rng.Start) + "|" + models.FormatDate(rng.End)
}

// Fetch returns the series key restricted to rng. On failure it returns an
// empty series carrying the key and label, plus a *FetchFailure.
func (f *Fetcher) Fetch(ctx context.Context, key string, rng eras.Range) (models.Series, error) {
	label := catalog.Label(key)
	ck := cacheKey(key, rng)

	if v, ok := f.cache.Get(ck); ok {
		telemetry.RecordCacheLookup(true)
		return v.(models.Series), nil
	}
	telemetry.RecordCacheLookup(false)

	start := time.Now()
	s, err := f.request(ctx, key, label, rng)
	telemetry.RecordFetch(key, time.Since(start), err)
	if err != nil {
		fail := &FetchFailure{SeriesKey: key, Range: rng, Cause: err}
		f.log.WithFields(logrus.Fields{
			logging.FieldSeries: key,
			logging.FieldRange:  rng.String(),
			logging.FieldCause:  err.Error(),
		}).Warn("series fetch failed")
		f.notify(FailureNotice(key, err))
		return models.EmptySeries(key, label), fail
	}

	// Keys move with "today" and caller ranges, so stale windows are
	// swept here rather than waiting for a reread that never comes.
	if n := f.cache.Cleanup(); n > 0 {
		f.log.WithField(logging.FieldSeries, key).Debugf("evicted %d expired windows", n)
	}
	f.cache.Set(ck, s)
	f.log.WithFields(logrus.Fields{
		logging.FieldSeries: key,
		logging.FieldRange:  rng.String(),
	}).Debugf("fetched %d observations", s.Len())
	return s, nil
}

// request performs one provider call. A panicking provider is reported as
// an error.
func (f *Fetcher) request(ctx context.Context, key, label string, rng eras.Range) (s models.Series, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panic: %v", r)
		}
	}()

	raw, err := f.provider.Observations(ctx, provider.ObservationsRequest{
		SeriesID: key,
		Start:    models.FormatDate(rng.Start),
		End:      models.FormatDate(rng.End),
	})
	if err != nil {
		return models.Series{}, err
	}
	return fred.ToSeries(key, label, raw)
}

func (f *Fetcher) notify(n models.Notice) {
	if f.onNotice != nil {
		f.onNotice(n)
	}
}

// FetchAll fetches every key independently. Failed series are left out of
// the map; their notices are returned in key order.
func (f *Fetcher) FetchAll(ctx context.Context, keys []string, rng eras.Range) (map[string]models.Series, []models.Notice) {
	return fetchAll(ctx, f, f.concurrency, keys, rng)
}

func fetchAll(ctx context.Context, src Source, limit int, keys []string, rng eras.Range) (map[string]models.Series, []models.Notice) {
	var (
		mu      sync.Mutex
		out     = make(map[string]models.Series, len(keys))
		failed  = make(map[string]error)
		g       errgroup.Group
		visited = make(map[string]bool, len(keys))
	)
	g.SetLimit(limit)

	for _, key := range keys {
		if visited[key] {
			continue
		}
		visited[key] = true
		key := key
		g.Go(func() error {
			s, err := src.Fetch(ctx, key, rng)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed[key] = err
				return nil // non-fatal
			}
			out[key] = s
			return nil
		})
	}
	_ = g.Wait()

	failedKeys := make([]string, 0, len(failed))
	for k := range failed {
		failedKeys = append(failedKeys, k)
	}
	sort.Strings(failedKeys)

	notices := make([]models.Notice, 0, len(failedKeys))
	for _, k := range failedKeys {
		notices = append(notices, FailureNotice(k, failed[k]))
	}
	return out, notices
}

// FetchAll runs src.Fetch for every key with at most limit requests in flight.
func FetchAll(ctx context.Context, src Source, limit int, keys []string, rng eras.Range) (map[string]models.Series, []models.Notice) {
	if limit < 1 {
		limit = 1
	}
	return fetchAll(ctx, src, limit, keys, rng)
}

// FailureNotice describes a series that could not be loaded.
func FailureNotice(key string, err error) models.Notice {
	return models.Notice{
		Level:     models.NoticeWarning,
		SeriesKey: key,
		Message:   fmt.Sprintf("Could not load %s (%s): %v", catalog.Label(key), key, unwrapCause(err)),
	}
}

func unwrapCause(err error) error {
	var ff *FetchFailure
	if errors.As(err, &ff) {
		return ff.Cause
	}
	return err
}

// Flush drops every cached series.
func (f *Fetcher) Flush() {
	f.cache.Flush()
}

// CachedEntries reports how many series windows are held in memory.
func (f *Fetcher) CachedEntries() int {
	return f.cache.Len()
}
