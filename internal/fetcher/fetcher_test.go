package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/fedlens/internal/eras"
	"github.com/seenimoa/fedlens/internal/infra"
	"github.com/seenimoa/fedlens/internal/provider"
	"github.com/seenimoa/fedlens/internal/providers/fred"
	"github.com/seenimoa/fedlens/pkg/models"
)

// fakeProvider serves canned records and counts calls per series.
type fakeProvider struct {
	provider.BaseProvider
	mu       sync.Mutex
	calls    map[string]int
	data     map[string][]provider.RawObservation
	fail     map[string]error
	lastReqs []provider.ObservationsRequest
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		BaseProvider: provider.NewBaseProvider("fake", "fake", "", nil),
		calls:        map[string]int{},
		data:         map[string][]provider.RawObservation{},
		fail:         map[string]error{},
	}
}

func (p *fakeProvider) Observations(_ context.Context, req provider.ObservationsRequest) ([]provider.RawObservation, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[req.SeriesID]++
	p.lastReqs = append(p.lastReqs, req)
	if err := p.fail[req.SeriesID]; err != nil {
		return nil, err
	}
	return p.data[req.SeriesID], nil
}

func (p *fakeProvider) Ping(context.Context) error { return nil }

func (p *fakeProvider) callCount(key string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[key]
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

var testRange = eras.Range{
	Start: time.Date(1971, time.August, 15, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
}

func cpiRecords() []provider.RawObservation {
	return []provider.RawObservation{
		{Date: "1971-09-01", Value: "40.1"},
		{Date: "1971-10-01", Value: "."},
		{Date: "1971-11-01", Value: "40.3"},
	}
}

func TestFetchCachesWithinTTL(t *testing.T) {
	p := newFakeProvider()
	p.data["CPIAUCSL"] = cpiRecords()
	clk := &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	f := New(p, Options{Clock: clk.Now})

	first, err := f.Fetch(context.Background(), "CPIAUCSL", testRange)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Len())
	assert.Equal(t, "Consumer Price Index", first.Label)

	clk.Advance(59 * time.Minute)
	second, err := f.Fetch(context.Background(), "CPIAUCSL", testRange)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, p.callCount("CPIAUCSL"), "second fetch within TTL must not reach the provider")
}

func TestFetchRefetchesAfterTTL(t *testing.T) {
	p := newFakeProvider()
	p.data["M2SL"] = []provider.RawObservation{{Date: "2020-01-01", Value: "15000"}}
	clk := &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	f := New(p, Options{Clock: clk.Now, TTL: time.Hour})

	_, err := f.Fetch(context.Background(), "M2SL", testRange)
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = f.Fetch(context.Background(), "M2SL", testRange)
	require.NoError(t, err)
	assert.Equal(t, 2, p.callCount("M2SL"))
}

func TestFetchEvictsExpiredWindows(t *testing.T) {
	p := newFakeProvider()
	p.data["CPIAUCSL"] = cpiRecords()
	clk := &clock{now: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)}
	f := New(p, Options{Clock: clk.Now, TTL: time.Hour})

	for day := 0; day < 30; day++ {
		rng := eras.ResolveRange(eras.PeriodSinceNixonShock, clk.Now())
		_, err := f.Fetch(context.Background(), "CPIAUCSL", rng)
		require.NoError(t, err)
		assert.LessOrEqual(t, f.CachedEntries(), 1, "day %d", day)
		clk.Advance(24 * time.Hour)
	}
	assert.Equal(t, 30, p.callCount("CPIAUCSL"))
}

func TestFetchCacheKeyIncludesRange(t *testing.T) {
	p := newFakeProvider()
	p.data["GDP"] = []provider.RawObservation{{Date: "2020-01-01", Value: "21000"}}
	f := New(p, Options{})

	other := eras.Range{Start: testRange.Start.AddDate(1, 0, 0), End: testRange.End}
	_, _ = f.Fetch(context.Background(), "GDP", testRange)
	_, _ = f.Fetch(context.Background(), "GDP", other)
	_, _ = f.Fetch(context.Background(), "GDP", testRange)

	assert.Equal(t, 2, p.callCount("GDP"))
	assert.Equal(t, 2, f.CachedEntries())

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, "1971-08-15", p.lastReqs[0].Start)
	assert.Equal(t, "2024-06-01", p.lastReqs[0].End)
}

func TestFetchFailureNotCached(t *testing.T) {
	p := newFakeProvider()
	p.fail["FYGFDPUN"] = errors.New("connection reset")

	var notices []models.Notice
	f := New(p, Options{OnNotice: func(n models.Notice) { notices = append(notices, n) }})

	s, err := f.Fetch(context.Background(), "FYGFDPUN", testRange)
	var fail *FetchFailure
	require.ErrorAs(t, err, &fail)
	assert.Equal(t, "FYGFDPUN", fail.SeriesKey)
	assert.EqualError(t, fail.Cause, "connection reset")
	assert.True(t, s.IsEmpty())
	assert.NotNil(t, s.Observations)
	assert.Equal(t, "FYGFDPUN", s.Key)
	assert.Equal(t, "Federal Debt Held by Public", s.Label)

	require.Len(t, notices, 1)
	assert.Equal(t, models.NoticeWarning, notices[0].Level)
	assert.Equal(t, "FYGFDPUN", notices[0].SeriesKey)

	// The next call reaches the provider again and can succeed.
	delete(p.fail, "FYGFDPUN")
	p.data["FYGFDPUN"] = []provider.RawObservation{{Date: "2020-01-01", Value: "17000"}}
	s, err = f.Fetch(context.Background(), "FYGFDPUN", testRange)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, p.callCount("FYGFDPUN"))
}

func TestFetchMalformedRecord(t *testing.T) {
	p := newFakeProvider()
	p.data["UNRATE"] = []provider.RawObservation{{Date: "2020-01-01", Value: "n/a"}}
	f := New(p, Options{})

	s, err := f.Fetch(context.Background(), "UNRATE", testRange)
	require.Error(t, err)
	assert.ErrorIs(t, err, fred.ErrMalformedResponse)
	assert.True(t, s.IsEmpty())
}

type panickingProvider struct{ provider.BaseProvider }

func (p *panickingProvider) Ping(context.Context) error { return nil }

func (p *panickingProvider) Observations(context.Context, provider.ObservationsRequest) ([]provider.RawObservation, error) {
	panic("boom")
}

func TestFetchRecoversProviderPanic(t *testing.T) {
	p := &panickingProvider{BaseProvider: provider.NewBaseProvider("panic", "", "", nil)}
	f := New(p, Options{})

	s, err := f.Fetch(context.Background(), "GDP", testRange)
	var fail *FetchFailure
	require.ErrorAs(t, err, &fail)
	assert.Contains(t, fail.Error(), "boom")
	assert.True(t, s.IsEmpty())
}

func TestFetchHTTPErrorThroughFRED(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := fred.New(fred.Options{BaseURL: srv.URL, RequestsPerMinute: -1})
	require.NoError(t, p.Init(map[string]string{"api_key": "k"}))
	f := New(p, Options{})

	s, err := f.Fetch(context.Background(), "DGS10", testRange)
	var httpErr *infra.ErrHTTP
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.Status)
	assert.Equal(t, 0, s.Len())

	_, _ = f.Fetch(context.Background(), "DGS10", testRange)
	assert.Equal(t, int32(2), hits.Load(), "failures must not be cached")
}

func TestFetchAll(t *testing.T) {
	for _, concurrency := range []int{1, 4} {
		p := newFakeProvider()
		p.data["CPIAUCSL"] = cpiRecords()
		p.data["GDP"] = []provider.RawObservation{{Date: "2020-01-01", Value: "21000"}}
		p.fail["BASE"] = errors.New("series discontinued")
		p.fail["DTWEXBGS"] = errors.New("timeout")

		f := New(p, Options{Concurrency: concurrency})
		got, notices := f.FetchAll(context.Background(),
			[]string{"CPIAUCSL", "DTWEXBGS", "GDP", "BASE", "GDP"}, testRange)

		assert.Len(t, got, 2, "concurrency %d", concurrency)
		assert.Contains(t, got, "CPIAUCSL")
		assert.Contains(t, got, "GDP")
		assert.NotContains(t, got, "BASE")

		require.Len(t, notices, 2)
		assert.Equal(t, "BASE", notices[0].SeriesKey)
		assert.Equal(t, "DTWEXBGS", notices[1].SeriesKey)
		assert.Contains(t, notices[0].Message, "series discontinued")
		assert.Equal(t, 1, p.callCount("GDP"), "duplicate keys are fetched once")
	}
}

func TestFetchAllEmpty(t *testing.T) {
	f := New(newFakeProvider(), Options{})
	got, notices := f.FetchAll(context.Background(), nil, testRange)
	assert.Empty(t, got)
	assert.Empty(t, notices)
}

func TestFlush(t *testing.T) {
	p := newFakeProvider()
	p.data["GDP"] = []provider.RawObservation{{Date: "2020-01-01", Value: "1"}}
	f := New(p, Options{})
	_, _ = f.Fetch(context.Background(), "GDP", testRange)
	f.Flush()
	_, _ = f.Fetch(context.Background(), "GDP", testRange)
	assert.Equal(t, 2, p.callCount("GDP"))
}
