package infra

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCacheExpiresFromInsertion(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCacheWithClock(time.Hour, clock.Now)

	c.Set("GDP", 42)
	clock.Advance(59 * time.Minute)
	if v, ok := c.Get("GDP"); !ok || v.(int) != 42 {
		t.Fatalf("Get after 59m = %v, %v; want 42, true", v, ok)
	}

	// Reads do not extend the lifetime.
	clock.Advance(time.Minute)
	if _, ok := c.Get("GDP"); ok {
		t.Error("entry should expire exactly one TTL after insertion")
	}
}

func TestCacheSetRefreshesInsertion(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCacheWithClock(time.Hour, clock.Now)

	c.Set("k", "old")
	clock.Advance(50 * time.Minute)
	c.Set("k", "new")
	clock.Advance(50 * time.Minute)

	v, ok := c.Get("k")
	if !ok || v.(string) != "new" {
		t.Errorf("Get = %v, %v; want new, true", v, ok)
	}
}

func TestCacheGetDropsExpiredEntry(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewCacheWithClock(time.Minute, clock.Now)
	c.Set("a", 1)
	c.Set("b", 2)

	clock.Advance(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if c.Len() != 1 {
		t.Errorf("Len after expired Get = %d, want 1", c.Len())
	}
}

func TestCacheFlushCleanup(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewCacheWithClock(time.Minute, clock.Now)
	c.Set("b", 2)

	clock.Advance(2 * time.Minute)
	c.Set("c", 3)
	if n := c.Cleanup(); n != 1 {
		t.Errorf("Cleanup removed %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	c.Flush()
	if c.Len() != 0 {
		t.Errorf("Len after Flush = %d, want 0", c.Len())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := NewCacheWithClock(time.Hour, nil)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.Set("key", i)
				c.Get("key")
			}
		}(i)
	}
	wg.Wait()
	if _, ok := c.Get("key"); !ok {
		t.Error("expected key to be present")
	}
}

func TestRateLimiterBurstThenThrottle(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d should fit in the burst", i)
		}
	}
	if rl.Allow() {
		t.Error("fourth request should be throttled")
	}
}

func TestRateLimiterWaitHonoursContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Hour)
	rl.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := rl.Wait(ctx); err == nil {
		t.Error("Wait should fail when the next slot is beyond the deadline")
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(0, time.Minute)
	for i := 0; i < 1000; i++ {
		if !rl.Allow() {
			t.Fatal("disabled limiter should always allow")
		}
	}
}

func TestDoGetAndReadAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept header = %q", r.Header.Get("Accept"))
		}
		if r.URL.Path == "/fail" {
			w.WriteHeader(http.StatusBadGateway)
			io.WriteString(w, "upstream down")
			return
		}
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	headers := map[string]string{"Accept": "application/json"}

	body, status, err := DoGet(context.Background(), srv.Client(), srv.URL+"/ok", headers)
	if err != nil {
		t.Fatalf("DoGet: %v", err)
	}
	data, err := ReadAll(body, status, srv.URL)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("body = %s", data)
	}

	body, status, err = DoGet(context.Background(), srv.Client(), srv.URL+"/fail?api_key=secret", headers)
	if err != nil {
		t.Fatalf("DoGet: %v", err)
	}
	_, err = ReadAll(body, status, srv.URL+"/fail?api_key=secret")
	var httpErr *ErrHTTP
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *ErrHTTP, got %v", err)
	}
	if httpErr.Status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", httpErr.Status)
	}
	if strings.Contains(httpErr.Error(), "secret") {
		t.Errorf("error leaks api key: %s", httpErr.Error())
	}
}

func TestDoGetTransportErrorRedacted(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL + "/x?api_key=topsecret"
	srv.Close()

	_, _, err := DoGet(context.Background(), nil, url, nil)
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "topsecret") {
		t.Errorf("error leaks api key: %v", err)
	}
}

func TestRedact(t *testing.T) {
	got := Redact("https://api.example.com/fred/series?series_id=GDP&api_key=abc123")
	if strings.Contains(got, "abc123") {
		t.Errorf("Redact left key in %q", got)
	}
	if !strings.Contains(got, "series_id=GDP") {
		t.Errorf("Redact dropped other params: %q", got)
	}

	plain := "https://example.com/health"
	if Redact(plain) != plain {
		t.Errorf("Redact changed URL without secrets: %q", Redact(plain))
	}
}
