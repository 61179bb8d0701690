package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/seenimoa/fedlens/internal/config"
	"github.com/seenimoa/fedlens/internal/provider"
)

func TestNewFRED(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "cfg-key" {
			t.Errorf("api_key = %q", r.URL.Query().Get("api_key"))
		}
		w.Write([]byte(`{"seriess":[{"id":"GDP","title":"Gross Domestic Product"}]}`))
	}))
	defer srv.Close()

	p, err := NewFRED(config.FREDConfig{
		APIKey:            "cfg-key",
		BaseURL:           srv.URL,
		TimeoutSec:        5,
		RequestsPerMinute: -1,
	})
	if err != nil {
		t.Fatalf("NewFRED: %v", err)
	}
	if p.Info().Name != "fred" {
		t.Errorf("name = %q", p.Info().Name)
	}
	if err := p.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNewFREDMissingKey(t *testing.T) {
	_, err := NewFRED(config.FREDConfig{TimeoutSec: 5})
	var credErr *provider.ErrInvalidCredentials
	if !errors.As(err, &credErr) {
		t.Errorf("expected *ErrInvalidCredentials, got %v", err)
	}
}
