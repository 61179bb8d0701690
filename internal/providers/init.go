// Package providers builds the concrete data providers from configuration.
package providers

import (
	"github.com/seenimoa/fedlens/internal/config"
	"github.com/seenimoa/fedlens/internal/providers/fred"
)

// NewFRED creates and initializes the FRED provider. A missing API key is
// reported as *provider.ErrInvalidCredentials.
func NewFRED(cfg config.FREDConfig) (*fred.Provider, error) {
	p := fred.New(fred.Options{
		BaseURL:           cfg.BaseURL,
		Timeout:           cfg.Timeout(),
		RequestsPerMinute: cfg.RequestsPerMinute,
	})
	if err := p.Init(map[string]string{"api_key": cfg.APIKey}); err != nil {
		return nil, err
	}
	return p, nil
}
