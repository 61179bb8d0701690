// Package provider defines the abstraction over upstream time-series
// sources. A Provider answers observation requests for a single series and
// reports raw, unparsed records; conversion into models.Series is left to
// the provider package that knows the wire format.
package provider

import (
	"context"
	"fmt"
)

// ProviderCredential describes a required credential for a provider.
type ProviderCredential struct {
	Name        string `json:"name"`        // e.g., "api_key"
	Description string `json:"description"` // e.g., "FRED API key from fred.stlouisfed.org"
	Required    bool   `json:"required"`
	EnvVar      string `json:"env_var"` // environment variable name, e.g., "FRED_API_KEY"
}

// ProviderInfo holds metadata about a provider.
type ProviderInfo struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Website     string               `json:"website"`
	Credentials []ProviderCredential `json:"credentials"`
	RateLimit   string               `json:"rate_limit,omitempty"`
}

// ObservationsRequest scopes a request for one series. Empty Start or End
// leave the bound to the provider's default.
type ObservationsRequest struct {
	SeriesID string
	Start    string // YYYY-MM-DD
	End      string // YYYY-MM-DD
}

// RawObservation is a single record as delivered by the upstream API.
// Value may hold a provider-specific missing-value sentinel.
type RawObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

// SeriesMeta is descriptive metadata for a series.
type SeriesMeta struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	Frequency          string `json:"frequency"`
	Units              string `json:"units"`
	SeasonalAdjustment string `json:"seasonal_adjustment"`
	ObservationStart   string `json:"observation_start"`
	ObservationEnd     string `json:"observation_end"`
	LastUpdated        string `json:"last_updated"`
}

// Provider is the interface that upstream data sources implement.
type Provider interface {
	// Info returns metadata about this provider.
	Info() ProviderInfo

	// Init stores credentials. Returns an error if required credentials
	// are missing.
	Init(credentials map[string]string) error

	// Observations returns the raw records of one series in the requested
	// window, ascending by date.
	Observations(ctx context.Context, req ObservationsRequest) ([]RawObservation, error)

	// Ping verifies the provider's connectivity and credentials.
	Ping(ctx context.Context) error
}

// MetadataProvider is implemented by providers that can describe a series.
type MetadataProvider interface {
	SeriesInfo(ctx context.Context, seriesID string) (*SeriesMeta, error)
}

// ErrMissingParam is returned when a required request parameter is missing.
type ErrMissingParam struct {
	Param string
}

func (e *ErrMissingParam) Error() string {
	return fmt.Sprintf("missing required parameter %q", e.Param)
}

// ErrInvalidCredentials is returned when provider credentials are invalid.
type ErrInvalidCredentials struct {
	Provider string
	Detail   string
}

func (e *ErrInvalidCredentials) Error() string {
	return fmt.Sprintf("invalid credentials for provider %q: %s", e.Provider, e.Detail)
}

// ValidateCredentials checks that every required credential in info is
// present and non-empty.
func ValidateCredentials(info ProviderInfo, credentials map[string]string) error {
	for _, cred := range info.Credentials {
		if !cred.Required {
			continue
		}
		if v, ok := credentials[cred.Name]; !ok || v == "" {
			return &ErrInvalidCredentials{
				Provider: info.Name,
				Detail:   "missing required credential: " + cred.Name,
			}
		}
	}
	return nil
}

// ValidateRequest checks that req names a series.
func ValidateRequest(req ObservationsRequest) error {
	if req.SeriesID == "" {
		return &ErrMissingParam{Param: "series_id"}
	}
	return nil
}
