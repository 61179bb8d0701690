// Package fred implements the FRED (Federal Reserve Economic Data) provider.
// FRED provides free access to over 800,000 economic time series from dozens
// of sources via the FRED API.
//
// Requires a free API key from https://fred.stlouisfed.org/docs/api/api_key.html
// Rate limit: 120 requests/minute.
// Docs: https://fred.stlouisfed.org/docs/api/fred/
package fred

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/seenimoa/fedlens/internal/infra"
	"github.com/seenimoa/fedlens/internal/provider"
)

const (
	providerName = "fred"
	// DefaultBaseURL is the public FRED API root.
	DefaultBaseURL = "https://api.stlouisfed.org/fred"
	// DefaultRequestsPerMinute is FRED's documented per-key limit.
	DefaultRequestsPerMinute = 120
	credAPIKey               = "api_key"
)

// ErrMalformedResponse is returned when a response body is not the JSON
// document the endpoint promises.
var ErrMalformedResponse = errors.New("fred: malformed response")

// Options configures a Provider. Zero values select the defaults.
type Options struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerMinute int
	HTTPClient        *http.Client
}

// Provider implements provider.Provider for FRED.
type Provider struct {
	provider.BaseProvider
	apiKey  string
	baseURL string
	client  *http.Client
	limiter *infra.RateLimiter
}

var _ provider.Provider = (*Provider)(nil)
var _ provider.MetadataProvider = (*Provider)(nil)

// New creates a new FRED provider.
func New(opts Options) *Provider {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.RequestsPerMinute == 0 {
		opts.RequestsPerMinute = DefaultRequestsPerMinute
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Federal Reserve Economic Data - 800K+ economic time series",
			"https://fred.stlouisfed.org",
			[]provider.ProviderCredential{
				{
					Name:        credAPIKey,
					Description: "FRED API key from fred.stlouisfed.org",
					Required:    true,
					EnvVar:      "FRED_API_KEY",
				},
			},
		),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  client,
		limiter: infra.NewRateLimiter(opts.RequestsPerMinute, time.Minute),
	}
	if opts.RequestsPerMinute > 0 {
		p.SetRateLimit(fmt.Sprintf("%d requests/minute", opts.RequestsPerMinute))
	}
	return p
}

// Init stores the API key.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.BaseProvider.Init(credentials); err != nil {
		return err
	}
	p.apiKey = credentials[credAPIKey]
	return nil
}

// APIKey returns the stored API key.
func (p *Provider) APIKey() string {
	return p.apiKey
}

// Observations fetches series/observations for one series.
func (p *Provider) Observations(ctx context.Context, req provider.ObservationsRequest) ([]provider.RawObservation, error) {
	if err := provider.ValidateRequest(req); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("series_id", req.SeriesID)
	if req.Start != "" {
		params.Set("observation_start", req.Start)
	}
	if req.End != "" {
		params.Set("observation_end", req.End)
	}

	var resp fredObservationsResponse
	if err := p.fetchJSON(ctx, "series/observations", params, &resp); err != nil {
		return nil, fmt.Errorf("fred observations %s: %w", req.SeriesID, err)
	}

	out := make([]provider.RawObservation, len(resp.Observations))
	for i, o := range resp.Observations {
		out[i] = provider.RawObservation{Date: o.Date, Value: o.Value}
	}
	return out, nil
}

// SeriesInfo fetches descriptive metadata from the series endpoint.
func (p *Provider) SeriesInfo(ctx context.Context, seriesID string) (*provider.SeriesMeta, error) {
	if seriesID == "" {
		return nil, &provider.ErrMissingParam{Param: "series_id"}
	}
	params := url.Values{}
	params.Set("series_id", seriesID)

	var resp fredSeriesResponse
	if err := p.fetchJSON(ctx, "series", params, &resp); err != nil {
		return nil, fmt.Errorf("fred series %s: %w", seriesID, err)
	}
	if len(resp.Seriess) == 0 {
		return nil, fmt.Errorf("fred series %s: %w", seriesID, ErrMalformedResponse)
	}
	s := resp.Seriess[0]
	return &provider.SeriesMeta{
		ID:                 s.ID,
		Title:              s.Title,
		Frequency:          s.Frequency,
		Units:              s.Units,
		SeasonalAdjustment: s.SeasonalAdjustment,
		ObservationStart:   s.ObservationStart,
		ObservationEnd:     s.ObservationEnd,
		LastUpdated:        s.LastUpdated,
	}, nil
}

// Ping checks connectivity to FRED API.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.SeriesInfo(ctx, "GDP"); err != nil {
		return fmt.Errorf("fred ping: %w", err)
	}
	return nil
}

// --- Shared helpers ---

func jsonHeaders() map[string]string {
	return map[string]string{"Accept": "application/json"}
}

// endpointURL builds a full FRED API URL with api_key and file_type=json appended.
func (p *Provider) endpointURL(endpoint string, params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set(credAPIKey, p.apiKey)
	q.Set("file_type", "json")
	return p.baseURL + "/" + endpoint + "?" + q.Encode()
}

// fetchJSON performs a rate-limited GET against FRED and decodes JSON into
// dest. Error payloads take precedence over the HTTP status so the caller
// sees FRED's own message.
func (p *Provider) fetchJSON(ctx context.Context, endpoint string, params url.Values, dest any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	u := p.endpointURL(endpoint, params)
	body, status, err := infra.DoGet(ctx, p.client, u, jsonHeaders())
	if err != nil {
		return err
	}
	data, httpErr := infra.ReadAll(body, status, u)
	if data == nil && httpErr != nil {
		return httpErr
	}

	if apiErr := detectAPIError(data, status); apiErr != nil {
		return apiErr
	}
	if httpErr != nil {
		return httpErr
	}
	if !gjson.ValidBytes(data) {
		return ErrMalformedResponse
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// detectAPIError returns the FRED error payload in data, if any.
func detectAPIError(data []byte, status int) *APIError {
	if !gjson.ValidBytes(data) {
		return nil
	}
	msg := gjson.GetBytes(data, "error_message")
	if !msg.Exists() {
		return nil
	}
	return &APIError{
		Status:  status,
		Code:    int(gjson.GetBytes(data, "error_code").Int()),
		Message: msg.String(),
	}
}
