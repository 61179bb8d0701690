package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

var defaultClient = &http.Client{Timeout: 30 * time.Second}

// ErrHTTP is returned when an upstream answers with a non-2xx status.
type ErrHTTP struct {
	URL    string
	Status int
	Body   string
}

func (e *ErrHTTP) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.Status, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.Status, e.URL, e.Body)
}

// DoGet issues a GET request with client, or a 30s-timeout client when nil.
// The caller owns the body.
func DoGet(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) (io.ReadCloser, int, error) {
	if client == nil {
		client = defaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := client.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, credentials included.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return nil, 0, fmt.Errorf("GET %s: %w", Redact(rawURL), err)
	}
	return resp.Body, resp.StatusCode, nil
}

// maxErrorBody caps how much of a failed response is kept in ErrHTTP.
const maxErrorBody = 512

// ReadAll drains body and closes it. A non-2xx status yields *ErrHTTP along
// with whatever body was read, so callers can still inspect error payloads.
func ReadAll(body io.ReadCloser, status int, rawURL string) ([]byte, error) {
	defer body.Close()
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if status < 200 || status > 299 {
		snippet := string(data)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return data, &ErrHTTP{URL: Redact(rawURL), Status: status, Body: snippet}
	}
	return data, nil
}
