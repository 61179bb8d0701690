package infra

import "net/url"

// secretParams are query parameters never written to errors or logs.
var secretParams = []string{"api_key", "apikey", "token"}

// Redact masks credential query parameters in rawURL.
func Redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}
