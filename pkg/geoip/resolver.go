// Package geoip resolves client IP addresses to country codes through an
// external lookup service. Resolution is best-effort: a failed or
// disabled lookup yields an empty country, never an error surfaced to the
// redirect path.
package geoip

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Resolver maps an IP address to an ISO 3166-1 alpha-2 country code.
// An empty string means the country is unknown.
type Resolver interface {
	Country(ctx context.Context, ip string) (string, error)
}

// Disabled is a Resolver that never resolves anything.
type Disabled struct{}

func (Disabled) Country(_ context.Context, _ string) (string, error) {
	return "", nil
}

// HTTPResolver queries a JSON lookup endpoint of the form
// GET {base}/{ip} -> {"countryCode": "BR"}.
type HTTPResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver creates a resolver against the given base URL.
func NewHTTPResolver(baseURL string) *HTTPResolver {
	return &HTTPResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Second},
	}
}

func (r *HTTPResolver) Country(ctx context.Context, ip string) (string, error) {
	if ip == "" {
		return "", nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/"+ip, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geoip request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("geoip lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geoip lookup returned status %d", resp.StatusCode)
	}

	var payload struct {
		CountryCode string `json:"countryCode"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode geoip response: %w", err)
	}

	return Normalize(payload.CountryCode), nil
}

// Normalize upper-cases a country code and rejects anything that is not
// two ASCII letters. Codes are normalized once at the point of storage so
// consumers never re-patch the format.
func Normalize(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return ""
	}
	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return ""
		}
	}
	return code
}
