// Package geocoding resolves a place title and free-text address to
// coordinates through a LocationIQ-compatible search API.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/server/metrics"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
)

// maxResponseSize bounds how much of a search response is read.
const maxResponseSize = 1 << 20

// Client performs a single search request per Resolve call. It never
// retries: an address that does not resolve is not a transient failure.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type searchResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve looks up "title, address" and returns the first candidate.
//
// Errors: common.ErrLocationNotFound when the service has no candidates,
// common.ErrExternalServiceUnavailable on transport, status or parse failures.
func (c *Client) Resolve(ctx context.Context, title, address string) (*models.Location, error) {
	loc, err := c.resolve(ctx, title, address)
	switch {
	case err == nil:
		metrics.RecordExternalCall("geocoding", "resolve", metrics.OutcomeOK)
	case errors.Is(err, common.ErrLocationNotFound):
		metrics.RecordExternalCall("geocoding", "resolve", metrics.OutcomeNotFound)
	default:
		metrics.RecordExternalCall("geocoding", "resolve", metrics.OutcomeError)
	}
	return loc, err
}

func (c *Client) resolve(ctx context.Context, title, address string) (*models.Location, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", title+", "+address)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", common.ErrExternalServiceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrExternalServiceUnavailable, redact(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", common.ErrExternalServiceUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// LocationIQ answers 404 {"error":"Unable to geocode"} for zero matches.
		return nil, common.ErrLocationNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: unexpected status %d", common.ErrExternalServiceUnavailable, resp.StatusCode)
	}

	var results []searchResult
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", common.ErrExternalServiceUnavailable, err)
	}
	if len(results) == 0 {
		return nil, common.ErrLocationNotFound
	}

	return toLocation(results[0])
}

func toLocation(r searchResult) (*models.Location, error) {
	lat, err := strconv.ParseFloat(r.Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad latitude %q", common.ErrExternalServiceUnavailable, r.Lat)
	}
	lng, err := strconv.ParseFloat(r.Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad longitude %q", common.ErrExternalServiceUnavailable, r.Lon)
	}
	return &models.Location{Lat: lat, Lng: lng, CanonicalAddress: r.DisplayName}, nil
}

// redact keeps the API key, which travels in the query string, out of
// error messages that end up in logs.
func redact(err error, secret string) string {
	if secret == "" {
		return err.Error()
	}
	return strings.ReplaceAll(err.Error(), secret, "REDACTED")
}
