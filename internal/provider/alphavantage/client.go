// Package alphavantage is a minimal client for the Alpha Vantage daily time series API.
package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guttosm/stockpulse/config"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"

	functionDailyAdjusted = "TIME_SERIES_DAILY_ADJUSTED"
	timeSeriesKey         = "Time Series (Daily)"

	// maxBodyBytes bounds a single response; a full history for one symbol is well under it.
	maxBodyBytes = 16 << 20
)

var (
	ErrUnexpectedPayload = errors.New("unexpected payload")
	ErrBadStatus         = errors.New("unexpected status")
)

// FetchError reports that the daily series for Symbol could not be obtained
// or understood. It is fatal for an ingestion run.
type FetchError struct {
	Symbol string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Symbol, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Bar is one trading day as the provider sends it. Values are decimal strings.
type Bar struct {
	Open          string `json:"1. open"`
	High          string `json:"2. high"`
	Low           string `json:"3. low"`
	Close         string `json:"4. close"`
	AdjustedClose string `json:"5. adjusted close"`
	Volume        string `json:"6. volume"`
}

// DailySeries maps a YYYY-MM-DD date to its bar.
type DailySeries map[string]Bar

// Doer is the subset of *http.Client the client needs.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches daily series from Alpha Vantage.
type Client struct {
	baseURL string
	apiKey  string
	http    Doer
}

// NewClient builds a Client from cfg. An empty BaseURL falls back to
// DefaultBaseURL and a zero Timeout to 30 seconds.
func NewClient(cfg config.ProviderConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: base,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchDailyAdjusted returns the full TIME_SERIES_DAILY_ADJUSTED series for symbol.
//
// Every failure is a *FetchError. Payloads without the time series key wrap
// ErrUnexpectedPayload and carry the provider's own message when it sent one
// (invalid symbol, rate limit notes, premium endpoint notices).
func (c *Client) FetchDailyAdjusted(ctx context.Context, symbol string) (DailySeries, error) {
	fail := func(err error) error { return &FetchError{Symbol: symbol, Err: err} }

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.queryURL(symbol), nil)
	if err != nil {
		return nil, fail(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fail(fmt.Errorf("request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fail(fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode))
	}

	var payload map[string]json.RawMessage
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&payload); err != nil {
		return nil, fail(fmt.Errorf("%w: decode body: %v", ErrUnexpectedPayload, err))
	}

	raw, ok := payload[timeSeriesKey]
	if !ok {
		if msg := providerMessage(payload); msg != "" {
			return nil, fail(fmt.Errorf("%w: missing %q: %s", ErrUnexpectedPayload, timeSeriesKey, msg))
		}
		return nil, fail(fmt.Errorf("%w: missing %q", ErrUnexpectedPayload, timeSeriesKey))
	}

	var series DailySeries
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, fail(fmt.Errorf("%w: decode %q: %v", ErrUnexpectedPayload, timeSeriesKey, err))
	}
	return series, nil
}

func (c *Client) queryURL(symbol string) string {
	q := url.Values{}
	q.Set("function", functionDailyAdjusted)
	q.Set("symbol", symbol)
	q.Set("apikey", c.apiKey)
	return c.baseURL + "/query?" + q.Encode()
}

// providerMessage extracts the explanation Alpha Vantage puts in place of data.
func providerMessage(payload map[string]json.RawMessage) string {
	for _, key := range []string{"Error Message", "Note", "Information"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}
