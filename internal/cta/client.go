// Package cta is a small client for the CTA Train Tracker API.
package cta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"ctaboard.trainboard.dev/internal/logging"
)

const (
	DefaultBaseURL    = "https://lapi.transitchicago.com/api/1.0"
	DefaultTimeout    = 10 * time.Second
	DefaultMaxResults = 500

	arrivalsEndpoint = "ttarrivals.aspx"
	followEndpoint   = "ttfollow.aspx"
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxResults int
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls Train Tracker. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxResults int
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient builds a Client, filling unset fields with defaults.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		maxResults: cfg.MaxResults,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger.With(slog.String("component", "cta_client")),
	}
}

// Arrivals fetches predictions for every id of the given kind in one call.
func (c *Client) Arrivals(ctx context.Context, kind IDKind, ids []string) ([]RawArrival, error) {
	params := url.Values{}
	for _, id := range ids {
		params.Add(string(kind), id)
	}
	params.Set("max", strconv.Itoa(c.maxResults))

	return c.get(ctx, arrivalsEndpoint, params)
}

// FollowRun fetches the upcoming stops of a single run.
func (c *Client) FollowRun(ctx context.Context, run int) ([]RawArrival, error) {
	params := url.Values{}
	params.Set("runnumber", strconv.Itoa(run))

	return c.get(ctx, followEndpoint, params)
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]RawArrival, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params.Set("key", c.apiKey)
	params.Set("outputType", "JSON")
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building %s request: %w", ErrUpstreamFetch, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classify(endpoint, err)
	}
	defer logging.DrainAndClose(resp.Body, c.logger, "http_response_body")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned status %d", ErrUpstreamFetch, endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(endpoint, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %w", ErrUpstreamFetch, endpoint, err)
	}
	if env.Body.ErrName != nil {
		return nil, &APIError{Code: env.Body.ErrCode, Name: *env.Body.ErrName}
	}

	c.logger.Debug("upstream call complete",
		slog.String("endpoint", endpoint),
		slog.Int("eta_count", len(env.Body.ETA)),
		slog.Duration("duration", time.Since(start)))

	return env.Body.ETA, nil
}

func classify(endpoint string, err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %s: %w", ErrUpstreamTimeout, endpoint, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrUpstreamFetch, endpoint, err)
}
