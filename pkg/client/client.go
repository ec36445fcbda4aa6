// Package client provides the Seal API HTTP client: session login, contract
// preview markup, paginated metadata, and the combined aggregate fetch.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/seal-preview/pkg/aggregate"
	"github.com/Sternrassler/seal-preview/pkg/metadata"
	"github.com/Sternrassler/seal-preview/pkg/pagination"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for Seal client operations.
var (
	sealRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seal_requests_total",
		Help: "Total Seal API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	sealRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seal_request_duration_seconds",
		Help:    "Seal API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	sealErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seal_errors_total",
		Help: "Total Seal API errors by class",
	}, []string{"class"})
)

// Endpoint labels used for metrics and errors.
const (
	EndpointPreview  = "preview"
	EndpointMetadata = "metadata"
	EndpointNonce    = "nonce"
	EndpointAuths    = "auths"
)

// ErrorClass represents a classification of request failures.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents 2xx responses with an unreadable body.
	ErrorClassDecode ErrorClass = "decode"
)

// Client is the Seal API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	config     Config
	aggregate  *aggregate.Fetcher
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the Seal API, e.g. "https://seal.example.com/seal-ws/v5"
	BaseURL string

	// Token is the session token sent as X-Session-Token (see Login)
	Token string

	// User-Agent header
	UserAgent string

	// Timeout per HTTP request
	Timeout time.Duration

	// PageLimit is the metadata page size
	PageLimit int

	// CollisionPolicy for annotation ids sharing category and offset
	CollisionPolicy metadata.CollisionPolicy
}

// DefaultConfig returns a default configuration for baseURL and token.
func DefaultConfig(baseURL, token string) Config {
	return Config{
		BaseURL:         baseURL,
		Token:           token,
		UserAgent:       "seal-preview/0.1.0",
		Timeout:         30 * time.Second,
		PageLimit:       pagination.DefaultLimit,
		CollisionPolicy: metadata.CollisionOverwrite,
	}
}

// New creates a new Seal client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("session token is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: base,
		config:  cfg,
		logger:  log.With().Str("component", "seal-client").Logger(),
	}

	pageCfg := pagination.DefaultConfig()
	pageCfg.Limit = cfg.PageLimit

	c.aggregate, err = aggregate.NewFetcher(c, aggregate.Config{
		Pagination:      pageCfg,
		CollisionPolicy: cfg.CollisionPolicy,
	})
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Preview fetches the rendered HTML markup of contract id.
func (c *Client) Preview(ctx context.Context, id string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil, "contracts", id, "preview")
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "text/html")

	body, _, err := c.do(req, EndpointPreview)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// MetadataPage fetches one page of contract id's metadata.
func (c *Client) MetadataPage(ctx context.Context, id string, offset, limit int) (*metadata.PageEnvelope, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	req, err := c.newRequest(ctx, http.MethodGet, query, "contracts", id, "metadata")
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, _, err := c.do(req, EndpointMetadata)
	if err != nil {
		return nil, err
	}

	env, err := metadata.DecodeEnvelope(bytes.NewReader(body))
	if err != nil {
		sealErrorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		return nil, &APIError{
			Endpoint:   EndpointMetadata,
			StatusCode: http.StatusOK,
			ErrorClass: ErrorClassDecode,
			Message:    "malformed metadata page",
			Err:        err,
		}
	}
	return env, nil
}

// MetadataGroups fetches every metadata page of contract id, as returned by the API.
func (c *Client) MetadataGroups(ctx context.Context, id string) ([]metadata.Group, error) {
	return c.aggregate.Groups(ctx, id)
}

// Metadata fetches every metadata page of contract id and normalizes it.
func (c *Client) Metadata(ctx context.Context, id string) (metadata.Index, error) {
	return c.aggregate.Metadata(ctx, id)
}

// FetchAll fetches the preview and the metadata of contract id in parallel.
// Failures are reported as *async.JoinError keyed by "html" and "metadata".
func (c *Client) FetchAll(ctx context.Context, id string) (*aggregate.Result, error) {
	return c.aggregate.FetchAll(ctx, id)
}

// newRequest builds a request for base URL + path segments.
func (c *Client) newRequest(ctx context.Context, method string, query url.Values, segments ...string) (*http.Request, error) {
	escaped := make([]string, len(segments))
	for i, seg := range segments {
		escaped[i] = url.PathEscape(seg)
	}
	u := c.baseURL.JoinPath(escaped...)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Session-Token", c.config.Token)
	return req, nil
}

// do executes req and returns the body and headers of a 2xx response.
// Anything else is returned as an *APIError; nothing is retried.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, http.Header, error) {
	return doRequest(c.httpClient, req, endpoint, c.config.UserAgent, c.logger)
}

// doRequest is shared by Client and Login.
func doRequest(httpClient *http.Client, req *http.Request, endpoint, userAgent string, logger zerolog.Logger) ([]byte, http.Header, error) {
	startTime := time.Now()
	defer func() {
		sealRequestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	requestID := uuid.NewString()
	req.Header.Set("X-Request-Id", requestID)
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	logger.Debug().
		Str("endpoint", endpoint).
		Str("method", req.Method).
		Str("request_id", requestID).
		Msg("Executing Seal request")

	resp, err := httpClient.Do(req)
	if err != nil {
		logger.Error().Err(err).Str("endpoint", endpoint).Str("request_id", requestID).Msg("HTTP request failed")
		sealErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		sealRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, nil, &APIError{
			Endpoint:   endpoint,
			ErrorClass: ErrorClassNetwork,
			Message:    "request failed",
			Err:        err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		sealErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		sealRequestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassNetwork,
			Message:    "read response body",
			Err:        err,
		}
	}

	sealRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errClass := classifyStatus(resp.StatusCode)
		sealErrorsTotal.WithLabelValues(string(errClass)).Inc()

		logger.Warn().
			Str("endpoint", endpoint).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Str("request_id", requestID).
			Msg("Seal request error")

		return nil, nil, &APIError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Message:    string(body),
		}
	}

	return body, resp.Header, nil
}

// classifyStatus categorizes a non-2xx status code.
func classifyStatus(status int) ErrorClass {
	if status >= 500 {
		return ErrorClassServer
	}
	return ErrorClassClient
}

// Close closes the client and releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
