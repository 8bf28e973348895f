// Package client provides the core HTTP client for the Commodity Insights
// APIs: bearer-token auth with re-authentication, error classification and
// retry, daily-quota gating, and an optional Redis response cache.
package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spgci/spgci-go/pkg/auth"
	"github.com/spgci/spgci-go/pkg/cache"
	"github.com/spgci/spgci-go/pkg/config"
	"github.com/spgci/spgci-go/pkg/ratelimit"
)

// Prometheus metrics for client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spgci_requests_total",
		Help: "Total API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spgci_request_duration_seconds",
		Help:    "API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spgci_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// maxTotalAttempts bounds a single Get across all error classes.
const maxTotalAttempts = 8

// Client is the core API client. All dataset services are built on it.
type Client struct {
	httpClient *http.Client
	tokens     *auth.TokenSource
	cache      *cache.Manager
	tracker    *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL is the API root without a trailing slash.
	BaseURL string

	// UserAgent header sent on every request.
	UserAgent string

	// Tokens supplies bearer tokens (REQUIRED).
	Tokens *auth.TokenSource

	// HTTPClient overrides the default 30s-timeout client.
	HTTPClient *http.Client

	// Redis enables the response cache and the shared daily-quota gate.
	Redis *redis.Client

	// CacheTTL is the response cache lifetime (default cache.DefaultTTL).
	CacheTTL time.Duration

	// Sleep is an optional pause before each API call.
	Sleep time.Duration
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Tokens == nil {
		return nil, fmt.Errorf("token source is required")
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fmt.Sprintf("spgci-go/%s", config.Version)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	logger := log.With().Str("component", "client").Logger()

	c := &Client{
		httpClient: cfg.HTTPClient,
		tokens:     cfg.Tokens,
		config:     cfg,
		logger:     logger,
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Redis != nil {
		c.cache = cache.NewManager(cfg.Redis)
		c.tracker = ratelimit.NewTracker(cfg.Redis, logger)
	}
	return c, nil
}

// NewFromConfig wires config, token source and client together. The Redis
// client may be nil, which disables the response cache, the shared token
// store and the daily-quota gate.
func NewFromConfig(cfg config.Config, redisClient *redis.Client) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	tokens, err := auth.NewTokenSource(auth.Config{
		BaseURL:    cfg.BaseURL,
		Username:   cfg.Username,
		Password:   cfg.Password,
		AppKey:     cfg.AppKey,
		UserAgent:  cfg.UserAgent,
		HTTPClient: httpClient,
		Redis:      redisClient,
	})
	if err != nil {
		return nil, err
	}

	return New(Config{
		BaseURL:    cfg.BaseURL,
		UserAgent:  cfg.UserAgent,
		Tokens:     tokens,
		HTTPClient: httpClient,
		Redis:      redisClient,
		Sleep:      cfg.Sleep,
	})
}

// Get performs a GET request against an API path with quota gating,
// caching, auth and retry. The caller owns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	endpoint := strings.Trim(path, "/")

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	if c.tracker != nil {
		allowed, err := c.tracker.ShouldAllowRequest(ctx)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Quota check failed, allowing request")
		} else if !allowed {
			requestsTotal.WithLabelValues(endpoint, "quota_blocked").Inc()
			errorsTotal.WithLabelValues(string(ErrorClassDailyLimit)).Inc()
			return nil, fmt.Errorf("request blocked: %w", ratelimit.ErrDailyLimit)
		}
	}

	cacheKey := cache.Key{Path: endpoint, Query: params}
	if c.cache != nil {
		entry, err := c.cache.Get(ctx, cacheKey)
		if err == nil {
			c.logger.Debug().Str("endpoint", endpoint).Msg("Response cache hit")
			requestsTotal.WithLabelValues(endpoint, "cache_hit").Inc()
			return cache.EntryToResponse(entry), nil
		}
		if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Str("endpoint", endpoint).Msg("Cache get error")
		}
	}

	resp, err := c.doWithRetry(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp, c.config.CacheTTL)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to cache response")
		}
	}

	return resp, nil
}

// doWithRetry runs the attempt loop. Each error class has its own retry
// budget and backoff curve; the loop ends on success, a non-retriable
// error, an exhausted class budget, or maxTotalAttempts.
func (c *Client) doWithRetry(ctx context.Context, endpoint string, params url.Values) (*http.Response, error) {
	attempts := make(map[ErrorClass]int)

	var lastErr error
	for total := 1; total <= maxTotalAttempts; total++ {
		if c.config.Sleep > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			case <-time.After(c.config.Sleep):
			}
		}

		resp, errClass, err := c.once(ctx, endpoint, params)
		if err == nil {
			if total > 1 {
				c.logger.Info().
					Str("endpoint", endpoint).
					Int("attempt", total).
					Msg("Request succeeded after retry")
			}
			return resp, nil
		}
		lastErr = err
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		if !shouldRetry(errClass) {
			return nil, err
		}

		attempts[errClass]++
		cfg := retryConfigFor(errClass)
		if attempts[errClass] >= cfg.MaxAttempts {
			retryExhaustedTotal.WithLabelValues(string(errClass)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Str("error_class", string(errClass)).
				Int("max_attempts", cfg.MaxAttempts).
				Msg("Retry attempts exhausted")
			return nil, fmt.Errorf("%w after %d attempts: %v", ErrRetryExhausted, cfg.MaxAttempts, err)
		}

		retriesTotal.WithLabelValues(string(errClass)).Inc()
		backoff := backoffFor(cfg, attempts[errClass])
		retryBackoffSeconds.WithLabelValues(string(errClass)).Observe(backoff.Seconds())

		c.logger.Debug().
			Str("endpoint", endpoint).
			Str("error_class", string(errClass)).
			Int("attempt", attempts[errClass]).
			Dur("backoff", backoff).
			Msg("Retrying request after backoff")

		if backoff > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
			case <-time.After(backoff):
			}
		}
	}

	return nil, fmt.Errorf("%w: %v", ErrRetryExhausted, lastErr)
}

// once performs a single authenticated round trip and classifies failures.
func (c *Client) once(ctx context.Context, endpoint string, params url.Values) (*http.Response, ErrorClass, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		class := ErrorClassAuth
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			class = ErrorClassNetwork
		} else if errors.Is(err, ratelimit.ErrDailyLimit) {
			class = ErrorClassDailyLimit
		}
		return nil, class, fmt.Errorf("get token: %w", err)
	}

	u := c.config.BaseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, ErrorClassClient, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("endpoint", endpoint).Msg("HTTP request failed")
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		return nil, ErrorClassNetwork, err
	}

	if c.tracker != nil {
		if err := c.tracker.UpdateFromHeaders(ctx, resp.Header); err != nil {
			c.logger.Warn().Err(err).Msg("Failed to update quota state")
		}
	}

	requestsTotal.WithLabelValues(endpoint, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	switch {
	case resp.StatusCode == http.StatusOK:
		return resp, "", nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		// The cached token expired server-side; drop it so the retry
		// authenticates from scratch.
		c.tokens.Invalidate(ctx)
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassAuth,
			Message:    bodySnippet(resp),
		}
		c.logger.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("Token rejected, re-authenticating")
		return nil, ErrorClassAuth, apiErr

	case resp.StatusCode == http.StatusTooManyRequests:
		limitErr := ratelimit.ClassifyTooManyRequests(resp.Header)
		closeBody(resp)
		class := ErrorClassThrottle
		if limitErr == ratelimit.ErrDailyLimit {
			class = ErrorClassDailyLimit
		}
		c.logger.Warn().Str("endpoint", endpoint).Str("error_class", string(class)).Msg("Rate limited")
		return nil, class, limitErr

	case resp.StatusCode >= 500:
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Message:    bodySnippet(resp),
		}
		c.logger.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("Server error")
		return nil, ErrorClassServer, apiErr

	default:
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassClient,
			Message:    bodySnippet(resp),
		}
		c.logger.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Msg("Request rejected")
		return nil, ErrorClassClient, apiErr
	}
}

// bodySnippet reads a bounded error detail from the body and closes it.
func bodySnippet(resp *http.Response) string {
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil || len(data) == 0 {
		return resp.Status
	}
	return strings.TrimSpace(string(data))
}

func closeBody(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	resp.Body.Close()
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
