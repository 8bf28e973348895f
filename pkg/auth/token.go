// Package auth fetches and caches the bearer tokens used on every API call.
// Tokens are cached in memory for their lifetime and, when a Redis client is
// configured, shared across processes so a fleet of workers authenticates
// once instead of per process.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/spgci/spgci-go/pkg/ratelimit"
)

// tokenPath is appended to the base URL for token requests.
const tokenPath = "/auth/api"

// RedisKeyToken is where the shared token is stored.
const RedisKeyToken = "spgci:auth:token"

// DefaultTokenTTL applies when the token response carries no expires_in.
const DefaultTokenTTL = 55 * time.Minute

// expiryMargin refreshes tokens slightly before the server expires them.
const expiryMargin = 60 * time.Second

// throttleRetries bounds the fixed-wait retries on a throttled token fetch.
const throttleRetries = 3

// ErrInvalidCredentials is returned when the API rejects the credentials.
var ErrInvalidCredentials = errors.New("invalid username, password or appkey")

var tokenFetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "spgci_token_fetches_total",
	Help: "Total token fetches by outcome",
}, []string{"outcome"})

// Config holds everything needed to obtain tokens.
type Config struct {
	// BaseURL is the API root without a trailing slash.
	BaseURL string

	Username string
	Password string
	AppKey   string

	// UserAgent sent with token requests.
	UserAgent string

	// HTTPClient used for token requests (default: 30s timeout client).
	HTTPClient *http.Client

	// Redis enables the cross-process shared token store when set.
	Redis *redis.Client
}

// TokenSource fetches tokens on demand and caches them until shortly
// before expiry.
type TokenSource struct {
	cfg    Config
	http   *http.Client
	logger zerolog.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// sharedToken is the JSON stored in Redis.
type sharedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// NewTokenSource creates a token source for the given credentials.
func NewTokenSource(cfg Config) (*TokenSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &TokenSource{
		cfg:    cfg,
		http:   httpClient,
		logger: log.With().Str("component", "auth").Logger(),
	}, nil
}

// Token returns a valid access token, fetching a new one when the cached
// token is missing or about to expire.
func (ts *TokenSource) Token(ctx context.Context) (string, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token != "" && time.Now().Before(ts.expiresAt) {
		return ts.token, nil
	}

	if tok, ok := ts.loadShared(ctx); ok {
		ts.token = tok.Token
		ts.expiresAt = tok.ExpiresAt
		ts.logger.Debug().Time("expires_at", tok.ExpiresAt).Msg("Using shared token")
		return ts.token, nil
	}

	tok, ttl, err := ts.fetch(ctx)
	if err != nil {
		tokenFetchesTotal.WithLabelValues("error").Inc()
		return "", err
	}
	tokenFetchesTotal.WithLabelValues("ok").Inc()

	ts.token = tok
	ts.expiresAt = time.Now().Add(ttl - expiryMargin)
	ts.storeShared(ctx)

	ts.logger.Info().Time("expires_at", ts.expiresAt).Msg("Fetched new access token")
	return ts.token, nil
}

// Invalidate drops the cached token. The client calls this when a request
// comes back 401/403, which means the token expired server-side.
func (ts *TokenSource) Invalidate(ctx context.Context) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.token = ""
	ts.expiresAt = time.Time{}

	if ts.cfg.Redis != nil {
		if err := ts.cfg.Redis.Del(ctx, RedisKeyToken).Err(); err != nil {
			ts.logger.Warn().Err(err).Msg("Failed to drop shared token")
		}
	}
	ts.logger.Debug().Msg("Token cache invalidated")
}

// fetch performs the token request, retrying a per-second throttle with a
// fixed one second wait.
func (ts *TokenSource) fetch(ctx context.Context) (string, time.Duration, error) {
	var lastErr error
	for attempt := 0; attempt <= throttleRetries; attempt++ {
		tok, ttl, err := ts.fetchOnce(ctx)
		if err == nil {
			return tok, ttl, nil
		}
		lastErr = err

		if !errors.Is(err, ratelimit.ErrPerSecondLimit) {
			return "", 0, err
		}

		ts.logger.Warn().Int("attempt", attempt+1).Msg("Token fetch throttled, waiting")
		select {
		case <-ctx.Done():
			return "", 0, ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return "", 0, lastErr
}

func (ts *TokenSource) fetchOnce(ctx context.Context) (string, time.Duration, error) {
	body := url.Values{
		"username": []string{ts.cfg.Username},
		"password": []string{ts.cfg.Password},
	}

	endpoint := strings.TrimRight(ts.cfg.BaseURL, "/") + tokenPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.Encode()))
	if err != nil {
		return "", 0, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ts.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", ts.cfg.UserAgent)
	}
	if ts.cfg.AppKey != "" {
		req.Header.Set("appkey", ts.cfg.AppKey)
	}

	resp, err := ts.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", 0, fmt.Errorf("%w: %s", ErrInvalidCredentials, strings.TrimSpace(string(detail)))
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", 0, ratelimit.ClassifyTooManyRequests(resp.Header)
	default:
		return "", 0, fmt.Errorf("token request failed: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", 0, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", 0, fmt.Errorf("token response missing access_token")
	}

	ttl := DefaultTokenTTL
	if tr.ExpiresIn > 0 {
		ttl = time.Duration(tr.ExpiresIn) * time.Second
	}
	return tr.AccessToken, ttl, nil
}

func (ts *TokenSource) loadShared(ctx context.Context) (sharedToken, bool) {
	if ts.cfg.Redis == nil {
		return sharedToken{}, false
	}

	data, err := ts.cfg.Redis.Get(ctx, RedisKeyToken).Bytes()
	if err != nil {
		if err != redis.Nil {
			ts.logger.Warn().Err(err).Msg("Shared token store unavailable")
		}
		return sharedToken{}, false
	}

	var tok sharedToken
	if err := json.Unmarshal(data, &tok); err != nil {
		ts.logger.Warn().Err(err).Msg("Corrupt shared token entry")
		return sharedToken{}, false
	}
	if tok.Token == "" || time.Now().After(tok.ExpiresAt) {
		return sharedToken{}, false
	}
	return tok, true
}

func (ts *TokenSource) storeShared(ctx context.Context) {
	if ts.cfg.Redis == nil {
		return
	}

	data, err := json.Marshal(sharedToken{Token: ts.token, ExpiresAt: ts.expiresAt})
	if err != nil {
		return
	}
	ttl := time.Until(ts.expiresAt)
	if ttl <= 0 {
		return
	}
	if err := ts.cfg.Redis.Set(ctx, RedisKeyToken, data, ttl).Err(); err != nil {
		ts.logger.Warn().Err(err).Msg("Failed to store shared token")
	}
}
