// Package token fetches and caches provider API bearer tokens. Tokens are
// reused until shortly before expiry; expiry comes from the token's JWT exp
// claim when present, else from the token endpoint's expires_in field.
package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// refreshMargin is subtracted from the expiry so a token is never presented
// moments before it lapses upstream.
const refreshMargin = 30 * time.Second

// defaultLifetime is assumed when neither the JWT nor the endpoint reports
// an expiry.
const defaultLifetime = 5 * time.Minute

// Source fetches bearer tokens from a provider token endpoint and caches
// them until expiry.
type Source struct {
	tokenURL   string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Option configures a Source.
type Option func(*Source)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Source) { s.httpClient = c }
}

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Source) { s.now = now }
}

// NewSource creates a Source for the given token endpoint and API key.
func NewSource(tokenURL, apiKey string, opts ...Option) *Source {
	s := &Source{
		tokenURL: tokenURL,
		apiKey:   apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a valid bearer token, refreshing it when the cached one is
// missing or within the refresh margin of expiry.
func (s *Source) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt.Add(-refreshMargin)) {
		return s.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, nil)
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("X-API-Key", s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access_token")
	}

	s.token = tr.AccessToken
	s.expiresAt = s.expiry(tr)
	return s.token, nil
}

// expiry determines when the fetched token lapses. The provider signs the
// token; we only need the exp claim, so the JWT is parsed unverified.
func (s *Source) expiry(tr tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if tr.ExpiresIn > 0 {
		return s.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	return s.now().Add(defaultLifetime)
}

// Invalidate discards the cached token so the next call refetches.
func (s *Source) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiresAt = time.Time{}
}
