// Package dsnt is the HTTP client for the DSNT pharmacy pricing provider.
// DSNT returns pharmacy records with the address split into separate line
// components and no coordinates; callers geocode from the record's zip.
package dsnt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/scriptscout/scriptscout/internal/provider/token"
)

// PriceRecord is a raw DSNT pricing record.
type PriceRecord struct {
	PharmacyName string  `json:"pharmacyName"`
	AddressLine1 string  `json:"addressLine1"`
	AddressLine2 string  `json:"addressLine2"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	ZipCode      string  `json:"zipCode"`
	Phone        string  `json:"phone"`
	NDC          string  `json:"ndc"`
	LabelName    string  `json:"labelName"`
	Price        float64 `json:"price"`
}

// PriceQuery holds the parameters for a DSNT price lookup.
type PriceQuery struct {
	NDC         string
	Quantity    int
	ZipCode     string
	RadiusMiles int
}

type priceResponse struct {
	Results []PriceRecord `json:"results"`
}

// Client calls the DSNT pricing API. Server errors are retried a fixed
// number of times; client errors surface immediately and are never retried.
type Client struct {
	baseURL     string
	tokens      *token.Source
	httpClient  *http.Client
	maxAttempts int
	retryDelay  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithMaxAttempts sets the total attempt bound for retried requests.
func WithMaxAttempts(n int) Option {
	return func(cl *Client) { cl.maxAttempts = n }
}

// WithRetryDelay sets the pause between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(cl *Client) { cl.retryDelay = d }
}

// NewClient creates a DSNT client. tokens may be nil when the deployment
// does not require authentication (local stubs).
func NewClient(baseURL string, tokens *token.Source, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxAttempts: 3,
		retryDelay:  250 * time.Millisecond,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// QueryPrices fetches pharmacy prices for an NDC around a zip code. The
// radius is passed through as given; callers clamp it to DSNT's accepted
// maximum before calling.
func (c *Client) QueryPrices(ctx context.Context, q PriceQuery) ([]PriceRecord, error) {
	params := url.Values{}
	params.Set("ndc", q.NDC)
	params.Set("quantity", strconv.Itoa(q.Quantity))
	params.Set("zip", q.ZipCode)
	params.Set("radius", strconv.Itoa(q.RadiusMiles))

	body, err := c.get(ctx, c.baseURL+"/v1/prices?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("dsnt: decode price response: %w", err)
	}
	return pr.Results, nil
}

// get performs a GET with the retry contract: 5xx and transport errors are
// retried up to the attempt bound, 4xx returns immediately with the status
// attached, success returns the body.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 && c.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("dsnt: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.tokens != nil {
			tok, err := c.tokens.Token(ctx)
			if err != nil {
				return nil, fmt.Errorf("dsnt: acquire token: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("dsnt: request failed: %w", err)
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, fmt.Errorf("dsnt: read response: %w", readErr)
			}
			return body, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			// Client errors are never retried.
			return nil, fmt.Errorf("dsnt: request rejected with status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(body)))
		default:
			lastErr = fmt.Errorf("dsnt: request failed with status %d", resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", lastErr, c.maxAttempts)
}
