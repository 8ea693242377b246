// Package scriptsave is the HTTP client for the ScriptSave pricing provider.
// ScriptSave exposes two endpoints: drug-name search (name to NDC) and
// price-by-NDC lookup. Its pricing records carry a single joined address
// string and numeric values stringified by the upstream API.
package scriptsave

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

// DrugMatch is one hit from the drug-name search endpoint.
type DrugMatch struct {
	NDC      string `json:"ndc"`
	DrugName string `json:"drugName"`
	IsBrand  bool   `json:"isBrand"`
}

// PriceRecord is a raw ScriptSave pricing record.
type PriceRecord struct {
	PharmacyName string `json:"pharmacyName"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	NDC          string `json:"ndc"`
	LabelName    string `json:"labelName"`
	Price        string `json:"price"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
}

type drugSearchResponse struct {
	Drugs []DrugMatch `json:"drugs"`
}

type priceResponse struct {
	Pricings []PriceRecord `json:"pricings"`
}

// Client calls the ScriptSave API. Server errors are retried a fixed number
// of times; client errors surface immediately and are never retried.
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

// NewClient creates a ScriptSave client. tokens may be nil when the
// deployment does not require authentication (local stubs).
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

// SearchDrugs resolves a drug name to its known NDC identifiers. An empty
// result set is not an error.
func (c *Client) SearchDrugs(ctx context.Context, name string) ([]DrugMatch, error) {
	params := url.Values{}
	params.Set("name", name)

	body, err := c.get(ctx, c.baseURL+"/v1/drugs/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var dr drugSearchResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("scriptsave: decode drug search response: %w", err)
	}
	return dr.Drugs, nil
}

// QueryPrices fetches pharmacy prices for an NDC around a zip code.
// maxResults is ScriptSave's result-count sentinel, not a geographic bound;
// callers enforce their own radius locally.
func (c *Client) QueryPrices(ctx context.Context, ndc, zipCode string, maxResults int) ([]PriceRecord, error) {
	params := url.Values{}
	params.Set("ndc", ndc)
	params.Set("zip", zipCode)
	params.Set("maxResults", strconv.Itoa(maxResults))

	body, err := c.get(ctx, c.baseURL+"/v1/pricings?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var pr priceResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("scriptsave: decode price response: %w", err)
	}
	return pr.Pricings, nil
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
			return nil, fmt.Errorf("scriptsave: build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.tokens != nil {
			tok, err := c.tokens.Token(ctx)
			if err != nil {
				return nil, fmt.Errorf("scriptsave: acquire token: %w", err)
			}
			req.Header.Set("Authorization", "Bearer "+tok)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("scriptsave: request failed: %w", err)
			continue
		}

		body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return nil, fmt.Errorf("scriptsave: read response: %w", readErr)
			}
			return body, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			// Client errors are never retried.
			return nil, fmt.Errorf("scriptsave: request rejected with status %d: %s",
				resp.StatusCode, strings.TrimSpace(string(body)))
		default:
			lastErr = fmt.Errorf("scriptsave: request failed with status %d", resp.StatusCode)
		}
	}
	return nil, fmt.Errorf("%w after %d attempts", lastErr, c.maxAttempts)
}
