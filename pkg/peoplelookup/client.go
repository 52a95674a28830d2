// Package peoplelookup is a client for a third-party person search API
// that matches a name plus corroborating fields to contact data.
package peoplelookup

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://api.peoplelookup.io"

// ErrNotFound is returned when the service has no match for the query.
var ErrNotFound = eris.New("peoplelookup: no match")

// Client searches for a person's contact details.
type Client interface {
	Match(ctx context.Context, req MatchRequest) (*MatchResponse, error)
}

// MatchRequest is the request body for POST /v1/person/match. Only Name is
// required; the rest narrow the search.
type MatchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Company string `json:"company,omitempty"`
}

// MatchResponse is a successful match.
type MatchResponse struct {
	Status  string  `json:"status"`
	Person  Person  `json:"person"`
	CostUSD float64 `json:"cost_usd"`
}

// Person is the matched record.
type Person struct {
	Name       string   `json:"name"`
	Phones     []Phone  `json:"phones"`
	Emails     []Email  `json:"emails"`
	Employer   string   `json:"employer,omitempty"`
	Title      string   `json:"title,omitempty"`
	Confidence float64  `json:"confidence"`
	Addresses  []string `json:"addresses,omitempty"`
}

// Phone is one phone number on a matched record.
type Phone struct {
	Number   string `json:"number"`
	Type     string `json:"type,omitempty"`
	LastSeen string `json:"last_seen,omitempty"`
}

// Email is one email address on a matched record.
type Email struct {
	Address  string `json:"address"`
	LastSeen string `json:"last_seen,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a people lookup client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(5, 5),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Match(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	if req.Name == "" {
		return nil, eris.New("peoplelookup: name is required")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "peoplelookup: rate limiter wait")
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, eris.Wrap(err, "peoplelookup: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/person/match", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "peoplelookup: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "peoplelookup: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "peoplelookup: read response")
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("peoplelookup: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var result MatchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "peoplelookup: unmarshal response")
	}
	if result.Status == "not_found" {
		return nil, ErrNotFound
	}
	return &result, nil
}
