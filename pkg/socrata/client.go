// Package socrata is a minimal client for the Socrata Open Data (SODA) API
// that serves the city's public-record datasets.
package socrata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://data.cityofnewyork.us"
	defaultLimit   = 1000
)

// Client queries SODA datasets.
type Client interface {
	Query(ctx context.Context, dataset string, params Params) ([]Record, error)
}

// Params are the SoQL clauses supported by Query.
type Params struct {
	Where  string
	Select string
	Order  string
	Limit  int
}

// Values encodes p as SODA query parameters.
func (p Params) Values() url.Values {
	v := url.Values{}
	if p.Where != "" {
		v.Set("$where", p.Where)
	}
	if p.Select != "" {
		v.Set("$select", p.Select)
	}
	if p.Order != "" {
		v.Set("$order", p.Order)
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	v.Set("$limit", strconv.Itoa(limit))
	return v
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default portal URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps requests per second across all datasets.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

type httpClient struct {
	appToken string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a SODA client. appToken may be empty; unauthenticated
// requests are throttled harder by the portal.
func NewClient(appToken string, opts ...Option) Client {
	c := &httpClient{
		appToken: appToken,
		baseURL:  defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(20, 20),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Query runs a single SoQL query. It makes exactly one attempt; callers
// decide what a failure means.
func (c *httpClient) Query(ctx context.Context, dataset string, params Params) ([]Record, error) {
	if dataset == "" {
		return nil, eris.New("socrata: dataset is required")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "socrata: rate limiter wait")
	}

	u := c.baseURL + "/resource/" + url.PathEscape(dataset) + ".json?" + params.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: create request")
	}
	req.Header.Set("Accept", "application/json")
	if c.appToken != "" {
		req.Header.Set("X-App-Token", c.appToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "socrata: query %s", dataset)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "socrata: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Wrapf(&StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}, "socrata: query %s", dataset)
	}

	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, eris.Wrapf(err, "socrata: unmarshal %s", dataset)
	}
	return records, nil
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return "unexpected status " + strconv.Itoa(e.StatusCode) + ": " + e.Body
}

// HTTPStatus returns the response status code.
func (e *StatusError) HTTPStatus() int {
	return e.StatusCode
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Quote escapes a string literal for use inside a SoQL $where clause.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
