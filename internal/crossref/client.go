// Package crossref resolves DOIs to authoritative title and year
// through the Crossref works API.
package crossref

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Crossref works API base URL.
	BaseURL = "https://api.crossref.org/works"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 20 * time.Second

	// RateLimit is 5 requests per second, inside the polite-pool guidance.
	RateLimit = 5.0

	userAgentBase = "retitle/1.0 (https://github.com/matsen/retitle)"
)

// Work is the slice of a Crossref record this tool cares about.
type Work struct {
	DOI   string
	Title string
	Year  int
}

// Client is a rate-limited HTTP client for the Crossref works API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	mailto     string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMailto sets the polite-pool contact address sent in the
// User-Agent header. An empty value keeps whatever CROSSREF_MAILTO
// provided.
func WithMailto(mailto string) ClientOption {
	return func(c *Client) {
		if mailto != "" {
			c.mailto = mailto
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRateLimit sets the request rate in requests per second.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a new Crossref API client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(RateLimit), 1),
		baseURL:    BaseURL,
	}

	// Polite-pool contact can come from the environment.
	if mailto := os.Getenv("CROSSREF_MAILTO"); mailto != "" {
		c.mailto = mailto
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	Title           []string     `json:"title"`
	Issued          crossrefDate `json:"issued"`
	PublishedPrint  crossrefDate `json:"published-print"`
	PublishedOnline crossrefDate `json:"published-online"`
	Created         crossrefDate `json:"created"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

func (d crossrefDate) year() int {
	if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 {
		return d.DateParts[0][0]
	}
	return 0
}

// Work fetches the record for a DOI. One request per call, bounded by
// the client timeout and spaced by the rate limiter.
func (c *Client) Work(ctx context.Context, doi string) (Work, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Work{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+doi, nil)
	if err != nil {
		return Work{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Work{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, doi); err != nil {
		return Work{}, err
	}

	var payload crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Work{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	work := Work{DOI: doi}
	if len(payload.Message.Title) > 0 {
		work.Title = payload.Message.Title[0]
	}
	// The first populated date field wins, most authoritative first.
	for _, d := range []crossrefDate{
		payload.Message.Issued,
		payload.Message.PublishedPrint,
		payload.Message.PublishedOnline,
		payload.Message.Created,
	} {
		if y := d.year(); y != 0 {
			work.Year = y
			break
		}
	}

	if work.Title == "" && work.Year == 0 {
		return Work{}, fmt.Errorf("%w: record carries neither title nor year", ErrInvalidResponse)
	}
	return work, nil
}

func (c *Client) userAgent() string {
	if c.mailto != "" {
		return fmt.Sprintf("%s mailto:%s", userAgentBase, c.mailto)
	}
	return userAgentBase
}

// checkStatus returns an error if the HTTP response indicates a problem.
func checkStatus(resp *http.Response, doi string) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, doi)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, doi)
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			DOI:        doi,
			Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		}
	}
}
