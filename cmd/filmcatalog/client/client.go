package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/cache"
	"github.com/SanteonNL/filmcatalog/cmd/filmcatalog/compiler"
	"github.com/SanteonNL/filmcatalog/models/catalog"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

type Options struct {
	BaseURL  string
	Timeout  time.Duration
	RetryMax int
	// Cache is optional
	Cache *cache.ResultCache
}

// Client talks to the catalog service
type Client struct {
	baseURL    *url.URL
	HTTPClient *http.Client
	cache      *cache.ResultCache
	log        zerolog.Logger
}

func New(opts Options, log zerolog.Logger) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("API URL is not configured")
	}
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid API URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid API URL %q: scheme and host are required", opts.BaseURL)
	}

	log = log.With().Str("component", "client").Logger()

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = opts.RetryMax
	retryClient.Logger = leveledLogger{log: log}
	retryClient.ErrorHandler = keepLastResponse
	retryClient.HTTPClient = &http.Client{
		Timeout: opts.Timeout,
	}

	return &Client{
		baseURL:    base,
		HTTPClient: retryClient.StandardClient(),
		cache:      opts.Cache,
		log:        log,
	}, nil
}

// keepLastResponse hands the final response of an exhausted retry loop to the
// caller so the service's error body can be read.
func keepLastResponse(resp *http.Response, err error, _ int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, err
}

// Fetch requests one page of res filtered by q
func (c *Client) Fetch(ctx context.Context, res Resource, q compiler.Query) (Page, error) {
	body, err := c.cachedGet(ctx, res.Name, res.Path, q)
	if err != nil {
		return Page{}, err
	}
	page, err := parsePage(res, body)
	if err != nil {
		return Page{}, &TransportError{Err: err}
	}
	return page, nil
}

// Film fetches the full record of one film, reviews included
func (c *Client) Film(ctx context.Context, id string) (catalog.Film, error) {
	if strings.TrimSpace(id) == "" {
		return catalog.Film{}, fmt.Errorf("film id is required")
	}
	body, err := c.get(ctx, "/films/"+url.PathEscape(id), compiler.Query{})
	if err != nil {
		return catalog.Film{}, err
	}

	var film catalog.Film
	if err := json.Unmarshal(body, &film); err != nil {
		return catalog.Film{}, &TransportError{Err: fmt.Errorf("failed to parse film JSON: %w", err)}
	}
	return film, nil
}

// Recommendations asks the recommender for films matching q
func (c *Client) Recommendations(ctx context.Context, q compiler.Query) ([]catalog.Recommendation, error) {
	body, err := c.cachedGet(ctx, "recommendations", "/recommendations", q)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Recommendations []catalog.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to parse recommendations JSON: %w", err)}
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []catalog.Recommendation{}
	}
	return resp.Recommendations, nil
}

// Superlatives fetches the group's awards, grouped by category
func (c *Client) Superlatives(ctx context.Context) ([]catalog.SuperlativeCategory, error) {
	body, err := c.cachedGet(ctx, "superlatives", "/superlatives", compiler.Query{})
	if err != nil {
		return nil, err
	}

	var categories []catalog.SuperlativeCategory
	if err := json.Unmarshal(body, &categories); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to parse superlatives JSON: %w", err)}
	}
	return categories, nil
}

func (c *Client) cachedGet(ctx context.Context, name, path string, q compiler.Query) ([]byte, error) {
	encoded := q.Encode()
	if c.cache != nil {
		if body, ok := c.cache.Get(name, encoded); ok {
			return body, nil
		}
	}

	body, err := c.get(ctx, path, q)
	if err != nil {
		return nil, err
	}
	if c.cache != nil {
		c.cache.Put(name, encoded, body)
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, path string, q compiler.Query) ([]byte, error) {
	req, err := c.prepareRequest(ctx, http.MethodGet, path, q)
	if err != nil {
		return nil, err
	}
	return c.sendRequest(req)
}

func (c *Client) prepareRequest(ctx context.Context, method, path string, q compiler.Query) (*http.Request, error) {
	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json; charset=utf-8")
	return req, nil
}

func (c *Client) sendRequest(req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("failed to send request: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.log.Debug().
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Received response")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, body)
	}
	if len(body) == 0 {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("received empty response from server for URL: %s", req.URL)}
	}
	return body, nil
}
