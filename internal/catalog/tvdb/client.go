package tvdb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"showaudit/internal/catalog"
	"showaudit/internal/services"
)

const component = "tvdb"

// DefaultBaseURL is the public TheTVDB v4 endpoint.
const DefaultBaseURL = "https://api4.thetvdb.com/v4"

// Client talks to the TheTVDB v4 API.
type Client struct {
	apiKey      string
	pin         string
	baseURL     string
	searchLimit int
	timeout     time.Duration
	httpClient  *http.Client
}

var (
	_ catalog.Client       = (*Client)(nil)
	_ catalog.SeriesLookup = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. The caller's client is
// never modified; combined with WithTimeout a copy carries the timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithPIN supplies the subscriber PIN required by user-supported API keys.
func WithPIN(pin string) Option {
	return func(c *Client) {
		c.pin = strings.TrimSpace(pin)
	}
}

// WithSearchLimit caps the number of candidates requested per search.
func WithSearchLimit(limit int) Option {
	return func(c *Client) {
		if limit > 0 {
			c.searchLimit = limit
		}
	}
}

// New creates a TheTVDB client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, component, "new", "api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		searchLimit: 10,
	}
	for _, opt := range opts {
		opt(client)
	}
	switch {
	case client.httpClient == nil:
		timeout := client.timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client.httpClient = &http.Client{Timeout: timeout}
	case client.timeout > 0:
		clone := *client.httpClient
		clone.Timeout = client.timeout
		client.httpClient = &clone
	}
	return client, nil
}

type loginResponse struct {
	Status string `json:"status"`
	Data   struct {
		Token string `json:"token"`
	} `json:"data"`
}

// Login exchanges the API key for a bearer token.
func (c *Client) Login(ctx context.Context) (string, error) {
	body := map[string]string{"apikey": c.apiKey}
	if c.pin != "" {
		body["pin"] = c.pin
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return "", services.Wrap(services.ErrAuth, component, "login", "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(encoded))
	if err != nil {
		return "", services.Wrap(services.ErrAuth, component, "login", "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var payload loginResponse
	if err := c.do(req, "login", &payload); err != nil {
		// Any login failure means the scan cannot proceed.
		if !errors.Is(err, services.ErrAuth) {
			return "", services.Wrap(services.ErrAuth, component, "login", "request failed", err)
		}
		return "", err
	}
	token := strings.TrimSpace(payload.Data.Token)
	if token == "" {
		return "", services.Wrap(services.ErrAuth, component, "login", "response carried no token", nil)
	}
	return token, nil
}

type searchResponse struct {
	Data []searchResult `json:"data"`
}

type searchResult struct {
	TVDBID   string   `json:"tvdb_id"`
	ObjectID string   `json:"objectID"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Aliases  []string `json:"aliases"`
	Year     string   `json:"year"`
	Status   string   `json:"status"`
	Type     string   `json:"type"`
}

// Search returns series candidates for query in catalog relevance order.
func (c *Client) Search(ctx context.Context, token, query string) ([]catalog.Candidate, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrNoMatch, component, "search", "query must not be empty", nil)
	}
	endpoint, err := url.Parse(c.baseURL + "/search")
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, component, "search", "parse url", err)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("type", "series")
	params.Set("limit", strconv.Itoa(c.searchLimit))
	endpoint.RawQuery = params.Encode()

	req, err := c.authorizedGet(ctx, token, endpoint.String())
	if err != nil {
		return nil, services.Wrap(services.ErrUpstream, component, "search", "build request", err)
	}
	var payload searchResponse
	if err := c.do(req, "search", &payload); err != nil {
		return nil, err
	}

	candidates := make([]catalog.Candidate, 0, len(payload.Data))
	for _, result := range payload.Data {
		if result.Type != "" && result.Type != "series" {
			continue
		}
		id := resultID(result)
		if id == "" {
			continue
		}
		candidates = append(candidates, catalog.Candidate{
			ID:      id,
			Name:    strings.TrimSpace(result.Name),
			Aliases: catalog.CleanAliases(result.Name, result.Aliases),
			Year:    strings.TrimSpace(result.Year),
			Status:  strings.TrimSpace(result.Status),
		})
	}
	return candidates, nil
}

// resultID prefers tvdb_id and falls back to the numeric suffix of objectID
// ("series-81189") or id.
func resultID(result searchResult) string {
	if id := strings.TrimSpace(result.TVDBID); id != "" {
		return id
	}
	for _, raw := range []string{result.ObjectID, result.ID} {
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "-"); idx >= 0 {
			raw = raw[idx+1:]
		}
		if _, err := strconv.Atoi(raw); err == nil {
			return raw
		}
	}
	return ""
}

type seriesResponse struct {
	Data struct {
		ID     int    `json:"id"`
		Name   string `json:"name"`
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
		Seasons []struct {
			Number *int `json:"number"`
			Type   struct {
				Type string `json:"type"`
			} `json:"type"`
		} `json:"seasons"`
	} `json:"data"`
}

// Series fetches the extended series record and returns its aired-order
// seasons and lifecycle status.
func (c *Client) Series(ctx context.Context, token, id string) (catalog.Series, error) {
	id = strings.TrimSpace(id)
	if _, err := strconv.Atoi(id); err != nil {
		return catalog.Series{}, services.Wrap(services.ErrUpstream, component, "series", fmt.Sprintf("invalid series id %q", id), nil)
	}
	req, err := c.authorizedGet(ctx, token, c.baseURL+"/series/"+url.PathEscape(id)+"/extended")
	if err != nil {
		return catalog.Series{}, services.Wrap(services.ErrUpstream, component, "series", "build request", err)
	}
	var payload seriesResponse
	if err := c.do(req, "series", &payload); err != nil {
		return catalog.Series{}, err
	}

	numbers := make([]int, 0, len(payload.Data.Seasons))
	for _, season := range payload.Data.Seasons {
		if season.Number == nil {
			continue
		}
		if kind := season.Type.Type; kind != "" && kind != "official" {
			continue
		}
		numbers = append(numbers, *season.Number)
	}
	return catalog.Series{
		ID:      id,
		Name:    payload.Data.Name,
		Status:  strings.TrimSpace(payload.Data.Status.Name),
		Seasons: catalog.NormalizeSeasons(numbers),
	}, nil
}

// Seasons returns the catalog season numbers for id.
func (c *Client) Seasons(ctx context.Context, token, id string) ([]int, error) {
	series, err := c.Series(ctx, token, id)
	if err != nil {
		return nil, err
	}
	return series.Seasons, nil
}

func (c *Client) authorizedGet(ctx context.Context, token, endpoint string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes req and decodes a 200 JSON body into out. A 401 maps to
// ErrAuth since the scan token cannot be refreshed mid-run.
func (c *Client) do(req *http.Request, operation string, out any) error {
	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrUpstream, component, operation, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrAuth, component, operation, fmt.Sprintf("unauthorized (latency=%v)", latency), nil)
	case resp.StatusCode != http.StatusOK:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		message := fmt.Sprintf("returned %d (latency=%v)", resp.StatusCode, latency)
		if text := strings.TrimSpace(string(snippet)); text != "" {
			message += ": " + text
		}
		return services.Wrap(services.ErrUpstream, component, operation, message, nil)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return services.Wrap(services.ErrUpstream, component, operation, "decode response", err)
	}
	return nil
}
