// Package contentful is a small read-only client for the Contentful
// delivery and preview APIs.
package contentful

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/vendsite/logging"
)

const (
	DeliveryURL = "https://cdn.contentful.com"
	PreviewURL  = "https://preview.contentful.com"

	defaultEnvironment = "master"
	defaultTimeout     = 10 * time.Second
	defaultInclude     = 2
	// pageSize is the page length AllEntries asks for.
	pageSize = 100
)

// ErrNotFound is returned when an entry or space does not exist.
var ErrNotFound = errors.New("contentful: not found")

// APIError is a non-2xx response from the API.
type APIError struct {
	Status    int
	ID        string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("contentful: %d %s: %s (request %s)", e.Status, e.ID, e.Message, e.RequestID)
}

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return nil
}

// Config holds the space credentials.
type Config struct {
	SpaceID      string        `yaml:"space_id"`
	Environment  string        `yaml:"environment"`
	AccessToken  string        `yaml:"access_token"`
	PreviewToken string        `yaml:"preview_token"`
	Preview      bool          `yaml:"preview"`
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
}

// Client queries one space/environment.
type Client struct {
	http     *http.Client
	baseURL  string
	space    string
	env      string
	token    string
	logger   logging.Logger
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics records request counts and latency.
func WithMetrics(requests *prometheus.CounterVec, duration *prometheus.HistogramVec) Option {
	return func(c *Client) {
		c.requests = requests
		c.duration = duration
	}
}

// New validates cfg and returns a Client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.SpaceID == "" {
		return nil, errors.New("contentful: space id is required")
	}
	token := cfg.AccessToken
	base := DeliveryURL
	if cfg.Preview {
		token = cfg.PreviewToken
		base = PreviewURL
	}
	if token == "" {
		return nil, errors.New("contentful: access token is required")
	}
	if cfg.BaseURL != "" {
		base = cfg.BaseURL
	}
	env := cfg.Environment
	if env == "" {
		env = defaultEnvironment
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: base,
		space:   cfg.SpaceID,
		env:     env,
		token:   token,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Query selects entries.
type Query struct {
	ContentType string
	// Fields filters on fields.<name>=<value>.
	Fields  map[string]string
	IDs     []string
	Order   string
	Limit   int
	Skip    int
	Include int
	Locale  string
}

func (q Query) values() url.Values {
	v := url.Values{}
	if q.ContentType != "" {
		v.Set("content_type", q.ContentType)
	}
	names := make([]string, 0, len(q.Fields))
	for name := range q.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v.Set("fields."+name, q.Fields[name])
	}
	switch len(q.IDs) {
	case 0:
	case 1:
		v.Set("sys.id", q.IDs[0])
	default:
		v.Set("sys.id[in]", strings.Join(q.IDs, ","))
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	include := q.Include
	if include == 0 {
		include = defaultInclude
	}
	v.Set("include", strconv.Itoa(include))
	if q.Locale != "" {
		v.Set("locale", q.Locale)
	}
	return v
}

// Entries fetches one page of entries matching q.
func (c *Client) Entries(ctx context.Context, q Query) (*Collection, error) {
	endpoint := fmt.Sprintf("%s/spaces/%s/environments/%s/entries?%s",
		c.baseURL, url.PathEscape(c.space), url.PathEscape(c.env), q.values().Encode())

	var coll Collection
	if err := c.get(ctx, q.ContentType, endpoint, &coll); err != nil {
		return nil, err
	}
	return &coll, nil
}

// AllEntries fetches every page of entries matching q.
func (c *Client) AllEntries(ctx context.Context, q Query) (*Collection, error) {
	if q.Limit == 0 {
		q.Limit = pageSize
	}
	all, err := c.Entries(ctx, q)
	if err != nil {
		return nil, err
	}
	for len(all.Items) < all.Total {
		q.Skip = len(all.Items)
		page, err := c.Entries(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}
		all.merge(page)
	}
	return all, nil
}

// Entry fetches one entry of contentType by id, with its includes.
func (c *Client) Entry(ctx context.Context, contentType, id string) (Entry, *Collection, error) {
	coll, err := c.Entries(ctx, Query{ContentType: contentType, IDs: []string{id}, Limit: 1})
	if err != nil {
		return Entry{}, nil, err
	}
	if len(coll.Items) == 0 {
		return Entry{}, nil, fmt.Errorf("%s %s: %w", contentType, id, ErrNotFound)
	}
	return coll.Items[0], coll, nil
}

// Ping checks that the space is reachable with the configured token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Entries(ctx, Query{Limit: 1, Include: 1})
	return err
}

func (c *Client) get(ctx context.Context, contentType, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if c.duration != nil {
		c.duration.WithLabelValues(contentType).Observe(elapsed.Seconds())
	}
	if err != nil {
		c.observe(contentType, "error")
		return fmt.Errorf("contentful request %s: %w", contentType, err)
	}
	defer resp.Body.Close()
	c.observe(contentType, strconv.Itoa(resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read contentful response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, RequestID: resp.Header.Get("X-Contentful-Request-Id")}
		var payload struct {
			Sys       struct{ ID string } `json:"sys"`
			Message   string              `json:"message"`
			RequestID string              `json:"requestId"`
		}
		if json.Unmarshal(body, &payload) == nil {
			apiErr.ID = payload.Sys.ID
			apiErr.Message = payload.Message
			if payload.RequestID != "" {
				apiErr.RequestID = payload.RequestID
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("contentful request failed",
			logging.String("content_type", contentType),
			logging.Int("status", resp.StatusCode),
			logging.String("request_id", apiErr.RequestID),
		)
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode contentful response: %w", err)
	}
	c.logger.Debug("contentful request",
		logging.String("content_type", contentType),
		logging.Duration("elapsed", elapsed),
	)
	return nil
}

func (c *Client) observe(contentType, code string) {
	if c.requests != nil {
		c.requests.WithLabelValues(contentType, code).Inc()
	}
}
