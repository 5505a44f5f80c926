package jellyfin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"janitorr-hq/overseer/pkg/policystore"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TokenHeader carries the API key on every request.
const TokenHeader = "X-MediaBrowser-Token"

const (
	defaultTimeout = 10 * time.Second
	searchLimit    = 10
	maxErrorBody   = 512
	maxImageBytes  = 20 << 20
)

// Client talks to one Jellyfin server. It is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http = &http.Client{Timeout: d}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a client for the server at baseURL. A trailing slash on
// baseURL is ignored.
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" || apiKey == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid jellyfin url %q: %w", baseURL, err)
	}

	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  slog.Default().With("component", "jellyfin"),
		tracer:  otel.Tracer("janitorr-hq/overseer/pkg/jellyfin"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FromSettings creates a client from Janitorr's clients.jellyfin section.
// It returns ErrNotConfigured unless the section is enabled and complete.
func FromSettings(s policystore.JellyfinSettings, opts ...Option) (*Client, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	return NewClient(s.URL, s.APIKey, opts...)
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SearchItem finds the library entry that best matches title. An exact
// case-insensitive name match wins, then a name starting with title, then
// the first result Jellyfin returned.
func (c *Client) SearchItem(ctx context.Context, title string) (Item, error) {
	if title == "" {
		return Item{}, ErrEmptyTitle
	}

	q := url.Values{}
	q.Set("SearchTerm", title)
	q.Set("Recursive", "true")
	q.Set("IncludeItemTypes", "Movie,Series")
	q.Set("Fields", "Path,Name,Id,Type,ImageTags")
	q.Set("Limit", fmt.Sprint(searchLimit))

	var resp itemsResponse
	if err := c.getJSON(ctx, "search", "/Items", q, &resp); err != nil {
		return Item{}, err
	}
	if len(resp.Items) == 0 {
		c.logger.Debug("no jellyfin match", "title", title)
		return Item{}, fmt.Errorf("search %q: %w", title, ErrNotFound)
	}

	item, how := bestMatch(resp.Items, title)
	c.logger.Debug("jellyfin match",
		"title", title,
		"match", how,
		"name", item.Name,
		"id", item.ID,
		"candidates", len(resp.Items),
	)
	return item, nil
}

func bestMatch(items []Item, title string) (Item, string) {
	want := strings.ToLower(title)
	for _, it := range items {
		if strings.ToLower(it.Name) == want {
			return it, "exact"
		}
	}
	for _, it := range items {
		if strings.HasPrefix(strings.ToLower(it.Name), want) {
			return it, "prefix"
		}
	}
	return items[0], "first"
}

// ItemByID fetches one item.
func (c *Client) ItemByID(ctx context.Context, id string) (Item, error) {
	if id == "" {
		return Item{}, ErrInvalidID
	}
	var item Item
	if err := c.getJSON(ctx, "item", "/Items/"+url.PathEscape(id), nil, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Image fetches artwork for an item.
func (c *Client) Image(ctx context.Context, id, imageType string) (Image, error) {
	if len(id) < MinItemIDLength {
		return Image{}, ErrInvalidID
	}
	if !ValidImageType(imageType) {
		return Image{}, ErrInvalidImageType
	}

	path := "/Items/" + url.PathEscape(id) + "/Images/" + imageType
	resp, err := c.do(ctx, "image", path, nil)
	if err != nil {
		return Image{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Image{}, fmt.Errorf("jellyfin image: read body: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return Image{Data: data, ContentType: ct}, nil
}

// Ping checks that the server answers its public info endpoint.
func (c *Client) Ping(ctx context.Context) (SystemInfo, error) {
	var info SystemInfo
	if err := c.getJSON(ctx, "ping", "/System/Info/Public", nil, &info); err != nil {
		return SystemInfo{}, err
	}
	return info, nil
}

// Libraries lists the server's media folders.
func (c *Client) Libraries(ctx context.Context) ([]Library, error) {
	var resp librariesResponse
	if err := c.getJSON(ctx, "libraries", "/Library/MediaFolders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, op, path, query)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("jellyfin %s: decode response: %w", op, err)
	}
	return nil
}

// do performs a GET and returns the response when the status is 2xx. The
// caller closes the body.
func (c *Client) do(ctx context.Context, op, path string, query url.Values) (*http.Response, error) {
	ctx, span := c.tracer.Start(ctx, "jellyfin."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("jellyfin.path", path)),
	)
	defer span.End()

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("jellyfin %s: create request: %w", op, err)
	}
	req.Header.Set(TokenHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, fmt.Errorf("jellyfin %s: %w", op, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		err := &StatusError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
		span.SetStatus(codes.Error, err.Error())
		c.logger.Warn("jellyfin request failed", "op", op, "status", resp.StatusCode)
		return nil, err
	}
	return resp, nil
}
