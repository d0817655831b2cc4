// Package newsapi is the HTTP transport for the news backend.
package newsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/google/uuid"
	"go.uber.org/ratelimit"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
	"github.com/Faffo96/news-exercise-front/internal/debuglog"
)

const (
	DefaultUserAgent = "newsdesk/1.0"
	RequestIDHeader  = "X-Request-ID"

	maxErrorBody = 64 << 10
)

// TokenSource supplies the bearer token. An empty token means the request
// goes out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource with a fixed value.
type StaticToken string

func (s StaticToken) Token() (string, error) {
	return string(s), nil
}

type SubcategoryQuery struct {
	SortBy string `url:"sortBy,omitempty"`
}

type Options struct {
	BaseURL string
	// Timeout of zero leaves requests without a client-side deadline.
	Timeout           time.Duration
	UserAgent         string
	RequestsPerSecond int
	Tokens            TokenSource
	HTTPClient        *http.Client
}

type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
	limiter   ratelimit.Limiter
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	limiter := ratelimit.NewUnlimited()
	if opts.RequestsPerSecond > 0 {
		limiter = ratelimit.New(opts.RequestsPerSecond)
	}

	return &Client{
		baseURL:   base,
		http:      httpClient,
		userAgent: userAgent,
		tokens:    opts.Tokens,
		limiter:   limiter,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

func (c *Client) ListNews(ctx context.Context, activeOnly bool) ([]catalog.News, error) {
	path := "/api/news"
	if activeOnly {
		path = "/api/news/active"
	}
	var out []catalog.News
	if err := c.do(ctx, http.MethodGet, path, nil, nil, false, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out == nil {
		out = []catalog.News{}
	}
	return out, nil
}

// CreateNews posts a draft and returns the record echoed by the backend.
// Anything but 201 is an error, and so is a 201 without an id.
func (c *Client) CreateNews(ctx context.Context, n catalog.News) (catalog.News, error) {
	n.ID = ""
	var out catalog.News
	if err := c.do(ctx, http.MethodPost, "/api/news", nil, n, true, &out, http.StatusCreated); err != nil {
		return catalog.News{}, err
	}
	if !out.Persisted() {
		return catalog.News{}, fmt.Errorf("POST /api/news: %w", ErrNoRecord)
	}
	return out, nil
}

// UpdateNews replaces the item with the given id. Anything but 200 is an
// error. A 200 without a body yields the zero News: the caller then knows
// nothing about what was stored.
func (c *Client) UpdateNews(ctx context.Context, id catalog.ID, n catalog.News) (catalog.News, error) {
	n.ID = id
	var out catalog.News
	if err := c.do(ctx, http.MethodPut, newsPath(id), nil, n, true, &out, http.StatusOK); err != nil {
		return catalog.News{}, err
	}
	return out, nil
}

func (c *Client) DeleteNews(ctx context.Context, id catalog.ID) error {
	return c.do(ctx, http.MethodDelete, newsPath(id), nil, nil, true, nil,
		http.StatusOK, http.StatusAccepted, http.StatusNoContent)
}

func (c *Client) ListSubcategories(ctx context.Context, q SubcategoryQuery) ([]catalog.Subcategory, error) {
	values, err := query.Values(q)
	if err != nil {
		return nil, fmt.Errorf("encoding subcategory query: %w", err)
	}
	var out []catalog.Subcategory
	if err := c.do(ctx, http.MethodGet, "/api/subcategories", values, nil, false, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out == nil {
		out = []catalog.Subcategory{}
	}
	return out, nil
}

func (c *Client) ListMainCategories(ctx context.Context) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/api/subcategories/mainCategories", nil, nil, false, &out, http.StatusOK); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func newsPath(id catalog.ID) string {
	return "/api/news/" + url.PathEscape(string(id))
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body any, auth bool, out any, expect ...int) error {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			debuglog.Warnf("reading token for %s %s: %v", method, path, err)
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	c.limiter.Take()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		debuglog.WithFields(map[string]any{"request_id": requestID, "method": method, "path": path}).
			Warnf("request failed: %v", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	debuglog.WithFields(map[string]any{
		"request_id": requestID,
		"method":     method,
		"path":       path,
		"status":     resp.StatusCode,
		"elapsed":    time.Since(start).String(),
	}).Debugf("request completed")

	if !expected(resp.StatusCode, expect) {
		return decodeError(method, path, resp)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func expected(status int, expect []int) bool {
	for _, s := range expect {
		if s == status {
			return true
		}
	}
	return false
}

func decodeError(method, path string, resp *http.Response) error {
	apiErr := &Error{Method: method, Path: path, StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		return apiErr
	}
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		apiErr.Message = envelope.Message
	}
	return apiErr
}
