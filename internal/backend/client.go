package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/verdantio/canopy/internal/metrics"
)

// DefaultTimeout bounds every backend call at the HTTP client level, on top
// of whatever deadline the caller's context carries.
const DefaultTimeout = 30 * time.Second

// Options configures the client. Zero values fall back to defaults.
type Options struct {
	Timeout    time.Duration
	APIKey     string
	HTTPClient *http.Client
	Metrics    *metrics.Metrics
}

// Client is a typed client for the analysis backend's REST API. One request
// per call; retry policy belongs to the caller.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewClient creates a backend client for the given base URL.
func NewClient(baseURL string, opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpc = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  opts.APIKey,
		httpc:   httpc,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// CreateProject registers a project copy with the backend. A 409 maps to
// ErrConflict so callers can treat an existing copy as already synced.
func (c *Client) CreateProject(ctx context.Context, payload ProjectPayload) (*Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProject fetches the backend copy of a project. Missing copies map to
// ErrNotFound.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var out Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListProjects returns every project copy the backend holds.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var out []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProject removes the backend copy. A missing copy is treated as
// already deleted, which keeps the registry's delete cascade idempotent.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, nil)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// TriggerAnalysis asks the backend to (re)run satellite analysis.
func (c *Client) TriggerAnalysis(ctx context.Context, id string) (*AnalysisStatus, error) {
	var out AnalysisStatus
	if err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(id)+"/analyze", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchReport downloads the backend's PDF report for a project.
func (c *Client) FetchReport(ctx context.Context, id string) ([]byte, error) {
	path := "/projects/" + url.PathEscape(id) + "/report"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building report request: %w", err)
	}
	req.Header.Set("Accept", "application/pdf")
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.ObserveBackendRequest(http.MethodGet, 0, time.Since(start))
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveBackendRequest(http.MethodGet, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report body: %w", err)
	}
	if err := c.checkStatus(http.MethodGet, path, resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

// TestLocation probes satellite coverage for a coordinate pair.
func (c *Client) TestLocation(ctx context.Context, lat, lon float64) (*LocationCheck, error) {
	query := url.Values{
		"lat": {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon": {strconv.FormatFloat(lon, 'f', -1, 64)},
	}
	var out LocationCheck
	if err := c.do(ctx, http.MethodGet, "/satellite/test-location", query, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.metrics.ObserveBackendRequest(method, 0, time.Since(start))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveBackendRequest(method, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}
	if err := c.checkStatus(method, path, resp.StatusCode, data); err != nil {
		return err
	}
	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}

func (c *Client) checkStatus(method, path string, status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	default:
		msg := strings.TrimSpace(string(body))
		if len(msg) > 512 {
			msg = msg[:512]
		}
		c.logger.Debug("backend request failed", "method", method, "path", path, "status", status)
		return &APIError{StatusCode: status, Method: method, Path: path, Body: msg}
	}
}
