package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/alfredjeanlab/leadconsole/internal/idgen"
	"github.com/alfredjeanlab/leadconsole/internal/model"
)

// HTTPClient implements LeadClient and AuthClient over the REST API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger

	mu    sync.RWMutex
	token string
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// WithTimeout bounds each request. Zero leaves the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *HTTPClient) { c.logger = l }
}

// NewHTTPClient creates a client targeting baseURL (e.g.
// "http://localhost:5000"); the /api prefix is added per call.
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the bearer token. An empty token disables the header.
func (c *HTTPClient) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// --- Leads ---

func (c *HTTPClient) ListLeads(ctx context.Context) ([]model.Lead, error) {
	var leads []model.Lead
	if err := c.doJSON(ctx, http.MethodGet, "/api/leads", nil, &leads); err != nil {
		return nil, err
	}
	return leads, nil
}

func (c *HTTPClient) CreateLead(ctx context.Context, draft model.Lead) (*model.Lead, error) {
	draft.ID = ""
	var lead model.Lead
	if err := c.doJSON(ctx, http.MethodPost, "/api/leads", draft, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (c *HTTPClient) UpdateLead(ctx context.Context, id string, lead model.Lead) (*model.Lead, error) {
	var updated model.Lead
	if err := c.doJSON(ctx, http.MethodPut, "/api/leads/"+url.PathEscape(id), lead, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (c *HTTPClient) DeleteLead(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/leads/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/leads/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Auth ---

func (c *HTTPClient) Login(ctx context.Context, creds model.Credentials) (*model.LoginResponse, error) {
	var resp model.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", creds, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Signup(ctx context.Context, req model.SignupRequest) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/signup", req, nil)
}

// --- internal helpers ---

// doJSON performs an HTTP request with optional JSON body and decodes the
// JSON response into result. If result is nil the body is discarded.
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: "marshaling request body", Err: err}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &TransportError{Op: "creating request", Err: err}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	reqID, err := idgen.RequestID()
	if err != nil {
		return &TransportError{Op: "creating request", Err: err}
	}
	req.Header.Set("X-Request-Id", reqID)

	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", method, "path", path, "request_id", reqID, "err", err)
		return &TransportError{Op: "performing request", Err: err}
	}
	defer resp.Body.Close()
	c.logger.Debug("api request", "method", method, "path", path, "request_id", reqID,
		"status", resp.StatusCode, "elapsed", time.Since(start))

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			if errResp.Error != "" {
				return &RemoteError{StatusCode: resp.StatusCode, Message: errResp.Error}
			}
			if errResp.Message != "" {
				return &RemoteError{StatusCode: resp.StatusCode, Message: errResp.Message}
			}
		}
		return &RemoteError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &TransportError{Op: "decoding response", Err: fmt.Errorf("%s %s: %w", method, path, err)}
		}
	}

	return nil
}
