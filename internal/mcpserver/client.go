package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mbd888/scamcheck/internal/flows"
	"github.com/mbd888/scamcheck/internal/risk"
)

// Config holds the configuration for connecting to a scamcheck server.
type Config struct {
	APIURL string // Base URL, e.g. "http://localhost:8080"
	APIKey string // Optional key, e.g. "sk_..."
}

// Client is a pure HTTP client for the scamcheck public API.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

var _ Backend = (*Client)(nil)

// NewClient creates a new client for a scamcheck server.
func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError represents an error response from the server.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// doRequest makes an HTTP request and decodes the JSON response into out.
func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	u, err := url.Parse(c.cfg.APIURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Categories lists the menu.
func (c *Client) Categories(ctx context.Context) ([]flows.CategoryEntry, error) {
	var resp struct {
		Categories []flows.CategoryEntry `json:"categories"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/v1/categories", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// Flow fetches one flow definition.
func (c *Client) Flow(ctx context.Context, category string) (*flows.Flow, error) {
	var resp struct {
		Flow *flows.Flow `json:"flow"`
	}
	if err := c.doRequest(ctx, http.MethodGet, "/v1/flows/"+url.PathEscape(category), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Flow, nil
}

// Assess classifies a complete answer sequence.
func (c *Client) Assess(ctx context.Context, category string, answers []string) (*risk.Report, error) {
	var resp struct {
		Report *risk.Report `json:"report"`
	}
	body := map[string]any{"category": category, "answers": answers}
	if err := c.doRequest(ctx, http.MethodPost, "/v1/assess", body, &resp); err != nil {
		return nil, err
	}
	return resp.Report, nil
}
