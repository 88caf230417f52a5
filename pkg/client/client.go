// Package client provides an HTTP client for a running provenv daemon.
package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Client communicates with the provenv HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Logger   *slog.Logger // Optional logger for client operations
	Insecure bool         // Skip TLS verification
}

// DefaultConfig returns default client configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

// New creates a new provenv API client.
func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	transport := &http.Transport{}
	if config.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402 -- explicit opt-in
	}

	return &Client{
		baseURL: config.BaseURL,
		logger:  config.Logger,
		client: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
	}
}

// IsReachable checks if the daemon is running and reachable.
func (c *Client) IsReachable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/environments", nil)
	if err != nil {
		c.logger.Debug("failed to create request for reachability check", "error", err)
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("daemon unreachable", "error", err)
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	isReachable := resp.StatusCode != http.StatusNotFound
	c.logger.Debug("daemon reachability check", "reachable", isReachable, "status", resp.StatusCode)
	return isReachable
}

// Provision asks the daemon to provision one named environment.
func (c *Client) Provision(ctx context.Context, name string) (ProvisionResult, error) {
	var out ProvisionResult
	u := c.baseURL + "/provision?name=" + url.QueryEscape(name)
	err := c.do(ctx, http.MethodPost, u, &out)
	return out, err
}

// ProvisionAll asks the daemon to provision every configured environment.
func (c *Client) ProvisionAll(ctx context.Context) (ProvisionResult, error) {
	var out ProvisionResult
	err := c.do(ctx, http.MethodPost, c.baseURL+"/provision?all=1", &out)
	return out, err
}

// Environments lists the environments the daemon is configured with.
func (c *Client) Environments(ctx context.Context) ([]Environment, error) {
	var out []Environment
	err := c.do(ctx, http.MethodGet, c.baseURL+"/environments", &out)
	return out, err
}

// Inventory returns the daemon's in-process inventory.
func (c *Client) Inventory(ctx context.Context) (Inventory, error) {
	var out Inventory
	err := c.do(ctx, http.MethodGet, c.baseURL+"/inventory", &out)
	return out, err
}

// StoredInventory returns the persisted records for one environment.
func (c *Client) StoredInventory(ctx context.Context, env string) ([]StoredRecord, error) {
	var out []StoredRecord
	u := c.baseURL + "/inventory?env=" + url.QueryEscape(env)
	err := c.do(ctx, http.MethodGet, u, &out)
	return out, err
}

// Version reports the package manager version seen by the daemon.
func (c *Client) Version(ctx context.Context) (VersionInfo, error) {
	var out VersionInfo
	err := c.do(ctx, http.MethodGet, c.baseURL+"/version", &out)
	return out, err
}

// Activate returns the shell command and process environment for using an
// environment locally.
func (c *Client) Activate(ctx context.Context, name string) (Activation, error) {
	var out Activation
	u := c.baseURL + "/activate?name=" + url.QueryEscape(name)
	err := c.do(ctx, http.MethodGet, u, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("HTTP request failed", "error", err, "url", u)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
			return fmt.Errorf("HTTP %d", resp.StatusCode)
		}
		return fmt.Errorf("API error: %s", errResp.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
