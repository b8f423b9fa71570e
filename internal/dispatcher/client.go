// SPDX-License-Identifier: MPL-2.0

package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the in-cluster address of the dispatcher service.
	DefaultBaseURL = "http://nf-dispatcher-service.flyte.svc.cluster.local"

	// DefaultTimeout bounds a single dispatcher request.
	DefaultTimeout = 5 * time.Minute

	// TokenScheme is the Authorization scheme for execution tokens.
	TokenScheme = "Latch-Execution-Token"

	provisionStoragePath = "/provision-storage"
	executionNamePath    = "/execution-name"

	// maxResponseBytes bounds dispatcher response bodies (1 MiB).
	maxResponseBytes = 1 << 20

	// maxErrorBodyBytes bounds how much of an error body is kept in StatusError.
	maxErrorBodyBytes = 512
)

var (
	// ErrMissingToken is returned when no execution token is available.
	ErrMissingToken = errors.New("failed to get execution token")
	// ErrInvalidStorageSize is returned for non-positive volume sizes.
	ErrInvalidStorageSize = errors.New("storage size must be positive")
	// ErrEmptyVolumeName is returned when the dispatcher answers without a volume name.
	ErrEmptyVolumeName = errors.New("dispatcher returned an empty volume name")
)

type (
	// VolumeName identifies a provisioned shared volume (a persistent volume claim).
	VolumeName string

	// StatusError is returned when the dispatcher answers with a non-2xx status.
	StatusError struct {
		Endpoint   string
		StatusCode int
		Body       string
	}

	// Client calls the dispatcher service.
	Client struct {
		httpClient *http.Client
		baseURL    string
		timeout    time.Duration
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	provisionRequest struct {
		StorageGiB int `json:"storage_gib"`
	}

	nameResponse struct {
		Name string `json:"name"`
	}
)

// String returns the volume name.
func (v VolumeName) String() string { return string(v) }

// Error implements the error interface for StatusError.
func (e *StatusError) Error() string {
	msg := fmt.Sprintf("dispatcher %s returned HTTP %d", e.Endpoint, e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// WithHTTPClient sets a custom HTTP client, useful for tests or proxy configurations.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(d *Client) {
		d.httpClient = c
	}
}

// WithBaseURL overrides the dispatcher base URL.
func WithBaseURL(base string) ClientOption {
	return func(d *Client) {
		d.baseURL = strings.TrimRight(base, "/")
	}
}

// WithTimeout bounds each request. Zero keeps DefaultTimeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(d *Client) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// NewClient creates a dispatcher client.
// Defaults: baseURL=DefaultBaseURL, timeout=DefaultTimeout, http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ProvisionStorage requests a shared volume of gib GiB for the current
// execution and returns its name. The token is checked before any request
// is sent. Non-2xx answers are returned as *StatusError.
func (c *Client) ProvisionStorage(ctx context.Context, token string, gib int) (VolumeName, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	if gib <= 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidStorageSize, gib)
	}

	var resp nameResponse
	if err := c.post(ctx, provisionStoragePath, token, provisionRequest{StorageGiB: gib}, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", ErrEmptyVolumeName
	}
	return VolumeName(resp.Name), nil
}

// ExecutionName returns the display name of the current execution.
// Any failure yields ("", false); callers decide how to degrade.
//
// The POST to /execution-name answering {"name": "..."} is this client's
// assumed contract, not a documented dispatcher endpoint. Point
// dispatcher.url at a service that implements it, or expect log uploads
// to be skipped.
func (c *Client) ExecutionName(ctx context.Context, token string) (string, bool) {
	if strings.TrimSpace(token) == "" {
		return "", false
	}

	var resp nameResponse
	if err := c.post(ctx, executionNamePath, token, nil, &resp); err != nil {
		return "", false
	}
	if resp.Name == "" {
		return "", false
	}
	return resp.Name, true
}

// post sends an authenticated JSON POST and decodes a 2xx JSON answer into out.
func (c *Client) post(ctx context.Context, path, token string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Authorization", TokenScheme+" "+token)
	req.Header.Set("Accept", "application/json")
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("calling dispatcher %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("reading dispatcher %s response: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Endpoint:   path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(string(data)), maxErrorBodyBytes),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding dispatcher %s response: %w", path, err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
