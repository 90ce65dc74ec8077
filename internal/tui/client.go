package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"codeberg.org/sharedcanvas/server/api/rest/canvas"
	"codeberg.org/sharedcanvas/server/canvas/documents"
	"codeberg.org/sharedcanvas/server/internal/errors"
)

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// creates a new client for the server at endpoint
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// returns the current canvas and occupancy
func (c *Client) Canvas(ctx context.Context) (*canvas.CanvasResponse, error) {
	var out canvas.CanvasResponse
	if err := c.get(ctx, "/api/v1/canvas", &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// returns the newest limit backups
func (c *Client) Backups(ctx context.Context, limit int) (*documents.BackupList, error) {
	var out documents.BackupList
	if err := c.get(ctx, fmt.Sprintf("/api/v1/canvas/backups?limit=%d", limit), &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// sets the bearer token sent with ops requests
func (c *Client) WithOpsToken(token string) *Client {
	c.opsToken = token
	return c
}

// replaces the canvas on the server with the backup at index
func (c *Client) Restore(ctx context.Context, index int) (*canvas.RestoreCanvasResponse, error) {
	var out canvas.RestoreCanvasResponse
	if err := c.post(ctx, "/api/v1/canvas/restore", canvas.RestoreCanvasRequest{Index: &index}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// clears the canvas on the server
func (c *Client) Reset(ctx context.Context) (*canvas.ResetCanvasResponse, error) {
	var out canvas.ResetCanvasResponse
	if err := c.post(ctx, "/api/v1/canvas/reset", canvas.ResetCanvasRequest{Confirm: true}, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.opsToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.opsToken)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Status: resp.StatusCode}

		var errResp errors.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			apiErr.Code = errResp.Error
			apiErr.Message = errResp.Message
		}

		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
