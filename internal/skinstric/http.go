package skinstric

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/skinstric/onboarding/internal/constants"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code   int
	Status string // e.g. "503 Service Unavailable"
	Body   string // markup stripped, truncated
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return "Server error: " + status
}

// postJSON marshals requestBody, POSTs it to url and returns the raw response body.
// Any non-2xx status is returned as a *StatusError.
func (c *Client) postJSON(ctx context.Context, name, url string, requestBody any) ([]byte, error) {
	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("could not marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req) //nolint:gosec // URL comes from configuration
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Code:   resp.StatusCode,
			Status: resp.Status,
			Body:   c.readErrorBody(resp.Body),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	c.captureResponse(name, body)
	return body, nil
}

// readErrorBody reads the response body for error messages with markup removed.
// Returns a placeholder if reading fails (we're already in an error path).
func (c *Client) readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, constants.MaxErrorBodyBytes))
	if err != nil {
		return "(could not read error body)"
	}
	return strings.TrimSpace(c.sanitizer.Sanitize(string(body)))
}

// SetCaptureDir enables response capturing to the specified directory.
// Pass an empty string to disable capturing.
func (c *Client) SetCaptureDir(dir string) error {
	if dir == "" {
		c.captureDir = ""
		return nil
	}

	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("could not create capture directory: %w", err)
	}
	c.captureDir = dir
	return nil
}

// captureResponse saves the response body to a file if capturing is enabled.
func (c *Client) captureResponse(name string, body []byte) {
	if c.captureDir == "" {
		return
	}

	filename := fmt.Sprintf("%s_%s.json", name, time.Now().Format("20060102_150405.000"))
	path := filepath.Join(c.captureDir, filename)

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err == nil {
		body = pretty.Bytes()
	}

	// Capturing is a debugging aid; a failed write must not break the request.
	_ = os.WriteFile(path, body, 0600)
}
