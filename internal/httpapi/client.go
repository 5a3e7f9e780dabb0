package httpapi

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

	"github.com/Mavwarf/cleartone/internal/command"
)

// Client calls a remote cleartone HTTP server.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient returns a Client with a 30-second timeout so an unresponsive
// server cannot hang the caller.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Call runs a named command remotely. A command that the server rejected
// comes back as a failed Result with a nil error; err is only for
// transport problems.
func (c *Client) Call(ctx context.Context, name string, args map[string]any) (command.Result, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return command.Result{}, err
	}
	resp, err := c.post(ctx, "/v1/commands/"+url.PathEscape(name), body)
	if err != nil {
		return command.Result{}, err
	}
	defer resp.Body.Close()

	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		return command.Result{}, fmt.Errorf("httpapi: %s returned %d: %s", name, resp.StatusCode, ReadSnippet(resp.Body))
	}
	var res command.Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return command.Result{}, fmt.Errorf("httpapi: decode result: %w", err)
	}
	return res, nil
}

// Render fetches the WAV encoding of a tone from the server.
func (c *Client) Render(ctx context.Context, args map[string]any) ([]byte, error) {
	body, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	resp, err := c.post(ctx, "/v1/render", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := CheckStatus(resp, "httpapi: render"); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpapi: %w", err)
	}
	return resp, nil
}

// CheckStatus returns an error if the response status code is not 2xx.
// The prefix is included in the error message for context.
func CheckStatus(resp *http.Response, prefix string) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s returned %d: %s", prefix, resp.StatusCode, ReadSnippet(resp.Body))
	}
	return nil
}

// ReadSnippet reads up to 200 bytes from r for inclusion in error messages.
func ReadSnippet(r io.Reader) string {
	buf := make([]byte, 200)
	n, _ := io.ReadFull(r, buf)
	if n == 0 {
		return "(empty body)"
	}
	s := string(buf[:n])
	if n == 200 {
		s += "..."
	}
	return s
}
