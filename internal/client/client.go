package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperifyio/goactions/internal/items"
)

// DefaultEndpoint is the extraction service address used when none is configured.
const DefaultEndpoint = "http://127.0.0.1:5000/api/extract"

// Failure kinds. All of them are shown to the user the same way; they stay
// distinct so callers and logs can tell them apart.
var (
	ErrUnreachable       = errors.New("extraction endpoint unreachable")
	ErrServerError       = errors.New("extraction endpoint returned an error status")
	ErrMalformedResponse = errors.New("malformed extraction response")
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 8 << 20

// Client posts notes to the extraction endpoint. The zero value is usable and
// targets DefaultEndpoint with the default transport.
type Client struct {
	HTTPClient *http.Client
	Endpoint   string
	UserAgent  string
	// Timeout bounds a single request. Zero leaves it to the transport.
	Timeout time.Duration
}

func (c *Client) endpoint() string {
	if strings.TrimSpace(c.Endpoint) == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

// Extract sends one request carrying notes and returns the parsed response.
// There is no retry: every failure is returned wrapped in one of
// ErrUnreachable, ErrServerError or ErrMalformedResponse.
func (c *Client) Extract(ctx context.Context, notes string) (items.ExtractionResponse, error) {
	var out items.ExtractionResponse

	body, err := json.Marshal(items.ExtractionRequest{Notes: notes})
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return out, fmt.Errorf("%w: new request: %v", ErrUnreachable, err)
	}
	if !isHTTPScheme(req.URL) {
		return out, fmt.Errorf("%w: unsupported URL scheme %q", ErrUnreachable, req.URL.Scheme)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return out, fmt.Errorf("%w: status %d", ErrServerError, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return out, fmt.Errorf("%w: read body: %v", ErrUnreachable, err)
	}
	return decode(raw)
}

// decode parses a success body. The items array must be present; unknown
// fields are ignored.
func decode(raw []byte) (items.ExtractionResponse, error) {
	var shape struct {
		Items        *[]items.ActionItem `json:"items"`
		GeneralTasks []items.ActionItem  `json:"general_tasks"`
	}
	if err := json.Unmarshal(raw, &shape); err != nil {
		return items.ExtractionResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if shape.Items == nil {
		return items.ExtractionResponse{}, fmt.Errorf("%w: missing items array", ErrMalformedResponse)
	}
	return items.ExtractionResponse{Items: *shape.Items, GeneralTasks: shape.GeneralTasks}, nil
}

// Kind names the failure class of err for logs. It returns "" for nil and
// "unknown" for errors outside the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	case errors.Is(err, ErrServerError):
		return "server_error"
	case errors.Is(err, ErrMalformedResponse):
		return "malformed_response"
	default:
		return "unknown"
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
