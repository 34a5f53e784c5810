package mfapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/wonny/mfrank/pkg/httputil"
	"github.com/wonny/mfrank/pkg/logger"
)

// DefaultBaseURL is the public mfapi.in endpoint
const DefaultBaseURL = "https://api.mfapi.in"

// ErrSeriesUnavailable signals a non-success status or an empty body from the series source
var ErrSeriesUnavailable = errors.New("series unavailable")

// Client handles communication with mfapi.in
// ⭐ SSOT: mfapi.in 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new mfapi client. An empty baseURL selects DefaultBaseURL.
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.Module("mfapi"),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// fetchJSON GETs path and returns the body of a 200 response.
// Any other status is reported as *StatusError.
func (c *Client) fetchJSON(ctx context.Context, path string) ([]byte, error) {
	status, body, err := c.httpClient.GetBody(ctx, c.baseURL+path)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, &StatusError{StatusCode: status}
	}
	return body, nil
}

// StatusError is a non-200 upstream response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
}
