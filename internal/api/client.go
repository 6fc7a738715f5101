// Package api wraps the mentoring platform's REST backend.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Client is a thin wrapper around the backend REST API. It attaches the
// session cookie to every request so the backend can resolve the caller's
// membership in each room.
type Client struct {
	baseURL       string
	sessionCookie *http.Cookie
	httpClient    *http.Client
	log           zerolog.Logger
}

// NewClient creates a new API client for the given backend base URL.
// sessionValue is the value of the platform's session cookie; it may be
// empty when the backend runs without authentication (local development).
func NewClient(baseURL, cookieName, sessionValue string, log zerolog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
	if sessionValue != "" {
		c.sessionCookie = &http.Cookie{Name: cookieName, Value: sessionValue}
	}
	return c
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.sessionCookie != nil {
		req.AddCookie(c.sessionCookie)
	}

	c.log.Debug().Str("url", url).Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	return resp, nil
}
