// internal/common/http/client.go
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"notification-dispatcher/internal/common/auth"
)

// Client wraps net/http with a request timeout and optional bearer
// token injection for calls to authenticated services.
type Client struct {
	httpClient    *http.Client
	tokenProvider auth.TokenProvider
}

// NewClient creates a client with the given timeout. The token
// provider is optional; without one requests go out unauthenticated.
func NewClient(timeout time.Duration, tokenProvider auth.TokenProvider) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: timeout},
		tokenProvider: tokenProvider,
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.do(req.Context(), req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	return c.do(ctx, req.WithContext(ctx))
}

func (c *Client) do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if c.tokenProvider != nil {
		token, err := c.tokenProvider.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to obtain access token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}
