package httpclient

import (
	"context"
	"net/http"
)

// Client is the shared outbound HTTP client. Timeouts are imposed per
// request through contexts, never on the client itself, so each channel
// can carry its own deadline.
type Client struct {
	httpClient *http.Client
}

func New() *Client {
	return &Client{
		httpClient: &http.Client{},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}
