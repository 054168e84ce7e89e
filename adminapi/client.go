package adminapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jrsteele09/go-shop-session/sessions"
)

const (
	accessTokenHeader = "X-Shopify-Access-Token"
	defaultAPIVersion = "2024-10"
	maxResponseBytes  = 4 << 20
)

// Client issues GraphQL requests to a shop's Admin API using a session's access token.
type Client struct {
	httpClient *http.Client
	apiVersion string
	baseURL    func(shop string) string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithAPIVersion pins the Admin API version.
func WithAPIVersion(version string) ClientOption {
	return func(c *Client) {
		if version != "" {
			c.apiVersion = version
		}
	}
}

// WithBaseURL overrides the per-shop base URL (primarily for testing).
func WithBaseURL(baseURL func(shop string) string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

func NewClient(options ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiVersion: defaultAPIVersion,
		baseURL: func(shop string) string {
			return "https://" + shop
		},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// Query posts a GraphQL query. The access token is read from session when the request is built,
// so a session refreshed in place is picked up on the next call.
func (c *Client) Query(ctx context.Context, session *sessions.Session, query string, variables map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("[adminapi.Query] encode: %w", err)
	}

	url := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.baseURL(session.Shop), c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("[adminapi.Query] new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(accessTokenHeader, session.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("[adminapi.Query] %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("[adminapi.Query] read body: %w", err)
	}
	if len(respBody) > maxResponseBytes {
		return nil, fmt.Errorf("[adminapi.Query] response exceeds %d bytes", maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPResponseError{
			Code:   resp.StatusCode,
			Body:   string(respBody),
			Header: resp.Header.Clone(),
		}
	}
	return respBody, nil
}
