// internal/common/http/client.go
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client calls the activity API. It is used by the end-to-end tests and
// operational tooling.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// Response is a decoded API reply.
type Response struct {
	Status int
	Body   map[string]interface{}
	Raw    []byte
}

// Detail returns the "detail" field of an error body.
func (r *Response) Detail() string {
	s, _ := r.Body["detail"].(string)
	return s
}

// Message returns the "message" field of a success body.
func (r *Response) Message() string {
	s, _ := r.Body["message"].(string)
	return s
}

func (c *Client) ListActivities(ctx context.Context) (*Response, error) {
	return c.call(ctx, http.MethodGet, "/activities", nil)
}

func (c *Client) Signup(ctx context.Context, activity, email string) (*Response, error) {
	return c.call(ctx, http.MethodPost, enrollmentPath(activity), url.Values{"email": {email}})
}

func (c *Client) Unregister(ctx context.Context, activity, email string) (*Response, error) {
	return c.call(ctx, http.MethodDelete, enrollmentPath(activity), url.Values{"email": {email}})
}

func enrollmentPath(activity string) string {
	return "/activities/" + url.PathEscape(activity) + "/signup"
}

func (c *Client) call(ctx context.Context, method, path string, query url.Values) (*Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	out := &Response{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out.Body); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
	}
	return out, nil
}
