// Package remote talks to the managed data API over HTTP and follows its
// Server-Sent Events feed for snapshots.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/idilsaglam/tada-sync/internal/backend"
	"github.com/idilsaglam/tada-sync/internal/model"
)

type Client struct {
	base           *url.URL
	token          string
	http           *http.Client
	log            *slog.Logger
	requestTimeout time.Duration
	reconnectDelay time.Duration
}

var _ backend.Client = (*Client)(nil)

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.log = l } }
func WithRequestTimeout(d time.Duration) Option { return func(c *Client) { c.requestTimeout = d } }
func WithReconnectDelay(d time.Duration) Option { return func(c *Client) { c.reconnectDelay = d } }

// New returns a client for the API rooted at endpoint.
func New(endpoint, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("endpoint: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		base:           u,
		token:          token,
		http:           http.DefaultClient,
		log:            slog.Default(),
		reconnectDelay: 2 * time.Second,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) Create(ctx context.Context, in model.NewTodo) (model.Todo, error) {
	var out model.Todo
	err := c.do(ctx, "create", http.MethodPost, "todos", in, &out)
	return out, err
}

func (c *Client) Update(ctx context.Context, id string, p model.Patch) (model.Todo, error) {
	var out model.Todo
	err := c.do(ctx, "update", http.MethodPatch, "todos/"+url.PathEscape(id), p, &out)
	return out, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, "delete", http.MethodDelete, "todos/"+url.PathEscape(id), nil, nil)
}

func (c *Client) endpoint(path string) string {
	return c.base.JoinPath(path).String()
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	if c.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

// statusError reads the service's error body: either {"error": "..."} or
// {"message": "..."}; anything else is quoted as-is.
func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := strings.TrimSpace(string(b))
	if json.Unmarshal(b, &body) == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Message != "":
			msg = body.Message
		}
	}
	return &backend.StatusError{Op: op, Code: resp.StatusCode, Message: msg}
}
