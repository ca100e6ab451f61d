// Package client is a typed HTTP client for the task board API.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"

	"taskboard/domain"
)

const maxResponseSize = 4 << 20

// APIError is returned when the server answers with success=false or a
// response that is not a task envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("taskboard api: %s (status %d)", e.Message, e.StatusCode)
}

// NotFound reports whether the server rejected the request with 404.
func (e *APIError) NotFound() bool { return e.StatusCode == http.StatusNotFound }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// Client performs one round trip per call. It does not retry or cache.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the API rooted at baseURL, e.g.
// "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Success bool                   `json:"success"`
	Data    sonic.NoCopyRawMessage `json:"data"`
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
}

// ListTasks returns every task, newest first.
func (c *Client) ListTasks(ctx context.Context) ([]domain.Task, error) {
	tasks := []domain.Task{}
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &tasks, "Failed to fetch tasks"); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, req domain.CreateRequest) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, http.MethodPost, "/tasks", req, &task, "Failed to create task")
	return task, err
}

// UpdateTask sends only the fields set in patch.
func (c *Client) UpdateTask(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+id, patch, &task, "Failed to update task")
	return task, err
}

// DeleteTask removes the task and returns the record as it was.
func (c *Client) DeleteTask(ctx context.Context, id string) (domain.Task, error) {
	var task domain.Task
	err := c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, &task, "Failed to delete task")
	return task, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, fallback string) error {
	var reader io.Reader
	if body != nil {
		payload, err := sonic.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: fallback}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = fallback
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := sonic.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}
