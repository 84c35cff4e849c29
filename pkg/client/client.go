// Package client is a typed HTTP client for the agentjobs API. It is
// the programmatic counterpart of the CLI and covers every task and
// webhook endpoint.
package client

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

	"github.com/agentjobs/agentjobs/pkg/model"
)

const defaultTimeout = 30 * time.Second

// Client talks to a running agentjobs server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient substitutes the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the request timeout on the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New creates a Client for the given base URL, e.g.
// "http://localhost:8765".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var echoErr struct {
			Message string `json:"message"`
		}
		message := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &echoErr) == nil && echoErr.Message != "" {
			message = echoErr.Message
		}
		return &APIError{StatusCode: resp.StatusCode, Message: message}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// CreateTaskRequest mirrors the creation payload accepted by the API.
type CreateTaskRequest struct {
	ID              string         `json:"id,omitempty"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Priority        model.Priority `json:"priority,omitempty"`
	Category        string         `json:"category,omitempty"`
	Status          model.Status   `json:"status,omitempty"`
	AssignedTo      string         `json:"assigned_to,omitempty"`
	EstimatedEffort string         `json:"estimated_effort,omitempty"`
	HumanSummary    string         `json:"human_summary,omitempty"`
	Tags            []string       `json:"tags,omitempty"`
}

func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ListTasks returns all tasks, optionally filtered. Nil filters pass
// everything through.
func (c *Client) ListTasks(ctx context.Context, status *model.Status, priority *model.Priority) ([]model.Task, error) {
	query := url.Values{}
	if status != nil {
		query.Set("status", string(*status))
	}
	if priority != nil {
		query.Set("priority", string(*priority))
	}
	path := "/api/tasks"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var tasks []model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// NextTask returns the most urgent ready task, or nil when nothing is
// ready.
func (c *Client) NextTask(ctx context.Context, priority *model.Priority) (*model.Task, error) {
	path := "/api/tasks/next"
	if priority != nil {
		path += "?priority=" + url.QueryEscape(string(*priority))
	}

	var task *model.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &task); err != nil {
		return nil, err
	}
	return task, nil
}

// ReplaceTask overwrites the task's supplied fields; omitted fields
// keep their stored values.
func (c *Client) ReplaceTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPut, "/api/tasks/"+url.PathEscape(id), patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask shallow-merges the supplied fields onto the task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch model.TaskPatch) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id), patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// ArchiveTask soft-deletes over the API: the task transitions to
// archived and is returned.
func (c *Client) ArchiveTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	if err := c.do(ctx, http.MethodDelete, "/api/tasks/"+url.PathEscape(id), nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateStatus transitions the task and appends an audit entry.
func (c *Client) UpdateStatus(ctx context.Context, id string, status model.Status, author, summary, details string) (*model.Task, error) {
	body := map[string]any{
		"status":  string(status),
		"author":  author,
		"summary": summary,
		"details": details,
	}
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/status", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AddProgress appends an audit entry without changing status.
func (c *Client) AddProgress(ctx context.Context, id, author, summary, details string) (*model.Task, error) {
	body := map[string]any{"author": author, "summary": summary, "details": details}
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/progress", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// StarterPrompt fetches the task's starter prompt text.
func (c *Client) StarterPrompt(ctx context.Context, id string) (string, error) {
	var out struct {
		Starter string `json:"starter"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tasks/"+url.PathEscape(id)+"/prompts/starter", nil, &out); err != nil {
		return "", err
	}
	return out.Starter, nil
}

// AddFollowupPrompt appends a follow-up prompt to the task.
func (c *Client) AddFollowupPrompt(ctx context.Context, id, author, content, promptContext string) (*model.Task, error) {
	body := map[string]any{"author": author, "content": content, "context": promptContext}
	var task model.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/prompts", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// AddComment posts a comment and returns the created entry.
func (c *Client) AddComment(ctx context.Context, id, author, content string, kind model.CommentKind, replyTo string) (*model.Comment, error) {
	body := map[string]any{
		"author":   author,
		"content":  content,
		"kind":     string(kind),
		"reply_to": replyTo,
	}
	var comment model.Comment
	if err := c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/comments", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

// MarkDeliverableComplete marks the deliverable with the exact path as
// completed.
func (c *Client) MarkDeliverableComplete(ctx context.Context, id, path string) (*model.Task, error) {
	var task model.Task
	endpoint := "/api/tasks/" + url.PathEscape(id) + "/deliverables/" + path
	if err := c.do(ctx, http.MethodPatch, endpoint, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// SearchTasks runs a case-insensitive substring search over titles,
// summaries, descriptions, and tags.
func (c *Client) SearchTasks(ctx context.Context, query string) ([]model.Task, error) {
	var tasks []model.Task
	path := "/api/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// CreateWebhook registers a webhook subscription.
func (c *Client) CreateWebhook(ctx context.Context, webhookURL string, events []string, secret string) (*model.Webhook, error) {
	body := map[string]any{"url": webhookURL, "events": events, "secret": secret}
	var hook model.Webhook
	if err := c.do(ctx, http.MethodPost, "/api/webhooks", body, &hook); err != nil {
		return nil, err
	}
	return &hook, nil
}

func (c *Client) ListWebhooks(ctx context.Context) ([]model.Webhook, error) {
	var hooks []model.Webhook
	if err := c.do(ctx, http.MethodGet, "/api/webhooks", nil, &hooks); err != nil {
		return nil, err
	}
	return hooks, nil
}

func (c *Client) DeleteWebhook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/webhooks/"+url.PathEscape(id), nil, nil)
}

// TestWebhook asks the server to deliver a synthetic test event.
func (c *Client) TestWebhook(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/webhooks/"+url.PathEscape(id)+"/test", nil, nil)
}
