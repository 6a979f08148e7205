package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/marmos91/lakecleaner/pkg/api/handlers"
	"github.com/marmos91/lakecleaner/pkg/task"
)

// SubmitTask posts t and waits for the server to run it. A task that leaves
// files behind is not an error: check Handled on the response.
func (c *Client) SubmitTask(ctx context.Context, t *task.Task) (*handlers.TaskResponse, error) {
	var resp handlers.TaskResponse
	if _, err := c.do(ctx, http.MethodPost, "/api/v1/tasks", t, &resp, http.StatusConflict); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetTask returns the recorded result of a previously submitted task.
func (c *Client) GetTask(ctx context.Context, id string) (*handlers.TaskResponse, error) {
	var resp handlers.TaskResponse
	if _, err := c.do(ctx, http.MethodGet, "/api/v1/tasks/"+url.PathEscape(id), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks server liveness.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil, nil)
	return err
}

// Ready returns the readiness report. The report is returned alongside the
// error when the server is not ready.
func (c *Client) Ready(ctx context.Context) (*handlers.ReadinessResponse, error) {
	var resp handlers.ReadinessResponse
	status, err := c.do(ctx, http.MethodGet, "/health/ready", nil, &resp, http.StatusServiceUnavailable)
	if err != nil {
		return nil, err
	}
	if status == http.StatusServiceUnavailable {
		return &resp, &APIError{StatusCode: status, Title: "Service Unavailable", Detail: "server is not ready"}
	}
	return &resp, nil
}
