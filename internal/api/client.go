// Package api is a thin HTTP client for the role-based project/task
// REST service. It handles Bearer token authentication, JSON
// marshaling, and mapping of non-success responses onto the client's
// error taxonomy.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"roleboard/internal/model"
)

// Client talks to the API server. The zero value is not usable; use
// NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL. The timeout
// applies per request.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// tokenResponse is the body returned by POST /auth/login.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// ProjectPayload is the body for project create and update requests.
type ProjectPayload struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// TaskPayload is the body for task create requests.
type TaskPayload struct {
	Title     string `json:"title"`
	Status    string `json:"status"`
	ProjectID int64  `json:"project_id"`
}

// TaskUpdate is the body for task update requests. Nil fields are
// omitted and left unchanged server-side.
type TaskUpdate struct {
	Title  *string `json:"title,omitempty"`
	Status *string `json:"status,omitempty"`
}

// TaskQuery filters task list requests. Zero fields are omitted from
// the query string.
type TaskQuery struct {
	Status    string
	ProjectID int64
}

// Login exchanges credentials for a bearer token. The auth endpoint
// expects a form-encoded body with username/password fields. Any
// non-success response is surfaced as an AuthError carrying the
// server's message when one is present.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+"/auth/login",
		strings.NewReader(form.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &AuthError{Message: "Login failed"}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := serverMessage(body)
		if msg == "" {
			msg = "Login failed"
		}
		return "", &AuthError{Message: msg}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("unmarshaling login response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", &AuthError{Message: "Login failed"}
	}
	return tok.AccessToken, nil
}

// Me fetches the profile of the account that owns the token.
func (c *Client) Me(ctx context.Context, token string) (model.UserProfile, error) {
	var profile model.UserProfile
	err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &profile)
	return profile, err
}

// ChangePassword rotates the credential of the current account.
func (c *Client) ChangePassword(ctx context.Context, token, current, next string) error {
	body := map[string]string{
		"current_password": current,
		"new_password":     next,
	}
	return c.do(ctx, http.MethodPost, "/auth/change-password", token, body, nil)
}

// ListProjects fetches projects, optionally filtered by a name
// substring. An empty query is omitted from the request entirely.
func (c *Client) ListProjects(ctx context.Context, token, query string) ([]model.Project, error) {
	path := "/projects/"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var projects []model.Project
	err := c.do(ctx, http.MethodGet, path, token, nil, &projects)
	return projects, err
}

// CreateProject creates a project. Manager or admin only, enforced
// server-side.
func (c *Client) CreateProject(ctx context.Context, token string, payload ProjectPayload) (model.Project, error) {
	var project model.Project
	err := c.do(ctx, http.MethodPost, "/projects/", token, payload, &project)
	return project, err
}

// UpdateProject replaces a project's name and description.
func (c *Client) UpdateProject(ctx context.Context, token string, id int64, payload ProjectPayload) (model.Project, error) {
	var project model.Project
	err := c.do(ctx, http.MethodPut, "/projects/"+strconv.FormatInt(id, 10), token, payload, &project)
	return project, err
}

// DeleteProject removes a project. Admin only, enforced server-side.
func (c *Client) DeleteProject(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+strconv.FormatInt(id, 10), token, nil, nil)
}

// ListTasks fetches tasks matching the query. Zero query fields are
// omitted from the request entirely.
func (c *Client) ListTasks(ctx context.Context, token string, query TaskQuery) ([]model.Task, error) {
	params := url.Values{}
	if query.Status != "" {
		params.Set("status", query.Status)
	}
	if query.ProjectID > 0 {
		params.Set("project_id", strconv.FormatInt(query.ProjectID, 10))
	}
	path := "/tasks/"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var tasks []model.Task
	err := c.do(ctx, http.MethodGet, path, token, nil, &tasks)
	return tasks, err
}

// CreateTask creates a task in an existing project.
func (c *Client) CreateTask(ctx context.Context, token string, payload TaskPayload) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPost, "/tasks/", token, payload, &task)
	return task, err
}

// UpdateTask applies a partial update to a task.
func (c *Client) UpdateTask(ctx context.Context, token string, id int64, update TaskUpdate) (model.Task, error) {
	var task model.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+strconv.FormatInt(id, 10), token, update, &task)
	return task, err
}

// DeleteTask removes a task. Manager or admin only, enforced
// server-side.
func (c *Client) DeleteTask(ctx context.Context, token string, id int64) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+strconv.FormatInt(id, 10), token, nil, nil)
}

// ListUsers fetches the full account roster. Admin only.
func (c *Client) ListUsers(ctx context.Context, token string) ([]model.UserProfile, error) {
	var users []model.UserProfile
	err := c.do(ctx, http.MethodGet, "/users/", token, nil, &users)
	return users, err
}

// UpdateUserRole changes another account's role and returns the
// updated profile as echoed back by the server. Admin only.
func (c *Client) UpdateUserRole(ctx context.Context, token string, id int64, r model.Role) (model.UserProfile, error) {
	body := map[string]string{"role": r.String()}
	var user model.UserProfile
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/users/%d/role", id), token, body, &user)
	return user, err
}

// do builds the request, attaches auth, and maps the response status
// onto the error taxonomy: 401 is an AuthError, 403 an
// AuthorizationError, 400/422 a ValidationError, and anything else
// non-success a RequestError.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	token string,
	body interface{},
	result interface{},
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{
			Message: fmt.Sprintf("request %s %s failed", method, path),
			Err:     err,
		}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classify(resp.StatusCode, respBody)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}

// classify maps a non-success status plus its body onto the error
// taxonomy, using the server's structured message verbatim when one is
// present.
func classify(status int, body []byte) error {
	msg := serverMessage(body)

	switch status {
	case http.StatusUnauthorized:
		if msg == "" {
			msg = "Session expired, please sign in again"
		}
		return &AuthError{Message: msg}
	case http.StatusForbidden:
		if msg == "" {
			msg = "Insufficient permissions"
		}
		return &AuthorizationError{Message: msg}
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if msg == "" {
			msg = "Invalid request"
		}
		return &ValidationError{Message: msg}
	}

	if msg == "" {
		msg = "Request failed"
	}
	return &RequestError{StatusCode: status, Message: msg}
}

// serverMessage extracts the human-readable detail or message field
// from a structured error body. FastAPI-style validation responses
// carry detail as a list of objects with a msg field; those are
// joined. Returns "" when the body carries nothing usable.
func serverMessage(body []byte) string {
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}

	if len(envelope.Detail) > 0 {
		var s string
		if json.Unmarshal(envelope.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(envelope.Detail, &items) == nil {
			var msgs []string
			for _, item := range items {
				if item.Msg != "" {
					msgs = append(msgs, item.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}

	return envelope.Message
}
