// Package remote provides a backend that delegates every operation to the
// tors HTTP service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"tors/backend"
	"tors/internal/theme"
	"tors/internal/utils"
)

const (
	// APIKeyHeader carries the static API key on every request
	APIKeyHeader = "api-key"

	// RequestIDHeader identifies a single request in server logs
	RequestIDHeader = "X-Request-ID"

	// DefaultTimeout bounds each request
	DefaultTimeout = 30 * time.Second
)

// Config holds remote service connection settings
type Config struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// Backend implements backend.TaskManager over HTTP. It keeps no state
// between operations.
type Backend struct {
	config  Config
	client  *http.Client
	baseURL string
}

// New creates a new remote backend
func New(cfg Config) (*Backend, error) {
	if cfg.BaseURL == "" {
		return nil, utils.ErrBaseURLMissing()
	}
	if cfg.APIKey == "" {
		return nil, utils.ErrAPIKeyMissing()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Backend{
		config:  cfg,
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
	}, nil
}

// Close closes idle connections
func (b *Backend) Close() error {
	if b.client == nil {
		return nil
	}
	b.client.CloseIdleConnections()
	return nil
}

// doRequest performs one authenticated request and decodes the response into
// out when the status matches want. There are no retries.
func (b *Backend) doRequest(ctx context.Context, op, method, path string, body interface{}, want int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, bodyReader)
	if err != nil {
		return &backend.TransportError{Op: op, Err: err}
	}

	requestID := uuid.New().String()
	req.Header.Set(APIKeyHeader, b.config.APIKey)
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.config.UserAgent != "" {
		req.Header.Set("User-Agent", b.config.UserAgent)
	}

	utils.GetLogger().WithField("request_id", requestID).Debugf("%s %s", method, path)

	resp, err := b.client.Do(req)
	if err != nil {
		return &backend.TransportError{Op: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &backend.TransportError{Op: op, Err: err}
	}

	if resp.StatusCode != want {
		return &backend.RemoteError{Op: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return &backend.RemoteError{
				Op:         op,
				StatusCode: resp.StatusCode,
				Body:       string(data),
				Err:        fmt.Errorf("decode response: %w", err),
			}
		}
	}
	return nil
}

// =============================================================================
// Wire types
// =============================================================================

// ThemeResponse is the body of GET /theme
type ThemeResponse struct {
	Theme string `json:"theme"`
}

// ThemeUpdate is the body of POST /theme
type ThemeUpdate struct {
	NewTheme string `json:"newTheme"`
}

// AssignRequest is the body of POST /tasks/{id}/assign-category
type AssignRequest struct {
	CategoryID int `json:"categoryId"`
}

// TaskPatch carries the single edited field of a task update
type TaskPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ETA         *string `json:"eta,omitempty"`
}

// NewTaskPatch builds a patch setting only field
func NewTaskPatch(field backend.Field, value string) TaskPatch {
	var p TaskPatch
	switch field {
	case backend.FieldName:
		p.Name = &value
	case backend.FieldDescription:
		p.Description = &value
	case backend.FieldETA:
		p.ETA = &value
	}
	return p
}

// Apply copies the set fields onto t and reports whether any was set
func (p TaskPatch) Apply(t *backend.Task) bool {
	set := false
	if p.Name != nil {
		t.Name = *p.Name
		set = true
	}
	if p.Description != nil {
		t.Description = *p.Description
		set = true
	}
	if p.ETA != nil {
		t.ETA = *p.ETA
		set = true
	}
	return set
}

// =============================================================================
// Task Operations
// =============================================================================

// CreateTask posts a task with placeholder id 0; the service assigns the id
func (b *Backend) CreateTask(ctx context.Context, name, description, eta string) (*backend.Task, error) {
	task := backend.Task{ID: 0, Name: name, Description: description, ETA: eta}
	created := task
	if err := b.doRequest(ctx, "create task", http.MethodPost, "/tasks", task, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// EditTask validates the field locally, then sends a partial update
func (b *Backend) EditTask(ctx context.Context, id int, field backend.Field, value string) error {
	f, err := backend.ParseField(string(field))
	if err != nil {
		return err
	}
	path := "/tasks/" + strconv.Itoa(id)
	return b.doRequest(ctx, "update task", http.MethodPut, path, NewTaskPatch(f, value), http.StatusOK, nil)
}

// DeleteTask deletes a task
func (b *Backend) DeleteTask(ctx context.Context, id int) error {
	return b.doRequest(ctx, "delete task", http.MethodDelete, "/tasks/"+strconv.Itoa(id), nil, http.StatusOK, nil)
}

// ListTasks returns all tasks as stored by the service
func (b *Backend) ListTasks(ctx context.Context) ([]backend.Task, error) {
	var tasks []backend.Task
	if err := b.doRequest(ctx, "list tasks", http.MethodGet, "/tasks", nil, http.StatusOK, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// ListTasksGroupedByCategory groups tasks by category name. Task category
// references hold category ids, resolved with one lookup per distinct id.
// Unassigned tasks go under "No Category"; failed lookups under "Unknown".
func (b *Backend) ListTasksGroupedByCategory(ctx context.Context) (backend.Grouped, error) {
	tasks, err := b.ListTasks(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string)
	return backend.GroupTasks(tasks, func(t backend.Task) string {
		if t.Category == nil {
			return backend.LabelNoCategory
		}
		ref := *t.Category
		if name, ok := names[ref]; ok {
			return name
		}
		name := b.resolveCategoryName(ctx, ref)
		names[ref] = name
		return name
	}), nil
}

func (b *Backend) resolveCategoryName(ctx context.Context, ref string) string {
	id, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil {
		utils.Debugf("task category reference %q is not an id", ref)
		return backend.LabelUnknown
	}
	c, err := b.GetCategory(ctx, id)
	if err != nil {
		utils.Debugf("category %d lookup failed: %v", id, err)
		return backend.LabelUnknown
	}
	return c.Name
}

// AssignCategory asks the service to link a task to a category. The service
// does not report the category name, so the returned label is empty.
func (b *Backend) AssignCategory(ctx context.Context, taskID, categoryID int) (string, error) {
	path := "/tasks/" + strconv.Itoa(taskID) + "/assign-category"
	if err := b.doRequest(ctx, "assign category", http.MethodPost, path, AssignRequest{CategoryID: categoryID}, http.StatusOK, nil); err != nil {
		return "", err
	}
	return "", nil
}

// =============================================================================
// Category Operations
// =============================================================================

// CreateCategory posts a category with placeholder id 0
func (b *Backend) CreateCategory(ctx context.Context, name string) (*backend.Category, error) {
	category := backend.Category{ID: 0, Name: name}
	created := category
	if err := b.doRequest(ctx, "create category", http.MethodPost, "/categories", category, http.StatusCreated, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCategory fetches one category by id
func (b *Backend) GetCategory(ctx context.Context, id int) (*backend.Category, error) {
	var c backend.Category
	if err := b.doRequest(ctx, "get category", http.MethodGet, "/categories/"+strconv.Itoa(id), nil, http.StatusOK, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCategories returns all categories
func (b *Backend) ListCategories(ctx context.Context) ([]backend.Category, error) {
	var categories []backend.Category
	if err := b.doRequest(ctx, "list categories", http.MethodGet, "/categories", nil, http.StatusOK, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// EditCategory renames a category
func (b *Backend) EditCategory(ctx context.Context, id int, name string) error {
	body := backend.Category{ID: id, Name: name}
	return b.doRequest(ctx, "update category", http.MethodPut, "/categories/"+strconv.Itoa(id), body, http.StatusOK, nil)
}

// DeleteCategory deletes a category
func (b *Backend) DeleteCategory(ctx context.Context, id int) error {
	return b.doRequest(ctx, "delete category", http.MethodDelete, "/categories/"+strconv.Itoa(id), nil, http.StatusOK, nil)
}

// =============================================================================
// Theme Operations
// =============================================================================

// Theme fetches the stored theme
func (b *Backend) Theme(ctx context.Context) (string, error) {
	var resp ThemeResponse
	if err := b.doRequest(ctx, "get theme", http.MethodGet, "/theme", nil, http.StatusOK, &resp); err != nil {
		return "", err
	}
	return resp.Theme, nil
}

// SetTheme validates the name locally, then updates the stored theme
func (b *Backend) SetTheme(ctx context.Context, name string) error {
	if err := theme.Validate(name); err != nil {
		return err
	}
	return b.doRequest(ctx, "set theme", http.MethodPost, "/theme", ThemeUpdate{NewTheme: name}, http.StatusOK, nil)
}

// Verify interface compliance at compile time
var _ backend.TaskManager = (*Backend)(nil)
