// Package sync keeps the client's view of projects, tasks, and the
// admin user roster consistent with the remote store. Lists are
// snapshots replaced wholesale on every successful fetch; consistency
// after a mutation comes from a full re-fetch, not a local merge.
package sync

import (
	"context"
	"errors"
	gosync "sync"

	"roleboard/internal/api"
	"roleboard/internal/model"
	"roleboard/internal/store"
)

// ErrStaleRefresh is returned when a refresh completes after a newer
// one was issued. Its result is discarded; the newer refresh's result
// is authoritative regardless of arrival order.
var ErrStaleRefresh = errors.New("stale refresh discarded")

// RefreshResult is the combined outcome of one refresh.
type RefreshResult struct {
	Projects []model.Project
	Tasks    []model.Task
	Seq      uint64
}

// Controller owns the in-memory project, task, and user caches.
type Controller struct {
	client *api.Client
	cache  store.Store

	mu       gosync.Mutex
	seq      uint64 // latest issued refresh
	applied  uint64 // latest applied refresh
	projects []model.Project
	tasks    []model.Task
	users    []model.UserProfile
}

// New creates a controller. The snapshot cache may be nil, in which
// case applied refreshes are not persisted.
func New(client *api.Client, cache store.Store) *Controller {
	return &Controller{
		client: client,
		cache:  cache,
	}
}

// Projects returns the cached project list. The slice is never
// mutated in place; callers may hold it across refreshes.
func (c *Controller) Projects() []model.Project {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projects
}

// Tasks returns the cached task list.
func (c *Controller) Tasks() []model.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tasks
}

// Users returns the cached user roster (populated by ListUsers).
func (c *Controller) Users() []model.UserProfile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.users
}

// Refresh fetches the project and task lists under the given filter
// and applies them together. Both requests are issued; if either
// fails, nothing is applied and the previous caches stay untouched.
// Each refresh carries a monotonically increasing sequence number and
// its result is applied only while it is still the latest issued;
// otherwise ErrStaleRefresh is returned.
func (c *Controller) Refresh(ctx context.Context, token string, filter model.Filter) (RefreshResult, error) {
	c.mu.Lock()
	c.seq++
	id := c.seq
	c.mu.Unlock()

	var (
		projects []model.Project
		tasks    []model.Task
		perr     error
		terr     error
		wg       gosync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		projects, perr = c.client.ListProjects(ctx, token, filter.Query)
	}()
	go func() {
		defer wg.Done()
		tasks, terr = c.client.ListTasks(ctx, token, api.TaskQuery{Status: filter.Status})
	}()
	wg.Wait()

	if perr != nil {
		return RefreshResult{}, perr
	}
	if terr != nil {
		return RefreshResult{}, terr
	}

	c.mu.Lock()
	if id != c.seq {
		c.mu.Unlock()
		return RefreshResult{}, ErrStaleRefresh
	}
	c.projects = projects
	c.tasks = tasks
	c.applied = id
	c.mu.Unlock()

	// Best-effort: a cache write failure must not fail the refresh.
	if c.cache != nil {
		_ = c.cache.ReplaceProjects(ctx, projects)
		_ = c.cache.ReplaceTasks(ctx, tasks)
	}

	return RefreshResult{Projects: projects, Tasks: tasks, Seq: id}, nil
}

// CreateProject creates a project and re-fetches both lists. The new
// entity becomes visible once the follow-up refresh applies.
func (c *Controller) CreateProject(ctx context.Context, token string, filter model.Filter, payload api.ProjectPayload) (model.Project, error) {
	project, err := c.client.CreateProject(ctx, token, payload)
	if err != nil {
		return model.Project{}, err
	}
	return project, c.refreshAfterMutation(ctx, token, filter)
}

// UpdateProject updates a project and re-fetches both lists.
func (c *Controller) UpdateProject(ctx context.Context, token string, filter model.Filter, id int64, payload api.ProjectPayload) (model.Project, error) {
	project, err := c.client.UpdateProject(ctx, token, id, payload)
	if err != nil {
		return model.Project{}, err
	}
	return project, c.refreshAfterMutation(ctx, token, filter)
}

// DeleteProject deletes a project and re-fetches both lists.
func (c *Controller) DeleteProject(ctx context.Context, token string, filter model.Filter, id int64) error {
	if err := c.client.DeleteProject(ctx, token, id); err != nil {
		return err
	}
	return c.refreshAfterMutation(ctx, token, filter)
}

// CreateTask creates a task and re-fetches both lists.
func (c *Controller) CreateTask(ctx context.Context, token string, filter model.Filter, payload api.TaskPayload) (model.Task, error) {
	task, err := c.client.CreateTask(ctx, token, payload)
	if err != nil {
		return model.Task{}, err
	}
	return task, c.refreshAfterMutation(ctx, token, filter)
}

// UpdateTask applies a partial task update and re-fetches both lists.
func (c *Controller) UpdateTask(ctx context.Context, token string, filter model.Filter, id int64, update api.TaskUpdate) (model.Task, error) {
	task, err := c.client.UpdateTask(ctx, token, id, update)
	if err != nil {
		return model.Task{}, err
	}
	return task, c.refreshAfterMutation(ctx, token, filter)
}

// DeleteTask deletes a task and re-fetches both lists.
func (c *Controller) DeleteTask(ctx context.Context, token string, filter model.Filter, id int64) error {
	if err := c.client.DeleteTask(ctx, token, id); err != nil {
		return err
	}
	return c.refreshAfterMutation(ctx, token, filter)
}

// refreshAfterMutation runs the follow-up refresh. A stale result
// means a newer refresh superseded this one, which is not a failure of
// the mutation.
func (c *Controller) refreshAfterMutation(ctx context.Context, token string, filter model.Filter) error {
	_, err := c.Refresh(ctx, token, filter)
	if errors.Is(err, ErrStaleRefresh) {
		return nil
	}
	return err
}

// ListUsers fetches the account roster and replaces the cached copy.
// Admin only; callers consult the role gate first.
func (c *Controller) ListUsers(ctx context.Context, token string) ([]model.UserProfile, error) {
	users, err := c.client.ListUsers(ctx, token)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.users = users
	c.mu.Unlock()

	return users, nil
}

// UpdateUserRole changes another account's role and replaces the
// single matching roster entry with the profile echoed back by the
// server. The replacement builds a new slice; entries for other ids
// are carried over unchanged.
func (c *Controller) UpdateUserRole(ctx context.Context, token string, id int64, r model.Role) (model.UserProfile, error) {
	updated, err := c.client.UpdateUserRole(ctx, token, id, r)
	if err != nil {
		return model.UserProfile{}, err
	}

	c.mu.Lock()
	next := make([]model.UserProfile, len(c.users))
	for i, u := range c.users {
		if u.ID == updated.ID {
			next[i] = updated
		} else {
			next[i] = u
		}
	}
	c.users = next
	c.mu.Unlock()

	return updated, nil
}

// LoadSnapshot populates the caches from the persisted snapshot so the
// UI has last-known state before the first refresh completes.
func (c *Controller) LoadSnapshot(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}

	projects, err := c.cache.GetProjects(ctx)
	if err != nil {
		return err
	}
	tasks, err := c.cache.GetTasks(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.projects = projects
	c.tasks = tasks
	c.mu.Unlock()

	return nil
}

// Clear drops every cache. Called on logout and session expiry.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.projects = nil
	c.tasks = nil
	c.users = nil
	c.mu.Unlock()

	if c.cache != nil {
		_ = c.cache.Clear(context.Background())
	}
}
