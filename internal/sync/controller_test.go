package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"roleboard/internal/api"
	"roleboard/internal/model"
	"roleboard/internal/store"
	"roleboard/tests/testutil"
)

// fakeBackend is a configurable stand-in for the API server. The mu
// guards the list fields, which tests mutate while handler goroutines
// read them.
type fakeBackend struct {
	mu       gosync.Mutex
	projects []model.Project
	tasks    []model.Task
	users    []model.UserProfile

	projectRequests atomic.Int64
	taskRequests    atomic.Int64

	// failTasks makes the task list endpoint return a 500.
	failTasks atomic.Bool

	// createStatus, when non-zero, is returned for mutation requests
	// together with createDetail.
	createStatus int
	createDetail string

	// blockProjects, when set, blocks the first project list request
	// until the channel is closed.
	blockProjects chan struct{}

	// taskUpdatePath and taskUpdateBody record the last task update
	// request for shape assertions. Guarded by mu.
	taskUpdatePath string
	taskUpdateBody string
}

func (b *fakeBackend) setProjects(projects []model.Project) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.projects = projects
}

func (b *fakeBackend) getProjects() []model.Project {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Project(nil), b.projects...)
}

func (b *fakeBackend) getTasks() []model.Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.Task(nil), b.tasks...)
}

func (b *fakeBackend) getUsers() []model.UserProfile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]model.UserProfile(nil), b.users...)
}

func (b *fakeBackend) lastTaskUpdate() (path, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.taskUpdatePath, b.taskUpdateBody
}

func (b *fakeBackend) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/projects/" && r.Method == http.MethodGet:
			n := b.projectRequests.Add(1)
			if b.blockProjects != nil && n == 1 {
				<-b.blockProjects
			}
			writeJSON(w, b.getProjects())

		case r.URL.Path == "/tasks/" && r.Method == http.MethodGet:
			b.taskRequests.Add(1)
			if b.failTasks.Load() {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			writeJSON(w, b.getTasks())

		case r.URL.Path == "/projects/" && r.Method == http.MethodPost:
			if b.createStatus != 0 {
				w.WriteHeader(b.createStatus)
				fmt.Fprintf(w, `{"detail":%q}`, b.createDetail)
				return
			}
			var payload api.ProjectPayload
			json.NewDecoder(r.Body).Decode(&payload)
			b.mu.Lock()
			project := model.Project{
				ID:        int64(len(b.projects) + 1),
				Name:      payload.Name,
				CreatedAt: time.Now().UTC(),
			}
			b.projects = append(b.projects, project)
			b.mu.Unlock()
			writeJSON(w, project)

		case r.URL.Path == "/tasks/" && r.Method == http.MethodPost:
			if b.createStatus != 0 {
				w.WriteHeader(b.createStatus)
				fmt.Fprintf(w, `{"detail":%q}`, b.createDetail)
				return
			}
			var payload api.TaskPayload
			json.NewDecoder(r.Body).Decode(&payload)
			b.mu.Lock()
			task := model.Task{
				ID:        int64(len(b.tasks) + 1),
				Title:     payload.Title,
				Status:    payload.Status,
				ProjectID: payload.ProjectID,
				OwnerID:   1,
				CreatedAt: time.Now().UTC(),
			}
			b.tasks = append(b.tasks, task)
			b.mu.Unlock()
			writeJSON(w, task)

		case strings.HasPrefix(r.URL.Path, "/projects/") && r.Method == http.MethodPut:
			if b.createStatus != 0 {
				w.WriteHeader(b.createStatus)
				fmt.Fprintf(w, `{"detail":%q}`, b.createDetail)
				return
			}
			var payload api.ProjectPayload
			json.NewDecoder(r.Body).Decode(&payload)
			var id int64
			fmt.Sscanf(r.URL.Path, "/projects/%d", &id)
			b.mu.Lock()
			for i := range b.projects {
				if b.projects[i].ID == id {
					b.projects[i].Name = payload.Name
					b.projects[i].Description = payload.Description
					updated := b.projects[i]
					b.mu.Unlock()
					writeJSON(w, updated)
					return
				}
			}
			b.mu.Unlock()
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Project not found"}`))

		case strings.HasPrefix(r.URL.Path, "/projects/") && r.Method == http.MethodDelete:
			if b.createStatus != 0 {
				w.WriteHeader(b.createStatus)
				fmt.Fprintf(w, `{"detail":%q}`, b.createDetail)
				return
			}
			var id int64
			fmt.Sscanf(r.URL.Path, "/projects/%d", &id)
			b.mu.Lock()
			kept := b.projects[:0:0]
			for _, p := range b.projects {
				if p.ID != id {
					kept = append(kept, p)
				}
			}
			b.projects = kept
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)

		case strings.HasPrefix(r.URL.Path, "/tasks/") && r.Method == http.MethodPut:
			if b.createStatus != 0 {
				w.WriteHeader(b.createStatus)
				fmt.Fprintf(w, `{"detail":%q}`, b.createDetail)
				return
			}
			body, _ := io.ReadAll(r.Body)
			var update api.TaskUpdate
			json.Unmarshal(body, &update)
			var id int64
			fmt.Sscanf(r.URL.Path, "/tasks/%d", &id)
			b.mu.Lock()
			b.taskUpdatePath = r.URL.Path
			b.taskUpdateBody = string(body)
			for i := range b.tasks {
				if b.tasks[i].ID == id {
					if update.Title != nil {
						b.tasks[i].Title = *update.Title
					}
					if update.Status != nil {
						b.tasks[i].Status = *update.Status
					}
					updated := b.tasks[i]
					b.mu.Unlock()
					writeJSON(w, updated)
					return
				}
			}
			b.mu.Unlock()
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"Task not found"}`))

		case strings.HasPrefix(r.URL.Path, "/tasks/") && r.Method == http.MethodDelete:
			if b.createStatus != 0 {
				w.WriteHeader(b.createStatus)
				fmt.Fprintf(w, `{"detail":%q}`, b.createDetail)
				return
			}
			var id int64
			fmt.Sscanf(r.URL.Path, "/tasks/%d", &id)
			b.mu.Lock()
			kept := b.tasks[:0:0]
			for _, tk := range b.tasks {
				if tk.ID != id {
					kept = append(kept, tk)
				}
			}
			b.tasks = kept
			b.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)

		case r.URL.Path == "/users/" && r.Method == http.MethodGet:
			writeJSON(w, b.getUsers())

		case r.Method == http.MethodPatch:
			var payload struct {
				Role model.Role `json:"role"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			var id int64
			fmt.Sscanf(r.URL.Path, "/users/%d/role", &id)
			b.mu.Lock()
			for i := range b.users {
				if b.users[i].ID == id {
					b.users[i].Role = payload.Role
					updated := b.users[i]
					b.mu.Unlock()
					writeJSON(w, updated)
					return
				}
			}
			b.mu.Unlock()
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"detail":"User not found"}`))

		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func newController(t *testing.T, b *fakeBackend) *Controller {
	t.Helper()
	return newCachedController(t, b, nil)
}

func newCachedController(t *testing.T, b *fakeBackend, cache store.Store) *Controller {
	t.Helper()
	srv := httptest.NewServer(b.handler(t))
	t.Cleanup(srv.Close)
	return New(api.NewClient(srv.URL, 5*time.Second), cache)
}

func TestRefreshIssuesOneRequestPerList(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha"}},
		tasks:    []model.Task{{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1}},
	}
	c := newController(t, b)

	result, err := c.Refresh(context.Background(), "tok", model.Filter{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if got := b.projectRequests.Load(); got != 1 {
		t.Errorf("project requests = %d, want 1", got)
	}
	if got := b.taskRequests.Load(); got != 1 {
		t.Errorf("task requests = %d, want 1", got)
	}
	if len(result.Projects) != 1 || len(result.Tasks) != 1 {
		t.Errorf("result = %+v", result)
	}
}

func TestRefreshFailureLeavesCachesUntouched(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha"}},
		tasks:    []model.Task{{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1}},
	}
	c := newController(t, b)
	ctx := context.Background()

	if _, err := c.Refresh(ctx, "tok", model.Filter{}); err != nil {
		t.Fatalf("priming refresh: %v", err)
	}
	before := c.Projects()

	b.setProjects(append(b.getProjects(), model.Project{ID: 2, Name: "Beta"}))
	b.failTasks.Store(true)

	_, err := c.Refresh(ctx, "tok", model.Filter{})
	if err == nil {
		t.Fatal("expected refresh to fail")
	}

	if !reflect.DeepEqual(c.Projects(), before) {
		t.Errorf("project cache overwritten by partial refresh: %+v", c.Projects())
	}
}

func TestRefreshIdempotentWithUnchangedFilter(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}},
		tasks:    []model.Task{{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1}},
	}
	c := newController(t, b)
	ctx := context.Background()

	first, err := c.Refresh(ctx, "tok", model.Filter{Query: "a", Status: "todo"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	second, err := c.Refresh(ctx, "tok", model.Filter{Query: "a", Status: "todo"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if !reflect.DeepEqual(first.Projects, second.Projects) || !reflect.DeepEqual(first.Tasks, second.Tasks) {
		t.Errorf("refresh not idempotent: %+v vs %+v", first, second)
	}
}

func TestStaleRefreshIsDiscarded(t *testing.T) {
	b := &fakeBackend{
		projects:      []model.Project{{ID: 1, Name: "Alpha"}},
		blockProjects: make(chan struct{}),
	}
	c := newController(t, b)
	ctx := context.Background()

	// First refresh blocks on the project request.
	firstDone := make(chan error, 1)
	go func() {
		_, err := c.Refresh(ctx, "tok", model.Filter{})
		firstDone <- err
	}()

	// Wait until the first project request is in flight.
	for b.projectRequests.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	// A second refresh is issued and completes while the first is
	// still blocked.
	b.setProjects([]model.Project{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}})
	if _, err := c.Refresh(ctx, "tok", model.Filter{}); err != nil {
		t.Fatalf("second refresh: %v", err)
	}

	// Release the first refresh; it must be discarded even though its
	// response arrives last.
	close(b.blockProjects)
	if err := <-firstDone; !errors.Is(err, ErrStaleRefresh) {
		t.Fatalf("first refresh error = %v, want ErrStaleRefresh", err)
	}

	if len(c.Projects()) != 2 {
		t.Errorf("stale refresh overwrote newer result: %+v", c.Projects())
	}
}

func TestCreateProjectForbiddenLeavesCacheUntouched(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha"}},
	}
	c := newController(t, b)
	ctx := context.Background()

	if _, err := c.Refresh(ctx, "tok", model.Filter{}); err != nil {
		t.Fatalf("priming refresh: %v", err)
	}
	before := c.Projects()

	b.createStatus = http.StatusForbidden
	b.createDetail = "Insufficient permissions"

	_, err := c.CreateProject(ctx, "tok", model.Filter{}, api.ProjectPayload{Name: "Launch"})
	if !api.IsAuthorizationError(err) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}

	if !reflect.DeepEqual(c.Projects(), before) {
		t.Errorf("project cache changed by rejected create: %+v", c.Projects())
	}
}

func TestCreateProjectTriggersRefresh(t *testing.T) {
	b := &fakeBackend{}
	c := newController(t, b)
	ctx := context.Background()
	start := time.Now()

	project, err := c.CreateProject(ctx, "tok", model.Filter{}, api.ProjectPayload{Name: "Launch"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if project.Name != "Launch" {
		t.Errorf("created project = %+v", project)
	}

	cached := c.Projects()
	if len(cached) != 1 || cached[0].Name != "Launch" {
		t.Fatalf("refresh did not pick up the new project: %+v", cached)
	}
	if cached[0].CreatedAt.Before(start.Add(-time.Second)) || cached[0].CreatedAt.After(time.Now().Add(time.Second)) {
		t.Errorf("created_at = %v, want about now", cached[0].CreatedAt)
	}
}

func TestCreateTaskTriggersRefresh(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha"}},
	}
	c := newController(t, b)
	ctx := context.Background()

	task, err := c.CreateTask(ctx, "tok", model.Filter{}, api.TaskPayload{
		Title:     "Write report",
		Status:    model.StatusTodo,
		ProjectID: 1,
	})
	if err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if task.ProjectID != 1 {
		t.Errorf("task = %+v", task)
	}

	if cached := c.Tasks(); len(cached) != 1 || cached[0].Title != "Write report" {
		t.Errorf("refresh did not pick up the new task: %+v", cached)
	}
}

func TestUpdateTaskOmitsUnsetFields(t *testing.T) {
	b := &fakeBackend{
		tasks: []model.Task{{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1}},
	}
	c := newController(t, b)
	ctx := context.Background()

	status := model.StatusDoing
	task, err := c.UpdateTask(ctx, "tok", model.Filter{}, 1, api.TaskUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.Status != model.StatusDoing || task.Title != "Task one" {
		t.Errorf("updated task = %+v", task)
	}

	path, body := b.lastTaskUpdate()
	if path != "/tasks/1" {
		t.Errorf("update path = %q, want /tasks/1", path)
	}
	if strings.TrimSpace(body) != `{"status":"doing"}` {
		t.Errorf("update body = %q, want only the set field", body)
	}

	cached := c.Tasks()
	if len(cached) != 1 || cached[0].Status != model.StatusDoing {
		t.Errorf("refresh did not pick up the status change: %+v", cached)
	}
}

func TestUpdateProjectTriggersRefresh(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha", Description: "old"}},
	}
	c := newController(t, b)
	ctx := context.Background()

	project, err := c.UpdateProject(ctx, "tok", model.Filter{}, 1, api.ProjectPayload{
		Name:        "Alpha v2",
		Description: "new",
	})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if project.Name != "Alpha v2" {
		t.Errorf("updated project = %+v", project)
	}

	cached := c.Projects()
	if len(cached) != 1 || cached[0].Name != "Alpha v2" || cached[0].Description != "new" {
		t.Errorf("refresh did not pick up the rename: %+v", cached)
	}
}

func TestDeleteTaskTriggersRefresh(t *testing.T) {
	b := &fakeBackend{
		tasks: []model.Task{
			{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1},
			{ID: 2, Title: "Task two", Status: model.StatusDoing, ProjectID: 1},
		},
	}
	c := newController(t, b)
	ctx := context.Background()

	if err := c.DeleteTask(ctx, "tok", model.Filter{}, 1); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}

	cached := c.Tasks()
	if len(cached) != 1 || cached[0].ID != 2 {
		t.Errorf("refresh did not drop the deleted task: %+v", cached)
	}
}

func TestDeleteProjectForbiddenLeavesCacheUntouched(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha"}},
	}
	c := newController(t, b)
	ctx := context.Background()

	if _, err := c.Refresh(ctx, "tok", model.Filter{}); err != nil {
		t.Fatalf("priming refresh: %v", err)
	}
	before := c.Projects()

	b.createStatus = http.StatusForbidden
	b.createDetail = "Insufficient permissions"

	err := c.DeleteProject(ctx, "tok", model.Filter{}, 1)
	if !api.IsAuthorizationError(err) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}

	if !reflect.DeepEqual(c.Projects(), before) {
		t.Errorf("project cache changed by rejected delete: %+v", c.Projects())
	}
}

func TestUpdateUserRoleReplacesSingleEntry(t *testing.T) {
	b := &fakeBackend{
		users: []model.UserProfile{
			{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin, IsActive: true},
			{ID: 2, Email: "manager@example.com", Role: model.RoleManager, IsActive: true},
			{ID: 3, Email: "user@example.com", Role: model.RoleUser, IsActive: true},
		},
	}
	c := newController(t, b)
	ctx := context.Background()

	before, err := c.ListUsers(ctx, "tok")
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}

	updated, err := c.UpdateUserRole(ctx, "tok", 3, model.RoleManager)
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}
	if updated.Role != model.RoleManager {
		t.Errorf("echoed role = %v", updated.Role)
	}

	after := c.Users()
	if after[2].Role != model.RoleManager {
		t.Errorf("roster entry not replaced: %+v", after[2])
	}
	if after[0] != before[0] || after[1] != before[1] {
		t.Errorf("untouched entries changed: %+v", after)
	}

	// The previously returned slice must be unaffected: the update
	// builds a new slice rather than mutating in place.
	if before[2].Role != model.RoleUser {
		t.Errorf("old roster slice mutated in place: %+v", before[2])
	}
}

func TestClearDropsAllCaches(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha"}},
		tasks:    []model.Task{{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1}},
		users:    []model.UserProfile{{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}},
	}
	c := newController(t, b)
	ctx := context.Background()

	if _, err := c.Refresh(ctx, "tok", model.Filter{}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if _, err := c.ListUsers(ctx, "tok"); err != nil {
		t.Fatalf("ListUsers: %v", err)
	}

	c.Clear()

	if c.Projects() != nil || c.Tasks() != nil || c.Users() != nil {
		t.Errorf("caches not cleared")
	}
}

func TestLoadSnapshotPopulatesCaches(t *testing.T) {
	cache := testutil.NewTestStore(t)
	testutil.SeedSnapshot(t, cache,
		[]model.Project{{ID: 1, Name: "Alpha", CreatedAt: time.Now().UTC()}},
		[]model.Task{{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1, OwnerID: 1, CreatedAt: time.Now().UTC()}},
	)

	c := New(api.NewClient("http://127.0.0.1:0", time.Second), cache)
	if err := c.LoadSnapshot(context.Background()); err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if projects := c.Projects(); len(projects) != 1 || projects[0].Name != "Alpha" {
		t.Errorf("projects = %+v", projects)
	}
	if tasks := c.Tasks(); len(tasks) != 1 || tasks[0].Title != "Task one" {
		t.Errorf("tasks = %+v", tasks)
	}
}

func TestRefreshPersistsSnapshotAndClearWipesIt(t *testing.T) {
	b := &fakeBackend{
		projects: []model.Project{{ID: 1, Name: "Alpha", CreatedAt: time.Now().UTC()}},
		tasks:    []model.Task{{ID: 1, Title: "Task one", Status: model.StatusTodo, ProjectID: 1, OwnerID: 1, CreatedAt: time.Now().UTC()}},
	}
	cache := testutil.NewTestStore(t)
	c := newCachedController(t, b, cache)
	ctx := context.Background()

	if _, err := c.Refresh(ctx, "tok", model.Filter{}); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	persisted, err := cache.GetProjects(ctx)
	if err != nil {
		t.Fatalf("GetProjects: %v", err)
	}
	if len(persisted) != 1 || persisted[0].Name != "Alpha" {
		t.Errorf("persisted projects = %+v", persisted)
	}

	c.Clear()

	persisted, err = cache.GetProjects(ctx)
	if err != nil {
		t.Fatalf("GetProjects after clear: %v", err)
	}
	if len(persisted) != 0 {
		t.Errorf("persisted snapshot survived logout: %+v", persisted)
	}
}
