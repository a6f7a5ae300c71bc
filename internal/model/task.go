package model

import "time"

// Task status values accepted by the server.
const (
	StatusTodo  = "todo"
	StatusDoing = "doing"
	StatusDone  = "done"
)

// TaskStatuses lists the valid status values in display order.
var TaskStatuses = []string{StatusTodo, StatusDoing, StatusDone}

// Task is a work item belonging to a project.
type Task struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	ProjectID int64     `json:"project_id"`
	OwnerID   int64     `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Filter selects which subset of projects and tasks a refresh requests.
// Query matches project names by substring; Status matches tasks
// exactly. Empty fields are omitted from the request entirely rather
// than sent as empty-string parameters.
type Filter struct {
	Query  string
	Status string
}
