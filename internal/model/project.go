package model

import "time"

// Project is a grouping container for related tasks. Projects are
// created only by manager or admin accounts; the server enforces this.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
