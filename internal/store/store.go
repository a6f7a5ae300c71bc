// Package store persists the last applied refresh snapshot so the UI
// can show last-known state at startup before the first refresh
// completes. Snapshots are replaced wholesale, never merged.
package store

import (
	"context"

	"roleboard/internal/model"
)

// Store is the persistence interface for refresh snapshots.
type Store interface {
	ReplaceProjects(ctx context.Context, projects []model.Project) error
	GetProjects(ctx context.Context) ([]model.Project, error)

	ReplaceTasks(ctx context.Context, tasks []model.Task) error
	GetTasks(ctx context.Context) ([]model.Task, error)

	// Clear wipes the snapshot. Called on logout.
	Clear(ctx context.Context) error

	Close() error
}
