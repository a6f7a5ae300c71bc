package store

import (
	"context"
	"fmt"

	"roleboard/internal/model"
)

// ReplaceProjects swaps the persisted project snapshot for the given
// list in a single transaction.
func (s *SQLiteStore) ReplaceProjects(ctx context.Context, projects []model.Project) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM projects"); err != nil {
		return fmt.Errorf("clearing project snapshot: %w", err)
	}

	for _, p := range projects {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO projects (id, name, description, created_at)
			VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting project %d: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing project snapshot: %w", err)
	}
	return nil
}

// GetProjects returns the persisted project snapshot ordered by id.
func (s *SQLiteStore) GetProjects(ctx context.Context) ([]model.Project, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, name, description, created_at FROM projects ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying project snapshot: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// ReplaceTasks swaps the persisted task snapshot for the given list in
// a single transaction.
func (s *SQLiteStore) ReplaceTasks(ctx context.Context, tasks []model.Task) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing task snapshot: %w", err)
	}

	for _, t := range tasks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, title, status, project_id, owner_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.Title, t.Status, t.ProjectID, t.OwnerID, t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting task %d: %w", t.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing task snapshot: %w", err)
	}
	return nil
}

// GetTasks returns the persisted task snapshot ordered by id.
func (s *SQLiteStore) GetTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, title, status, project_id, owner_id, created_at FROM tasks ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("querying task snapshot: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.ProjectID, &t.OwnerID, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Clear wipes both snapshots.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM projects"); err != nil {
		return fmt.Errorf("clearing project snapshot: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clearing task snapshot: %w", err)
	}
	return nil
}
