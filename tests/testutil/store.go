package testutil

import (
	"context"
	"testing"

	"roleboard/internal/model"
	"roleboard/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedSnapshot writes a project and task snapshot into the store so a
// test can start from persisted last-known state.
func SeedSnapshot(t *testing.T, s *store.SQLiteStore, projects []model.Project, tasks []model.Task) {
	t.Helper()

	ctx := context.Background()
	if err := s.ReplaceProjects(ctx, projects); err != nil {
		t.Fatalf("seeding project snapshot: %v", err)
	}
	if err := s.ReplaceTasks(ctx, tasks); err != nil {
		t.Fatalf("seeding task snapshot: %v", err)
	}
}
