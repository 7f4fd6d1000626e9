package service

import (
	"context"
	"errors"
	"testing"

	"app/internal/storage"

	"github.com/rs/zerolog"
)

func newTestProjectService(t *testing.T) (ProjectService, *fakeProjectRepo, *storage.LocalStore) {
	t.Helper()
	repo := newFakeProjectRepo()
	store := storage.NewLocalStore(t.TempDir())
	return NewProjectService(repo, store, zerolog.Nop()), repo, store
}

func TestCreateProjectBuildsSkeleton(t *testing.T) {
	ctx := context.Background()
	svc, _, store := newTestProjectService(t)

	desc := "holiday shots"
	project, err := svc.CreateProject(ctx, "u1", "Vacation", &desc)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	want := "projects/u1/" + project.ID
	if project.StoragePath != want {
		t.Fatalf("expected storage path %q, got %q", want, project.StoragePath)
	}

	cfg, err := store.GetConfig(ctx, project.StoragePath)
	if err != nil {
		t.Fatalf("expected a config.json in the skeleton: %v", err)
	}
	if cfg.CreatedAt.IsZero() {
		t.Fatal("expected config timestamps to be set")
	}
}

func TestGetProjectNotFound(t *testing.T) {
	svc, _, _ := newTestProjectService(t)
	if _, err := svc.GetProject(context.Background(), "nope"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestUpdateProjectPartial(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProjectService(t)

	desc := "before"
	project, err := svc.CreateProject(ctx, "u1", "Old name", &desc)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}

	newName := "New name"
	updated, err := svc.UpdateProject(ctx, project.ID, &newName, nil)
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if updated.Name != "New name" {
		t.Fatalf("expected renamed project, got %q", updated.Name)
	}
	if updated.Description == nil || *updated.Description != "before" {
		t.Fatal("omitted description must stay unchanged")
	}
}

func TestDeleteProjectHidesIt(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProjectService(t)

	project, err := svc.CreateProject(ctx, "u1", "Doomed", nil)
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if err := svc.DeleteProject(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if _, err := svc.GetProject(ctx, project.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected deleted project to vanish from reads, got %v", err)
	}
	if err := svc.DeleteProject(ctx, project.ID); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected repeated delete to report not found, got %v", err)
	}

	projects, err := svc.ListProjects(ctx, "u1")
	if err != nil {
		t.Fatalf("ListProjects: %v", err)
	}
	if len(projects) != 0 {
		t.Fatalf("deleted project must not be listed, got %d", len(projects))
	}
}
