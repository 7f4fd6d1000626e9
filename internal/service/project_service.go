package service

import (
	"context"
	"errors"
	"fmt"

	"app/internal/model"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/rs/zerolog"
)

// ErrProjectNotFound means the project does not exist or was soft-deleted.
var ErrProjectNotFound = errors.New("project not found")

// ProjectService manages the project lifecycle: creation with its storage
// skeleton, listing, rename and soft deletion.
type ProjectService interface {
	// CreateProject creates the project row, assigns its storage root and
	// materializes the artifact skeleton. A storage failure leaves the row
	// with its root assigned; the error is retryable because skeleton
	// creation is idempotent.
	CreateProject(ctx context.Context, userID, name string, description *string) (*model.Project, error)
	// ListProjects returns the user's live projects, most recently updated
	// first.
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	GetProject(ctx context.Context, projectID string) (*model.Project, error)
	// UpdateProject renames the project and/or replaces its description.
	UpdateProject(ctx context.Context, projectID string, name *string, description *string) (*model.Project, error)
	// DeleteProject soft-deletes by stamping deleted_at; artifacts and
	// history remain on disk.
	DeleteProject(ctx context.Context, projectID string) error
}

type projectService struct {
	repo   repository.ProjectRepository
	blobs  storage.BlobStore
	logger zerolog.Logger
}

// NewProjectService creates a new ProjectService.
func NewProjectService(repo repository.ProjectRepository, blobs storage.BlobStore, logger zerolog.Logger) ProjectService {
	return &projectService{
		repo:   repo,
		blobs:  blobs,
		logger: logger.With().Str("service", "ProjectService").Logger(),
	}
}

// CreateProject inserts the row first with an empty storage root, computes
// the root from the generated id, then builds the skeleton. The row is never
// returned to callers before its root is assigned.
func (s *projectService) CreateProject(ctx context.Context, userID, name string, description *string) (*model.Project, error) {
	project := &model.Project{
		UserID:      userID,
		Name:        name,
		Description: description,
		StoragePath: "",
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to create project record")
		return nil, fmt.Errorf("creating project: %w", err)
	}

	storagePath := fmt.Sprintf("projects/%s/%s", userID, project.ID)
	if err := s.repo.UpdateStoragePath(ctx, project.ID, storagePath); err != nil {
		s.logger.Error().Err(err).Str("project_id", project.ID).Msg("Failed to assign storage path")
		return nil, fmt.Errorf("assigning storage path: %w", err)
	}
	project.StoragePath = storagePath

	if err := s.blobs.CreateProjectSkeleton(ctx, storagePath); err != nil {
		s.logger.Error().Err(err).Str("project_id", project.ID).Msg("Failed to create storage skeleton")
		return nil, err
	}

	s.logger.Info().Str("project_id", project.ID).Str("user_id", userID).Msg("Project created")
	return project, nil
}

// ListProjects returns the user's live projects.
func (s *projectService) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	return s.repo.GetProjectsByUserID(ctx, userID)
}

// GetProject returns a live project or ErrProjectNotFound.
func (s *projectService) GetProject(ctx context.Context, projectID string) (*model.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetching project: %w", err)
	}
	if project == nil {
		return nil, ErrProjectNotFound
	}
	return project, nil
}

// UpdateProject applies a partial rename/description change.
func (s *projectService) UpdateProject(ctx context.Context, projectID string, name *string, description *string) (*model.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if name != nil {
		project.Name = *name
	}
	if description != nil {
		project.Description = description
	}
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Failed to update project")
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return project, nil
}

// DeleteProject soft-deletes the project.
func (s *projectService) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return err
	}
	if err := s.repo.SoftDeleteProject(ctx, projectID); err != nil {
		s.logger.Error().Err(err).Str("project_id", projectID).Msg("Failed to soft-delete project")
		return fmt.Errorf("deleting project: %w", err)
	}
	s.logger.Info().Str("project_id", projectID).Msg("Project soft-deleted")
	return nil
}
