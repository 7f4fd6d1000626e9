package repository

import (
	"context"
	"database/sql"

	"app/internal/model"
)

// ProjectRepository defines the interface for interacting with project data.
// Soft-deleted projects are invisible to every read except nothing: a
// stamped deleted_at removes the row from Get and List results while the
// row itself is retained.
type ProjectRepository interface {
	CreateProject(ctx context.Context, p *model.Project) error
	// GetProjectByID returns the project, or nil when it does not exist or
	// has been soft-deleted.
	GetProjectByID(ctx context.Context, projectID string) (*model.Project, error)
	// GetProjectsByUserID returns the user's live projects, most recently
	// updated first.
	GetProjectsByUserID(ctx context.Context, userID string) ([]model.Project, error)
	// UpdateStoragePath assigns the project's storage root.
	UpdateStoragePath(ctx context.Context, projectID, storagePath string) error
	// UpdateProject updates name and description.
	UpdateProject(ctx context.Context, p *model.Project) error
	// SoftDeleteProject stamps deleted_at; no data is removed.
	SoftDeleteProject(ctx context.Context, projectID string) error
}

type projectRepo struct {
	db *sql.DB
}

// NewProjectRepo creates a new ProjectRepository.
func NewProjectRepo(db *sql.DB) ProjectRepository {
	return &projectRepo{db: db}
}

// CreateProject inserts a new project and fills in the generated fields.
func (r *projectRepo) CreateProject(ctx context.Context, p *model.Project) error {
	query := `
		INSERT INTO projects (user_id, name, description, storage_path)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, description, storage_path, created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, p.UserID, p.Name, p.Description, p.StoragePath).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.StoragePath, &p.CreatedAt, &p.UpdatedAt)
}

// GetProjectByID retrieves a live project by its ID.
func (r *projectRepo) GetProjectByID(ctx context.Context, projectID string) (*model.Project, error) {
	query := `
		SELECT id, user_id, name, description, storage_path, created_at, updated_at, deleted_at
		FROM projects
		WHERE id = $1 AND deleted_at IS NULL
	`
	var p model.Project
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Description,
		&p.StoragePath,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// GetProjectsByUserID retrieves all live projects for a user, most recently
// updated first.
func (r *projectRepo) GetProjectsByUserID(ctx context.Context, userID string) ([]model.Project, error) {
	query := `
		SELECT id, user_id, name, description, storage_path, created_at, updated_at, deleted_at
		FROM projects
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY updated_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(
			&p.ID,
			&p.UserID,
			&p.Name,
			&p.Description,
			&p.StoragePath,
			&p.CreatedAt,
			&p.UpdatedAt,
			&p.DeletedAt,
		); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	// If no projects found, return an empty slice, not nil
	if len(projects) == 0 {
		return []model.Project{}, nil
	}

	return projects, nil
}

// UpdateStoragePath assigns the storage root computed after the row exists.
func (r *projectRepo) UpdateStoragePath(ctx context.Context, projectID, storagePath string) error {
	query := `
		UPDATE projects
		SET storage_path = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.ExecContext(ctx, query, storagePath, projectID)
	return err
}

// UpdateProject updates an existing project record and returns updated timestamps.
func (r *projectRepo) UpdateProject(ctx context.Context, p *model.Project) error {
	query := `
		UPDATE projects
		SET name = $1, description = $2, updated_at = NOW()
		WHERE id = $3 AND deleted_at IS NULL
		RETURNING created_at, updated_at
	`
	return r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.ID).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// SoftDeleteProject stamps deleted_at on the project row.
func (r *projectRepo) SoftDeleteProject(ctx context.Context, projectID string) error {
	query := `
		UPDATE projects
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, projectID)
	return err
}
