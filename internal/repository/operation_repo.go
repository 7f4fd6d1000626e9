package repository

import (
	"context"
	"database/sql"

	"app/internal/model"
)

// OperationRepository persists the append-only edit history of projects.
// Operations are never updated or deleted; undo restores an artifact without
// touching the log.
type OperationRepository interface {
	CreateOperation(ctx context.Context, op *model.Operation) error
	// GetOperationsByProjectID returns all operations for a project ordered
	// by creation time ascending. This ordering is the canonical timeline:
	// position N maps to history snapshot N.
	GetOperationsByProjectID(ctx context.Context, projectID string) ([]model.Operation, error)
	// GetLatestOperation returns the most recent operation for a project, or
	// nil when the project has none.
	GetLatestOperation(ctx context.Context, projectID string) (*model.Operation, error)
	// CountOperationsByProjectID returns the project's operation count.
	CountOperationsByProjectID(ctx context.Context, projectID string) (int, error)
}

type operationRepo struct {
	db *sql.DB
}

// NewOperationRepo creates a new OperationRepository.
func NewOperationRepo(db *sql.DB) OperationRepository {
	return &operationRepo{db: db}
}

// CreateOperation inserts a new operation row and fills in generated fields.
func (r *operationRepo) CreateOperation(ctx context.Context, op *model.Operation) error {
	query := `
		INSERT INTO operations (user_id, project_id, operation_type, prompt, result_path, ai_model_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return r.db.QueryRowContext(ctx, query,
		op.UserID, op.ProjectID, op.OperationType, op.Prompt, op.ResultPath, op.AIModelID,
	).Scan(&op.ID, &op.CreatedAt)
}

// GetOperationsByProjectID retrieves the full timeline, oldest first.
func (r *operationRepo) GetOperationsByProjectID(ctx context.Context, projectID string) ([]model.Operation, error) {
	query := `
		SELECT id, user_id, project_id, operation_type, prompt, result_path, ai_model_id, created_at
		FROM operations
		WHERE project_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []model.Operation
	for rows.Next() {
		var op model.Operation
		if err := rows.Scan(
			&op.ID,
			&op.UserID,
			&op.ProjectID,
			&op.OperationType,
			&op.Prompt,
			&op.ResultPath,
			&op.AIModelID,
			&op.CreatedAt,
		); err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(ops) == 0 {
		return []model.Operation{}, nil
	}

	return ops, nil
}

// GetLatestOperation retrieves the newest operation for a project.
func (r *operationRepo) GetLatestOperation(ctx context.Context, projectID string) (*model.Operation, error) {
	query := `
		SELECT id, user_id, project_id, operation_type, prompt, result_path, ai_model_id, created_at
		FROM operations
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var op model.Operation
	err := r.db.QueryRowContext(ctx, query, projectID).Scan(
		&op.ID,
		&op.UserID,
		&op.ProjectID,
		&op.OperationType,
		&op.Prompt,
		&op.ResultPath,
		&op.AIModelID,
		&op.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &op, nil
}

// CountOperationsByProjectID counts the project's operations.
func (r *operationRepo) CountOperationsByProjectID(ctx context.Context, projectID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM operations WHERE project_id = $1`
	if err := r.db.QueryRowContext(ctx, query, projectID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
