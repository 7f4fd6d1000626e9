package repository

import (
	"context"
	"database/sql"

	"app/internal/model"
)

// AIModelRepository provides the selectable AI model reference data.
type AIModelRepository interface {
	// ListActiveModels returns all active models.
	ListActiveModels(ctx context.Context) ([]model.AIModel, error)
	// GetModelByID returns the model, or nil when it does not exist.
	GetModelByID(ctx context.Context, modelID string) (*model.AIModel, error)
}

type aiModelRepo struct {
	db *sql.DB
}

// NewAIModelRepo creates a new AIModelRepository.
func NewAIModelRepo(db *sql.DB) AIModelRepository {
	return &aiModelRepo{db: db}
}

// ListActiveModels retrieves all models flagged active.
func (r *aiModelRepo) ListActiveModels(ctx context.Context) ([]model.AIModel, error) {
	query := `
		SELECT id, provider, model_name, display_name, description, is_active, created_at
		FROM ai_models
		WHERE is_active = TRUE
		ORDER BY display_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []model.AIModel
	for rows.Next() {
		var m model.AIModel
		if err := rows.Scan(
			&m.ID,
			&m.Provider,
			&m.ModelName,
			&m.DisplayName,
			&m.Description,
			&m.IsActive,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if len(models) == 0 {
		return []model.AIModel{}, nil
	}

	return models, nil
}

// GetModelByID retrieves a model by its ID.
func (r *aiModelRepo) GetModelByID(ctx context.Context, modelID string) (*model.AIModel, error) {
	query := `
		SELECT id, provider, model_name, display_name, description, is_active, created_at
		FROM ai_models
		WHERE id = $1
	`
	var m model.AIModel
	err := r.db.QueryRowContext(ctx, query, modelID).Scan(
		&m.ID,
		&m.Provider,
		&m.ModelName,
		&m.DisplayName,
		&m.Description,
		&m.IsActive,
		&m.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
