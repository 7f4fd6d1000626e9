package model

import "time"

// AIModel is a selectable model for instruction interpretation. Provider
// decides which upstream API is called.
type AIModel struct {
	ID          string    `db:"id" json:"id"`
	Provider    string    `db:"provider" json:"provider"`
	ModelName   string    `db:"model_name" json:"model_name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Description string    `db:"description" json:"description"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// EditAction is the structured result of interpreting a free-text editing
// instruction. Action names an edit kind (adjust_brightness, crop, resize,
// filter, ...); Parameters is an open map so new AI-suggested actions keep
// parsing without a schema change.
type EditAction struct {
	Action     string         `json:"action"`
	Parameters map[string]any `json:"parameters"`
}
