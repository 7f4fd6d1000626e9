package dto

import "time"

// EditRequestDTO is an incoming AI edit request for a project
type EditRequestDTO struct {
	Instruction string `json:"instruction" validate:"required,min=1"`
	AIModelID   string `json:"ai_model_id" validate:"required"`
}

// OperationResponseDTO is one recorded edit in a project's timeline
type OperationResponseDTO struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	ProjectID     string    `json:"project_id"`
	OperationType string    `json:"operation_type"`
	Prompt        string    `json:"prompt"`
	ResultPath    string    `json:"result_path"`
	AIModelID     string    `json:"ai_model_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// UploadResponseDTO is returned after a successful asset upload
type UploadResponseDTO struct {
	Path   string  `json:"path"`
	SizeMB float64 `json:"size_mb"`
}

// AIModelResponseDTO is a selectable interpretation model
type AIModelResponseDTO struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	ModelName   string `json:"model_name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// UserAPIKeyDTO stores a user's own provider API key
type UserAPIKeyDTO struct {
	Provider string `json:"provider" validate:"required,oneof=google openai anthropic"`
	APIKey   string `json:"api_key" validate:"required,min=1"`
}
