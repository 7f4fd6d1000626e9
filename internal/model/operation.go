package model

import "time"

// OperationTypeAIEdit is the only operation type recorded today.
const OperationTypeAIEdit = "ai_edit"

// Operation is one recorded AI-driven edit applied to a project. Operations
// for a project form an append-only, time-ordered sequence; the Nth operation
// corresponds to history snapshot N.
type Operation struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	ProjectID     string    `db:"project_id" json:"project_id"`
	OperationType string    `db:"operation_type" json:"operation_type"`
	Prompt        string    `db:"prompt" json:"prompt"`
	ResultPath    string    `db:"result_path" json:"result_path"`
	AIModelID     string    `db:"ai_model_id" json:"ai_model_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
