package dto

import "time"

// PlanResponseDTO is one subscription tier with its limits
type PlanResponseDTO struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        int     `json:"price"`
	MaxStorageMB float64 `json:"max_storage_mb"`
	MaxAICalls   int     `json:"max_ai_calls"`
}

// PlanChangeDTO is an incoming plan change request
type PlanChangeDTO struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// UserPlanResponseDTO is the user's subscription to a plan
type UserPlanResponseDTO struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	PlanID    string     `json:"plan_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// UsageResponseDTO summarises consumption against the active plan's limits
type UsageResponseDTO struct {
	StorageUsedMB float64 `json:"storage_used_mb"`
	AICallsUsed   int     `json:"ai_calls_used"`
	MaxStorageMB  float64 `json:"max_storage_mb"`
	MaxAICalls    int     `json:"max_ai_calls"`
}
