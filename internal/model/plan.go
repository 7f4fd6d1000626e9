package model

import "time"

// Plan is a named subscription tier with its storage and AI-call limits.
// Plans are immutable reference data seeded by migration.
type Plan struct {
	ID           string  `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	Description  string  `db:"description" json:"description"`
	Price        int     `db:"price" json:"price"`
	MaxStorageMB float64 `db:"max_storage_mb" json:"max_storage_mb"`
	MaxAICalls   int     `db:"max_ai_calls" json:"max_ai_calls"`
}

// UserPlan is a user's time-bounded subscription to a plan. At most one row
// per user has a NULL EndedAt; that row is the active subscription.
type UserPlan struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	PlanID    string     `db:"plan_id" json:"plan_id"`
	StartedAt time.Time  `db:"started_at" json:"started_at"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

// ActivePlan joins a user's open subscription with its plan limits.
type ActivePlan struct {
	UserPlan UserPlan `json:"user_plan"`
	Plan     Plan     `json:"plan"`
}

// UsageStats summarises a user's consumption against their active plan.
// AI calls are counted within the current calendar month (UTC); storage is
// cumulative over the account's lifetime.
type UsageStats struct {
	StorageUsedMB float64 `json:"storage_used_mb"`
	AICallsUsed   int     `json:"ai_calls_used"`
	MaxStorageMB  float64 `json:"max_storage_mb"`
	MaxAICalls    int     `json:"max_ai_calls"`
}
