package model

import "time"

// Usage types recorded in the ledger.
const (
	UsageTypeAICall  = "ai_call"
	UsageTypeStorage = "storage"
)

// UsageLog is one append-only record of consumption attributed to a user:
// either an AI call or a storage write. Entries are never mutated or deleted;
// aggregation over them yields current consumption.
type UsageLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	UsageType string    `db:"usage_type" json:"usage_type"`
	// UsageCount is the number of units consumed, 1 for a single AI call.
	UsageCount int `db:"usage_count" json:"usage_count"`
	// UsageSizeMB is set for storage entries: the written size in megabytes.
	UsageSizeMB *float64  `db:"usage_size_mb" json:"usage_size_mb,omitempty"`
	AIModelID   *string   `db:"ai_model_id" json:"ai_model_id,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
