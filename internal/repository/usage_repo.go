package repository

import (
	"context"
	"fmt"
	"time"

	"app/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UsageRepository is the append-only consumption ledger. Entries are only
// ever inserted; aggregation over them answers the quota questions.
type UsageRepository interface {
	// InsertUsage appends one ledger entry and fills in generated fields.
	InsertUsage(ctx context.Context, entry *model.UsageLog) error
	// SumStorageSizeMB sums all storage entry sizes for the user over all
	// time, in megabytes.
	SumStorageSizeMB(ctx context.Context, userID string) (float64, error)
	// CountAICallsSince counts ai_call entries created at or after since.
	CountAICallsSince(ctx context.Context, userID string, since time.Time) (int, error)
}

type usageRepo struct {
	pool *pgxpool.Pool
}

// NewUsageRepo creates a new UsageRepository.
func NewUsageRepo(pool *pgxpool.Pool) UsageRepository {
	return &usageRepo{pool: pool}
}

// InsertUsage appends one usage entry.
func (r *usageRepo) InsertUsage(ctx context.Context, entry *model.UsageLog) error {
	const q = `
        INSERT INTO usage_logs (user_id, usage_type, usage_count, usage_size_mb, ai_model_id)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at
    `
	if err := r.pool.QueryRow(ctx, q,
		entry.UserID, entry.UsageType, entry.UsageCount, entry.UsageSizeMB, entry.AIModelID,
	).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("recording %s usage for user %s: %w", entry.UsageType, entry.UserID, err)
	}
	return nil
}

// SumStorageSizeMB sums historical storage usage for the user.
func (r *usageRepo) SumStorageSizeMB(ctx context.Context, userID string) (float64, error) {
	const q = `
        SELECT COALESCE(SUM(usage_size_mb), 0)
        FROM usage_logs
        WHERE user_id = $1
          AND usage_type = 'storage'
    `
	var sum float64
	if err := r.pool.QueryRow(ctx, q, userID).Scan(&sum); err != nil {
		return 0, fmt.Errorf("summing storage usage for user %s: %w", userID, err)
	}
	return sum, nil
}

// CountAICallsSince counts ai_call entries within the current period.
func (r *usageRepo) CountAICallsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const q = `
        SELECT COALESCE(SUM(usage_count), 0)
        FROM usage_logs
        WHERE user_id = $1
          AND usage_type = 'ai_call'
          AND created_at >= $2
    `
	var count int
	if err := r.pool.QueryRow(ctx, q, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting ai calls for user %s: %w", userID, err)
	}
	return count, nil
}
