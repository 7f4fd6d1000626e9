package repository

import (
	"context"
	"fmt"

	"app/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlanRepository provides plan reference data and the user-plan subscription
// records. Plan changes are transactional: a concurrent reader never observes
// zero or two open subscriptions for a user.
type PlanRepository interface {
	// GetActivePlan returns the user's open subscription joined with its
	// plan limits, or nil when the user has no open subscription.
	GetActivePlan(ctx context.Context, userID string) (*model.ActivePlan, error)
	// ListPlans returns all plans, cheapest first.
	ListPlans(ctx context.Context) ([]model.Plan, error)
	GetPlanByID(ctx context.Context, planID string) (*model.Plan, error)
	// GetPlanByName looks a plan up by its unique name.
	GetPlanByName(ctx context.Context, name string) (*model.Plan, error)
	// ChangePlan ends the open subscription and opens a new one for planID
	// in a single transaction.
	ChangePlan(ctx context.Context, userID, planID string) (*model.UserPlan, error)
	// SubscribeDefault opens a subscription to planID if the user has none.
	SubscribeDefault(ctx context.Context, userID, planID string) error
}

type planRepo struct {
	pool *pgxpool.Pool
}

// NewPlanRepo creates a new PlanRepository.
func NewPlanRepo(pool *pgxpool.Pool) PlanRepository {
	return &planRepo{pool: pool}
}

// GetActivePlan returns the single open subscription with its plan.
func (r *planRepo) GetActivePlan(ctx context.Context, userID string) (*model.ActivePlan, error) {
	const q = `
        SELECT up.id, up.user_id, up.plan_id, up.started_at, up.ended_at,
               p.id, p.name, p.description, p.price, p.max_storage_mb, p.max_ai_calls
        FROM user_plans up
        JOIN plans p ON p.id = up.plan_id
        WHERE up.user_id = $1
          AND up.ended_at IS NULL
    `
	var ap model.ActivePlan
	err := r.pool.QueryRow(ctx, q, userID).Scan(
		&ap.UserPlan.ID,
		&ap.UserPlan.UserID,
		&ap.UserPlan.PlanID,
		&ap.UserPlan.StartedAt,
		&ap.UserPlan.EndedAt,
		&ap.Plan.ID,
		&ap.Plan.Name,
		&ap.Plan.Description,
		&ap.Plan.Price,
		&ap.Plan.MaxStorageMB,
		&ap.Plan.MaxAICalls,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch active plan for user %s: %w", userID, err)
	}
	return &ap, nil
}

// ListPlans returns all plans ordered by price ascending.
func (r *planRepo) ListPlans(ctx context.Context) ([]model.Plan, error) {
	const q = `
        SELECT id, name, description, price, max_storage_mb, max_ai_calls
        FROM plans
        ORDER BY price ASC
    `
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	defer rows.Close()

	var plans []model.Plan
	for rows.Next() {
		var p model.Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.MaxStorageMB, &p.MaxAICalls); err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	if len(plans) == 0 {
		return []model.Plan{}, nil
	}
	return plans, nil
}

// GetPlanByID returns the plan with its limits.
func (r *planRepo) GetPlanByID(ctx context.Context, planID string) (*model.Plan, error) {
	const q = `
        SELECT id, name, description, price, max_storage_mb, max_ai_calls
        FROM plans
        WHERE id = $1
    `
	return r.scanPlan(r.pool.QueryRow(ctx, q, planID))
}

// GetPlanByName returns the plan with the given unique name.
func (r *planRepo) GetPlanByName(ctx context.Context, name string) (*model.Plan, error) {
	const q = `
        SELECT id, name, description, price, max_storage_mb, max_ai_calls
        FROM plans
        WHERE name = $1
    `
	return r.scanPlan(r.pool.QueryRow(ctx, q, name))
}

func (r *planRepo) scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.MaxStorageMB, &p.MaxAICalls)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch plan: %w", err)
	}
	return &p, nil
}

// ChangePlan ends the current open subscription and creates the new one as a
// single atomic unit.
func (r *planRepo) ChangePlan(ctx context.Context, userID, planID string) (*model.UserPlan, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("starting transaction for plan change: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	const endQ = `UPDATE user_plans SET ended_at = NOW() WHERE user_id = $1 AND ended_at IS NULL`
	if _, err := tx.Exec(ctx, endQ, userID); err != nil {
		return nil, fmt.Errorf("ending current plan for user %s: %w", userID, err)
	}

	const insertQ = `
        INSERT INTO user_plans (user_id, plan_id)
        VALUES ($1, $2)
        RETURNING id, user_id, plan_id, started_at, ended_at
    `
	var up model.UserPlan
	if err := tx.QueryRow(ctx, insertQ, userID, planID).Scan(
		&up.ID, &up.UserID, &up.PlanID, &up.StartedAt, &up.EndedAt,
	); err != nil {
		return nil, fmt.Errorf("creating new plan %s for user %s: %w", planID, userID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing plan change for user %s: %w", userID, err)
	}
	return &up, nil
}

// SubscribeDefault opens a subscription for a new user if none is open yet.
func (r *planRepo) SubscribeDefault(ctx context.Context, userID, planID string) error {
	const q = `
        INSERT INTO user_plans (user_id, plan_id)
        VALUES ($1, $2)
        ON CONFLICT (user_id) WHERE ended_at IS NULL DO NOTHING
    `
	if _, err := r.pool.Exec(ctx, q, userID, planID); err != nil {
		return fmt.Errorf("subscribing user %s to default plan: %w", userID, err)
	}
	return nil
}
