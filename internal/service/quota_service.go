package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

var (
	// ErrNoActivePlan means the user has no open subscription record.
	ErrNoActivePlan = errors.New("no active plan")
	// ErrPlanNotFound means the requested plan id does not exist.
	ErrPlanNotFound = errors.New("plan not found")
)

// QuotaService is the quota ledger: it answers whether a consumption would
// exceed the active plan's limits and records consumption after it happened.
// Checks and recording are deliberately separate steps (check, perform the
// gated action, record): the gated actions are external calls that cannot be
// rolled into a ledger transaction, so enforcement is best-effort under
// concurrency, bounded to one in-flight overshoot per user.
type QuotaService interface {
	// ActivePlan returns the user's open subscription with its plan limits.
	ActivePlan(ctx context.Context, userID string) (*model.ActivePlan, error)
	// WouldExceedStorage reports whether writing additionalMB more megabytes
	// would push the user's lifetime storage total past the plan limit.
	// Landing exactly at the limit is allowed.
	WouldExceedStorage(ctx context.Context, userID string, additionalMB float64) (bool, error)
	// WouldExceedAICalls reports whether another AI call is allowed this
	// calendar month (UTC). A count equal to the limit blocks.
	WouldExceedAICalls(ctx context.Context, userID string) (bool, error)
	// RecordUsage appends one ledger entry.
	RecordUsage(ctx context.Context, userID, usageType string, count int, aiModelID *string, sizeMB *float64) error
	// ChangePlan atomically ends the open subscription and opens one for
	// planID.
	ChangePlan(ctx context.Context, userID, planID string) (*model.UserPlan, error)
	// SubscribeDefaultPlan opens the configured default plan for a user who
	// has no subscription yet. Idempotent.
	SubscribeDefaultPlan(ctx context.Context, userID string) error
	// ListPlans returns all plans, cheapest first.
	ListPlans(ctx context.Context) ([]model.Plan, error)
	// UsageStats summarises consumption against the active plan, opening the
	// default subscription first when the user has none.
	UsageStats(ctx context.Context, userID string) (*model.UsageStats, error)
}

type quotaService struct {
	planRepo        repository.PlanRepository
	usageRepo       repository.UsageRepository
	defaultPlanName string
	now             func() time.Time
	logger          zerolog.Logger
}

// NewQuotaService creates a new QuotaService.
func NewQuotaService(
	planRepo repository.PlanRepository,
	usageRepo repository.UsageRepository,
	defaultPlanName string,
	logger zerolog.Logger,
) QuotaService {
	return &quotaService{
		planRepo:        planRepo,
		usageRepo:       usageRepo,
		defaultPlanName: defaultPlanName,
		now:             time.Now,
		logger:          logger.With().Str("service", "QuotaService").Logger(),
	}
}

// ActivePlan returns the user's open subscription joined with plan limits.
func (s *quotaService) ActivePlan(ctx context.Context, userID string) (*model.ActivePlan, error) {
	ap, err := s.planRepo.GetActivePlan(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch active plan")
		return nil, fmt.Errorf("fetching active plan: %w", err)
	}
	if ap == nil {
		return nil, ErrNoActivePlan
	}
	return ap, nil
}

// WouldExceedStorage compares lifetime storage consumption plus the new write
// against the plan's storage limit.
func (s *quotaService) WouldExceedStorage(ctx context.Context, userID string, additionalMB float64) (bool, error) {
	ap, err := s.ActivePlan(ctx, userID)
	if err != nil {
		return false, err
	}
	used, err := s.usageRepo.SumStorageSizeMB(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("summing storage usage: %w", err)
	}
	return used+additionalMB > ap.Plan.MaxStorageMB, nil
}

// WouldExceedAICalls counts AI calls since the first instant of the current
// calendar month, in UTC.
func (s *quotaService) WouldExceedAICalls(ctx context.Context, userID string) (bool, error) {
	ap, err := s.ActivePlan(ctx, userID)
	if err != nil {
		return false, err
	}
	count, err := s.usageRepo.CountAICallsSince(ctx, userID, monthStartUTC(s.now()))
	if err != nil {
		return false, fmt.Errorf("counting ai calls: %w", err)
	}
	return count >= ap.Plan.MaxAICalls, nil
}

// RecordUsage appends one usage entry; it only fails on a storage-medium error.
func (s *quotaService) RecordUsage(ctx context.Context, userID, usageType string, count int, aiModelID *string, sizeMB *float64) error {
	entry := &model.UsageLog{
		UserID:      userID,
		UsageType:   usageType,
		UsageCount:  count,
		UsageSizeMB: sizeMB,
		AIModelID:   aiModelID,
	}
	if err := s.usageRepo.InsertUsage(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("usage_type", usageType).Msg("Failed to record usage")
		return err
	}
	return nil
}

// ChangePlan validates the target plan and swaps subscriptions atomically.
func (s *quotaService) ChangePlan(ctx context.Context, userID, planID string) (*model.UserPlan, error) {
	plan, err := s.planRepo.GetPlanByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("fetching plan %s: %w", planID, err)
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	up, err := s.planRepo.ChangePlan(ctx, userID, planID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("plan_id", planID).Msg("Failed to change plan")
		return nil, err
	}
	s.logger.Info().Str("user_id", userID).Str("plan", plan.Name).Msg("Plan changed")
	return up, nil
}

// SubscribeDefaultPlan opens the default plan for a new user.
func (s *quotaService) SubscribeDefaultPlan(ctx context.Context, userID string) error {
	plan, err := s.planRepo.GetPlanByName(ctx, s.defaultPlanName)
	if err != nil {
		return fmt.Errorf("fetching default plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("%w: default plan %q", ErrPlanNotFound, s.defaultPlanName)
	}
	return s.planRepo.SubscribeDefault(ctx, userID, plan.ID)
}

// ListPlans returns all plans.
func (s *quotaService) ListPlans(ctx context.Context) ([]model.Plan, error) {
	return s.planRepo.ListPlans(ctx)
}

// UsageStats aggregates current consumption against the plan limits.
func (s *quotaService) UsageStats(ctx context.Context, userID string) (*model.UsageStats, error) {
	ap, err := s.ActivePlan(ctx, userID)
	if errors.Is(err, ErrNoActivePlan) {
		if err := s.SubscribeDefaultPlan(ctx, userID); err != nil {
			return nil, err
		}
		ap, err = s.ActivePlan(ctx, userID)
	}
	if err != nil {
		return nil, err
	}

	used, err := s.usageRepo.SumStorageSizeMB(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("summing storage usage: %w", err)
	}
	calls, err := s.usageRepo.CountAICallsSince(ctx, userID, monthStartUTC(s.now()))
	if err != nil {
		return nil, fmt.Errorf("counting ai calls: %w", err)
	}

	return &model.UsageStats{
		StorageUsedMB: used,
		AICallsUsed:   calls,
		MaxStorageMB:  ap.Plan.MaxStorageMB,
		MaxAICalls:    ap.Plan.MaxAICalls,
	}, nil
}

// monthStartUTC is the first instant of t's calendar month in UTC. The
// monthly quota window is fixed to UTC regardless of server locale.
func monthStartUTC(t time.Time) time.Time {
	y, m, _ := t.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}
