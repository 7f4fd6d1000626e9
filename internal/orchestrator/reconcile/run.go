package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"app/internal/config"
	"app/internal/pgmq"
	"app/internal/repository"
	"app/internal/storage"

	"github.com/rs/zerolog"
)

// job is the payload enqueued after each edit.
type job struct {
	ProjectID string `json:"project_id"`
}

// Run starts the reconcile orchestrator. For every queued project it compares
// the operation log against the history snapshots in blob storage and reports
// drift: orphan snapshots left behind by edits that failed after the snapshot
// write, and gaps where a recorded operation has no snapshot. The worker only
// observes and reports; it never mutates project storage.
func Run(
	ctx context.Context,
	logger zerolog.Logger,
	cfg *config.Config,
	client *pgmq.Client,
	projectRepo repository.ProjectRepository,
	opRepo repository.OperationRepository,
	blobs storage.BlobStore,
) error {
	queue := cfg.ReconcileQueueName
	logger.Info().Str("queue", queue).Msg("Starting reconcile orchestrator")
	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutting down reconcile orchestrator")
			return nil
		default:
		}

		msgs, err := client.ReadWithPoll(ctx, queue, cfg.ReconcilePollTimeoutSec, cfg.ReconcilePollMaxMsg)
		if err != nil {
			logger.Error().Err(err).Msg("Error reading reconcile queue")
			time.Sleep(time.Second)
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		msg := msgs[0]
		var payload job
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			logger.Error().Err(err).Int64("msg_id", msg.ID).Msg("Failed to unmarshal reconcile payload; deleting message")
			client.Delete(ctx, queue, []int64{msg.ID})
			continue
		}

		// Reconcile with retry/backoff; storage listings are flaky enough
		// on remote backends to deserve a few attempts.
		backoff := time.Duration(cfg.ReconcileBackoffInitialSec) * time.Second
		var reconcileErr error
		for attempt := 1; attempt <= cfg.ReconcileMaxRetries; attempt++ {
			reconcileErr = reconcileProject(ctx, logger, payload.ProjectID, projectRepo, opRepo, blobs)
			if reconcileErr == nil {
				break
			}
			logger.Error().Err(reconcileErr).Int("attempt", attempt).Str("project_id", payload.ProjectID).Msg("Reconcile attempt failed, retrying")
			time.Sleep(backoff)
			backoff *= 2
			if backoff > time.Duration(cfg.ReconcileBackoffMaxSec)*time.Second {
				backoff = time.Duration(cfg.ReconcileBackoffMaxSec) * time.Second
			}
		}
		if reconcileErr != nil {
			dlq := cfg.ReconcileDeadLetterQueueName
			if msgBytes, err := json.Marshal(payload); err == nil {
				if err := client.Send(ctx, dlq, msgBytes); err != nil {
					logger.Error().Err(err).Str("dlq", dlq).Msg("Failed to send message to dead-letter queue")
				}
			}
			if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
				logger.Error().Err(err).Msg("Error deleting reconcile message after failure")
			}
			logger.Warn().
				Int("attempts", cfg.ReconcileMaxRetries).
				Str("project_id", payload.ProjectID).
				Err(reconcileErr).
				Msg("Exhausted all reconcile retries; moving job to DLQ")
			continue
		}

		if err := client.Delete(ctx, queue, []int64{msg.ID}); err != nil {
			logger.Error().Err(err).Msg("Error deleting reconcile message")
		}
	}
}

// reconcileProject compares a project's operation count against its stored
// history snapshots. The first edit of a project takes no snapshot, so a
// healthy project has between opCount-1 and opCount snapshots.
func reconcileProject(
	ctx context.Context,
	logger zerolog.Logger,
	projectID string,
	projectRepo repository.ProjectRepository,
	opRepo repository.OperationRepository,
	blobs storage.BlobStore,
) error {
	project, err := projectRepo.GetProjectByID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("fetching project: %w", err)
	}
	if project == nil {
		// Deleted since the edit; nothing left to check.
		logger.Info().Str("project_id", projectID).Msg("Project gone, skipping reconcile")
		return nil
	}

	opCount, err := opRepo.CountOperationsByProjectID(ctx, projectID)
	if err != nil {
		return fmt.Errorf("counting operations: %w", err)
	}
	snapshots, err := blobs.HistoryCount(ctx, project.StoragePath)
	if err != nil {
		return fmt.Errorf("counting history snapshots: %w", err)
	}

	switch {
	case snapshots > opCount:
		logger.Warn().
			Str("project_id", projectID).
			Int("operations", opCount).
			Int("snapshots", snapshots).
			Msg("Orphan history snapshots detected")
	case snapshots < opCount-1:
		logger.Warn().
			Str("project_id", projectID).
			Int("operations", opCount).
			Int("snapshots", snapshots).
			Msg("Missing history snapshots detected")
	default:
		logger.Info().
			Str("project_id", projectID).
			Int("operations", opCount).
			Int("snapshots", snapshots).
			Msg("Project history consistent")
	}
	return nil
}
