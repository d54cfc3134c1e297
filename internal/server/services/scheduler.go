package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loginlink/loginlink/internal/dbx"
	"github.com/loginlink/loginlink/internal/logging"
	"github.com/loginlink/loginlink/internal/server/models"
	"github.com/loginlink/loginlink/internal/server/repositories/repomanager"
)

// Scheduler manages deferred removal of superseded tokens. Jobs are durable
// rows; claiming them deletes them in the same transaction that removes the
// tokens, so a job fires at most once.
//
// Jobs run on two paths: the periodic sweep (Run) and the forced inline
// sweep the redemption engine performs per user before validating. The
// inline path is a correctness guarantee, not an optimization: without it a
// delayed tick would leave about-to-be-revoked tokens redeemable.
type Scheduler struct {
	db     *sql.DB
	rm     repomanager.RepositoryManager
	logger logging.Logger
}

func NewScheduler(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *Scheduler {
	return &Scheduler{
		db:     db,
		rm:     rm,
		logger: logger.With("module", "scheduler"),
	}
}

// Schedule registers a one-shot job removing staleValues for userID after
// delay. It participates in the caller's transaction via tx.
func (s *Scheduler) Schedule(ctx context.Context, tx dbx.DBTX, userID string, staleValues []string, delay time.Duration) error {
	if len(staleValues) == 0 {
		return nil
	}

	job := &models.CleanupJob{
		ID:          uuid.NewString(),
		UserID:      userID,
		TokenValues: staleValues,
		FireAt:      time.Now().Add(delay),
	}

	if err := s.rm.CleanupJobs(tx).Create(ctx, job); err != nil {
		return fmt.Errorf("error scheduling cleanup job: %w", err)
	}

	s.logger.Debug(ctx, "cleanup job scheduled",
		"user_id", userID, "values", len(staleValues), "fire_at", job.FireAt)

	return nil
}

// RunDueJobs executes every job with fire_at <= now. Claiming and token
// removal share one transaction; a job for a vanished user removes nothing
// and is simply discarded.
func (s *Scheduler) RunDueJobs(ctx context.Context, now time.Time) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		jobs, err := s.rm.CleanupJobs(tx).ClaimDue(ctx, now)
		if err != nil {
			return err
		}
		return s.applyJobs(ctx, tx, jobs)
	})
}

// RunDueJobsForUser is the inline variant used by the redemption engine.
func (s *Scheduler) RunDueJobsForUser(ctx context.Context, userID string, now time.Time) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		jobs, err := s.rm.CleanupJobs(tx).ClaimDueForUser(ctx, userID, now)
		if err != nil {
			return err
		}
		return s.applyJobs(ctx, tx, jobs)
	})
}

func (s *Scheduler) applyJobs(ctx context.Context, tx dbx.DBTX, jobs []models.CleanupJob) error {
	if len(jobs) == 0 {
		return nil
	}

	repo := s.rm.Tokens(tx)
	for _, job := range jobs {
		if _, err := repo.Remove(ctx, job.UserID, job.TokenValues); err != nil {
			return fmt.Errorf("error removing stale tokens: %w", err)
		}
		s.logger.Info(ctx, "cleanup job fired",
			"job_id", job.ID, "user_id", job.UserID, "values", len(job.TokenValues))
	}

	return nil
}

// Run sweeps due jobs on a fixed interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "starting cleanup sweep", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "stopping cleanup sweep")
			return
		case now := <-ticker.C:
			if err := s.RunDueJobs(ctx, now); err != nil {
				s.logger.Error(ctx, "cleanup sweep failed", "error", err)
			}
		}
	}
}
