// Package cleanupjobs stores one-shot deferred removals of superseded
// login tokens. Claiming a due job deletes it in the same statement, which
// gives at-most-once execution as long as claim and token removal share a
// transaction.
package cleanupjobs

import (
	"context"
	"time"

	"github.com/loginlink/loginlink/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, job *models.CleanupJob) error

	// ClaimDue atomically removes and returns every job with
	// fire_at <= now.
	ClaimDue(ctx context.Context, now time.Time) ([]models.CleanupJob, error)

	// ClaimDueForUser is ClaimDue restricted to one user; the redemption
	// path uses it to fold in deferred cleanup before validating.
	ClaimDueForUser(ctx context.Context, userID string, now time.Time) ([]models.CleanupJob, error)
}
