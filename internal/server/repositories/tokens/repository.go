// Package tokens stores the active one-time login token set per user.
//
// Mutating operations on a single user's set are linearizable: the postgres
// implementation takes a per-user transaction-scoped advisory lock, so the
// caller must run mutations through dbx.WithTx. Different users never block
// one another.
package tokens

import (
	"context"

	"github.com/loginlink/loginlink/internal/server/models"
)

type Repository interface {
	// LockUser takes the per-user mutation lock for the remainder of the
	// caller's transaction. Any transaction that reads a set and then
	// mutates it must call LockUser before the read, or two transactions
	// may both act on the same stale snapshot.
	LockUser(ctx context.Context, userID string) error

	// GetActive returns the user's outstanding tokens ordered by creation
	// time. Empty slice if none.
	GetActive(ctx context.Context, userID string) ([]models.LoginToken, error)

	// Replace atomically overwrites the stored set.
	Replace(ctx context.Context, userID string, set []models.LoginToken) error

	// Remove deletes only the listed values and reports how many rows
	// went; values not present are ignored, so Remove is idempotent.
	Remove(ctx context.Context, userID string, values []string) (int64, error)

	// Clear removes all entries for the user.
	Clear(ctx context.Context, userID string) error
}
