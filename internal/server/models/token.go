package models

import "time"

// LoginToken is a single-use login credential for one user. Value is an
// opaque random string; it is removed from the active set exactly once,
// either on redemption or by the cleanup job that lists it.
type LoginToken struct {
	Value     string
	CreatedAt time.Time
}

// CleanupJob is a one-shot deferred removal of superseded token values.
// It removes only the values listed here, never tokens created after the
// job was scheduled.
type CleanupJob struct {
	ID          string
	UserID      string
	TokenValues []string
	FireAt      time.Time
}
