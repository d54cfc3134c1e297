package repomanager

import (
	"context"
	"database/sql"

	"github.com/loginlink/loginlink/internal/dbx"
	"github.com/loginlink/loginlink/internal/server/repositories/cleanupjobs"
	"github.com/loginlink/loginlink/internal/server/repositories/tokens"
	"github.com/loginlink/loginlink/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	CleanupJobs(db dbx.DBTX) cleanupjobs.Repository
}
