// Package users resolves host user records. The users table is owned by the
// host identity system; this repository only reads it.
package users

import (
	"context"

	"github.com/loginlink/loginlink/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}
