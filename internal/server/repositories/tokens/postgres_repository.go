package tokens

import (
	"context"
	"fmt"

	"github.com/loginlink/loginlink/internal/dbx"
	"github.com/loginlink/loginlink/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetActive(ctx context.Context, userID string) ([]models.LoginToken, error) {
	query :=
		`SELECT token, created_at FROM login_tokens
		 WHERE user_id = $1
		 ORDER BY created_at, token
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	set := []models.LoginToken{}
	for rows.Next() {
		var t models.LoginToken
		if err := rows.Scan(&t.Value, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		set = append(set, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return set, nil
}

func (r *PostgresRepository) Replace(ctx context.Context, userID string, set []models.LoginToken) error {
	if err := r.LockUser(ctx, userID); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	query :=
		`INSERT INTO login_tokens (user_id, token, created_at)
         VALUES ($1, $2, $3)
		 `

	for _, t := range set {
		if _, err := r.db.ExecContext(ctx, query, userID, t.Value, t.CreatedAt); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
	}

	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID string, values []string) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}

	if err := r.LockUser(ctx, userID); err != nil {
		return 0, err
	}

	query :=
		`DELETE FROM login_tokens
		 WHERE user_id = $1 AND token = $2
		 `

	var removed int64
	for _, v := range values {
		res, err := r.db.ExecContext(ctx, query, userID, v)
		if err != nil {
			return removed, fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return removed, fmt.Errorf("db error: %w", err)
		}
		removed += n
	}

	return removed, nil
}

func (r *PostgresRepository) Clear(ctx context.Context, userID string) error {
	if err := r.LockUser(ctx, userID); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM login_tokens WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// LockUser serializes same-user mutations. The advisory lock is
// transaction-scoped, so it is only effective when the repository is bound
// to a transaction (dbx.WithTx). Re-acquiring it inside the same
// transaction is fine; postgres advisory locks are reentrant.
func (r *PostgresRepository) LockUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
