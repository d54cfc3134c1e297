package cleanupjobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loginlink/loginlink/internal/dbx"
	"github.com/loginlink/loginlink/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, job *models.CleanupJob) error {
	values, err := json.Marshal(job.TokenValues)
	if err != nil {
		return fmt.Errorf("marshal token values: %w", err)
	}

	query :=
		`INSERT INTO login_token_cleanup_jobs (id, user_id, token_values, fire_at)
         VALUES ($1, $2, $3, $4)
		 `

	if _, err := r.db.ExecContext(ctx, query, job.ID, job.UserID, values, job.FireAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) ClaimDue(ctx context.Context, now time.Time) ([]models.CleanupJob, error) {
	query :=
		`DELETE FROM login_token_cleanup_jobs
		 WHERE fire_at <= $1
		 RETURNING id, user_id, token_values, fire_at
		 `

	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanJobs(rows)
}

func (r *PostgresRepository) ClaimDueForUser(ctx context.Context, userID string, now time.Time) ([]models.CleanupJob, error) {
	query :=
		`DELETE FROM login_token_cleanup_jobs
		 WHERE user_id = $1 AND fire_at <= $2
		 RETURNING id, user_id, token_values, fire_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanJobs(rows)
}

func scanJobs(rows *sql.Rows) ([]models.CleanupJob, error) {
	defer rows.Close()

	jobs := []models.CleanupJob{}
	for rows.Next() {
		var (
			job    models.CleanupJob
			values []byte
		)
		if err := rows.Scan(&job.ID, &job.UserID, &values, &job.FireAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal(values, &job.TokenValues); err != nil {
			return nil, fmt.Errorf("unmarshal token values: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return jobs, nil
}
