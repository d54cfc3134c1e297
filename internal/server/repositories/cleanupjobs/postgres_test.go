package cleanupjobs

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/loginlink/loginlink/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	fireAt := time.Now().Add(15 * time.Minute)
	mock.ExpectExec(`INSERT\s+INTO\s+login_token_cleanup_jobs`).
		WithArgs("j-1", "u-1", []byte(`["a","b"]`), fireAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	job := &models.CleanupJob{
		ID:          "j-1",
		UserID:      "u-1",
		TokenValues: []string{"a", "b"},
		FireAt:      fireAt,
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestClaimDue_ReturnsAndDeletes(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "token_values", "fire_at"}).
		AddRow("j-1", "u-1", []byte(`["a"]`), now.Add(-time.Minute)).
		AddRow("j-2", "u-2", []byte(`["b","c"]`), now.Add(-time.Second))

	mock.ExpectQuery(`(?s)^DELETE\s+FROM\s+login_token_cleanup_jobs\s+WHERE\s+fire_at\s*<=\s*\$1\s+RETURNING`).
		WithArgs(now).WillReturnRows(rows)

	jobs, err := repo.ClaimDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ClaimDue error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[1].UserID != "u-2" || len(jobs[1].TokenValues) != 2 {
		t.Fatalf("unexpected job: %+v", jobs[1])
	}
}

func TestClaimDueForUser_FiltersByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "token_values", "fire_at"}).
		AddRow("j-1", "u-1", []byte(`["stale"]`), now.Add(-time.Minute))

	mock.ExpectQuery(`(?s)^DELETE\s+FROM\s+login_token_cleanup_jobs\s+WHERE\s+user_id\s*=\s*\$1\s+AND\s+fire_at\s*<=\s*\$2\s+RETURNING`).
		WithArgs("u-1", now).WillReturnRows(rows)

	jobs, err := repo.ClaimDueForUser(context.Background(), "u-1", now)
	if err != nil {
		t.Fatalf("ClaimDueForUser error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].TokenValues[0] != "stale" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}
}

func TestClaimDue_NoDueJobs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`DELETE\s+FROM\s+login_token_cleanup_jobs`).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_values", "fire_at"}))

	jobs, err := repo.ClaimDue(context.Background(), now)
	if err != nil {
		t.Fatalf("ClaimDue error: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %+v", jobs)
	}
}

func TestClaimDue_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`DELETE\s+FROM\s+login_token_cleanup_jobs`).
		WithArgs(now).WillReturnError(errors.New("db down"))

	if _, err := repo.ClaimDue(context.Background(), now); err == nil {
		t.Fatalf("expected error")
	}
}
