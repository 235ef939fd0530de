package subscriptions

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/couchwatch/auth-backend/internal/common"
	"github.com/couchwatch/auth-backend/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestInsert_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+subscriptions\b.*VALUES\s*\(\$1,\s*\$2\).*RETURNING\s+created_at`).
		WithArgs("a@example.com", "couch").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	sub := &models.Subscription{Email: "a@example.com", Service: "couch"}
	if err := repo.Insert(context.Background(), sub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sub.CreatedAt.Equal(created) {
		t.Fatalf("created_at not populated: %+v", sub)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInsert_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT\s+INTO\s+subscriptions`).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.Insert(context.Background(), &models.Subscription{Email: "a@example.com"})
	if !errors.Is(err, common.ErrorAlreadyExists) {
		t.Fatalf("want common.ErrorAlreadyExists, got %v", err)
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"email", "service", "created_at"}).
		AddRow("a@example.com", "", time.Now())
	mock.ExpectQuery(`SELECT\s+.*FROM\s+subscriptions\s+WHERE\s+email\s*=\s*\$1`).
		WithArgs("a@example.com").
		WillReturnRows(rows)

	got, err := repo.FindByEmail(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Email != "a@example.com" {
		t.Fatalf("unexpected row: %+v", got)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+.*FROM\s+subscriptions`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
