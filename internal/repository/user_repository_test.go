package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/photo-share-backend/internal/model"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewUserRepo(db), mock, func() { db.Close() }
}

func userRow(access, refresh any) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "email", "password_hash", "role", "confirmed",
		"access_token", "refresh_token", "created_at", "updated_at",
	}).AddRow(1, "user", "user@example.com", "$2a$04$hash", "user", true, access, refresh, now, now)
}

func TestUserRepoCreate(t *testing.T) {
	repo, mock, done := newUserRepo(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WithArgs("user", "user@example.com", "$2a$04$hash", "user").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "user", "User@Example.com ", "$2a$04$hash", model.RoleUser)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if id != 7 {
		t.Fatalf("unexpected id: %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepoCreateDuplicates(t *testing.T) {
	repo, mock, done := newUserRepo(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'user@example.com' for key 'users.email'"))
	if _, err := repo.Create(context.Background(), "user", "user@example.com", "h", model.RoleUser); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'user' for key 'users.username'"))
	if _, err := repo.Create(context.Background(), "user", "other@example.com", "h", model.RoleUser); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("expected ErrUsernameExists, got %v", err)
	}
}

func TestUserRepoGetByEmail(t *testing.T) {
	repo, mock, done := newUserRepo(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WithArgs("user@example.com").
		WillReturnRows(userRow(nil, nil))

	u, err := repo.GetByEmail(context.Background(), " User@Example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if u.Email != "user@example.com" || u.Role != model.RoleUser {
		t.Fatalf("unexpected user: %+v", u)
	}
	if u.AccessToken != "" || u.RefreshToken != "" {
		t.Fatalf("NULL token columns must map to empty strings")
	}
}

func TestUserRepoGetByEmailMissing(t *testing.T) {
	repo, mock, done := newUserRepo(t)
	defer done()

	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestUserRepoTokenUpdates(t *testing.T) {
	repo, mock, done := newUserRepo(t)
	defer done()

	mock.ExpectExec("UPDATE users SET access_token=\\?, refresh_token=").
		WithArgs("acc", "ref", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdateTokens(context.Background(), 1, "acc", "ref"); err != nil {
		t.Fatalf("UpdateTokens: %v", err)
	}

	mock.ExpectExec("UPDATE users SET access_token=NULL, refresh_token=NULL").
		WithArgs(uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.ClearTokens(context.Background(), 1); err != nil {
		t.Fatalf("ClearTokens: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserRepoSetConfirmedAndPassword(t *testing.T) {
	repo, mock, done := newUserRepo(t)
	defer done()

	mock.ExpectExec("UPDATE users SET confirmed=TRUE").
		WithArgs("user@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.SetConfirmed(context.Background(), "User@example.com "); err != nil {
		t.Fatalf("SetConfirmed: %v", err)
	}

	mock.ExpectExec("UPDATE users SET password_hash=").
		WithArgs("newhash", uint64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpdatePassword(context.Background(), 1, "newhash"); err != nil {
		t.Fatalf("UpdatePassword: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
