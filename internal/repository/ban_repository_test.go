package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newBanRepo(t *testing.T) (*BanRepo, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	return NewBanRepo(db), mock, func() { db.Close() }
}

func TestBanRepoAdd(t *testing.T) {
	repo, mock, done := newBanRepo(t)
	defer done()

	mock.ExpectExec("INSERT INTO ban_list").
		WithArgs("tok", "logout").
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Add(context.Background(), "tok", "logout"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBanRepoAll(t *testing.T) {
	repo, mock, done := newBanRepo(t)
	defer done()

	mock.ExpectQuery("SELECT id, access_token, reason FROM ban_list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access_token", "reason"}).
			AddRow(1, "tok-a", "logout").
			AddRow(2, "tok-b", "ban"))

	records, err := repo.All(context.Background())
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[1].AccessToken != "tok-b" || records[1].Reason != "ban" {
		t.Fatalf("unexpected record: %+v", records[1])
	}
}

func TestBanRepoExists(t *testing.T) {
	repo, mock, done := newBanRepo(t)
	defer done()

	mock.ExpectQuery("SELECT id FROM ban_list WHERE access_token=").
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	ok, err := repo.Exists(context.Background(), "tok")
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}

	mock.ExpectQuery("SELECT id FROM ban_list WHERE access_token=").
		WithArgs("other").
		WillReturnError(sql.ErrNoRows)
	ok, err = repo.Exists(context.Background(), "other")
	if err != nil || ok {
		t.Fatalf("Exists on missing token: ok=%v err=%v", ok, err)
	}

	mock.ExpectQuery("SELECT id FROM ban_list WHERE access_token=").
		WillReturnError(errors.New("connection refused"))
	if _, err := repo.Exists(context.Background(), "tok"); err == nil {
		t.Fatalf("store failure must propagate")
	}
}

func TestBanRepoRemove(t *testing.T) {
	repo, mock, done := newBanRepo(t)
	defer done()

	mock.ExpectExec("DELETE FROM ban_list WHERE access_token=").
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Remove(context.Background(), "tok"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
