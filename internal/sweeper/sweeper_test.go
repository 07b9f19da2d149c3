package sweeper

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/iliyamo/photo-share-backend/internal/cache"
	"github.com/iliyamo/photo-share-backend/internal/repository"
	"github.com/iliyamo/photo-share-backend/internal/utils"
)

const testSecret = "sweeper-test-secret"

func newSweeper(t *testing.T) (*Sweeper, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	bans := repository.NewBanRepo(db)
	banned := cache.NewBanList(bans, nil, 25*time.Minute)
	return New(testSecret, bans, banned, 6*time.Hour), mock, func() { db.Close() }
}

func TestSweepRemovesExpiredLogoutEntries(t *testing.T) {
	s, mock, done := newSweeper(t)
	defer done()

	expired, err := utils.IssueToken(testSecret, utils.KindAccess, "a@example.com", -time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	live, err := utils.IssueToken(testSecret, utils.KindAccess, "b@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	mock.ExpectQuery("SELECT id, access_token, reason FROM ban_list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access_token", "reason"}).
			AddRow(1, expired, "logout").
			AddRow(2, live, "logout").
			AddRow(3, expired, "ban")) // admin ban: never swept, expired or not
	mock.ExpectExec("DELETE FROM ban_list WHERE access_token=").
		WithArgs(expired).
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSweepTreatsUndecodableAsExpired(t *testing.T) {
	s, mock, done := newSweeper(t)
	defer done()

	mock.ExpectQuery("SELECT id, access_token, reason FROM ban_list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access_token", "reason"}).
			AddRow(1, "not-a-jwt", "logout"))
	mock.ExpectExec("DELETE FROM ban_list WHERE access_token=").
		WithArgs("not-a-jwt").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("an undecodable token must be removal-eligible, removed=%d", removed)
	}
}

func TestSweepLeavesFreshEntriesAlone(t *testing.T) {
	s, mock, done := newSweeper(t)
	defer done()

	live, err := utils.IssueToken(testSecret, utils.KindAccess, "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	mock.ExpectQuery("SELECT id, access_token, reason FROM ban_list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access_token", "reason"}).
			AddRow(1, live, "logout"))

	removed, err := s.SweepOnce(context.Background())
	if err != nil {
		t.Fatalf("SweepOnce: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected no removals, got %d", removed)
	}
}
