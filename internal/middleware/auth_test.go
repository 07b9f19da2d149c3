package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share-backend/internal/cache"
	"github.com/iliyamo/photo-share-backend/internal/model"
	"github.com/iliyamo/photo-share-backend/internal/repository"
	"github.com/iliyamo/photo-share-backend/internal/utils"
)

const testSecret = "middleware-test-secret"

func newGate(t *testing.T) (echo.MiddlewareFunc, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	users := repository.NewUserRepo(db)
	banned := cache.NewBanList(repository.NewBanRepo(db), nil, 25*time.Minute)
	return Authenticate(testSecret, users, banned), mock, func() { db.Close() }
}

func invoke(t *testing.T, mw echo.MiddlewareFunc, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	handler := mw(func(c echo.Context) error {
		user, ok := Principal(c)
		if !ok {
			t.Fatalf("handler reached without a principal on the context")
		}
		return c.String(http.StatusOK, user.Email)
	})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	if err := handler(e.NewContext(req, rec)); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	return rec
}

func expectGateUser(t *testing.T, mock sqlmock.Sqlmock, access string) {
	t.Helper()
	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM users WHERE email=").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "username", "email", "password_hash", "role", "confirmed",
			"access_token", "refresh_token", "created_at", "updated_at",
		}).AddRow(1, "user", "user@example.com", "hash", "user", true, access, nil, now, now))
}

func TestGateMissingBearer(t *testing.T) {
	gate, _, done := newGate(t)
	defer done()

	rec := invoke(t, gate, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not authenticated") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGateUniformTokenErrors(t *testing.T) {
	gate, _, done := newGate(t)
	defer done()

	expired, err := utils.IssueToken(testSecret, utils.KindAccess, "user@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	refresh, err := utils.IssueToken(testSecret, utils.KindRefresh, "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	// Garbage, expired and wrong-kind tokens all answer identically.
	for _, tok := range []string{"garbage", expired, refresh} {
		rec := invoke(t, gate, tok)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %q, got %d", tok, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "could not validate credentials") {
			t.Fatalf("unexpected body: %s", rec.Body.String())
		}
	}
}

func TestGateResolvesPrincipal(t *testing.T) {
	gate, mock, done := newGate(t)
	defer done()

	access, err := utils.IssueToken(testSecret, utils.KindAccess, "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expectGateUser(t, mock, access)
	mock.ExpectQuery("SELECT id, access_token, reason FROM ban_list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access_token", "reason"}))

	rec := invoke(t, gate, access)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "user@example.com" {
		t.Fatalf("unexpected principal: %s", rec.Body.String())
	}
}

func TestGateRejectsRevokedToken(t *testing.T) {
	gate, mock, done := newGate(t)
	defer done()

	access, err := utils.IssueToken(testSecret, utils.KindAccess, "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expectGateUser(t, mock, access)
	mock.ExpectQuery("SELECT id, access_token, reason FROM ban_list").
		WillReturnRows(sqlmock.NewRows([]string{"id", "access_token", "reason"}).
			AddRow(1, access, "logout"))

	rec := invoke(t, gate, access)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "banned") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestGateFailsClosedOnStoreError(t *testing.T) {
	gate, mock, done := newGate(t)
	defer done()

	access, err := utils.IssueToken(testSecret, utils.KindAccess, "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expectGateUser(t, mock, access)
	mock.ExpectQuery("SELECT id, access_token, reason FROM ban_list").
		WillReturnError(echo.ErrServiceUnavailable)

	rec := invoke(t, gate, access)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("a ban-list store failure must deny access, got %d", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	cases := []struct {
		role    model.Role
		allowed []model.Role
		want    int
	}{
		{model.RoleAdmin, []model.Role{model.RoleAdmin, model.RoleModerator}, http.StatusOK},
		{model.RoleModerator, []model.Role{model.RoleAdmin, model.RoleModerator}, http.StatusOK},
		{model.RoleUser, []model.Role{model.RoleAdmin, model.RoleModerator}, http.StatusForbidden},
		{model.RoleUser, []model.Role{model.RoleUser}, http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(principalKey, model.User{ID: 1, Role: tc.role})
		if err := RequireRole(tc.allowed...)(next)(c); err != nil {
			t.Fatalf("RequireRole returned error: %v", err)
		}
		if rec.Code != tc.want {
			t.Fatalf("role %s with allowed %v: expected %d, got %d", tc.role, tc.allowed, tc.want, rec.Code)
		}
	}
}

func TestRequireRoleWithoutPrincipal(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	if err := RequireRole(model.RoleUser)(next)(c); err != nil {
		t.Fatalf("RequireRole returned error: %v", err)
	}
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a principal, got %d", rec.Code)
	}
}
