package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/photo-share-backend/internal/repository"
	"github.com/iliyamo/photo-share-backend/internal/service"
)

// AdminHandler exposes moderation endpoints: banning an account and checking
// whether a given token is revoked.  Routes using it are gated to the admin
// and moderator roles at registration.
type AdminHandler struct {
	Svc   *service.AuthService
	Users *repository.UserRepo
}

func NewAdminHandler(svc *service.AuthService, users *repository.UserRepo) *AdminHandler {
	return &AdminHandler{Svc: svc, Users: users}
}

type banReq struct {
	Reason string `json:"reason"`
}

// Ban revokes the target user's current access token.  Unless the reason is
// "logout", the external media host is also told to purge the user's images.
func (h *AdminHandler) Ban(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
	}
	var req banReq
	_ = c.Bind(&req) // missing body means the default reason
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "ban"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	if err := h.Svc.Ban(ctx, user, reason); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user banned", "reason": reason})
}

// Revoked reports whether an access token has a revocation entry.  This is a
// diagnostics endpoint and reads the ledger directly, bypassing the cache.
func (h *AdminHandler) Revoked(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "token query parameter required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	revoked, err := h.Svc.IsRevoked(ctx, token)
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": revoked})
}
