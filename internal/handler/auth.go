package handler

import (
    "context"  // provides context with cancellation for DB calls
    "errors"   // sentinel comparisons against service errors
    "net/http" // HTTP status codes and primitives
    "strings"  // string manipulation utilities
    "time"     // timeouts for DB calls

    "github.com/labstack/echo/v4" // Echo framework for HTTP routing

    "github.com/iliyamo/photo-share-backend/internal/middleware"
    "github.com/iliyamo/photo-share-backend/internal/model"
    "github.com/iliyamo/photo-share-backend/internal/service"
    "github.com/iliyamo/photo-share-backend/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.  All session logic
// lives in the service; handlers bind, validate and translate errors to
// status codes.
type AuthHandler struct {
	Svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{Svc: svc}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}
type emailReq struct {
	Email string `json:"email"`
}
type resetReq struct {
	Email           string `json:"email"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type userPart struct {
	ID        uint64     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"created_at"`
}

// Signup: create an unconfirmed account and trigger the confirmation email.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if len(req.Username) < 3 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username must be at least 3 characters"})
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid email required"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	user, err := h.Svc.Signup(ctx, req.Username, req.Email, req.Password, baseURL(c))
	if err != nil {
		if errors.Is(err, service.ErrDuplicateAccount) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "account already exists"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"user":    userPart{ID: user.ID, Username: user.Username, Email: user.Email, Role: user.Role, CreatedAt: user.CreatedAt},
		"message": "check your email for confirmation",
	})
}

// Login: verify credentials and return a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPrincipal):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid email"})
		case errors.Is(err, service.ErrNotConfirmed):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "email is not confirmed"})
		case errors.Is(err, service.ErrInvalidPassword):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid password"})
		case errors.Is(err, service.ErrBanned):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "banned"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	return c.JSON(http.StatusOK, pair)
}

// Refresh: rotate the token pair.  All token-shaped failures answer with the
// same uniform 401 body.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	pair, err := h.Svc.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		switch {
		case errors.Is(err, utils.ErrInvalidToken),
			errors.Is(err, utils.ErrExpiredToken),
			errors.Is(err, utils.ErrWrongTokenKind),
			errors.Is(err, service.ErrUnknownPrincipal),
			errors.Is(err, service.ErrStaleRefreshToken):
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "could not validate credentials"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	return c.JSON(http.StatusOK, pair)
}

// ConfirmEmail: resolve the emailed token; confirming twice is a no-op with
// a distinct message.
func (h *AuthHandler) ConfirmEmail(c echo.Context) error {
	token := c.Param("token")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	already, err := h.Svc.ConfirmEmail(ctx, token)
	if err != nil {
		if errors.Is(err, service.ErrVerification) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "verification error"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	if already {
		return c.JSON(http.StatusOK, echo.Map{"message": "your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "email confirmed"})
}

// RequestEmail: re-send the confirmation email.  The response does not
// reveal whether the address has an account.
func (h *AuthHandler) RequestEmail(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	already, err := h.Svc.RequestEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)), baseURL(c))
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	if already {
		return c.JSON(http.StatusOK, echo.Map{"message": "your email is already confirmed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "check your email for confirmation"})
}

// ResetPassword: overwrite the password after the two fields match.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "new_password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	err := h.Svc.ResetPassword(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.NewPassword, req.ConfirmPassword)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPrincipal):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invalid email"})
		case errors.Is(err, service.ErrPasswordMismatch):
			return c.JSON(http.StatusConflict, echo.Map{"error": "passwords do not match"})
		}
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password reset complete"})
}

// Logout: revoke the caller's current access token (protected route).
func (h *AuthHandler) Logout(c echo.Context) error {
	user, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Svc.Logout(ctx, user); err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "store unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "logout successful"})
}

// Me: return the authenticated user's profile slice.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.Principal(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	return c.JSON(http.StatusOK, userPart{
		ID: user.ID, Username: user.Username, Email: user.Email,
		Role: user.Role, CreatedAt: user.CreatedAt,
	})
}

// baseURL reconstructs the externally visible base of the request so the
// confirmation link in the email points back at this deployment.
func baseURL(c echo.Context) string {
	return c.Scheme() + "://" + c.Request().Host + "/"
}
