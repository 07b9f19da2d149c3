package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/photo-share-backend/internal/cache"
	"github.com/iliyamo/photo-share-backend/internal/handler"
	"github.com/iliyamo/photo-share-backend/internal/middleware"
	"github.com/iliyamo/photo-share-backend/internal/model"
	"github.com/iliyamo/photo-share-backend/internal/repository"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check used by
// load balancers and monitoring to verify the service is up.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication and moderation routes together
// with their middleware.  Unauthenticated operations live under /v1/auth;
// protected endpoints live under /v1 behind the access gate; moderation
// endpoints live under /v1/admin and are additionally restricted to the
// admin and moderator roles.  Each group declares its allowed-role set once
// here instead of re-checking roles inside handlers.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, adm *handler.AdminHandler,
	jwtSecret string, users *repository.UserRepo, banned *cache.BanList,
	limiter echo.MiddlewareFunc) {

	// Operations that do not require an existing session.  Signup and login
	// carry the rate limiter so credential stuffing and signup floods are
	// slowed down at the edge.
	g := e.Group("/v1/auth")
	g.POST("/signup", a.Signup, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/refresh", a.Refresh)
	g.GET("/confirm/:token", a.ConfirmEmail)
	g.POST("/request-email", a.RequestEmail)
	g.POST("/reset-password", a.ResetPassword)

	// The access gate resolves the bearer token, rejects revoked sessions
	// and stores the principal on the context.  Every role may reach the
	// base protected group.
	gate := middleware.Authenticate(jwtSecret, users, banned)
	auth := e.Group("/v1")
	auth.Use(gate)
	auth.Use(middleware.RequireRole(model.RoleAdmin, model.RoleModerator, model.RoleUser))
	auth.GET("/me", a.Me)
	auth.POST("/logout", a.Logout)

	// Moderation endpoints: bans and revocation diagnostics.
	admin := e.Group("/v1/admin")
	admin.Use(gate)
	admin.Use(middleware.RequireRole(model.RoleAdmin, model.RoleModerator))
	admin.POST("/users/:id/ban", adm.Ban)
	admin.GET("/revoked", adm.Revoked)
}
