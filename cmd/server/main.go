package main // Entry point package

import (
	"context"
	"log" // Logging library

	"github.com/joho/godotenv"    // Optional .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/photo-share-backend/internal/cache"
	"github.com/iliyamo/photo-share-backend/internal/config"
	"github.com/iliyamo/photo-share-backend/internal/database"
	"github.com/iliyamo/photo-share-backend/internal/handler"
	"github.com/iliyamo/photo-share-backend/internal/middleware"
	"github.com/iliyamo/photo-share-backend/internal/queue"
	"github.com/iliyamo/photo-share-backend/internal/repository"
	"github.com/iliyamo/photo-share-backend/internal/router"
	"github.com/iliyamo/photo-share-backend/internal/service"
	"github.com/iliyamo/photo-share-backend/internal/sweeper"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set env vars directly
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs the ban list snapshot and the rate limiter.  A nil client
	// degrades gracefully: the snapshot stays in-process and limiting is off.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; ban cache is in-process only, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	bans := repository.NewBanRepo(db)
	banned := cache.NewBanList(bans, rdb, cfg.BanCacheTTL)
	events := queue.NewPublisher()
	svc := service.NewAuthService(cfg, users, bans, banned, events)

	e := echo.New()
	router.RegisterRoutes(e) // health check
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	router.RegisterAuth(e, handler.NewAuthHandler(svc), handler.NewAdminHandler(svc, users),
		cfg.JWTSecret, users, banned, limiter)

	// Background jobs: the revocation sweeper and the dev queue sinks live
	// outside the request path.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.New(cfg.JWTSecret, bans, banned, cfg.SweepInterval).Run(ctx)
	go func() {
		if err := queue.StartEmailConsumer(); err != nil {
			log.Printf("email consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartMediaPurgeConsumer(); err != nil {
			log.Printf("purge consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}
