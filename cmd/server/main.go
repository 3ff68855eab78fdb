package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/image-search-api/internal/auth"
	"github.com/iliyamo/image-search-api/internal/config"
	"github.com/iliyamo/image-search-api/internal/database"
	"github.com/iliyamo/image-search-api/internal/handler"
	"github.com/iliyamo/image-search-api/internal/middleware"
	"github.com/iliyamo/image-search-api/internal/oauth"
	"github.com/iliyamo/image-search-api/internal/queue"
	"github.com/iliyamo/image-search-api/internal/repository"
	"github.com/iliyamo/image-search-api/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	schemaCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := database.EnsureSchema(schemaCtx, db); err != nil {
		log.Fatalf("database schema: %v", err)
	}

	// Redis is optional: without it revocation and OAuth state fall back to
	// process-local stores, and caching plus rate limiting are disabled.
	rdb := config.NewRedisClient()
	var revoked auth.RevocationStore
	var states oauth.StateStore
	if rdb != nil {
		revoked = auth.NewRedisRevocationStore(rdb)
		states = oauth.NewRedisStateStore(rdb)
	} else {
		log.Printf("redis unavailable; token revocation and oauth state are process-local")
		revoked = auth.NewMemoryRevocationStore()
		states = oauth.NewMemoryStateStore()
	}

	users := repository.NewUserRepo(db)
	searches := repository.NewSearchRepo(db)
	providers := oauth.NewRegistry(cfg)

	a := handler.NewAuthHandler(cfg, users, revoked, providers, states)
	s := handler.NewSearchHandler(cfg, searches)

	authMW := middleware.JWTAuth(cfg.JWTSecret, revoked)
	loginLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	topCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, a, authMW, loginLimit)
	router.RegisterSearch(e, s, authMW, topCache)

	if cfg.QueueEnabled {
		go func() {
			if err := queue.StartSearchConsumer(); err != nil {
				log.Printf("search consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
