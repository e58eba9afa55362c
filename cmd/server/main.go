package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/reelshare/backend/internal/auth"
	"github.com/reelshare/backend/internal/cache"
	"github.com/reelshare/backend/internal/config"
	"github.com/reelshare/backend/internal/database"
	"github.com/reelshare/backend/internal/handlers"
	"github.com/reelshare/backend/internal/middleware"
	"github.com/reelshare/backend/internal/services"
	"github.com/reelshare/backend/internal/tmdb"
	"github.com/reelshare/backend/pkg/logger"
	"github.com/reelshare/backend/pkg/utils"
	"gorm.io/gorm"
)

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}
	logger.SetLevel(cfg.Log.Level)
	utils.ConfigureJWT(cfg.Auth.JWTSecret, cfg.Auth.ExpirationHours)

	db, err := database.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}

	store, err := newCacheStore(cfg)
	if err != nil {
		log.Fatalf("cache initialization failed: %v", err)
	}
	listCache := cache.New(store, cfg.Cache.TTL)

	provider := newAuthProvider(cfg, db)
	unsubscribe := provider.Events().Subscribe(func(e auth.Event) {
		if e.Type == auth.EventSignedOut {
			listCache.ForgetUser(context.Background(), e.UserID)
		}
	})
	defer unsubscribe()

	catalog := tmdb.New(cfg.TMDB.APIKey,
		tmdb.WithBaseURL(cfg.TMDB.BaseURL),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithCache(listCache, cfg.Cache.SearchTTL),
	)
	if !catalog.Configured() {
		logger.Warn("tmdb_api_key_missing", map[string]interface{}{
			"effect": "search and details use the built-in fallback titles",
		})
	}

	auditService := services.NewAuditService(db)
	repo := services.NewListRepository(db, listCache, auditService)

	origins := cfg.Server.Origins()
	frontendURL := cfg.Server.FrontendURL
	if frontendURL == "" && len(origins) > 0 {
		frontendURL = origins[0]
	}

	app := fiber.New(fiber.Config{BodyLimit: 1 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS(origins))
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	handlers.RegisterRoutes(app, handlers.Handlers{
		Auth: handlers.NewAuthHandler(provider, handlers.AuthHandlerConfig{
			FrontendURL:   frontendURL,
			SecureCookies: cfg.Server.SecureCookies,
			RefreshTTL:    cfg.Auth.RefreshTTL,
		}),
		Lists:      handlers.NewListsHandler(repo),
		Shares:     handlers.NewSharesHandler(repo),
		Users:      handlers.NewUsersHandler(repo),
		Titles:     handlers.NewTitlesHandler(catalog),
		Activities: handlers.NewActivitiesHandler(db),
		Audit:      handlers.NewAuditHandler(db),
	}, middleware.NewAuthMiddleware(provider))

	listenAddr := fmt.Sprintf(":%s", cfg.Server.Port)

	logger.Info("server_starting", map[string]interface{}{
		"port":          cfg.Server.Port,
		"address":       listenAddr,
		"auth_provider": provider.Name(),
		"cache_backend": cfg.Cache.Backend,
		"db_driver":     cfg.DB.Driver,
		"origins":       origins,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(listenAddr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Printf("shutting down server due to signal: %s", sig)
		shutdownDone := make(chan struct{})
		go func() {
			_ = app.Shutdown()
			auditService.Close()
			close(shutdownDone)
		}()
		select {
		case <-shutdownDone:
		case <-time.After(10 * time.Second):
			log.Print("forced shutdown timeout reached")
		}
	case err := <-errCh:
		auditService.Close()
		if err != nil {
			log.Fatalf("server error: %v", err)
		}
	}
}

func newCacheStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		return cache.NewRedisStore(client, "reelshare:"), nil
	case "none":
		return cache.NopStore{}, nil
	default:
		return cache.NewMemoryStore(cfg.Cache.TTL), nil
	}
}

func newAuthProvider(cfg *config.Config, db *gorm.DB) auth.Provider {
	events := auth.NewEvents()
	if cfg.Auth.Provider == "supabase" {
		return auth.NewSupabaseProvider(db, auth.SupabaseConfig{
			URL:       cfg.Auth.SupabaseURL,
			AnonKey:   cfg.Auth.SupabaseAnonKey,
			JWTSecret: cfg.Auth.SupabaseJWTSecret,
			JWKSURL:   cfg.Auth.SupabaseJWKSURL,
			Audience:  cfg.Auth.SupabaseAudience,
		}, events)
	}
	return auth.NewLocalProvider(db, auth.LocalConfig{
		RefreshTTL:      cfg.Auth.RefreshTTL,
		ConfirmationTTL: cfg.Auth.ConfirmationTTL,
		PublicURL:       cfg.Auth.PublicURL,
	}, auth.LogMailer{}, events)
}
