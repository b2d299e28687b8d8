package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/stockcast/stockcast/internal/auth"
	"github.com/stockcast/stockcast/internal/config"
	"github.com/stockcast/stockcast/internal/database"
	"github.com/stockcast/stockcast/internal/forecast"
	"github.com/stockcast/stockcast/internal/handlers"
	"github.com/stockcast/stockcast/internal/logger"
	"github.com/stockcast/stockcast/internal/middleware"
	redisclient "github.com/stockcast/stockcast/internal/redis"
	"github.com/stockcast/stockcast/internal/service"
	"github.com/stockcast/stockcast/internal/storage"
)

func main() {
	log := logger.New("server")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config: %v", err)
	}

	var userStore storage.UserStore
	var dbPool *database.Pool
	if cfg.Database.DSN != "" {
		dbPool, err = database.NewPool(ctx, database.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		})
		if err != nil {
			log.Fatal("Failed to connect to database: %v", err)
		}
		defer dbPool.Close()
		userStore = storage.NewPostgresStore(dbPool)
	} else {
		log.Warn("DB_DSN not set, using in-memory user store (data is lost on restart)")
		userStore = storage.NewMemoryStore()
	}

	if cfg.JWT.Secret == "" {
		cfg.JWT.Secret = "your-fallback-secret-key"
		log.Warn("JWT_SECRET not set, using default (insecure for production)")
	}

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.JWT.TTL)
	users := service.NewUserService(userStore, jwtManager)

	authHandler := handlers.NewAuthHandler(users)
	authMw := middleware.NewAuthMiddleware(users)

	forecastClient := forecast.NewClient(cfg.Forecast.UpstreamURL, cfg.Forecast.Timeout)
	forecastHandler := handlers.NewForecastHandler(forecastClient, cfg.Forecast.UploadDir, cfg.Forecast.MaxFileSize)

	var healthDB handlers.Pinger
	if dbPool != nil {
		healthDB = dbPool
	}
	healthHandler := handlers.NewHealthHandler(healthDB)

	register := authHandler.Register
	login := authHandler.Login
	if cfg.Redis.Addr != "" {
		redisClient, err := redisclient.NewClient(ctx, redisclient.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		limiter := middleware.NewRateLimiter(redisClient.Raw(), cfg.RateLimit.Requests, cfg.RateLimit.Window)
		register = limiter.Limit(register)
		login = limiter.Limit(login)
	} else {
		log.Warn("REDIS_ADDR not set, auth rate limiting disabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", register)
	mux.HandleFunc("POST /login", login)
	mux.HandleFunc("POST /logout", authHandler.Logout)
	mux.HandleFunc("GET /me", authMw.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/forecast", forecastHandler.Process)
	mux.HandleFunc("GET /health", healthHandler.Health)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: mux,
	}

	go func() {
		log.Info("Listening on :%s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown error: %v", err)
	}
	log.Info("Server stopped")
}
