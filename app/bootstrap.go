package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"confedit/internal/auth"
	"confedit/internal/config"
	"confedit/internal/configdoc"
	"confedit/internal/db"
	"confedit/internal/maintenance"
	"confedit/internal/observability"
)

type Options struct {
	RunMigrations bool
}

type Runtime struct {
	Handler http.Handler
	Logger  *observability.Logger
	Close   func() error
}

// memoryPurgers adapts the in-memory stores to the maintenance endpoint.
// With Redis-backed stores there is nothing to purge manually.
type memoryPurgers struct {
	revocations *auth.MemoryRevocationStore
	lockouts    *auth.MemoryLockoutStore
}

func (p memoryPurgers) PurgeExpiredRevocations() int { return p.revocations.PurgeExpired() }
func (p memoryPurgers) PurgeStaleLockouts(cutoff time.Time) int {
	return p.lockouts.PurgeStale(cutoff)
}

func Build(cfg *config.Config, options Options) (*Runtime, error) {
	logger := observability.NewLogger(cfg.Env)

	if err := observability.InitSentry(cfg.SentryDSN, cfg.Env); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	database, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if options.RunMigrations {
		if err := db.RunMigrations(database); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	codec, err := auth.NewTokenCodec(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		cfg.Auth.AccessTTL,
		cfg.Auth.RefreshTTL,
	)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("configure token codec: %w", err)
	}

	var (
		lockoutStore    auth.LockoutStore
		revocationStore auth.RevocationStore
		purger          maintenance.Purger
		redisClient     *redis.Client
	)
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		lockoutStore = auth.NewRedisLockoutStore(redisClient, cfg.Auth.MaxAttempts, cfg.Auth.LockWindow)
		revocationStore = auth.NewRedisRevocationStore(redisClient)
		logger.Info("auth_stores_redis", map[string]any{"addr": cfg.RedisAddr})
	} else {
		// Single-instance defaults. Lockout and revocation state lives in
		// this process only; multi-instance deployments must set REDIS_ADDR.
		memLockout := auth.NewMemoryLockoutStore(cfg.Auth.MaxAttempts, cfg.Auth.LockWindow)
		memRevocation := auth.NewMemoryRevocationStore()
		lockoutStore = memLockout
		revocationStore = memRevocation
		purger = memoryPurgers{revocations: memRevocation, lockouts: memLockout}
		logger.Info("auth_stores_memory", nil)
	}

	accountStore := auth.NewRepository(database)
	authService := auth.NewService(accountStore, lockoutStore, revocationStore, codec)
	authHandler := auth.NewHandler(authService, cfg.IsProduction())

	if cfg.Auth.AdminEmail != "" {
		if err := accountStore.UpsertAdminAccount(context.Background(), cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, "admin"); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("bootstrap admin account: %w", err)
		}
	}

	docStore, err := configdoc.NewStore(cfg.ConfigDir)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("init config document store: %w", err)
	}
	docHandler := configdoc.NewHandler(docStore)

	cleanupHandler := maintenance.NewCleanupHandler(purger, logger, cfg.CronSecret, 24*time.Hour)

	loginLimiter := auth.NewLoginRateLimiter(cfg.Auth.RateLimitMax, cfg.Auth.RateLimitWindow)

	guard := func(h http.HandlerFunc) http.Handler {
		return auth.Middleware(authService, h)
	}

	mux := http.NewServeMux()
	mux.Handle("POST /auth/login", loginLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /auth/logout", authHandler.Logout)
	mux.Handle("GET /auth/status", guard(authHandler.Status))
	mux.Handle("GET /configs", guard(docHandler.List))
	mux.Handle("GET /configs/{name}", guard(docHandler.Get))
	mux.Handle("PUT /configs/{name}", guard(docHandler.Put))
	mux.Handle("DELETE /configs/{name}", guard(docHandler.Delete))
	mux.HandleFunc("GET /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("POST /internal/maintenance/cleanup", cleanupHandler.Handle)
	mux.HandleFunc("GET /health", healthHandler(database))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Logger:  logger,
		Close: func() error {
			observability.FlushSentry()
			if redisClient != nil {
				_ = redisClient.Close()
			}
			return database.Close()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}
		if err := database.PingContext(ctx); err != nil {
			status = http.StatusServiceUnavailable
			body = map[string]any{"status": "degraded", "time": time.Now().UTC().Format(time.RFC3339)}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
