package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gogotex/tokenauth/handlers"
	"github.com/gogotex/tokenauth/internal/auth"
	"github.com/gogotex/tokenauth/internal/config"
	"github.com/gogotex/tokenauth/internal/database"
	"github.com/gogotex/tokenauth/internal/password"
	"github.com/gogotex/tokenauth/internal/sessions"
	"github.com/gogotex/tokenauth/internal/tokens"
	"github.com/gogotex/tokenauth/internal/users"
	"github.com/gogotex/tokenauth/pkg/logger"
	"github.com/gogotex/tokenauth/pkg/metrics"
	"github.com/gogotex/tokenauth/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))
	logger.Debugf("startup: LOG_LEVEL=%s", logger.LevelString())

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v jwt_secret_len=%d access_ttl=%s refresh_ttl=%s",
		cfg.MongoDB.URI != "", cfg.RedisAddr() != "", len(cfg.JWT.Secret), cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)

	ctx := context.Background()

	// Connect to Redis early so both the session store and the rate limiter can use it
	var rdb *redis.Client
	if addr := cfg.RedisAddr(); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logger.Warnf("failed to connect to Redis (%s): %v", addr, err)
			_ = client.Close()
		} else {
			rdb = client
			defer func() { _ = rdb.Close() }()
			logger.Infof("connected to Redis at %s", addr)
		}
	}

	// MongoDB holds members, and sessions when Redis is unavailable
	var mongoDB *mongo.Database
	if cfg.MongoDB.URI != "" {
		client, err := connectMongoWithRetry(ctx, cfg)
		if err != nil {
			logger.Warnf("could not connect to MongoDB: %v", err)
		} else {
			defer func() { _ = client.Disconnect(context.Background()) }()
			mongoDB = client.Database(cfg.MongoDB.Database)
		}
	}

	store, err := newSessionStore(ctx, cfg, rdb, mongoDB)
	if err != nil {
		logger.Fatalf("session store: %v", err)
	}
	repo, membersShared, err := newUserRepository(ctx, mongoDB)
	if err != nil {
		logger.Fatalf("user repository: %v", err)
	}

	codec, err := tokens.NewCodec(cfg.JWT.Secret, tokens.WithIssuer(cfg.JWT.Issuer))
	if err != nil {
		logger.Fatalf("token codec: %v", err)
	}
	issuer, err := auth.NewIssuer(codec, store, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL)
	if err != nil {
		logger.Fatalf("token issuer: %v", err)
	}
	svc, err := auth.NewService(
		users.NewService(repo),
		password.NewHasher(cfg.Password.BcryptCost),
		issuer,
		auth.NewRotator(issuer, store, codec),
		store,
	)
	if err != nil {
		logger.Fatalf("auth service: %v", err)
	}

	r := gin.New()
	// Global middlewares: logging + recovery, then the authentication gate
	r.Use(gin.Logger(), gin.Recovery(), middleware.Authenticate(codec))

	var limiter gin.HandlerFunc
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && rdb != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			limiter = middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
			logger.Infof("rate limiter: redis fixed window (%s)", win)
		} else {
			limiter = middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
			logger.Infof("rate limiter: in-memory token bucket")
		}
	}

	handlers.NewHealthHandler(store, membersShared || cfg.MongoDB.URI == "").Register(r)
	handlers.NewAuthHandler(svc, limiter).Register(r.Group("/"))

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("Starting auth service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// connectMongoWithRetry tolerates startup races with the database container
func connectMongoWithRetry(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	const maxAttempts = 5
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		client, err := database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err == nil {
			return client, nil
		}
		lastErr = err
		logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, err)
		if attempt < maxAttempts {
			time.Sleep(backoff)
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("after %d attempts: %w", maxAttempts, lastErr)
}

// newSessionStore prefers Redis, then MongoDB, then process memory.
func newSessionStore(ctx context.Context, cfg *config.Config, rdb *redis.Client, db *mongo.Database) (sessions.Store, error) {
	var store sessions.Store
	switch {
	case rdb != nil:
		store = sessions.NewRedisStore(rdb, "refresh:")
		logger.Infof("session store: redis")
	case db != nil:
		ms := sessions.NewMongoStore(db.Collection("sessions"))
		if err := ms.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		store = ms
		logger.Infof("session store: mongodb")
	default:
		store = sessions.NewMemoryStore()
		logger.Warnf("session store: in-memory; sessions are lost on restart and not shared between instances")
	}
	return sessions.WithTimeout(store, cfg.Store.Timeout), nil
}

// newUserRepository returns the member repository and whether it is shared
// between instances.
func newUserRepository(ctx context.Context, db *mongo.Database) (users.UserRepository, bool, error) {
	if db == nil {
		logger.Warnf("user repository: in-memory; members are lost on restart")
		return users.NewMemoryUserRepository(), false, nil
	}
	repo := users.NewMongoUserRepository(db.Collection("users"))
	if err := repo.EnsureIndexes(ctx); err != nil {
		return nil, false, err
	}
	logger.Infof("user repository: mongodb")
	return repo, true, nil
}
