package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/devblog/devblog-api/handlers"
	"github.com/devblog/devblog-api/internal/config"
	"github.com/devblog/devblog-api/internal/database"
	"github.com/devblog/devblog-api/internal/mailer"
	"github.com/devblog/devblog-api/internal/oidc"
	posthandler "github.com/devblog/devblog-api/internal/post/handler"
	"github.com/devblog/devblog-api/internal/post/repository"
	postservice "github.com/devblog/devblog-api/internal/post/service"
	"github.com/devblog/devblog-api/internal/storage"
	"github.com/devblog/devblog-api/internal/users"
	"github.com/devblog/devblog-api/pkg/logger"
	"github.com/devblog/devblog-api/pkg/metrics"
	"github.com/devblog/devblog-api/pkg/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

var startTime = time.Now()

// app holds the constructed dependencies shared by the routes.
type app struct {
	cfg      *config.Config
	verifier middleware.Verifier
	posts    postservice.Service
	users    *users.Service
	store    storage.ObjectStore
	mongo    *mongo.Client
	redis    *redis.Client
}

func main() {
	// LOG_LEVEL: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: env=%s mongo=%v redis=%v minio=%v", cfg.Server.Environment, cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := run(cfg); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

// run serves until a signal arrives or the listener fails. Stores are
// disconnected before it returns either way.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup failed: %w", err)
	}
	defer a.close()

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      newRouter(ctx, a),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Infof("shutting down")
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

func setup(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	ver, err := oidc.NewFromConfig(ctx, cfg.Identity)
	if err != nil {
		return nil, fmt.Errorf("identity verifier (set FIREBASE_PROJECT_ID, OIDC_ISSUER or JWT_SECRET): %w", err)
	}
	a.verifier = ver

	if cfg.Redis.Host != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
		} else {
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	var postRepo repository.Repository = repository.NewMemoryRepo()
	var userRepo users.UserRepository = users.NewMemoryUserRepository()
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongoWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 5, func(attempt int, err error) {
			logger.Warnf("attempt %d/5: failed to connect to MongoDB: %v", attempt, err)
		})
		switch {
		case err != nil && cfg.Server.Environment == "production":
			a.close()
			return nil, fmt.Errorf("mongo: %w", err)
		case err != nil:
			logger.Warnf("cannot connect to MongoDB (%v); using in-memory stores", err)
		default:
			a.mongo = client
			db := client.Database(cfg.MongoDB.Database)
			pr := repository.NewMongoRepo(db.Collection("posts"))
			ur := users.NewMongoUserRepository(db.Collection("users"))
			if err := pr.EnsureIndexes(ctx); err != nil {
				logger.Warnf("post indexes: %v", err)
			}
			if err := ur.EnsureIndexes(ctx); err != nil {
				logger.Warnf("user indexes: %v", err)
			}
			postRepo, userRepo = pr, ur
			logger.Infof("Using MongoDB database %q", cfg.MongoDB.Database)
		}
	} else {
		logger.Warnf("MONGODB_URI not set; posts and users are kept in memory")
	}

	mcfg, err := mailer.ConfigFromEnv()
	if err != nil {
		a.close()
		return nil, err
	}
	sender, err := mailer.New(mcfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("mailer: %w", err)
	}
	if !mcfg.Enabled() {
		logger.Warnf("SMTP_HOST not set; verification emails are logged instead of sent")
	}

	a.posts = postservice.NewService(postRepo)
	a.users = users.NewService(userRepo, sender, cfg.Verification)

	if cfg.MinIO.Endpoint != "" {
		st, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
		if err != nil {
			logger.Warnf("image uploads disabled: %v", err)
		} else {
			a.store = st
		}
	}
	return a, nil
}

func (a *app) close() {
	if a.mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongo.Disconnect(ctx); err != nil {
			logger.Warnf("mongo disconnect: %v", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// newRouter assembles the engine. ctx bounds background work started by
// middleware (limiter sweeps).
func newRouter(ctx context.Context, a *app) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(), gin.Recovery(), middleware.CORS())

	// per identity when authenticated, otherwise per client IP; Identify
	// resolves the caller before the limiter picks a bucket
	if rl := a.cfg.RateLimit; rl.Enabled {
		r.Use(middleware.Identify(a.verifier))
		if rl.UseRedis && a.redis != nil {
			r.Use(middleware.RedisRateLimitMiddleware(ctx, a.redis, rl.RPS, rl.Burst, time.Duration(rl.WindowSeconds)*time.Second))
		} else {
			r.Use(middleware.RateLimitMiddleware(ctx, rl.RPS, rl.Burst))
		}
	}

	checks := map[string]handlers.Check{}
	if a.mongo != nil {
		checks["mongo"] = func(ctx context.Context) error { return a.mongo.Ping(ctx, nil) }
	}
	if a.redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}
	handlers.RegisterSystemRoutes(r, startTime, checks)
	handlers.RegisterSwagger(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := middleware.AuthMiddleware(a.verifier)
	posthandler.RegisterPostRoutes(r, a.posts, auth)
	users.RegisterUserRoutes(r, a.users, auth)
	if a.store != nil {
		handlers.RegisterUploadRoutes(r, a.store, auth, a.cfg.MinIO.MaxUploadBytes)
	}
	return r
}
