// Package bootstrap turns a loaded Config into the live dependencies the API
// server and the command line tools share.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/database"
	"photoshare/internal/middleware"
	"photoshare/internal/notifications"
	"photoshare/internal/observability"
	"photoshare/internal/repository"
	"photoshare/internal/server"
	"photoshare/internal/session"
	"photoshare/internal/storage"
	redispkg "photoshare/pkg/redis"

	"github.com/redis/go-redis/v9"
)

const serviceName = "photoshare-api"

// Runtime bundles the server dependencies with the teardown that is not owned
// by the server itself.
type Runtime struct {
	Deps            server.Deps
	ShutdownTracing func(context.Context) error
}

// Build connects every backing service named by cfg. Redis is optional: when
// it cannot be reached sessions and notifications stay in process.
func Build(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, err
	}

	files, err := OpenFiles(ctx, cfg)
	if err != nil {
		_ = store.Close(ctx)
		_ = shutdownTracing(ctx)
		return nil, err
	}

	rdb := ConnectRedis(ctx, cfg)

	return &Runtime{
		Deps: server.Deps{
			Config:   cfg,
			Store:    store,
			Redis:    rdb,
			Files:    files,
			Sessions: NewSessions(cfg, rdb),
			Notifier: notifications.NewNotifier(rdb),
			Hub:      notifications.NewHub(),
		},
		ShutdownTracing: shutdownTracing,
	}, nil
}

// OpenStore opens the repository set for cfg.DBDriver.
func OpenStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverMongo:
		mdb, err := database.ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store, err := repository.NewMongoStore(ctx, mdb)
		if err != nil {
			_ = mdb.Client().Disconnect(context.Background())
			return nil, fmt.Errorf("mongo indexes: %w", err)
		}
		return store, nil
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		return repository.NewGormStore(db), nil
	}
}

// OpenFiles opens the image store for cfg.ImageStore.
func OpenFiles(ctx context.Context, cfg *config.Config) (storage.PhotoStore, error) {
	if cfg.ImageStore == config.ImageStoreS3 {
		store, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 image store: %w", err)
		}
		return store, nil
	}

	store, err := storage.NewLocalStore(cfg.ImageDir, "/images")
	if err != nil {
		return nil, fmt.Errorf("local image store: %w", err)
	}
	return store, nil
}

// ConnectRedis returns nil when REDIS_URL is empty or the server does not answer.
func ConnectRedis(ctx context.Context, cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	rdb, err := redispkg.Connect(ctx, cfg.RedisURL)
	if err != nil {
		middleware.Logger.Warn("Redis unavailable, falling back to in-process sessions and notifications",
			slog.String("error", err.Error()))
		return nil
	}
	middleware.Logger.Info("Connected to Redis", slog.String("addr", rdb.Options().Addr))
	return rdb
}

// NewSessions picks the Redis session store when a client is available.
func NewSessions(cfg *config.Config, rdb *redis.Client) *session.Manager {
	ttl := time.Duration(cfg.SessionTTLHrs) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	var store session.Store = session.NewMemoryStore()
	if rdb != nil {
		store = session.NewRedisStore(rdb)
	}
	return session.NewManager(cfg.JWTSecret, ttl, store)
}
