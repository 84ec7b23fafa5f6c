package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"photoshare/internal/config"
	"photoshare/internal/middleware"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ConnectMongo opens the document store named by cfg and verifies it answers a ping.
func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	middleware.Logger.Info("Connected to MongoDB", slog.String("database", cfg.MongoDB))
	return client.Database(cfg.MongoDB), nil
}
