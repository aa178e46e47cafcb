// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	blobstore "filedepot/internal/app/store/blobs"
	"filedepot/internal/app/system/indexes"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectDB connects to MongoDB, Redis, and the blob directory.
//
// WAFFLE calls this after configuration is loaded but before
// EnsureSchema and Startup. Clients land in DBDeps for use by the
// handlers and the later lifecycle hooks.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	// Configure MongoDB connection pool
	poolCfg := wafflemongo.DefaultPoolConfig()
	if appCfg.MongoMaxPoolSize > 0 {
		poolCfg.MaxPoolSize = appCfg.MongoMaxPoolSize
	}
	if appCfg.MongoMinPoolSize > 0 {
		poolCfg.MinPoolSize = appCfg.MongoMinPoolSize
	}

	client, err := wafflemongo.ConnectWithPool(ctx, appCfg.MongoURI, appCfg.MongoDatabase, poolCfg)
	if err != nil {
		return DBDeps{}, err
	}

	db := client.Database(appCfg.MongoDatabase)

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool_size", poolCfg.MaxPoolSize),
		zap.Uint64("min_pool_size", poolCfg.MinPoolSize),
	)

	// Connect to Redis (session token store)
	rdb := redis.NewClient(&redis.Options{
		Addr:     appCfg.RedisAddr,
		Password: appCfg.RedisPassword,
		DB:       appCfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("failed to connect to Redis at %s: %w", appCfg.RedisAddr, err)
	}

	logger.Info("connected to Redis",
		zap.String("addr", appCfg.RedisAddr),
		zap.Int("db", appCfg.RedisDB),
	)

	// Initialize blob storage
	blobs, err := blobstore.New(appCfg.StorageRoot)
	if err != nil {
		_ = rdb.Close()
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("failed to initialize blob storage: %w", err)
	}

	logger.Info("initialized blob storage", zap.String("root", blobs.Root()))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: db,
		Redis:         rdb,
		Blobs:         blobs,
	}, nil
}

// EnsureSchema sets up indexes or schema as needed.
//
// This runs after ConnectDB succeeds but before Startup and before the
// HTTP handler is built. The context has a timeout based on
// coreCfg.IndexBootTimeout.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	logger.Info("ensuring database indexes")
	if err := indexes.EnsureAll(ctx, deps.MongoDatabase); err != nil {
		logger.Error("failed to ensure indexes", zap.Error(err))
		return err
	}

	logger.Info("database schema ensured successfully")
	return nil
}
