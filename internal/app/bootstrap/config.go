// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "FILEDEPOT"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, redis_addr, etc.
//   - Environment variables: FILEDEPOT_MONGO_URI, FILEDEPOT_REDIS_ADDR, etc.
//   - Command-line flags: --mongo_uri, --redis_addr, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "files_manager", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Redis (session token store)
	{Name: "redis_addr", Default: "localhost:6379", Desc: "Redis server address (host:port)"},
	{Name: "redis_password", Default: "", Desc: "Redis password (blank for none)"},
	{Name: "redis_db", Default: 0, Desc: "Redis logical database number"},

	// Session tokens
	{Name: "token_ttl", Default: "24h", Desc: "Session token lifetime (e.g., 24h, 30m)"},

	// Blob storage
	{Name: "storage_root", Default: "/tmp/files_manager", Desc: "Directory uploaded content is written under"},

	// Listing
	{Name: "list_page_size", Default: 20, Desc: "Items per page on file listings"},

	// Thumbnail pipeline
	{Name: "thumb_workers", Default: 2, Desc: "Concurrent thumbnail workers"},
	{Name: "thumb_poll_interval", Default: "1s", Desc: "Thumbnail queue poll interval"},
	{Name: "thumb_max_attempts", Default: 3, Desc: "Attempts per thumbnail job before permanent failure"},
	{Name: "thumb_retry_delay", Default: "5s", Desc: "Base thumbnail retry delay (scaled by attempt count)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, FILEDEPOT_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		RedisAddr:     appValues.String("redis_addr"),
		RedisPassword: appValues.String("redis_password"),
		RedisDB:       appValues.Int("redis_db"),

		TokenTTL: appValues.Duration("token_ttl", 24*time.Hour),

		StorageRoot: appValues.String("storage_root"),

		ListPageSize: int64(appValues.Int("list_page_size")),

		ThumbWorkers:      appValues.Int("thumb_workers"),
		ThumbPollInterval: appValues.Duration("thumb_poll_interval", time.Second),
		ThumbMaxAttempts:  appValues.Int("thumb_max_attempts"),
		ThumbRetryDelay:   appValues.Duration("thumb_retry_delay", 5*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.RedisAddr == "" {
		return fmt.Errorf("redis_addr must not be empty")
	}
	if appCfg.StorageRoot == "" {
		return fmt.Errorf("storage_root must not be empty")
	}

	return nil
}
