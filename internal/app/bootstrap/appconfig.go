// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings like HTTP/HTTPS
// ports, logging level, CORS, and request body size limits. AppConfig
// is where everything specific to this application lives: backend
// connection strings, storage paths, and the thumbnail pipeline knobs.
//
// The struct is passed to most lifecycle hooks, so any configuration
// needed during startup, request handling, or shutdown should live
// here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Redis connection configuration (session token store)
	RedisAddr     string // host:port of the Redis server
	RedisPassword string // Redis password (blank for none)
	RedisDB       int    // Redis logical database number

	// Token configuration
	TokenTTL time.Duration // Session token lifetime (default: 24h)

	// Blob storage configuration
	StorageRoot string // Directory uploaded content is written under

	// Listing configuration
	ListPageSize int64 // Items per page on GET /files (default: 20)

	// Thumbnail pipeline configuration
	ThumbWorkers      int           // Concurrent workers on the thumbnail queue
	ThumbPollInterval time.Duration // How often workers poll for jobs
	ThumbMaxAttempts  int           // Attempts per job before permanent failure
	ThumbRetryDelay   time.Duration // Base retry delay (scaled by attempt count)
}
