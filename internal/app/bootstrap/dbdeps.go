// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	blobstore "filedepot/internal/app/store/blobs"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. The Shutdown
// hook is responsible for closing these connections gracefully when the
// application terminates.
type DBDeps struct {
	// MongoDB client and database (users, files, jobs)
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Redis client (session token store)
	Redis *redis.Client

	// Blobs holds uploaded content and rendered thumbnails on disk
	Blobs *blobstore.Store
}
