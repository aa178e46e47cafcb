// internal/testutil/redis.go
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TestRedisAddr is the Redis server address for tests.
	TestRedisAddr = "localhost:6379"
	// TestRedisDB is the logical database reserved for tests, kept
	// away from DB 0 so a stray local instance is not clobbered.
	TestRedisDB = 15
)

// SetupTestRedis returns a Redis client on the test database. The
// database is flushed before the test and again on cleanup, so tests
// sharing it must not run in parallel.
func SetupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{
		Addr: TestRedisAddr,
		DB:   TestRedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Fatalf("failed to connect to test Redis: %v", err)
	}
	if err := rdb.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush test Redis database: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := rdb.FlushDB(ctx).Err(); err != nil {
			t.Logf("warning: failed to flush test Redis database on cleanup: %v", err)
		}
		_ = rdb.Close()
	})

	return rdb
}
