// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	if err := ensureUsers(ctx, db); err != nil {
		problems = append(problems, "users: "+err.Error())
	}
	if err := ensureFiles(ctx, db); err != nil {
		problems = append(problems, "files: "+err.Error())
	}
	if err := ensureJobs(ctx, db); err != nil {
		problems = append(problems, "jobs: "+err.Error())
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// ensureUsers enforces email uniqueness; it is the backstop for the
// registration pre-check racing with a concurrent insert.
func ensureUsers(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_user_email"),
		},
	})
	return err
}

// ensureFiles covers the two hot lookups: owner-scoped listings under
// a parent (newest first) and owner-scoped fetches by id.
func ensureFiles(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("files").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "parent_id", Value: 1},
				{Key: "created_at", Value: -1},
			},
			Options: options.Index().SetName("idx_file_listing"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_file_owner"),
		},
	})
	return err
}

// ensureJobs supports the worker's claim query.
func ensureJobs(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("jobs").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "queue_name", Value: 1},
				{Key: "status", Value: 1},
				{Key: "scheduled_at", Value: 1},
			},
			Options: options.Index().SetName("idx_job_claim"),
		},
	})
	return err
}
