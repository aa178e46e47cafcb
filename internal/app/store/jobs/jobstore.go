// Package jobstore persists background jobs in MongoDB.
//
// The jobs collection is a durable queue: producers insert pending
// documents and workers claim them with an atomic find-and-update, so
// several workers can poll the same queue without double-processing.
package jobstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Job status constants.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Job represents a background job.
type Job struct {
	ID          primitive.ObjectID `bson:"_id"`
	QueueName   string             `bson:"queue_name"`
	JobType     string             `bson:"job_type"`
	Payload     map[string]any     `bson:"payload"`
	Status      string             `bson:"status"`
	Attempts    int                `bson:"attempts"`
	MaxAttempts int                `bson:"max_attempts"`
	Error       string             `bson:"error,omitempty"`
	ScheduledAt time.Time          `bson:"scheduled_at"`
	StartedAt   *time.Time         `bson:"started_at,omitempty"`
	CompletedAt *time.Time         `bson:"completed_at,omitempty"`
	CreatedAt   time.Time          `bson:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at"`
	WorkerID    string             `bson:"worker_id,omitempty"`
}

// ErrNotFound is returned when a job is not found.
var ErrNotFound = errors.New("job not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("jobs")}
}

// Enqueue creates a pending job that is eligible to run immediately.
func (s *Store) Enqueue(ctx context.Context, queueName, jobType string, payload map[string]any, maxAttempts int) (Job, error) {
	if maxAttempts < 1 {
		maxAttempts = 3
	}

	now := time.Now()
	job := Job{
		ID:          primitive.NewObjectID(),
		QueueName:   queueName,
		JobType:     jobType,
		Payload:     payload,
		Status:      StatusPending,
		MaxAttempts: maxAttempts,
		ScheduledAt: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.c.InsertOne(ctx, job); err != nil {
		return Job{}, err
	}
	return job, nil
}

// ClaimNext atomically claims the next runnable job on the queue.
// Returns nil, nil when no job is available.
func (s *Store) ClaimNext(ctx context.Context, queueName, workerID string) (*Job, error) {
	now := time.Now()

	filter := bson.M{
		"queue_name":   queueName,
		"status":       StatusPending,
		"scheduled_at": bson.M{"$lte": now},
	}
	update := bson.M{
		"$set": bson.M{
			"status":     StatusRunning,
			"started_at": now,
			"worker_id":  workerID,
			"updated_at": now,
		},
		"$inc": bson.M{"attempts": 1},
	}

	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "scheduled_at", Value: 1}}).
		SetReturnDocument(options.After)

	var job Job
	err := s.c.FindOneAndUpdate(ctx, filter, update, opts).Decode(&job)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Complete marks a job as done.
func (s *Store) Complete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":       StatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		},
	})
	return err
}

// Fail records a failed attempt. While attempts remain the job is
// rescheduled after retryDelay; otherwise it is marked failed for good.
func (s *Store) Fail(ctx context.Context, id primitive.ObjectID, errMsg string, retryDelay time.Duration) error {
	job, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if job.Attempts < job.MaxAttempts {
		now := time.Now()
		_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set": bson.M{
				"status":       StatusPending,
				"error":        errMsg,
				"scheduled_at": now.Add(retryDelay),
				"started_at":   nil,
				"worker_id":    "",
				"updated_at":   now,
			},
		})
		return err
	}

	return s.FailPermanent(ctx, id, errMsg)
}

// FailPermanent marks a job as failed regardless of remaining attempts.
// Used for jobs that can never succeed, like a malformed payload or a
// source record that no longer exists.
func (s *Store) FailPermanent(ctx context.Context, id primitive.ObjectID, errMsg string) error {
	now := time.Now()
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":       StatusFailed,
			"error":        errMsg,
			"completed_at": now,
			"updated_at":   now,
		},
	})
	return err
}

// GetByID retrieves a job by ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*Job, error) {
	var job Job
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&job); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// CleanupStaleRunning re-queues jobs that have sat in running state
// longer than the threshold, which happens when a worker dies mid-job.
func (s *Store) CleanupStaleRunning(ctx context.Context, staleThreshold time.Duration) (int64, error) {
	cutoff := time.Now().Add(-staleThreshold)
	now := time.Now()

	result, err := s.c.UpdateMany(ctx, bson.M{
		"status":     StatusRunning,
		"started_at": bson.M{"$lt": cutoff},
	}, bson.M{
		"$set": bson.M{
			"status":     StatusPending,
			"started_at": nil,
			"worker_id":  "",
			"error":      "worker timeout - job re-queued",
			"updated_at": now,
		},
	})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// DeleteOlderThan prunes completed jobs that finished before the cutoff.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.c.DeleteMany(ctx, bson.M{
		"status":       StatusCompleted,
		"completed_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}
