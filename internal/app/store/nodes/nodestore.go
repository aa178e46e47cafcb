// Package nodestore provides storage for file and folder metadata.
package nodestore

import (
	"context"
	"errors"
	"time"

	"filedepot/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no node matches the lookup. A node the
// requester is not allowed to see produces the same error as a node
// that does not exist, so callers cannot enumerate other users' files.
var ErrNotFound = errors.New("node not found")

// DefaultPageSize is the fixed page size for listings.
const DefaultPageSize = 20

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("files")}
}

// Insert persists a new node. The caller is responsible for validation;
// this is a plain insert with timestamping.
func (s *Store) Insert(ctx context.Context, node models.Node) (models.Node, error) {
	if node.ID.IsZero() {
		node.ID = primitive.NewObjectID()
	}
	node.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, node); err != nil {
		return models.Node{}, err
	}
	return node, nil
}

// GetOwned fetches a node by id scoped to its owner. Used for parent
// validation and by the thumbnail worker; a node owned by someone else
// is ErrNotFound.
func (s *Store) GetOwned(ctx context.Context, id, ownerID primitive.ObjectID) (*models.Node, error) {
	var n models.Node
	err := s.c.FindOne(ctx, bson.M{"_id": id, "user_id": ownerID}).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// GetVisible fetches a node the requester may see: one they own, or a
// public one. Pass primitive.NilObjectID for anonymous requesters so
// only public nodes match.
func (s *Store) GetVisible(ctx context.Context, id, requesterID primitive.ObjectID) (*models.Node, error) {
	filter := bson.M{"_id": id, "is_public": true}
	if !requesterID.IsZero() {
		filter = bson.M{
			"_id": id,
			"$or": []bson.M{
				{"user_id": requesterID},
				{"is_public": true},
			},
		}
	}

	var n models.Node
	if err := s.c.FindOne(ctx, filter).Decode(&n); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// ListByParent returns one page of the owner's nodes under the given
// parent (nil = root), newest first. Page is zero-based. An empty page
// is a valid result, not an error.
func (s *Store) ListByParent(ctx context.Context, ownerID primitive.ObjectID, parentID *primitive.ObjectID, page, pageSize int64) ([]models.Node, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}

	filter := bson.M{"user_id": ownerID, "parent_id": parentID}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page * pageSize).
		SetLimit(pageSize)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var nodes []models.Node
	if err := cur.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// SetPublic atomically flips the visibility of a node owned by ownerID
// and returns the post-update record. Repeating the same call is
// idempotent; concurrent opposing calls resolve last-write-wins at the
// single document update. Missing node and foreign owner both come
// back as ErrNotFound.
func (s *Store) SetPublic(ctx context.Context, id, ownerID primitive.ObjectID, isPublic bool) (*models.Node, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var n models.Node
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "user_id": ownerID},
		bson.M{"$set": bson.M{"is_public": isPublic}},
		opts,
	).Decode(&n)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Count returns the total number of nodes across all users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
