// Package userstore provides access to the users collection.
package userstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"filedepot/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrDuplicateEmail is returned when the email is already registered.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// Create inserts a new user with the given email and password digest.
// The email is normalized to lowercase. The unique index on email is
// the backstop for concurrent registrations racing past the pre-check
// in the handler.
func (s *Store) Create(ctx context.Context, email, passwordDigest string) (models.User, error) {
	u := models.User{
		ID:        primitive.NewObjectID(),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Password:  passwordDigest,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by exact (lowercased) email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByCredentials matches a user by email and password digest.
// A wrong email and a wrong password are indistinguishable: both
// return ErrNotFound, so callers can surface a uniform auth error.
func (s *Store) GetByCredentials(ctx context.Context, email, passwordDigest string) (*models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{
		"email":    strings.ToLower(strings.TrimSpace(email)),
		"password": passwordDigest,
	}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Count returns the total number of registered users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
