package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents an account that can own files.
//
// Password is an unsalted hex-encoded SHA-1 digest. This is a known
// weakness kept for compatibility with hashes already stored by earlier
// deployments; it is not an appropriate scheme for new designs. See
// authutil.HashPassword.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"` // unique, stored lowercase
	Password  string             `bson:"password" json:"-"`  // sha1 hex digest, never in JSON
	CreatedAt time.Time          `bson:"created_at" json:"-"`
}
