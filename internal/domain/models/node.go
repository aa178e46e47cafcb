package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Node types. The set is closed; anything else is rejected at upload.
const (
	TypeFolder = "folder"
	TypeFile   = "file"
	TypeImage  = "image"
)

// ValidNodeType reports whether t is one of the accepted node types.
func ValidNodeType(t string) bool {
	return t == TypeFolder || t == TypeFile || t == TypeImage
}

// Node is a file or folder metadata record in the files collection.
//
// ParentID nil means the node lives at the root; otherwise it must
// reference a folder node owned by the same user. LocalPath is the
// server-side blob location for file/image nodes; it is never exposed
// to clients (see the feature layer's projection).
type Node struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty"`
	UserID    primitive.ObjectID  `bson:"user_id"`
	Name      string              `bson:"name"`
	Type      string              `bson:"type"`
	IsPublic  bool                `bson:"is_public"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty"` // nil = root
	LocalPath string              `bson:"local_path,omitempty"`
	CreatedAt time.Time           `bson:"created_at"`
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool { return n.Type == TypeFolder }

// IsImage reports whether the node is an image.
func (n *Node) IsImage() bool { return n.Type == TypeImage }

// IsRoot reports whether the node lives at the root level.
func (n *Node) IsRoot() bool { return n.ParentID == nil }
