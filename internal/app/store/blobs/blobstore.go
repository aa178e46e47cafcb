// Package blobstore manages raw file content on local disk.
//
// Each blob is stored under the configured root directory with a
// generated UUID name, never the client-supplied filename, which rules
// out path traversal and name collisions. Thumbnail derivatives live
// next to the original at <path>_<width>.
package blobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a blob or derivative is missing on disk.
var ErrNotFound = errors.New("blob not found")

type Store struct {
	root string
}

// New creates a blob store rooted at dir, creating the directory if it
// does not exist.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("blob storage root must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root %s: %w", dir, err)
	}
	return &Store{root: dir}, nil
}

// Root returns the storage root directory.
func (s *Store) Root() string { return s.root }

// Write stores data under a fresh UUID name and returns the absolute
// blob path.
func (s *Store) Write(data []byte) (string, error) {
	path := filepath.Join(s.root, uuid.NewString())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// Read returns the contents of the blob at path.
func (s *Store) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

// VariantPath returns the on-disk location of a derivative of the blob
// at path for the given width.
func VariantPath(path string, width int) string {
	return fmt.Sprintf("%s_%d", path, width)
}

// WriteVariant stores a derivative next to its original, overwriting
// any previous derivative at that width. Overwriting keeps thumbnail
// jobs idempotent.
func (s *Store) WriteVariant(path string, width int, data []byte) error {
	return os.WriteFile(VariantPath(path, width), data, 0o644)
}

// ReadVariant returns the derivative of the blob at path for the given
// width. A derivative that has not been rendered yet is ErrNotFound.
func (s *Store) ReadVariant(path string, width int) ([]byte, error) {
	return s.Read(VariantPath(path, width))
}
