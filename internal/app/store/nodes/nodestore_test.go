package nodestore

import (
	"errors"
	"fmt"
	"testing"

	"filedepot/internal/domain/models"
	"filedepot/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_Insert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	n, err := store.Insert(ctx, models.Node{
		UserID: owner,
		Name:   "documents",
		Type:   models.TypeFolder,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if n.ID.IsZero() {
		t.Error("Insert() returned zero id")
	}
	if n.CreatedAt.IsZero() {
		t.Error("Insert() created_at should be set")
	}
	if !n.IsRoot() {
		t.Error("Insert() node without parent should be at root")
	}
}

func TestStore_GetOwned(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	n, err := store.Insert(ctx, models.Node{
		UserID: owner,
		Name:   "notes.txt",
		Type:   models.TypeFile,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	t.Run("owner sees the node", func(t *testing.T) {
		got, err := store.GetOwned(ctx, n.ID, owner)
		if err != nil {
			t.Fatalf("GetOwned() error = %v", err)
		}
		if got.Name != "notes.txt" {
			t.Errorf("GetOwned() name = %q, want %q", got.Name, "notes.txt")
		}
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		_, err := store.GetOwned(ctx, n.ID, stranger)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetOwned() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("absent node gets not found", func(t *testing.T) {
		_, err := store.GetOwned(ctx, primitive.NewObjectID(), owner)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetOwned() error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_GetVisible(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	private, err := store.Insert(ctx, models.Node{
		UserID: owner,
		Name:   "secret.txt",
		Type:   models.TypeFile,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	public, err := store.Insert(ctx, models.Node{
		UserID:   owner,
		Name:     "shared.txt",
		Type:     models.TypeFile,
		IsPublic: true,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	t.Run("owner sees private node", func(t *testing.T) {
		if _, err := store.GetVisible(ctx, private.ID, owner); err != nil {
			t.Errorf("GetVisible() error = %v", err)
		}
	})

	t.Run("stranger cannot see private node", func(t *testing.T) {
		_, err := store.GetVisible(ctx, private.ID, stranger)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetVisible() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("stranger sees public node", func(t *testing.T) {
		if _, err := store.GetVisible(ctx, public.ID, stranger); err != nil {
			t.Errorf("GetVisible() error = %v", err)
		}
	})

	t.Run("anonymous sees only public nodes", func(t *testing.T) {
		if _, err := store.GetVisible(ctx, public.ID, primitive.NilObjectID); err != nil {
			t.Errorf("GetVisible() public error = %v", err)
		}
		_, err := store.GetVisible(ctx, private.ID, primitive.NilObjectID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetVisible() private error = %v, want ErrNotFound", err)
		}
	})
}

func TestStore_ListByParent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()

	folder, err := store.Insert(ctx, models.Node{
		UserID: owner,
		Name:   "images",
		Type:   models.TypeFolder,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	for i := 0; i < 25; i++ {
		_, err := store.Insert(ctx, models.Node{
			UserID:   owner,
			Name:     fmt.Sprintf("file%02d.txt", i),
			Type:     models.TypeFile,
			ParentID: &folder.ID,
		})
		if err != nil {
			t.Fatalf("Insert() error = %v", err)
		}
	}
	// One root-level node and one foreign node; neither should appear.
	if _, err := store.Insert(ctx, models.Node{UserID: owner, Name: "root.txt", Type: models.TypeFile}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if _, err := store.Insert(ctx, models.Node{UserID: other, Name: "foreign.txt", Type: models.TypeFile, ParentID: &folder.ID}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	t.Run("first page is full", func(t *testing.T) {
		nodes, err := store.ListByParent(ctx, owner, &folder.ID, 0, DefaultPageSize)
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(nodes) != DefaultPageSize {
			t.Errorf("ListByParent() len = %d, want %d", len(nodes), DefaultPageSize)
		}
	})

	t.Run("second page holds the remainder", func(t *testing.T) {
		nodes, err := store.ListByParent(ctx, owner, &folder.ID, 1, DefaultPageSize)
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(nodes) != 5 {
			t.Errorf("ListByParent() len = %d, want 5", len(nodes))
		}
	})

	t.Run("out of range page is empty", func(t *testing.T) {
		nodes, err := store.ListByParent(ctx, owner, &folder.ID, 10, DefaultPageSize)
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(nodes) != 0 {
			t.Errorf("ListByParent() len = %d, want 0", len(nodes))
		}
	})

	t.Run("root listing excludes folder children", func(t *testing.T) {
		nodes, err := store.ListByParent(ctx, owner, nil, 0, DefaultPageSize)
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		// The folder itself plus root.txt.
		if len(nodes) != 2 {
			t.Errorf("ListByParent() len = %d, want 2", len(nodes))
		}
	})

	t.Run("foreign nodes never appear", func(t *testing.T) {
		nodes, err := store.ListByParent(ctx, other, &folder.ID, 0, DefaultPageSize)
		if err != nil {
			t.Fatalf("ListByParent() error = %v", err)
		}
		if len(nodes) != 1 {
			t.Fatalf("ListByParent() len = %d, want 1", len(nodes))
		}
		if nodes[0].Name != "foreign.txt" {
			t.Errorf("ListByParent() name = %q, want %q", nodes[0].Name, "foreign.txt")
		}
	})
}

func TestStore_SetPublic(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()

	n, err := store.Insert(ctx, models.Node{
		UserID: owner,
		Name:   "doc.txt",
		Type:   models.TypeFile,
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	t.Run("owner publishes", func(t *testing.T) {
		got, err := store.SetPublic(ctx, n.ID, owner, true)
		if err != nil {
			t.Fatalf("SetPublic() error = %v", err)
		}
		if !got.IsPublic {
			t.Error("SetPublic() is_public = false, want true")
		}
	})

	t.Run("publish is idempotent", func(t *testing.T) {
		got, err := store.SetPublic(ctx, n.ID, owner, true)
		if err != nil {
			t.Fatalf("SetPublic() error = %v", err)
		}
		if !got.IsPublic {
			t.Error("SetPublic() is_public = false, want true")
		}
	})

	t.Run("owner unpublishes", func(t *testing.T) {
		got, err := store.SetPublic(ctx, n.ID, owner, false)
		if err != nil {
			t.Fatalf("SetPublic() error = %v", err)
		}
		if got.IsPublic {
			t.Error("SetPublic() is_public = true, want false")
		}
	})

	t.Run("stranger gets not found", func(t *testing.T) {
		_, err := store.SetPublic(ctx, n.ID, stranger, true)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("SetPublic() error = %v, want ErrNotFound", err)
		}
	})
}
