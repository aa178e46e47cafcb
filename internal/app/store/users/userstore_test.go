package userstore

import (
	"errors"
	"testing"

	"filedepot/internal/app/system/authutil"
	"filedepot/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	t.Run("creates user with lowercased email", func(t *testing.T) {
		u, err := store.Create(ctx, "Bob@Dylan.com", authutil.HashPassword("toto1234!"))
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if u.ID.IsZero() {
			t.Error("Create() returned zero id")
		}
		if u.Email != "bob@dylan.com" {
			t.Errorf("Create() email = %q, want %q", u.Email, "bob@dylan.com")
		}
		if u.CreatedAt.IsZero() {
			t.Error("Create() created_at should be set")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		if _, err := store.Create(ctx, "dup@dylan.com", authutil.HashPassword("a")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		_, err := store.Create(ctx, "dup@dylan.com", authutil.HashPassword("b"))
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
		}
	})

	t.Run("duplicate differs only by case", func(t *testing.T) {
		if _, err := store.Create(ctx, "case@dylan.com", authutil.HashPassword("a")); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		_, err := store.Create(ctx, "CASE@dylan.com", authutil.HashPassword("b"))
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("Create() error = %v, want ErrDuplicateEmail", err)
		}
	})
}

func TestStore_GetByCredentials(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	digest := authutil.HashPassword("toto1234!")
	created, err := store.Create(ctx, "bob@dylan.com", digest)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("matching credentials", func(t *testing.T) {
		u, err := store.GetByCredentials(ctx, "bob@dylan.com", digest)
		if err != nil {
			t.Fatalf("GetByCredentials() error = %v", err)
		}
		if u.ID != created.ID {
			t.Errorf("GetByCredentials() id = %s, want %s", u.ID.Hex(), created.ID.Hex())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := store.GetByCredentials(ctx, "bob@dylan.com", authutil.HashPassword("wrong"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByCredentials() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := store.GetByCredentials(ctx, "nobody@dylan.com", digest)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("GetByCredentials() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("email matching is case insensitive", func(t *testing.T) {
		u, err := store.GetByCredentials(ctx, "BOB@dylan.com", digest)
		if err != nil {
			t.Fatalf("GetByCredentials() error = %v", err)
		}
		if u.ID != created.ID {
			t.Errorf("GetByCredentials() id = %s, want %s", u.ID.Hex(), created.ID.Hex())
		}
	})
}

func TestStore_GetByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, "bob@dylan.com", authutil.HashPassword("x"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	u, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if u.Email != "bob@dylan.com" {
		t.Errorf("GetByID() email = %q, want %q", u.Email, "bob@dylan.com")
	}
}

func TestStore_Count(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := New(db)

	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}

	for _, email := range []string{"a@x.com", "b@x.com", "c@x.com"} {
		if _, err := store.Create(ctx, email, authutil.HashPassword("p")); err != nil {
			t.Fatalf("Create(%s) error = %v", email, err)
		}
	}

	n, err = store.Count(ctx)
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}
