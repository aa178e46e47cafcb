package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	userstore "filedepot/internal/app/store/users"
	"filedepot/internal/app/system/auth"
	"filedepot/internal/app/system/authutil"
	"filedepot/internal/testutil"
	"go.uber.org/zap"
)

func TestHandler_Register(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	h := NewHandler(store, zap.NewNop())

	post := func(t *testing.T, body map[string]any) *httptest.ResponseRecorder {
		t.Helper()
		bodyBytes, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.Register(rec, req)
		return rec
	}

	t.Run("successful registration", func(t *testing.T) {
		rec := post(t, map[string]any{"email": "bob@dylan.com", "password": "toto1234!"})

		if rec.Code != http.StatusCreated {
			t.Fatalf("Register() status = %d, want %d", rec.Code, http.StatusCreated)
		}

		var resp map[string]string
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp["email"] != "bob@dylan.com" {
			t.Errorf("response email = %q, want %q", resp["email"], "bob@dylan.com")
		}
		if resp["id"] == "" {
			t.Error("response id should not be empty")
		}
		if _, ok := resp["password"]; ok {
			t.Error("response must not contain the password")
		}
	})

	t.Run("stored password is the sha1 digest", func(t *testing.T) {
		post(t, map[string]any{"email": "digest@dylan.com", "password": "toto1234!"})

		ctx, cancel := testutil.TestContext()
		defer cancel()

		u, err := store.GetByEmail(ctx, "digest@dylan.com")
		if err != nil {
			t.Fatalf("GetByEmail() error = %v", err)
		}
		if u.Password != authutil.HashPassword("toto1234!") {
			t.Errorf("stored password = %q, want sha1 digest", u.Password)
		}
	})

	t.Run("missing email", func(t *testing.T) {
		rec := post(t, map[string]any{"password": "toto1234!"})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Register() status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		var resp map[string]string
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp["error"] != "Missing email" {
			t.Errorf("error message = %q, want %q", resp["error"], "Missing email")
		}
	})

	t.Run("missing password", func(t *testing.T) {
		rec := post(t, map[string]any{"email": "bob@dylan.com"})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Register() status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		var resp map[string]string
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp["error"] != "Missing password" {
			t.Errorf("error message = %q, want %q", resp["error"], "Missing password")
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		post(t, map[string]any{"email": "again@dylan.com", "password": "a"})
		rec := post(t, map[string]any{"email": "again@dylan.com", "password": "b"})

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Register() status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
		var resp map[string]string
		json.NewDecoder(rec.Body).Decode(&resp)
		if resp["error"] != "Already exist" {
			t.Errorf("error message = %q, want %q", resp["error"], "Already exist")
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader([]byte("not json")))
		rec := httptest.NewRecorder()

		h.Register(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Register() status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestHandler_Me(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	h := NewHandler(store, zap.NewNop())

	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, "bob@dylan.com", authutil.HashPassword("toto1234!"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req = auth.WithTestUser(req, &u, "test-token")
	rec := httptest.NewRecorder()

	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Me() status = %d, want %d", rec.Code, http.StatusOK)
	}

	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["id"] != u.ID.Hex() {
		t.Errorf("response id = %q, want %q", resp["id"], u.ID.Hex())
	}
	if resp["email"] != "bob@dylan.com" {
		t.Errorf("response email = %q, want %q", resp["email"], "bob@dylan.com")
	}
}
