// Package users provides account registration and the current-user
// lookup endpoint.
//
// Endpoints:
//   - POST /users    - Register a new account
//   - GET  /users/me - Describe the authenticated account (token required)
package users

import (
	"errors"
	"net/http"

	userstore "filedepot/internal/app/store/users"
	"filedepot/internal/app/system/auth"
	"filedepot/internal/app/system/authutil"
	"filedepot/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler handles user account requests.
type Handler struct {
	users  *userstore.Store
	logger *zap.Logger
}

// NewHandler creates a new users handler.
func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{users: users, logger: logger}
}

// Routes returns a router with the account endpoints mounted. authn
// guards /users/me; registration is open.
func Routes(h *Handler, authn *auth.Manager) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.Register)
	r.With(authn.RequireUser).Get("/me", h.Me)
	return r
}

// accountVM is the wire shape for an account. The password digest is
// never serialized.
type accountVM struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Register handles POST /users.
//
// Request body:
//
//	{ "email": "bob@dylan.com", "password": "toto1234!" }
//
// Response (201 Created):
//
//	{ "id": "...", "email": "bob@dylan.com" }
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.Email == "" {
		jsonutil.BadRequest(w, "Missing email")
		return
	}
	if in.Password == "" {
		jsonutil.BadRequest(w, "Missing password")
		return
	}

	u, err := h.users.Create(r.Context(), in.Email, authutil.HashPassword(in.Password))
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			jsonutil.BadRequest(w, "Already exist")
			return
		}
		h.logger.Error("failed to create user",
			zap.String("email", in.Email),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to create user")
		return
	}

	h.logger.Info("user registered",
		zap.String("user_id", u.ID.Hex()),
		zap.String("email", u.Email))

	jsonutil.Created(w, accountVM{ID: u.ID.Hex(), Email: u.Email})
}

// Me handles GET /users/me for the authenticated account.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}
	jsonutil.OK(w, accountVM{ID: u.ID.Hex(), Email: u.Email})
}
