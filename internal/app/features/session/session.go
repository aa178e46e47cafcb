// Package session exchanges Basic credentials for bearer tokens and
// revokes them on sign-out.
//
// Endpoints:
//   - GET /connect    - Exchange Basic credentials for a token
//   - GET /disconnect - Revoke the presented token (token required)
package session

import (
	"net/http"

	tokenstore "filedepot/internal/app/store/tokens"
	userstore "filedepot/internal/app/store/users"
	"filedepot/internal/app/system/auth"
	"filedepot/internal/app/system/authutil"
	"filedepot/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler handles sign-in and sign-out requests.
type Handler struct {
	users  *userstore.Store
	tokens *tokenstore.Store
	logger *zap.Logger
}

// NewHandler creates a new session handler.
func NewHandler(users *userstore.Store, tokens *tokenstore.Store, logger *zap.Logger) *Handler {
	return &Handler{users: users, tokens: tokens, logger: logger}
}

// MountRootEndpoints adds /connect and /disconnect directly on the
// root router.
func MountRootEndpoints(r chi.Router, h *Handler, authn *auth.Manager) {
	r.Get("/connect", h.Connect)
	r.With(authn.RequireUser).Get("/disconnect", h.Disconnect)
}

// Connect handles GET /connect. Credentials arrive in the
// Authorization header using the Basic scheme; a fresh token is issued
// on success.
//
// Response (200 OK):
//
//	{ "token": "031bffac-3edc-4e51-aaae-1c121317da8a" }
//
// Every failure mode answers 401 with the same body so callers cannot
// probe which accounts exist.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	email, password, ok := auth.DecodeBasic(r.Header.Get("Authorization"))
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	u, err := h.users.GetByCredentials(r.Context(), email, authutil.HashPassword(password))
	if err != nil {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	token, err := h.tokens.Issue(r.Context(), u.ID)
	if err != nil {
		h.logger.Error("failed to issue token",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to sign in")
		return
	}

	h.logger.Info("user signed in", zap.String("user_id", u.ID.Hex()))

	jsonutil.OK(w, map[string]string{"token": token})
}

// Disconnect handles GET /disconnect. The presented token is revoked
// immediately; the response carries no body.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	token := auth.CurrentToken(r)
	if token == "" {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	if err := h.tokens.Revoke(r.Context(), token); err != nil {
		h.logger.Error("failed to revoke token", zap.Error(err))
		jsonutil.InternalError(w, "Failed to sign out")
		return
	}

	jsonutil.NoContent(w)
}
