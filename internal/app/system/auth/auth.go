// Package auth provides token-based request authentication.
//
// Clients obtain an opaque bearer token from GET /connect and present
// it on the X-Token request header. The header is read through
// http.Header.Get, which canonicalizes the name, so x-token, X-Token
// and X-TOKEN are all accepted.
package auth

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"filedepot/internal/app/store/tokens"
	userstore "filedepot/internal/app/store/users"
	"filedepot/internal/domain/models"
	"go.uber.org/zap"
)

// TokenHeader is the request header carrying the session token.
const TokenHeader = "X-Token"

// Manager resolves bearer tokens into users and provides the
// middleware that guards authenticated routes.
type Manager struct {
	tokens *tokenstore.Store
	users  *userstore.Store
	logger *zap.Logger
}

// NewManager creates a Manager backed by the given stores.
func NewManager(tokens *tokenstore.Store, users *userstore.Store, logger *zap.Logger) *Manager {
	return &Manager{tokens: tokens, users: users, logger: logger}
}

type ctxKey string

const (
	currentUserKey  ctxKey = "currentUser"
	currentTokenKey ctxKey = "currentToken"
)

// CurrentUser returns the authenticated user and a "found?" flag from
// the request context.
func CurrentUser(r *http.Request) (*models.User, bool) {
	u, ok := r.Context().Value(currentUserKey).(*models.User)
	return u, ok
}

// CurrentToken returns the token the request authenticated with, or ""
// for anonymous requests.
func CurrentToken(r *http.Request) string {
	t, _ := r.Context().Value(currentTokenKey).(string)
	return t
}

// WithUser returns middleware that injects the user into the request
// context when a valid X-Token is presented. Requests without a token,
// or with a token that no longer resolves, pass through anonymously;
// RequireUser decides whether that is acceptable for the route.
func (m *Manager) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(TokenHeader)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := m.tokens.Resolve(r.Context(), token)
		if err != nil {
			if err != tokenstore.ErrNotFound {
				m.logger.Error("token resolution failed", zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.users.GetByID(r.Context(), userID)
		if err != nil {
			// A token for a vanished user behaves like no token at all.
			if err != userstore.ErrNotFound {
				m.logger.Error("user lookup failed",
					zap.String("user_id", userID.Hex()),
					zap.Error(err))
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, user)
		ctx = context.WithValue(ctx, currentTokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser returns middleware that rejects requests without an
// authenticated user. The 401 body never says whether the token was
// missing, invalid, or expired.
func (m *Manager) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithTestUser injects a user and token into the request context for
// handler tests.
func WithTestUser(r *http.Request, u *models.User, token string) *http.Request {
	ctx := context.WithValue(r.Context(), currentUserKey, u)
	ctx = context.WithValue(ctx, currentTokenKey, token)
	return r.WithContext(ctx)
}

// DecodeBasic parses an HTTP Basic Authorization header value into an
// email/password pair. ok is false when the header is absent, not
// Basic, not valid base64, or missing the colon separator.
func DecodeBasic(header string) (email, password string, ok bool) {
	const prefix = "Basic "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}

	raw, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	email, password, found := strings.Cut(string(raw), ":")
	if !found || email == "" {
		return "", "", false
	}
	return email, password, true
}
