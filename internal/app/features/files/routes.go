// internal/app/features/files/routes.go
package files

import (
	"net/http"

	"filedepot/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes returns a router with the file repository endpoints.
//
// When mounted at /files:
//   - POST /files                - Upload (token required)
//   - GET  /files                - List children (token required)
//   - GET  /files/{id}           - Metadata (token required)
//   - PUT  /files/{id}/publish   - Publish (token required)
//   - PUT  /files/{id}/unpublish - Unpublish (token required)
//   - GET  /files/{id}/data      - Content download (token optional)
func Routes(h *Handler, authn *auth.Manager) http.Handler {
	r := chi.NewRouter()

	// Content download resolves visibility itself so public items stay
	// readable without a token.
	r.Get("/{id}/data", h.Data)

	r.Group(func(pr chi.Router) {
		pr.Use(authn.RequireUser)
		pr.Post("/", h.Upload)
		pr.Get("/", h.List)
		pr.Get("/{id}", h.Show)
		pr.Put("/{id}/publish", h.Publish)
		pr.Put("/{id}/unpublish", h.Unpublish)
	})

	return r
}
