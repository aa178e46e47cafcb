// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	filesfeature "filedepot/internal/app/features/files"
	sessionfeature "filedepot/internal/app/features/session"
	statusfeature "filedepot/internal/app/features/status"
	usersfeature "filedepot/internal/app/features/users"
	nodestore "filedepot/internal/app/store/nodes"
	tokenstore "filedepot/internal/app/store/tokens"
	userstore "filedepot/internal/app/store/users"
	"filedepot/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this
// WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup,
// and the Startup hook have completed. The API is JSON-only and
// authenticated by opaque bearer tokens in the X-Token header, so there
// are no sessions, cookies, or CSRF concerns here.
//
// Route table:
//   - GET  /status, GET /stats             - service status and counters
//   - POST /users, GET /users/me           - registration, current account
//   - GET  /connect, GET /disconnect       - token issue and revoke
//   - POST /files ...                      - file repository (see files feature)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	users := userstore.New(deps.MongoDatabase)
	nodes := nodestore.New(deps.MongoDatabase)
	tokens := tokenstore.New(deps.Redis, appCfg.TokenTTL)

	authn := auth.NewManager(tokens, users, logger)

	r := chi.NewRouter()

	// Global middleware. Request timeout first so nothing hangs
	// indefinitely; CORS early so preflights are answered.
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Token resolution: loads the current user into context when a
	// valid X-Token is presented, passes through anonymously otherwise.
	// Per-route RequireUser middleware enforces authentication.
	r.Use(authn.WithUser)

	// Service status and counters
	statusHandler := statusfeature.NewHandler(deps.MongoClient, tokens, users, nodes, logger)
	statusfeature.MountRootEndpoints(r, statusHandler)

	// Account registration and lookup
	usersHandler := usersfeature.NewHandler(users, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler, authn))

	// Token issue and revoke
	sessionHandler := sessionfeature.NewHandler(users, tokens, logger)
	sessionfeature.MountRootEndpoints(r, sessionHandler, authn)

	// File repository
	filesHandler := filesfeature.NewHandler(nodes, deps.Blobs, jobRunner, appCfg.ListPageSize, logger)
	r.Mount("/files", filesfeature.Routes(filesHandler, authn))

	return r, nil
}
