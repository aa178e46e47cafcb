// internal/app/features/status/status.go
package status

import (
	"context"
	"net/http"
	"time"

	nodestore "filedepot/internal/app/store/nodes"
	tokenstore "filedepot/internal/app/store/tokens"
	userstore "filedepot/internal/app/store/users"
	"filedepot/internal/app/system/jsonutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler provides service status and usage counters.
type Handler struct {
	mongoClient *mongo.Client
	tokens      *tokenstore.Store
	users       *userstore.Store
	nodes       *nodestore.Store
	logger      *zap.Logger
}

// NewHandler creates a new status Handler.
func NewHandler(mongoClient *mongo.Client, tokens *tokenstore.Store, users *userstore.Store, nodes *nodestore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		mongoClient: mongoClient,
		tokens:      tokens,
		users:       users,
		nodes:       nodes,
		logger:      logger,
	}
}

// MountRootEndpoints adds /status and /stats directly on the root
// router.
func MountRootEndpoints(r chi.Router, h *Handler) {
	r.Get("/status", h.Status)
	r.Get("/stats", h.Stats)
}

// Status reports whether Redis and MongoDB are reachable. It always
// answers 200; the booleans carry the per-service result.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	redisUp := true
	if err := h.tokens.Ping(ctx); err != nil {
		redisUp = false
		h.logger.Warn("status check: redis ping failed", zap.Error(err))
	}

	dbUp := true
	if err := h.mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		dbUp = false
		h.logger.Warn("status check: mongodb ping failed", zap.Error(err))
	}

	jsonutil.OK(w, map[string]bool{
		"redis": redisUp,
		"db":    dbUp,
	})
}

// Stats reports the total number of registered users and stored files.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.users.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count users", zap.Error(err))
		jsonutil.InternalError(w, "Failed to compute stats")
		return
	}
	files, err := h.nodes.Count(ctx)
	if err != nil {
		h.logger.Error("failed to count files", zap.Error(err))
		jsonutil.InternalError(w, "Failed to compute stats")
		return
	}

	jsonutil.OK(w, map[string]int64{
		"users": users,
		"files": files,
	})
}
