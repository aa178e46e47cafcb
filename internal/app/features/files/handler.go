// Package files provides the file repository endpoints: upload,
// metadata reads, listing, publish/unpublish, and content download.
//
// Endpoints:
//   - POST /files                - Upload a folder, file, or image (token required)
//   - GET  /files                - List children of a folder, paginated (token required)
//   - GET  /files/{id}           - Fetch one item's metadata (token required)
//   - PUT  /files/{id}/publish   - Make an item public (token required)
//   - PUT  /files/{id}/unpublish - Make an item private (token required)
//   - GET  /files/{id}/data      - Download content; public items need no token
//
// Folders hold metadata only. Files and images carry base64 content in
// the upload body; the decoded bytes land in the blob store and only
// the metadata travels back over the wire. Image uploads additionally
// enqueue a thumbnail job.
package files

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	blobstore "filedepot/internal/app/store/blobs"
	nodestore "filedepot/internal/app/store/nodes"
	"filedepot/internal/app/system/auth"
	"filedepot/internal/app/system/jobrunner"
	"filedepot/internal/app/system/jsonutil"
	"filedepot/internal/domain/models"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler handles file repository requests.
type Handler struct {
	nodes    *nodestore.Store
	blobs    *blobstore.Store
	runner   *jobrunner.Runner
	pageSize int64
	logger   *zap.Logger
}

// NewHandler creates a new files handler. pageSize bounds listing
// responses; values below one fall back to the store default.
func NewHandler(nodes *nodestore.Store, blobs *blobstore.Store, runner *jobrunner.Runner, pageSize int64, logger *zap.Logger) *Handler {
	if pageSize < 1 {
		pageSize = nodestore.DefaultPageSize
	}
	return &Handler{
		nodes:    nodes,
		blobs:    blobs,
		runner:   runner,
		pageSize: pageSize,
		logger:   logger,
	}
}

// nodeVM is the wire shape for a repository item. local_path never
// leaves the server.
type nodeVM struct {
	ID       string `json:"id"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	IsPublic bool   `json:"isPublic"`
	ParentID string `json:"parentId"`
}

// viewOf projects a stored node into its wire shape. Root children
// report parentId "0".
func viewOf(n models.Node) nodeVM {
	parent := "0"
	if n.ParentID != nil {
		parent = n.ParentID.Hex()
	}
	return nodeVM{
		ID:       n.ID.Hex(),
		UserID:   n.UserID.Hex(),
		Name:     n.Name,
		Type:     n.Type,
		IsPublic: n.IsPublic,
		ParentID: parent,
	}
}

// Upload handles POST /files.
//
// Request body:
//
//	{
//	    "name": "report.txt",
//	    "type": "file",           // folder | file | image
//	    "parentId": "0",          // optional; "0" or absent means root
//	    "isPublic": false,        // optional
//	    "data": "SGVsbG8gV2..."   // base64; required except for folders
//	}
//
// Response (201 Created): the item's metadata projection.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	var in struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		ParentID string `json:"parentId"`
		IsPublic bool   `json:"isPublic"`
		Data     string `json:"data"`
	}
	if err := jsonutil.Decode(r, &in); err != nil {
		jsonutil.BadRequest(w, "Invalid JSON payload")
		return
	}
	if in.Name == "" {
		jsonutil.BadRequest(w, "Missing name")
		return
	}
	if !models.ValidNodeType(in.Type) {
		jsonutil.BadRequest(w, "Missing type")
		return
	}
	if in.Data == "" && in.Type != models.TypeFolder {
		jsonutil.BadRequest(w, "Missing data")
		return
	}

	var parentID *primitive.ObjectID
	if in.ParentID != "" && in.ParentID != "0" {
		pid, err := primitive.ObjectIDFromHex(in.ParentID)
		if err != nil {
			jsonutil.BadRequest(w, "Parent not found")
			return
		}
		parent, err := h.nodes.GetOwned(r.Context(), pid, u.ID)
		if err != nil {
			if errors.Is(err, nodestore.ErrNotFound) {
				jsonutil.BadRequest(w, "Parent not found")
				return
			}
			h.logger.Error("failed to look up parent",
				zap.String("parent_id", in.ParentID),
				zap.Error(err))
			jsonutil.InternalError(w, "Failed to upload file")
			return
		}
		if !parent.IsFolder() {
			jsonutil.BadRequest(w, "Parent is not a folder")
			return
		}
		parentID = &parent.ID
	}

	node := models.Node{
		UserID:   u.ID,
		Name:     in.Name,
		Type:     in.Type,
		IsPublic: in.IsPublic,
		ParentID: parentID,
	}

	if in.Type != models.TypeFolder {
		content, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			jsonutil.BadRequest(w, "Missing data")
			return
		}
		path, err := h.blobs.Write(content)
		if err != nil {
			h.logger.Error("failed to write blob",
				zap.String("user_id", u.ID.Hex()),
				zap.Error(err))
			jsonutil.InternalError(w, "Failed to store file content")
			return
		}
		node.LocalPath = path
	}

	node, err := h.nodes.Insert(r.Context(), node)
	if err != nil {
		h.logger.Error("failed to insert file",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to upload file")
		return
	}

	if node.IsImage() {
		// Rendering is async and best-effort; the upload succeeds even
		// when the queue is unavailable.
		_, err := h.runner.Enqueue(r.Context(), ThumbnailQueue, JobTypeThumbnails, map[string]any{
			"file_id": node.ID.Hex(),
			"user_id": node.UserID.Hex(),
		})
		if err != nil {
			h.logger.Warn("failed to enqueue thumbnail job",
				zap.String("file_id", node.ID.Hex()),
				zap.Error(err))
		}
	}

	h.logger.Info("file uploaded",
		zap.String("file_id", node.ID.Hex()),
		zap.String("user_id", u.ID.Hex()),
		zap.String("type", node.Type))

	jsonutil.Created(w, viewOf(node))
}

// Show handles GET /files/{id}. The item must belong to the caller or
// be public; anything else reads as absent.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "Not found")
		return
	}

	node, err := h.nodes.GetVisible(r.Context(), id, u.ID)
	if err != nil {
		if errors.Is(err, nodestore.ErrNotFound) {
			jsonutil.NotFound(w, "Not found")
			return
		}
		h.logger.Error("failed to fetch file",
			zap.String("file_id", id.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to fetch file")
		return
	}

	jsonutil.OK(w, viewOf(*node))
}

// List handles GET /files. Query parameters: parentId (folder id, "0"
// or absent for root) and page (0-based). Pages hold at most pageSize
// items, newest first; out-of-range pages are an empty array.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	var parentID *primitive.ObjectID
	if raw := r.URL.Query().Get("parentId"); raw != "" && raw != "0" {
		pid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			// An unparseable parent can match nothing.
			jsonutil.OK(w, []nodeVM{})
			return
		}
		parentID = &pid
	}

	var page int64
	if raw := r.URL.Query().Get("page"); raw != "" {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 {
			page = n
		}
	}

	nodes, err := h.nodes.ListByParent(r.Context(), u.ID, parentID, page, h.pageSize)
	if err != nil {
		h.logger.Error("failed to list files",
			zap.String("user_id", u.ID.Hex()),
			zap.Int64("page", page),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to list files")
		return
	}

	out := make([]nodeVM, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, viewOf(n))
	}
	jsonutil.OK(w, out)
}

// Publish handles PUT /files/{id}/publish.
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, true)
}

// Unpublish handles PUT /files/{id}/unpublish.
func (h *Handler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setPublic(w, r, false)
}

// setPublic flips is_public on an owned item and returns the updated
// projection. Only the owner may change visibility; a foreign item
// reads as absent.
func (h *Handler) setPublic(w http.ResponseWriter, r *http.Request, public bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		jsonutil.Unauthorized(w, "Unauthorized")
		return
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "Not found")
		return
	}

	node, err := h.nodes.SetPublic(r.Context(), id, u.ID, public)
	if err != nil {
		if errors.Is(err, nodestore.ErrNotFound) {
			jsonutil.NotFound(w, "Not found")
			return
		}
		h.logger.Error("failed to update file visibility",
			zap.String("file_id", id.Hex()),
			zap.Bool("is_public", public),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to update file")
		return
	}

	jsonutil.OK(w, viewOf(*node))
}

// Data handles GET /files/{id}/data. Public items are readable without
// a token; private items only by their owner. The optional size query
// selects a thumbnail width (500, 250, or 100); thumbnails that have
// not been rendered yet read as absent.
func (h *Handler) Data(w http.ResponseWriter, r *http.Request) {
	requesterID := primitive.NilObjectID
	if u, ok := auth.CurrentUser(r); ok {
		requesterID = u.ID
	}

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		jsonutil.NotFound(w, "Not found")
		return
	}

	node, err := h.nodes.GetVisible(r.Context(), id, requesterID)
	if err != nil {
		if errors.Is(err, nodestore.ErrNotFound) {
			jsonutil.NotFound(w, "Not found")
			return
		}
		h.logger.Error("failed to fetch file",
			zap.String("file_id", id.Hex()),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to fetch file")
		return
	}

	if node.IsFolder() {
		jsonutil.BadRequest(w, "A folder doesn't have content")
		return
	}

	width := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !validWidth(n) {
			jsonutil.BadRequest(w, "Invalid size")
			return
		}
		width = n
	}

	var content []byte
	if width > 0 {
		content, err = h.blobs.ReadVariant(node.LocalPath, width)
	} else {
		content, err = h.blobs.Read(node.LocalPath)
	}
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			jsonutil.NotFound(w, "Not found")
			return
		}
		h.logger.Error("failed to read file content",
			zap.String("file_id", id.Hex()),
			zap.Int("width", width),
			zap.Error(err))
		jsonutil.InternalError(w, "Failed to read file")
		return
	}

	w.Header().Set("Content-Type", mimetype.Detect(content).String())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(content); err != nil {
		h.logger.Debug("failed to write file response", zap.Error(err))
	}
}

// validWidth reports whether w is one of the rendered thumbnail widths.
func validWidth(w int) bool {
	switch w {
	case 500, 250, 100:
		return true
	}
	return false
}
