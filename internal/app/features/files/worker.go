// internal/app/features/files/worker.go
package files

import (
	"context"
	"errors"
	"fmt"
	"sync"

	blobstore "filedepot/internal/app/store/blobs"
	nodestore "filedepot/internal/app/store/nodes"
	"filedepot/internal/app/system/jobrunner"
	"filedepot/internal/app/system/thumbs"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	// ThumbnailQueue is the durable queue image uploads land on.
	ThumbnailQueue = "thumbnails"

	// JobTypeThumbnails renders the fixed-width variants of one image.
	JobTypeThumbnails = "generate_thumbnails"
)

// ThumbnailHandler returns the job handler that renders thumbnail
// variants for an uploaded image. Payload shape:
//
//	{ "file_id": "<hex>", "user_id": "<hex>" }
//
// A malformed payload or a vanished source image fails the job
// permanently; render and write errors are retriable.
func ThumbnailHandler(nodes *nodestore.Store, blobs *blobstore.Store, logger *zap.Logger) jobrunner.JobHandler {
	return func(ctx context.Context, payload map[string]any) error {
		fileID, err := payloadObjectID(payload, "file_id")
		if err != nil {
			return jobrunner.Permanent(err)
		}
		userID, err := payloadObjectID(payload, "user_id")
		if err != nil {
			return jobrunner.Permanent(err)
		}

		node, err := nodes.GetOwned(ctx, fileID, userID)
		if err != nil {
			if errors.Is(err, nodestore.ErrNotFound) {
				return jobrunner.Permanent(fmt.Errorf("file %s not found for user %s", fileID.Hex(), userID.Hex()))
			}
			return fmt.Errorf("fetch file %s: %w", fileID.Hex(), err)
		}
		if !node.IsImage() {
			return jobrunner.Permanent(fmt.Errorf("file %s is not an image", fileID.Hex()))
		}

		src, err := blobs.Read(node.LocalPath)
		if err != nil {
			if errors.Is(err, blobstore.ErrNotFound) {
				return jobrunner.Permanent(fmt.Errorf("content for file %s is missing", fileID.Hex()))
			}
			return fmt.Errorf("read content for file %s: %w", fileID.Hex(), err)
		}

		// One goroutine per width; any failure fails the whole job so
		// the retry re-renders everything. Variant writes overwrite, so
		// re-running is safe.
		var wg sync.WaitGroup
		errs := make([]error, len(thumbs.Widths))
		for i, width := range thumbs.Widths {
			wg.Add(1)
			go func(i, width int) {
				defer wg.Done()
				rendered, err := thumbs.Render(src, width)
				if err != nil {
					errs[i] = fmt.Errorf("render %dpx: %w", width, err)
					return
				}
				if err := blobs.WriteVariant(node.LocalPath, width, rendered); err != nil {
					errs[i] = fmt.Errorf("write %dpx variant: %w", width, err)
				}
			}(i, width)
		}
		wg.Wait()

		for _, err := range errs {
			if err != nil {
				return err
			}
		}

		logger.Info("thumbnails rendered",
			zap.String("file_id", fileID.Hex()),
			zap.Ints("widths", thumbs.Widths))
		return nil
	}
}

// payloadObjectID extracts a hex ObjectID from a job payload.
func payloadObjectID(payload map[string]any, key string) (primitive.ObjectID, error) {
	raw, ok := payload[key].(string)
	if !ok || raw == "" {
		return primitive.NilObjectID, fmt.Errorf("payload missing %s", key)
	}
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("payload %s %q is not a valid id: %w", key, raw, err)
	}
	return id, nil
}
