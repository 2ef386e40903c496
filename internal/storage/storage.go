// Package storage keeps uploaded recipe images outside the database.
//
// The recipe store only ever sees the reference string returned by Put.
// Two backends exist: a directory on local disk and an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/xid"
)

// ImageStore persists one image and returns a stable reference to it.
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// allowed maps accepted image content types to the file extension used in keys.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Extension returns the file extension for an accepted image content type.
func Extension(contentType string) (string, bool) {
	ext, ok := allowed[contentType]
	return ext, ok
}

// NewKey builds a unique object key for an image of recipeID:
//
//	recipes/<recipeID>/<yyyy>/<mm>/<xid><ext>
//
// xid keeps keys sortable by creation time without a central counter.
func NewKey(recipeID int64, contentType string) (string, error) {
	ext, ok := Extension(contentType)
	if !ok {
		return "", fmt.Errorf("storage: unsupported content type %q", contentType)
	}
	now := time.Now().UTC()
	return fmt.Sprintf("recipes/%d/%04d/%02d/%s%s", recipeID, now.Year(), now.Month(), xid.New().String(), ext), nil
}
