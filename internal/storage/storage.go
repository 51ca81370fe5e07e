package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default expiry duration for presigned URLs
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage defines the interface for object storage operations.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL that allows PUT requests
	// for uploading an object directly to the storage provider.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL that allows GET requests
	// for downloading/viewing an object directly from the storage provider.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the storage provider.
	DeleteObject(ctx context.Context, objectKey string) error

	// ObjectExists reports whether an object has been stored under objectKey.
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
}

// MediaKeyPrefix is the key prefix shared by every object of one media slot.
func MediaKeyPrefix(templateID, kind string) string {
	return fmt.Sprintf("exercises/%s/%s/", templateID, kind)
}

// MediaObjectKey builds a fresh object key for exercise template media,
// e.g. "exercises/<templateID>/video/<uuid>.mp4". Every upload gets a new key
// so presigned URLs handed out earlier never serve the replacement.
func MediaObjectKey(templateID, kind, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return MediaKeyPrefix(templateID, kind) + uuid.NewString() + ext
}

// IsExternalURL reports whether a stored media reference is already a URL
// and must be served as-is rather than presigned.
func IsExternalURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
