// Package storage archives generated RAMS documents.
//
// A Storage backend holds opaque objects by key:
// - LocalStorage: files under a base directory, for development
// - R2Storage: Cloudflare R2 (S3-compatible) buckets, for production
//
// Archive layers the generation document format on top of a backend.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage defines the object operations the archive needs.
//
// All methods are context-aware for timeout and cancellation support.
type Storage interface {
	// Put stores data at key. Returns ErrKeyExists if the key is taken and
	// opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// PutOptions configures how an object is stored.
type PutOptions struct {
	ContentType string // MIME type; defaults to ContentTypeJSON
	MaxSize     int64  // Maximum size in bytes, 0 for no limit
	Overwrite   bool   // Replace an existing object at the same key
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string // Empty for local storage
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory where documents are stored.
	// Example: "./storage" or "/var/lib/rams/archive"
	BasePath string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// Region is required by the AWS SDK. R2 accepts "auto".
	Region string

	// Endpoint overrides the account endpoint, mainly for S3-compatible test servers.
	Endpoint string
}

const (
	// ProviderNone disables the archive.
	ProviderNone = "none"

	// ProviderLocal identifies the local filesystem storage provider.
	ProviderLocal = "local"

	// ProviderR2 identifies the Cloudflare R2 storage provider.
	ProviderR2 = "r2"
)

// ContentTypeJSON is the content type of archived documents.
const ContentTypeJSON = "application/json"

// GenerationKey returns the archive key for a generation.
// Format: generations/{id}.json
func GenerationKey(id uuid.UUID) string {
	return fmt.Sprintf("generations/%s.json", id)
}
