// Package storage persists listing images and avatars in an object store.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"estatehub_backend/pkg/config"
)

// Store is an object store addressed by slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
	// URL resolves a stored key for clients. It never fails: an empty key
	// or a missing object yields "".
	URL(key string) string
}

// New builds the configured backend.
func New(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Backend)
	}
}

// ListingImageKey builds listings/<slug>/<unique><ext>.
func ListingImageKey(listingSlug, filename string) string {
	return path.Join("listings", slug.Make(listingSlug), uniqueName(filename))
}

// AvatarKey builds avatars/<username>/<unique><ext>.
func AvatarKey(username, filename string) string {
	return path.Join("avatars", slug.Make(username), uniqueName(filename))
}

func uniqueName(filename string) string {
	return uuid.New().String() + strings.ToLower(filepath.Ext(filename))
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
