// Package storage persists processed image files.
package storage

import (
	"context"
	"fmt"

	"showcase/internal/config"
)

// ImageStore writes and removes image objects addressed by key.
// Keys are slash separated relative paths such as "projects/<uuid>.jpg".
type ImageStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, keys ...string) error
	URL(key string) string
}

// New returns the ImageStore selected by cfg.ImageStorage.
func New(cfg *config.Config) (ImageStore, error) {
	switch cfg.ImageStorage {
	case "", config.StorageLocal:
		return NewLocalStore(cfg.ImageUploadDir, LocalMediaPrefix), nil
	case config.StorageSupabase:
		return NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.SupabaseBucket), nil
	default:
		return nil, fmt.Errorf("unknown image storage backend %q", cfg.ImageStorage)
	}
}
