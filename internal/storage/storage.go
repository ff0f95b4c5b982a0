package storage

import (
	"context"
	"fmt"

	"github.com/jon4hz/accountd/internal/config"
)

// Storage persists uploaded files and resolves their public URLs.
type Storage interface {
	// Save writes data under key, replacing any existing object.
	Save(ctx context.Context, key string, data []byte, contentType string) error
	// Delete removes the object stored under key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// URL returns the URL clients can fetch key from.
	URL(key string) string
}

// New creates the storage backend selected in the configuration.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	if cfg == nil || cfg.Storage == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	switch cfg.Storage.Type {
	case config.StorageTypeLocal:
		return NewLocal(cfg.Storage.Local.Dir, cfg.ServerURL+cfg.Storage.Local.URLPrefix)
	case config.StorageTypeS3:
		return NewS3(ctx, cfg.Storage.S3)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Storage.Type)
	}
}
