package storage

import (
	"context"
	"fmt"
	"io"

	"vot-service/internal/config"
)

// BlobStore keeps uploaded photo files. Store returns the public URL of the
// stored object.
type BlobStore interface {
	Store(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

func New(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch cfg.Mode {
	case config.StorageModeLocal:
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL)
	case config.StorageModeGCS:
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.PublicBaseURL, cfg.GCSCredentialsFile)
	default:
		return nil, fmt.Errorf("unsupported storage mode %q", cfg.Mode)
	}
}

// Close releases the store's client when it holds one.
func Close(store BlobStore) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
