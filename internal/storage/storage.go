// Package storage persists uploaded media on local disk or in S3-compatible
// object storage.
package storage

import (
	"context"
	"errors"
	"io"
	"strings"

	"vividplate/internal/config"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("object not found")

// Store is a flat key/value blob store addressed by slash-separated keys.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	URL(key string) string
	Backend() string
}

// New builds the store selected by STORAGE_BACKEND.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg.StorageBackend == "s3" {
		return NewS3Store(ctx, S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.S3Region,
			Endpoint:      cfg.S3Endpoint,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.PublicBaseURL,
		})
	}
	return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL)
}

// cleanKey rejects absolute and parent-relative keys.
func cleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("empty storage key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." || part == "" {
			return "", errors.New("invalid storage key")
		}
	}
	return key, nil
}

func mediaURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/media/" + key
}
