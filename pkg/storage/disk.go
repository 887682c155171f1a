// Package storage stores order preview images on a local directory or an
// S3-compatible bucket (AWS S3, MinIO, R2, Spaces).
//
//	disk, _ := storage.New(ctx, cfg.Storage)
//	_ = disk.Put(ctx, "previews/acc/ord.png", data, "image/png")
//	url := disk.URL("previews/acc/ord.png")
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/shashiranjanraj/fashioncraft/config"
)

// ErrNotFound is returned by Get for a missing object.
var ErrNotFound = errors.New("storage: object not found")

// Disk is the driver interface.
type Disk interface {
	// Put writes data to key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string) error

	// Get returns the object at key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// URL returns the public URL for key.
	URL(key string) string
}

// New builds the disk named by cfg.Disk.
func New(ctx context.Context, cfg config.Storage) (Disk, error) {
	switch cfg.Disk {
	case "", "local":
		return NewLocal(cfg.LocalRoot, cfg.URL)
	case "s3":
		return NewS3(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Key:      cfg.S3Key,
			Secret:   cfg.S3Secret,
			Endpoint: cfg.S3Endpoint,
			URL:      cfg.S3URL,
		})
	default:
		return nil, fmt.Errorf("storage: unsupported STORAGE_DISK %q (supported: local, s3)", cfg.Disk)
	}
}

// cleanKey normalises key to a relative slash path and rejects anything
// that would escape the disk root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return k, nil
}
