// Package storage persists uploaded files on local disk or Cloudinary.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/stemsi/learnhub-backend/internal/config"
)

// Object describes a stored file.
type Object struct {
	Key         string
	URL         string
	ContentType string
	Size        int64
}

// Storage puts and deletes objects by key.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Object, error)
	Delete(ctx context.Context, key string) error
}

// ErrInvalidKey is returned for keys that try to escape the storage root.
var ErrInvalidKey = errors.New("storage: invalid key")

// New returns the Storage selected by STORAGE_DRIVER.
func New(cfg *config.Config) (Storage, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "local", "":
		return NewLocalStorage(cfg.UploadDir, "/uploads"), nil
	case "cloudinary":
		return NewCloudinaryStorage(cfg.CloudinaryURL, cfg.CloudinaryFolder)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", cfg.StorageDriver)
	}
}

// NewKey builds a unique object key under folder, keeping ext.
func NewKey(folder, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return path.Join(folder, uuid.New().String()+strings.ToLower(ext))
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return cleaned, nil
}
