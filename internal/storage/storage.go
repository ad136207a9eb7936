package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrObjectNotFound - объекта нет в хранилище
var ErrObjectNotFound = errors.New("storage object not found")

// Object - открытый для чтения объект. Body закрывает вызывающий.
type Object struct {
	Body               io.ReadCloser
	ContentType        string
	ContentDisposition string
	Size               int64
}

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file at the given key, streaming from reader
	Save(ctx context.Context, key string, reader io.Reader, contentType string) error

	// Open returns the stored object with its metadata
	Open(ctx context.Context, key string) (*Object, error)

	// Delete removes a file at the given key
	Delete(ctx context.Context, key string) error

	// GetURL returns a public URL for the file
	GetURL(ctx context.Context, key string) (string, error)
}

// Config holds storage configuration
type Config struct {
	Type      string // local, s3
	BasePath  string // For local storage
	BaseURL   string // Public URL base
	Bucket    string // For S3/R2
	Region    string // For S3
	AccessKey string // For S3/R2
	SecretKey string // For S3/R2
	Endpoint  string // For R2, MinIO or custom S3
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg)
	case "s3", "cloudflare_r2":
		return NewS3Storage(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// CleanKey нормализует ключ и отбрасывает попытки выйти за пределы хранилища
func CleanKey(key string) (string, error) {
	key = strings.TrimLeft(strings.ReplaceAll(key, "\\", "/"), "/")
	if key == "" {
		return "", ErrObjectNotFound
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", ErrObjectNotFound
		}
	}
	return key, nil
}
