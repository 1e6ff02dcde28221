package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound     = errors.New("storage: object not found")
	ErrInvalidKey   = errors.New("storage: invalid key")
	ErrAccessDenied = errors.New("storage: access denied")
)

// UploadResult identifies a stored artifact and where guests can fetch it.
type UploadResult struct {
	AssetID string
	URL     string
}

// Storage is the durable object store the executors move bytes through.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, contentType string, size int64) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	// DownloadToFile copies an object to a local path and returns the byte count.
	DownloadToFile(ctx context.Context, key, localPath string) (int64, error)
	// UploadFile stores a local file and returns its asset ID and public URL.
	UploadFile(ctx context.Context, localPath, key, contentType string) (*UploadResult, error)
	// DeletePrefix removes every object under a prefix, best effort.
	DeletePrefix(ctx context.Context, prefix string) error

	HealthCheck(ctx context.Context) error
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string

	// MediaBaseURL, when set, is the public prefix for uploaded artifacts.
	// Otherwise UploadFile hands out presigned URLs.
	MediaBaseURL string
}
