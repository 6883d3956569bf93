// Package objectstore keeps file bytes on an external object store, one
// directory (or key prefix) per user: {base}/user_{id}/{filename}.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"

	"zyboard/internal/config"
)

var (
	ErrNotFound    = errors.New("object not found")
	ErrInvalidName = errors.New("invalid object name")
)

// Error is returned for every object-store failure other than a missing object.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("objectstore: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

type Store interface {
	// Kind names the implementation, e.g. "webdav".
	Kind() string
	// EnsureUserDirectory is idempotent and returns the directory path.
	EnsureUserDirectory(ctx context.Context, userID int64) (string, error)
	// Upload writes the object and returns the stored path.
	Upload(ctx context.Context, userID int64, filename string, r io.Reader, size int64) (string, error)
	// Download returns ErrNotFound when the object is absent.
	Download(ctx context.Context, userID int64, filename string) (io.ReadCloser, error)
	// Delete treats an absent object as success.
	Delete(ctx context.Context, userID int64, filename string) error
	CheckConnection(ctx context.Context) bool
}

// UserDir returns the per-user directory under base.
func UserDir(base string, userID int64) string {
	return path.Join(base, fmt.Sprintf("user_%d", userID))
}

// ObjectPath returns the full path of filename in the user's directory.
func ObjectPath(base string, userID int64, filename string) string {
	return path.Join(UserDir(base, userID), filename)
}

func validName(filename string) error {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) || strings.ContainsRune(filename, 0) {
		return ErrInvalidName
	}
	return nil
}

// Open builds the store selected by OBJECT_STORE.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (Store, error) {
	switch cfg.ObjectStore {
	case config.ObjectStoreWebDAV:
		return NewWebDAV(WebDAVOptions{
			URL:      cfg.WebDAV.URL,
			Username: cfg.WebDAV.Username,
			Password: cfg.WebDAV.Password,
			BaseDir:  cfg.WebDAV.BaseDir,
			Timeout:  cfg.WebDAV.Timeout,
		}, log), nil
	case config.ObjectStoreS3:
		return NewS3(ctx, S3Options{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Endpoint:  cfg.S3.Endpoint,
			BaseDir:   cfg.S3.BaseDir,
		}, log)
	}
	return nil, fmt.Errorf("unsupported object store %q", cfg.ObjectStore)
}
