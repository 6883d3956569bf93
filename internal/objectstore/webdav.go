package objectstore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/studio-b12/gowebdav"
)

type WebDAVOptions struct {
	URL      string
	Username string
	Password string
	BaseDir  string
	Timeout  time.Duration
}

// WebDAV stores objects on a WebDAV server. gowebdav takes no context, so
// ctx is only checked before each call; the client timeout bounds the rest.
type WebDAV struct {
	client *gowebdav.Client
	base   string
	logger *slog.Logger
}

var _ Store = (*WebDAV)(nil)

func NewWebDAV(opts WebDAVOptions, log *slog.Logger) *WebDAV {
	c := gowebdav.NewClient(opts.URL, opts.Username, opts.Password)
	if opts.Timeout > 0 {
		c.SetTimeout(opts.Timeout)
	}
	base := opts.BaseDir
	if base == "" {
		base = "/"
	}
	return &WebDAV{
		client: c,
		base:   path.Join("/", base),
		logger: log.With(slog.String("component", "webdav")),
	}
}

func (w *WebDAV) Kind() string { return "webdav" }

func (w *WebDAV) EnsureUserDirectory(ctx context.Context, userID int64) (string, error) {
	dir := UserDir(w.base, userID)
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: "mkdir", Path: dir, Err: err}
	}
	if info, err := w.client.Stat(dir); err == nil && info.IsDir() {
		return dir, nil
	}
	if err := w.client.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Op: "mkdir", Path: dir, Err: err}
	}
	w.logger.DebugContext(ctx, "created user directory", slog.String("path", dir))
	return dir, nil
}

func (w *WebDAV) Upload(ctx context.Context, userID int64, filename string, r io.Reader, size int64) (string, error) {
	p := ObjectPath(w.base, userID, filename)
	if err := validName(filename); err != nil {
		return "", &Error{Op: "upload", Path: p, Err: err}
	}
	if _, err := w.EnsureUserDirectory(ctx, userID); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", &Error{Op: "upload", Path: p, Err: err}
	}
	if err := w.client.WriteStream(p, r, 0o644); err != nil {
		return "", &Error{Op: "upload", Path: p, Err: err}
	}
	w.logger.DebugContext(ctx, "uploaded object", slog.String("path", p), slog.Int64("size", size))
	return p, nil
}

func (w *WebDAV) Download(ctx context.Context, userID int64, filename string) (io.ReadCloser, error) {
	p := ObjectPath(w.base, userID, filename)
	if err := validName(filename); err != nil {
		return nil, &Error{Op: "download", Path: p, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Op: "download", Path: p, Err: err}
	}
	rc, err := w.client.ReadStream(p)
	if err != nil {
		if gowebdav.IsErrNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, &Error{Op: "download", Path: p, Err: err}
	}
	return rc, nil
}

func (w *WebDAV) Delete(ctx context.Context, userID int64, filename string) error {
	p := ObjectPath(w.base, userID, filename)
	if err := validName(filename); err != nil {
		return &Error{Op: "delete", Path: p, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &Error{Op: "delete", Path: p, Err: err}
	}
	if _, err := w.client.Stat(p); err != nil {
		if gowebdav.IsErrNotFound(err) || os.IsNotExist(err) {
			w.logger.InfoContext(ctx, "object already absent", slog.String("path", p))
			return nil
		}
		return &Error{Op: "delete", Path: p, Err: err}
	}
	if err := w.client.Remove(p); err != nil {
		return &Error{Op: "delete", Path: p, Err: err}
	}
	return nil
}

// CheckConnection probes the server root.
func (w *WebDAV) CheckConnection(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	if err := w.client.Connect(); err != nil {
		w.logger.WarnContext(ctx, "webdav connection check failed", slog.String("error", err.Error()))
		return false
	}
	return true
}
