// Package objectstoretest provides an in-memory objectstore.Store with
// failure injection.
package objectstoretest

import (
	"bytes"
	"context"
	"io"
	"sync"

	"zyboard/internal/objectstore"
)

type Memory struct {
	Base string

	mu      sync.Mutex
	objects map[string][]byte

	// Set to make the next calls of that kind fail.
	UploadErr   error
	DownloadErr error
	DeleteErr   error
}

var _ objectstore.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{Base: "/cloud", objects: make(map[string][]byte)}
}

func (m *Memory) Kind() string { return "memory" }

func (m *Memory) EnsureUserDirectory(_ context.Context, userID int64) (string, error) {
	return objectstore.UserDir(m.Base, userID), nil
}

func (m *Memory) Upload(_ context.Context, userID int64, filename string, r io.Reader, _ int64) (string, error) {
	p := objectstore.ObjectPath(m.Base, userID, filename)
	m.mu.Lock()
	failure := m.UploadErr
	m.mu.Unlock()
	if failure != nil {
		return "", &objectstore.Error{Op: "upload", Path: p, Err: failure}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[p] = data
	m.mu.Unlock()
	return p, nil
}

func (m *Memory) Download(_ context.Context, userID int64, filename string) (io.ReadCloser, error) {
	p := objectstore.ObjectPath(m.Base, userID, filename)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DownloadErr != nil {
		return nil, &objectstore.Error{Op: "download", Path: p, Err: m.DownloadErr}
	}
	data, ok := m.objects[p]
	if !ok {
		return nil, objectstore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *Memory) Delete(_ context.Context, userID int64, filename string) error {
	p := objectstore.ObjectPath(m.Base, userID, filename)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteErr != nil {
		return &objectstore.Error{Op: "delete", Path: p, Err: m.DeleteErr}
	}
	delete(m.objects, p)
	return nil
}

func (m *Memory) CheckConnection(context.Context) bool { return true }

// Has reports whether the user's object exists.
func (m *Memory) Has(userID int64, filename string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[objectstore.ObjectPath(m.Base, userID, filename)]
	return ok
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

func (m *Memory) SetUploadErr(err error) {
	m.mu.Lock()
	m.UploadErr = err
	m.mu.Unlock()
}
