package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zyboard/internal/domain"
	"zyboard/internal/metrics"
	"zyboard/internal/objectstore"
	"zyboard/internal/pkg/sideeffect"
	"zyboard/internal/repository"
)

// sniffLen is how much of the content is inspected for its type.
const sniffLen = 3072

type Config struct {
	MaxUploadSize int64
	DefaultQuota  int64
}

type Service struct {
	store      repository.Store
	objects    objectstore.Store
	activities ActivityRecorder
	notifier   Notifier
	metrics    *metrics.Metrics
	cfg        Config
	logger     *slog.Logger
}

func NewService(
	store repository.Store,
	objects objectstore.Store,
	activities ActivityRecorder,
	notifier Notifier,
	m *metrics.Metrics,
	cfg Config,
	log *slog.Logger,
) *Service {
	return &Service{
		store:      store,
		objects:    objects,
		activities: activities,
		notifier:   notifier,
		metrics:    m,
		cfg:        cfg,
		logger:     log.With(slog.String("component", "files")),
	}
}

// UploadInput is one file of a multipart upload.
type UploadInput struct {
	OriginalName string
	Size         int64
	Body         io.Reader
}

type StorageInfo struct {
	TotalSpace     int64   `json:"totalSpace"`
	UsedSpace      int64   `json:"usedSpace"`
	AvailableSpace int64   `json:"availableSpace"`
	UsagePercent   float64 `json:"usagePercent"`
	FileCount      int64   `json:"fileCount"`
}

// Download is an open object. The caller closes Body.
type Download struct {
	File *domain.File
	Body io.ReadCloser
}

// Upload validates the file, reserves quota atomically, writes the bytes and
// records the metadata. Every failure after the reservation releases it.
func (s *Service) Upload(ctx context.Context, userID int64, in UploadInput) (*domain.File, error) {
	if in.Size <= 0 {
		return nil, ErrEmptyFile
	}
	if in.Size > s.cfg.MaxUploadSize {
		return nil, ErrFileTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(in.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	ext, mimeType, err := DetectType(in.OriginalName, head)
	if err != nil {
		return nil, err
	}
	body := rewind(in.Body, head)

	alloc, err := s.EnsureAllocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	reserved, err := s.store.IncrementStorageUsed(ctx, userID, in.Size)
	if err != nil {
		s.metrics.UploadFailed()
		return nil, fmt.Errorf("reserve storage: %w", err)
	}
	if reserved == 0 {
		s.metrics.UploadRejectedByQuota()
		available := s.available(ctx, userID, alloc)
		s.logger.InfoContext(ctx, "upload rejected by quota",
			slog.Int64("user_id", userID),
			slog.Int64("size", in.Size),
			slog.Int64("available", available),
		)
		return nil, &QuotaError{Requested: in.Size, Available: available}
	}

	filename := generateFilename(ext)
	objectPath, err := s.objects.Upload(ctx, userID, filename, body, in.Size)
	if err != nil {
		s.metrics.UploadFailed()
		s.release(ctx, userID, in.Size)
		return nil, fmt.Errorf("%w: %w", ErrStorageWrite, err)
	}

	file := &domain.File{
		UserID:       userID,
		Filename:     filename,
		OriginalName: in.OriginalName,
		Size:         in.Size,
		MimeType:     mimeType,
		Path:         objectPath,
	}
	if _, err := s.store.InsertFile(ctx, file); err != nil {
		s.metrics.UploadFailed()
		s.compensateUpload(ctx, file, err)
		return nil, fmt.Errorf("%w: %w", ErrMetadataWrite, err)
	}

	s.metrics.UploadSucceeded(in.Size)
	s.logger.InfoContext(ctx, "file uploaded",
		slog.Int64("user_id", userID),
		slog.Int64("file_id", file.ID),
		slog.Int64("size", file.Size),
	)

	sideeffect.Run(ctx, s.logger, "upload_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, userID, "Uploaded file: "+file.OriginalName, map[string]any{
			"file_id": file.ID,
			"size":    file.Size,
			"type":    file.MimeType,
		})
	})
	sideeffect.Run(ctx, s.logger, "upload_notification", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, userID,
			fmt.Sprintf("File %q uploaded successfully", file.OriginalName),
			domain.NotificationSuccess, domain.CategoryUpload)
	})
	return file, nil
}

// Delete removes the object, then gives the space back and drops the row
// in one transaction. An absent object is fine; any other storage failure
// keeps the row, and a failed metadata step is returned to the caller.
func (s *Service) Delete(ctx context.Context, userID, fileID int64) (*domain.File, error) {
	file, err := s.store.FindFileByID(ctx, fileID, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	if err := s.objects.Delete(ctx, userID, file.Filename); err != nil {
		s.metrics.DeleteDone(metrics.ResultFailed)
		return nil, fmt.Errorf("%w: %w", ErrStorageDelete, err)
	}

	var released bool
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.DecrementStorageUsed(ctx, userID, file.Size); err != nil {
			return err
		}
		released = true
		n, err := tx.DeleteFile(ctx, file.ID, userID)
		if err != nil {
			return err
		}
		if n == 0 {
			// Lost to a concurrent delete, which already released the space.
			return ErrFileNotFound
		}
		return nil
	})
	if err != nil {
		if released && repository.IsNoRollback(err) {
			s.restore(ctx, userID, file.Size)
		}
		if errors.Is(err, ErrFileNotFound) {
			return nil, ErrFileNotFound
		}
		s.metrics.DeleteDone(metrics.ResultFailed)
		s.logger.ErrorContext(ctx, "delete file metadata failed",
			slog.Int64("user_id", userID),
			slog.Int64("file_id", file.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %w", ErrMetadataDelete, err)
	}
	s.metrics.DeleteDone(metrics.ResultSuccess)

	sideeffect.Run(ctx, s.logger, "delete_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, userID, "Deleted file: "+file.OriginalName, map[string]any{
			"file_id": file.ID,
			"size":    file.Size,
		})
	})
	sideeffect.Run(ctx, s.logger, "delete_notification", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, userID,
			fmt.Sprintf("File %q deleted", file.OriginalName),
			domain.NotificationInfo, domain.CategoryDelete)
	})
	return file, nil
}

func (s *Service) Download(ctx context.Context, userID int64, filename string) (*Download, error) {
	file, err := s.store.FindFileByFilename(ctx, filename, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}

	body, err := s.objects.Download(ctx, userID, file.Filename)
	if err != nil {
		if errors.Is(err, objectstore.ErrNotFound) {
			s.logger.WarnContext(ctx, "file row without object",
				slog.Int64("user_id", userID),
				slog.Int64("file_id", file.ID),
				slog.String("path", file.Path),
			)
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	sideeffect.Run(ctx, s.logger, "download_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, userID, "Downloaded file: "+file.OriginalName, map[string]any{
			"file_id": file.ID,
		})
	})
	return &Download{File: file, Body: body}, nil
}

// List returns the user's files, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.File, error) {
	return s.store.FindFilesByUserID(ctx, userID)
}

func (s *Service) TypeStats(ctx context.Context, userID int64) ([]domain.FileTypeStat, error) {
	return s.store.GetFileTypeStats(ctx, userID)
}

func (s *Service) StorageInfo(ctx context.Context, userID int64) (*StorageInfo, error) {
	alloc, err := s.EnsureAllocation(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, err := s.store.FindFilesByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &StorageInfo{
		TotalSpace:     alloc.TotalSpace,
		UsedSpace:      alloc.UsedSpace,
		AvailableSpace: alloc.Available(),
		UsagePercent:   alloc.UsagePercent(),
		FileCount:      int64(len(list)),
	}, nil
}

// EnsureAllocation returns the user's allocation, creating the default one
// on first use. A concurrent creator winning the insert is not an error.
func (s *Service) EnsureAllocation(ctx context.Context, userID int64) (*domain.StorageAllocation, error) {
	alloc, err := s.store.FindStorageByUserID(ctx, userID)
	if err == nil {
		return alloc, nil
	}
	if !repository.IsNotFound(err) {
		return nil, err
	}

	if _, err := s.store.InsertStorage(ctx, userID, s.cfg.DefaultQuota, 0); err != nil && !repository.IsDuplicate(err) {
		return nil, err
	}
	return s.store.FindStorageByUserID(ctx, userID)
}

func (s *Service) available(ctx context.Context, userID int64, fallback *domain.StorageAllocation) int64 {
	if alloc, err := s.store.FindStorageByUserID(ctx, userID); err == nil {
		return alloc.Available()
	}
	return fallback.Available()
}

func (s *Service) release(ctx context.Context, userID, size int64) {
	if _, err := s.store.DecrementStorageUsed(ctx, userID, size); err != nil {
		s.logger.ErrorContext(ctx, "release storage reservation failed",
			slog.Int64("user_id", userID),
			slog.Int64("size", size),
			slog.String("error", err.Error()),
		)
	}
}

// restore takes back space released by a delete whose row survived.
func (s *Service) restore(ctx context.Context, userID, size int64) {
	if n, err := s.store.IncrementStorageUsed(ctx, userID, size); err != nil || n == 0 {
		attrs := []any{slog.Int64("user_id", userID), slog.Int64("size", size)}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		s.logger.ErrorContext(ctx, "restore storage after failed delete", attrs...)
	}
}

// compensateUpload undoes the object write and the reservation after the
// metadata insert failed. What cannot be undone is logged for manual
// reconciliation.
func (s *Service) compensateUpload(ctx context.Context, file *domain.File, cause error) {
	attrs := []any{
		slog.Int64("user_id", file.UserID),
		slog.String("filename", file.Filename),
		slog.String("path", file.Path),
		slog.Int64("size", file.Size),
		slog.String("cause", cause.Error()),
	}
	if err := s.objects.Delete(ctx, file.UserID, file.Filename); err != nil {
		s.logger.ErrorContext(ctx, "upload compensation failed",
			append(attrs, slog.String("step", "delete_object"), slog.String("error", err.Error()))...)
	}
	if _, err := s.store.DecrementStorageUsed(ctx, file.UserID, file.Size); err != nil {
		s.logger.ErrorContext(ctx, "upload compensation failed",
			append(attrs, slog.String("step", "release_quota"), slog.String("error", err.Error()))...)
	}
}

// generateFilename returns "<unix-millis>-<uuid><ext>".
func generateFilename(ext string) string {
	return fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), ext)
}

// rewind returns a reader positioned at the start of the content. Seekable
// bodies (multipart files) are seeked back so the object store can stream
// them directly.
func rewind(r io.Reader, head []byte) io.Reader {
	if seeker, ok := r.(io.ReadSeeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err == nil {
			return seeker
		}
	}
	return io.MultiReader(bytes.NewReader(head), r)
}
