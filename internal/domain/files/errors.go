package files

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyFile          = errors.New("file is empty")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrFileTypeNotAllowed = errors.New("file type is not allowed")
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrFileNotFound       = errors.New("file not found")
	ErrStorageWrite       = errors.New("failed to write file to storage")
	ErrStorageRead        = errors.New("failed to read file from storage")
	ErrStorageDelete      = errors.New("failed to delete file from storage")
	ErrMetadataWrite      = errors.New("failed to save file metadata")
	ErrMetadataDelete     = errors.New("failed to remove file metadata")
)

// QuotaError reports a rejected reservation. It matches ErrQuotaExceeded.
type QuotaError struct {
	Requested int64
	Available int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%v: requested %d bytes, %d available", ErrQuotaExceeded, e.Requested, e.Available)
}

func (e *QuotaError) Is(target error) bool { return target == ErrQuotaExceeded }
