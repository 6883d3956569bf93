package notification

import "errors"

var (
	ErrNotificationNotFound = errors.New("notification not found")
	ErrNoIDs                = errors.New("no notification ids given")
	ErrInvalidOffset        = errors.New("offset must not be negative")
	ErrEmptyMessage         = errors.New("notification message is empty")
)
