package domain

import "time"

type File struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	UserID       int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_files_user_filename"`
	Filename     string    `json:"filename" gorm:"size:255;not null;uniqueIndex:idx_files_user_filename"`
	OriginalName string    `json:"original_name" gorm:"size:255;not null"`
	Size         int64     `json:"size" gorm:"not null"`
	MimeType     string    `json:"type" gorm:"column:type;size:100"`
	Path         string    `json:"path" gorm:"size:1024;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time `json:"updated_at"`
}
