package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Activity is an append-only audit entry.
type Activity struct {
	ID        int64          `json:"id" gorm:"primaryKey"`
	UserID    int64          `json:"user_id" gorm:"not null;index"`
	Action    string         `json:"action" gorm:"size:255;not null"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at" gorm:"index"`
}

// ActivityDay is one bucket of the recent-activity histogram.
type ActivityDay struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}
