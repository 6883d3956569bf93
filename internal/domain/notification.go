package domain

import "time"

type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

func (t NotificationType) Valid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError:
		return true
	}
	return false
}

const (
	CategoryGeneral = "general"
	CategoryUpload  = "upload"
	CategoryDelete  = "delete"
	CategoryTeam    = "team"
	CategoryAccount = "account"
)

type Notification struct {
	ID        int64            `json:"id" gorm:"primaryKey"`
	UserID    int64            `json:"user_id" gorm:"not null;index"`
	Message   string           `json:"message" gorm:"type:text;not null"`
	Type      NotificationType `json:"type" gorm:"size:20;not null;default:info"`
	Category  string           `json:"category" gorm:"size:50;not null;default:general"`
	IsRead    bool             `json:"read" gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time        `json:"created_at" gorm:"index"`
}
