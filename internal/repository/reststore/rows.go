package reststore

import (
	"time"

	"gorm.io/datatypes"

	"zyboard/internal/domain"
)

// Row types mirror the table columns. They differ from the domain JSON
// shape where the API renames a column (password, is_read, joined_at).

const (
	tableUsers         = "users"
	tableStorage       = "storage_allocation"
	tableFiles         = "files"
	tableActivities    = "activities"
	tableNotifications = "notifications"
	tableTeams         = "teams"
	tableTeamMembers   = "team_members"
)

type userRow struct {
	ID        int64     `json:"id,omitempty"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r userRow) toDomain() domain.User {
	return domain.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type storageRow struct {
	ID         int64     `json:"id,omitempty"`
	UserID     int64     `json:"user_id"`
	TotalSpace int64     `json:"total_space"`
	UsedSpace  int64     `json:"used_space"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (r storageRow) toDomain() domain.StorageAllocation {
	return domain.StorageAllocation{
		ID:         r.ID,
		UserID:     r.UserID,
		TotalSpace: r.TotalSpace,
		UsedSpace:  r.UsedSpace,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type fileRow struct {
	ID           int64     `json:"id,omitempty"`
	UserID       int64     `json:"user_id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	Type         string    `json:"type"`
	Path         string    `json:"path"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (r fileRow) toDomain() domain.File {
	return domain.File{
		ID:           r.ID,
		UserID:       r.UserID,
		Filename:     r.Filename,
		OriginalName: r.OriginalName,
		Size:         r.Size,
		MimeType:     r.Type,
		Path:         r.Path,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type activityRow struct {
	ID        int64          `json:"id,omitempty"`
	UserID    int64          `json:"user_id"`
	Action    string         `json:"action"`
	Metadata  datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func (r activityRow) toDomain() domain.Activity {
	a := domain.Activity{
		ID:        r.ID,
		UserID:    r.UserID,
		Action:    r.Action,
		Metadata:  r.Metadata,
		CreatedAt: r.CreatedAt,
	}
	if string(a.Metadata) == "null" {
		a.Metadata = nil
	}
	return a
}

type notificationRow struct {
	ID        int64                   `json:"id,omitempty"`
	UserID    int64                   `json:"user_id"`
	Message   string                  `json:"message"`
	Type      domain.NotificationType `json:"type"`
	Category  string                  `json:"category"`
	IsRead    bool                    `json:"is_read"`
	CreatedAt time.Time               `json:"created_at"`
}

func (r notificationRow) toDomain() domain.Notification {
	return domain.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Message:   r.Message,
		Type:      r.Type,
		Category:  r.Category,
		IsRead:    r.IsRead,
		CreatedAt: r.CreatedAt,
	}
}

type teamRow struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r teamRow) toDomain() domain.Team {
	return domain.Team{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type memberRow struct {
	ID        int64           `json:"id,omitempty"`
	TeamID    int64           `json:"team_id"`
	UserID    int64           `json:"user_id"`
	Role      domain.TeamRole `json:"role"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r memberRow) toDomain() domain.TeamMember {
	return domain.TeamMember{
		ID:        r.ID,
		TeamID:    r.TeamID,
		UserID:    r.UserID,
		Role:      r.Role,
		CreatedAt: r.CreatedAt,
	}
}

// stamp fills a zero creation time the way the database default would.
func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
