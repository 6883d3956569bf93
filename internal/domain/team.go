package domain

import "time"

type TeamRole string

const (
	TeamRoleAdmin  TeamRole = "admin"
	TeamRoleMember TeamRole = "member"
)

func (r TeamRole) Valid() bool {
	return r == TeamRoleAdmin || r == TeamRoleMember
}

type Team struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"size:100;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedBy   int64     `json:"created_by" gorm:"not null;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TeamMember struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	TeamID    int64     `json:"team_id" gorm:"not null;uniqueIndex:idx_team_members_team_user"`
	UserID    int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_team_members_team_user;index"`
	Role      TeamRole  `json:"role" gorm:"size:20;not null;default:member"`
	CreatedAt time.Time `json:"joined_at"`
}

// TeamSummary is a team as listed for one of its members.
type TeamSummary struct {
	Team
	MemberCount int64  `json:"member_count"`
	CreatorName string `json:"creator_name"`
}

// TeamMemberView joins a membership with the member's user row and team name.
type TeamMemberView struct {
	UserID        int64     `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	UserCreatedAt time.Time `json:"created_at"`
	Role          TeamRole  `json:"role"`
	JoinedAt      time.Time `json:"joined_at"`
	TeamID        int64     `json:"team_id"`
	TeamName      string    `json:"team_name"`
}
