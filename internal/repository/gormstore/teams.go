package gormstore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"zyboard/internal/domain"
)

func (s *Store) InsertTeam(ctx context.Context, t *domain.Team) (int64, error) {
	if err := s.conn(ctx).Create(t).Error; err != nil {
		return 0, wrap("insert team", err)
	}
	return t.ID, nil
}

func (s *Store) FindTeamByID(ctx context.Context, id int64) (*domain.Team, error) {
	var t domain.Team
	if err := s.conn(ctx).First(&t, id).Error; err != nil {
		return nil, wrap("find team", err)
	}
	return &t, nil
}

type teamSummaryRow struct {
	ID          int64
	Name        string
	Description string
	CreatedBy   int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CreatorName *string
	MemberCount int64
}

func (s *Store) FindTeamsByUserID(ctx context.Context, userID int64) ([]domain.TeamSummary, error) {
	var rows []teamSummaryRow
	err := s.conn(ctx).Raw(`
		SELECT t.id, t.name, t.description, t.created_by, t.created_at, t.updated_at,
		       u.username AS creator_name,
		       (SELECT COUNT(*) FROM team_members m WHERE m.team_id = t.id) AS member_count
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		LEFT JOIN users u ON u.id = t.created_by
		WHERE tm.user_id = ?
		ORDER BY t.created_at DESC, t.id DESC`, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, wrap("find teams by user", err)
	}

	out := make([]domain.TeamSummary, 0, len(rows))
	for _, r := range rows {
		summary := domain.TeamSummary{
			Team: domain.Team{
				ID:          r.ID,
				Name:        r.Name,
				Description: r.Description,
				CreatedBy:   r.CreatedBy,
				CreatedAt:   r.CreatedAt,
				UpdatedAt:   r.UpdatedAt,
			},
			MemberCount: r.MemberCount,
		}
		if r.CreatorName != nil {
			summary.CreatorName = *r.CreatorName
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *Store) FindTeamsCreatedBy(ctx context.Context, userID int64) ([]domain.Team, error) {
	teams := make([]domain.Team, 0)
	err := s.conn(ctx).Where("created_by = ?", userID).Order("created_at DESC, id DESC").Find(&teams).Error
	if err != nil {
		return nil, wrap("find teams created by", err)
	}
	return teams, nil
}

func (s *Store) InsertTeamMember(ctx context.Context, m *domain.TeamMember) (int64, error) {
	if m.Role == "" {
		m.Role = domain.TeamRoleMember
	}
	if err := s.conn(ctx).Create(m).Error; err != nil {
		return 0, wrap("insert team member", err)
	}
	return m.ID, nil
}

func (s *Store) FindTeamMember(ctx context.Context, teamID, userID int64) (*domain.TeamMember, error) {
	var m domain.TeamMember
	if err := s.conn(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).First(&m).Error; err != nil {
		return nil, wrap("find team member", err)
	}
	return &m, nil
}

func (s *Store) FindTeamMembersByUserID(ctx context.Context, userID int64) ([]domain.TeamMemberView, error) {
	views := make([]domain.TeamMemberView, 0)
	err := s.conn(ctx).Raw(`
		SELECT u.id AS user_id, u.username, u.email, u.created_at AS user_created_at,
		       tm.role, tm.created_at AS joined_at, t.id AS team_id, t.name AS team_name
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		JOIN teams t ON t.id = tm.team_id
		WHERE tm.team_id IN (SELECT team_id FROM team_members WHERE user_id = ?)
		ORDER BY t.name, tm.created_at, tm.id`, userID).
		Scan(&views).Error
	if err != nil {
		return nil, wrap("find team members by user", err)
	}
	return views, nil
}

func (s *Store) CheckTeamAdmin(ctx context.Context, teamID, userID int64) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&domain.TeamMember{}).
		Where("team_id = ? AND user_id = ? AND role = ?", teamID, userID, domain.TeamRoleAdmin).
		Count(&n).Error
	if err != nil {
		return false, wrap("check team admin", err)
	}
	return n > 0, nil
}

func (s *Store) CheckTeamOwner(ctx context.Context, teamID, userID int64) (bool, error) {
	var n int64
	err := s.conn(ctx).Model(&domain.Team{}).
		Where("id = ? AND created_by = ?", teamID, userID).
		Count(&n).Error
	if err != nil {
		return false, wrap("check team owner", err)
	}
	return n > 0, nil
}

func (s *Store) DeleteTeam(ctx context.Context, teamID int64) (int64, error) {
	var affected int64
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("team_id = ?", teamID).Delete(&domain.TeamMember{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", teamID).Delete(&domain.Team{})
		affected = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, wrap("delete team", err)
	}
	return affected, nil
}

func (s *Store) RemoveTeamMember(ctx context.Context, teamID, userID int64) (int64, error) {
	res := s.conn(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&domain.TeamMember{})
	if res.Error != nil {
		return 0, wrap("remove team member", res.Error)
	}
	return res.RowsAffected, nil
}
