package reststore

import (
	"context"
	"net/url"
	"sort"
	"time"

	"zyboard/internal/domain"
)

// PostgREST cannot express the relational team reads without foreign-key
// embedding, so joins are assembled here from id lists.

func (s *Store) InsertTeam(ctx context.Context, t *domain.Team) (int64, error) {
	now := time.Now()
	row := teamRow{
		Name:        t.Name,
		Description: t.Description,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   stamp(t.CreatedAt),
		UpdatedAt:   now,
	}
	var out []teamRow
	if err := s.c.insertRow(ctx, tableTeams, row, &out); err != nil {
		return 0, wrap("insert team", err)
	}
	created, err := one("insert team", out)
	if err != nil {
		return 0, err
	}
	t.ID = created.ID
	t.CreatedAt = created.CreatedAt
	t.UpdatedAt = created.UpdatedAt
	return t.ID, nil
}

func (s *Store) FindTeamByID(ctx context.Context, id int64) (*domain.Team, error) {
	q := byID(id)
	q.Set("limit", "1")
	var rows []teamRow
	if err := s.c.selectRows(ctx, tableTeams, q, &rows); err != nil {
		return nil, wrap("find team", err)
	}
	row, err := one("find team", rows)
	if err != nil {
		return nil, err
	}
	t := row.toDomain()
	return &t, nil
}

func (s *Store) FindTeamsByUserID(ctx context.Context, userID int64) ([]domain.TeamSummary, error) {
	const op = "find teams by user"
	teamIDs, err := s.teamIDsOf(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	out := make([]domain.TeamSummary, 0, len(teamIDs))
	if len(teamIDs) == 0 {
		return out, nil
	}

	teams, err := s.teamsByIDs(ctx, teamIDs)
	if err != nil {
		return nil, wrap(op, err)
	}

	var members []memberRow
	q := url.Values{"team_id": {in(teamIDs)}, "select": {"team_id"}}
	if err := s.c.selectRows(ctx, tableTeamMembers, q, &members); err != nil {
		return nil, wrap(op, err)
	}
	counts := make(map[int64]int64, len(teamIDs))
	for _, m := range members {
		counts[m.TeamID]++
	}

	creatorIDs := make([]int64, 0, len(teams))
	for _, t := range teams {
		creatorIDs = append(creatorIDs, t.CreatedBy)
	}
	users, err := s.usersByIDs(ctx, creatorIDs)
	if err != nil {
		return nil, wrap(op, err)
	}

	for _, t := range teams {
		summary := domain.TeamSummary{Team: t.toDomain(), MemberCount: counts[t.ID]}
		if u, ok := users[t.CreatedBy]; ok {
			summary.CreatorName = u.Username
		}
		out = append(out, summary)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) FindTeamsCreatedBy(ctx context.Context, userID int64) ([]domain.Team, error) {
	q := url.Values{"created_by": {eq(userID)}, "order": {"created_at.desc,id.desc"}}
	var rows []teamRow
	if err := s.c.selectRows(ctx, tableTeams, q, &rows); err != nil {
		return nil, wrap("find teams created by", err)
	}
	out := make([]domain.Team, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) InsertTeamMember(ctx context.Context, m *domain.TeamMember) (int64, error) {
	if m.Role == "" {
		m.Role = domain.TeamRoleMember
	}
	row := memberRow{TeamID: m.TeamID, UserID: m.UserID, Role: m.Role, CreatedAt: stamp(m.CreatedAt)}
	var out []memberRow
	if err := s.c.insertRow(ctx, tableTeamMembers, row, &out); err != nil {
		return 0, wrap("insert team member", err)
	}
	created, err := one("insert team member", out)
	if err != nil {
		return 0, err
	}
	m.ID = created.ID
	m.CreatedAt = created.CreatedAt
	return m.ID, nil
}

func (s *Store) FindTeamMember(ctx context.Context, teamID, userID int64) (*domain.TeamMember, error) {
	q := url.Values{"team_id": {eq(teamID)}, "user_id": {eq(userID)}, "limit": {"1"}}
	var rows []memberRow
	if err := s.c.selectRows(ctx, tableTeamMembers, q, &rows); err != nil {
		return nil, wrap("find team member", err)
	}
	row, err := one("find team member", rows)
	if err != nil {
		return nil, err
	}
	m := row.toDomain()
	return &m, nil
}

func (s *Store) FindTeamMembersByUserID(ctx context.Context, userID int64) ([]domain.TeamMemberView, error) {
	const op = "find team members by user"
	teamIDs, err := s.teamIDsOf(ctx, userID)
	if err != nil {
		return nil, wrap(op, err)
	}
	views := make([]domain.TeamMemberView, 0)
	if len(teamIDs) == 0 {
		return views, nil
	}

	var members []memberRow
	q := url.Values{"team_id": {in(teamIDs)}, "order": {"created_at.asc,id.asc"}}
	if err := s.c.selectRows(ctx, tableTeamMembers, q, &members); err != nil {
		return nil, wrap(op, err)
	}
	teams, err := s.teamsByIDs(ctx, teamIDs)
	if err != nil {
		return nil, wrap(op, err)
	}
	names := make(map[int64]string, len(teams))
	for _, t := range teams {
		names[t.ID] = t.Name
	}

	memberIDs := make([]int64, 0, len(members))
	for _, m := range members {
		memberIDs = append(memberIDs, m.UserID)
	}
	users, err := s.usersByIDs(ctx, memberIDs)
	if err != nil {
		return nil, wrap(op, err)
	}

	for _, m := range members {
		u, ok := users[m.UserID]
		if !ok {
			continue
		}
		views = append(views, domain.TeamMemberView{
			UserID:        u.ID,
			Username:      u.Username,
			Email:         u.Email,
			UserCreatedAt: u.CreatedAt,
			Role:          m.Role,
			JoinedAt:      m.CreatedAt,
			TeamID:        m.TeamID,
			TeamName:      names[m.TeamID],
		})
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].TeamName < views[j].TeamName })
	return views, nil
}

func (s *Store) CheckTeamAdmin(ctx context.Context, teamID, userID int64) (bool, error) {
	q := url.Values{
		"team_id": {eq(teamID)},
		"user_id": {eq(userID)},
		"role":    {eq(domain.TeamRoleAdmin)},
	}
	n, err := s.c.count(ctx, tableTeamMembers, q)
	if err != nil {
		return false, wrap("check team admin", err)
	}
	return n > 0, nil
}

func (s *Store) CheckTeamOwner(ctx context.Context, teamID, userID int64) (bool, error) {
	q := url.Values{"id": {eq(teamID)}, "created_by": {eq(userID)}}
	n, err := s.c.count(ctx, tableTeams, q)
	if err != nil {
		return false, wrap("check team owner", err)
	}
	return n > 0, nil
}

// DeleteTeam removes memberships first. If the second call fails the team
// is left without members; the caller sees the error.
func (s *Store) DeleteTeam(ctx context.Context, teamID int64) (int64, error) {
	if _, err := s.c.deleteRows(ctx, tableTeamMembers, url.Values{"team_id": {eq(teamID)}}); err != nil {
		return 0, wrap("delete team", err)
	}
	n, err := s.c.deleteRows(ctx, tableTeams, byID(teamID))
	if err != nil {
		return 0, wrap("delete team", err)
	}
	return n, nil
}

func (s *Store) RemoveTeamMember(ctx context.Context, teamID, userID int64) (int64, error) {
	q := url.Values{"team_id": {eq(teamID)}, "user_id": {eq(userID)}}
	n, err := s.c.deleteRows(ctx, tableTeamMembers, q)
	if err != nil {
		return 0, wrap("remove team member", err)
	}
	return n, nil
}

func (s *Store) teamIDsOf(ctx context.Context, userID int64) ([]int64, error) {
	var rows []memberRow
	q := url.Values{"user_id": {eq(userID)}, "select": {"team_id"}}
	if err := s.c.selectRows(ctx, tableTeamMembers, q, &rows); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.TeamID)
	}
	return ids, nil
}

func (s *Store) teamsByIDs(ctx context.Context, ids []int64) ([]teamRow, error) {
	var rows []teamRow
	if err := s.c.selectRows(ctx, tableTeams, url.Values{"id": {in(ids)}}, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) usersByIDs(ctx context.Context, ids []int64) (map[int64]userRow, error) {
	out := make(map[int64]userRow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []userRow
	q := url.Values{"id": {in(uniq(ids))}, "select": {"id,username,email,created_at"}}
	if err := s.c.selectRows(ctx, tableUsers, q, &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

func uniq(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
