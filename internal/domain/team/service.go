package team

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"zyboard/internal/domain"
	"zyboard/internal/pkg/sideeffect"
	"zyboard/internal/repository"
)

type Service struct {
	store      repository.Store
	activities ActivityRecorder
	notifier   Notifier
	logger     *slog.Logger
}

func NewService(store repository.Store, activities ActivityRecorder, notifier Notifier, log *slog.Logger) *Service {
	return &Service{
		store:      store,
		activities: activities,
		notifier:   notifier,
		logger:     log.With(slog.String("component", "team")),
	}
}

// Create inserts the team and makes the creator its first admin.
func (s *Service) Create(ctx context.Context, userID int64, name, description string) (*domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	t := &domain.Team{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   userID,
	}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.InsertTeam(ctx, t); err != nil {
			return err
		}
		_, err := tx.InsertTeamMember(ctx, &domain.TeamMember{
			TeamID: t.ID,
			UserID: userID,
			Role:   domain.TeamRoleAdmin,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}

	s.logger.InfoContext(ctx, "team created", slog.Int64("team_id", t.ID), slog.Int64("user_id", userID))
	sideeffect.Run(ctx, s.logger, "team_create_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, userID, "Created team: "+t.Name, map[string]any{"team_id": t.ID})
	})
	return t, nil
}

// List returns the teams the user belongs to. Teams the user created but has
// no membership in (a failed admin insert on a backend without rollback) get
// the admin membership restored first.
func (s *Service) List(ctx context.Context, userID int64) ([]domain.TeamSummary, error) {
	s.repairCreatorMemberships(ctx, userID)

	teams, err := s.store.FindTeamsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *Service) repairCreatorMemberships(ctx context.Context, userID int64) {
	created, err := s.store.FindTeamsCreatedBy(ctx, userID)
	if err != nil {
		s.logger.WarnContext(ctx, "list created teams failed", slog.String("error", err.Error()))
		return
	}
	for _, t := range created {
		_, err := s.store.FindTeamMember(ctx, t.ID, userID)
		if err == nil {
			continue
		}
		if !repository.IsNotFound(err) {
			s.logger.WarnContext(ctx, "check creator membership failed",
				slog.Int64("team_id", t.ID), slog.String("error", err.Error()))
			continue
		}
		_, err = s.store.InsertTeamMember(ctx, &domain.TeamMember{
			TeamID: t.ID,
			UserID: userID,
			Role:   domain.TeamRoleAdmin,
		})
		if err != nil && !repository.IsDuplicate(err) {
			s.logger.WarnContext(ctx, "restore creator membership failed",
				slog.Int64("team_id", t.ID), slog.String("error", err.Error()))
			continue
		}
		s.logger.InfoContext(ctx, "restored creator membership", slog.Int64("team_id", t.ID), slog.Int64("user_id", userID))
	}
}

// Members lists the members of every team the user belongs to.
func (s *Service) Members(ctx context.Context, userID int64) ([]domain.TeamMemberView, error) {
	return s.store.FindTeamMembersByUserID(ctx, userID)
}

func (s *Service) Invite(ctx context.Context, teamID, actorID int64, email, role string) (*domain.TeamMember, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	r := domain.TeamRole(strings.TrimSpace(role))
	if r == "" {
		r = domain.TeamRoleMember
	}
	if !r.Valid() {
		return nil, ErrInvalidRole
	}

	t, err := s.findTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.requireManager(ctx, t, actorID); err != nil {
		return nil, err
	}

	invitee, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if _, err := s.store.FindTeamMember(ctx, teamID, invitee.ID); err == nil {
		return nil, ErrAlreadyMember
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	m := &domain.TeamMember{TeamID: teamID, UserID: invitee.ID, Role: r}
	if _, err := s.store.InsertTeamMember(ctx, m); err != nil {
		if repository.IsDuplicate(err) {
			return nil, ErrAlreadyMember
		}
		return nil, err
	}

	sideeffect.Run(ctx, s.logger, "team_invite_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, actorID, fmt.Sprintf("Invited %s to team: %s", invitee.Username, t.Name),
			map[string]any{"team_id": t.ID, "user_id": invitee.ID, "role": string(r)})
	})
	sideeffect.Run(ctx, s.logger, "team_invite_notification", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, invitee.ID, fmt.Sprintf("You were added to team %s", t.Name),
			domain.NotificationInfo, domain.CategoryTeam)
	})
	return m, nil
}

// Delete is reserved for the team owner.
func (s *Service) Delete(ctx context.Context, teamID, actorID int64) error {
	t, err := s.findTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if t.CreatedBy != actorID {
		return ErrForbidden
	}

	var affected int64
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		var err error
		affected, err = tx.DeleteTeam(ctx, teamID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if affected == 0 {
		return ErrTeamNotFound
	}

	sideeffect.Run(ctx, s.logger, "team_delete_activity", func(ctx context.Context) error {
		return s.activities.Record(ctx, actorID, "Deleted team: "+t.Name, map[string]any{"team_id": t.ID})
	})
	return nil
}

func (s *Service) RemoveMember(ctx context.Context, teamID, actorID, memberID int64) error {
	t, err := s.findTeam(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.requireManager(ctx, t, actorID); err != nil {
		return err
	}
	if memberID == t.CreatedBy {
		return ErrCannotRemoveOwner
	}

	affected, err := s.store.RemoveTeamMember(ctx, teamID, memberID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMemberNotFound
	}

	sideeffect.Run(ctx, s.logger, "team_remove_notification", func(ctx context.Context) error {
		return s.notifier.Notify(ctx, memberID, fmt.Sprintf("You were removed from team %s", t.Name),
			domain.NotificationWarning, domain.CategoryTeam)
	})
	return nil
}

func (s *Service) findTeam(ctx context.Context, teamID int64) (*domain.Team, error) {
	t, err := s.store.FindTeamByID(ctx, teamID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return t, nil
}

// requireManager passes for the owner and for admins.
func (s *Service) requireManager(ctx context.Context, t *domain.Team, userID int64) error {
	if t.CreatedBy == userID {
		return nil
	}
	admin, err := s.store.CheckTeamAdmin(ctx, t.ID, userID)
	if err != nil {
		return err
	}
	if !admin {
		return ErrForbidden
	}
	return nil
}
