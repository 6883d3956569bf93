package team

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zyboard/internal/domain"
	"zyboard/internal/logger"
	"zyboard/internal/repository"
	"zyboard/internal/repository/sqlitetest"
	"zyboard/internal/repository/storetest"
)

type mockRecorder struct{ mock.Mock }

func (m *mockRecorder) Record(ctx context.Context, userID int64, action string, metadata map[string]any) error {
	args := m.Called(ctx, userID, action, metadata)
	return args.Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) Notify(ctx context.Context, userID int64, message string, typ domain.NotificationType, category string) error {
	args := m.Called(ctx, userID, message, typ, category)
	return args.Error(0)
}

type fixture struct {
	svc      *Service
	store    repository.Store
	notifier *mockNotifier
	owner    *domain.User
	bob      *domain.User
	carol    *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := sqlitetest.New(t)
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return &fixture{
		svc:      NewService(store, rec, notifier, logger.Discard()),
		store:    store,
		notifier: notifier,
		owner:    storetest.CreateUser(t, store, "owner"),
		bob:      storetest.CreateUser(t, store, "bob"),
		carol:    storetest.CreateUser(t, store, "carol"),
	}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.owner.ID, "   ", "")
	assert.ErrorIs(t, err, ErrNameRequired)

	team, err := f.svc.Create(ctx, f.owner.ID, " Design ", "ui work")
	require.NoError(t, err)
	assert.Equal(t, "Design", team.Name)
	assert.Equal(t, f.owner.ID, team.CreatedBy)

	m, err := f.store.FindTeamMember(ctx, team.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRoleAdmin, m.Role)

	teams, err := f.svc.List(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, int64(1), teams[0].MemberCount)
	assert.Equal(t, "owner", teams[0].CreatorName)
}

func TestList_RepairsMissingCreatorMembership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	orphan := &domain.Team{Name: "Orphan", CreatedBy: f.owner.ID}
	_, err := f.store.InsertTeam(ctx, orphan)
	require.NoError(t, err)

	teams, err := f.svc.List(ctx, f.owner.ID)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, orphan.ID, teams[0].ID)

	m, err := f.store.FindTeamMember(ctx, orphan.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRoleAdmin, m.Role)

	// A second pass finds the membership and inserts nothing.
	teams, err = f.svc.List(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), teams[0].MemberCount)
}

func TestInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team, err := f.svc.Create(ctx, f.owner.ID, "Core", "")
	require.NoError(t, err)

	m, err := f.svc.Invite(ctx, team.ID, f.owner.ID, "bob@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRoleMember, m.Role)
	f.notifier.AssertCalled(t, "Notify", mock.Anything, f.bob.ID, mock.Anything, domain.NotificationInfo, domain.CategoryTeam)

	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "bob@example.com", "member")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	// Plain members cannot invite.
	_, err = f.svc.Invite(ctx, team.ID, f.bob.ID, "carol@example.com", "member")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "ghost@example.com", "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.svc.Invite(ctx, team.ID+99, f.owner.ID, "carol@example.com", "")
	assert.ErrorIs(t, err, ErrTeamNotFound)

	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "carol@example.com", "superuser")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "  ", "")
	assert.ErrorIs(t, err, ErrEmailRequired)

	members, err := f.svc.Members(ctx, f.bob.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)
}

func TestInvite_ByAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team, err := f.svc.Create(ctx, f.owner.ID, "Core", "")
	require.NoError(t, err)

	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "bob@example.com", "admin")
	require.NoError(t, err)

	m, err := f.svc.Invite(ctx, team.ID, f.bob.ID, "carol@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, f.carol.ID, m.UserID)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team, err := f.svc.Create(ctx, f.owner.ID, "Core", "")
	require.NoError(t, err)
	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "bob@example.com", "admin")
	require.NoError(t, err)

	// Admins may manage members but only the owner deletes.
	assert.ErrorIs(t, f.svc.Delete(ctx, team.ID, f.bob.ID), ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, team.ID, f.owner.ID))
	assert.ErrorIs(t, f.svc.Delete(ctx, team.ID, f.owner.ID), ErrTeamNotFound)

	_, err = f.store.FindTeamMember(ctx, team.ID, f.bob.ID)
	assert.True(t, repository.IsNotFound(err))
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	team, err := f.svc.Create(ctx, f.owner.ID, "Core", "")
	require.NoError(t, err)
	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "bob@example.com", "")
	require.NoError(t, err)
	_, err = f.svc.Invite(ctx, team.ID, f.owner.ID, "carol@example.com", "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RemoveMember(ctx, team.ID, f.bob.ID, f.carol.ID), ErrForbidden)
	assert.ErrorIs(t, f.svc.RemoveMember(ctx, team.ID, f.owner.ID, f.owner.ID), ErrCannotRemoveOwner)

	require.NoError(t, f.svc.RemoveMember(ctx, team.ID, f.owner.ID, f.carol.ID))
	f.notifier.AssertCalled(t, "Notify", mock.Anything, f.carol.ID, mock.Anything, domain.NotificationWarning, domain.CategoryTeam)

	assert.ErrorIs(t, f.svc.RemoveMember(ctx, team.ID, f.owner.ID, f.carol.ID), ErrMemberNotFound)
	assert.ErrorIs(t, f.svc.RemoveMember(ctx, team.ID+99, f.owner.ID, f.carol.ID), ErrTeamNotFound)
}
