// Package storetest holds the behaviour every repository.Store backend must
// share. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"zyboard/internal/domain"
	"zyboard/internal/repository"
)

// Factory returns an empty store. It is called once per subtest.
type Factory func(t *testing.T) repository.Store

func Run(t *testing.T, newStore Factory) {
	t.Run("Ping", func(t *testing.T) { testPing(t, newStore(t)) })
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("Files", func(t *testing.T) { testFiles(t, newStore(t)) })
	t.Run("Quota", func(t *testing.T) { testQuota(t, newStore(t)) })
	t.Run("QuotaConcurrentReservations", func(t *testing.T) { testQuotaConcurrent(t, newStore(t)) })
	t.Run("Activities", func(t *testing.T) { testActivities(t, newStore(t)) })
	t.Run("Notifications", func(t *testing.T) { testNotifications(t, newStore(t)) })
	t.Run("Teams", func(t *testing.T) { testTeams(t, newStore(t)) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore(t)) })
	t.Run("Cleanup", func(t *testing.T) { testCleanup(t, newStore(t)) })
	t.Run("WithTxCommits", func(t *testing.T) { testWithTxCommits(t, newStore(t)) })
}

// CreateUser inserts a user with a placeholder hash.
func CreateUser(t *testing.T, s repository.Store, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$10$placeholderplaceholderplaceholderplaceholderpl",
	}
	id, err := s.InsertUser(context.Background(), u)
	require.NoError(t, err)
	require.NotZero(t, id)
	return u
}

func testPing(t *testing.T, s repository.Store) {
	assert.True(t, s.Ping(context.Background()))
	assert.NotEmpty(t, s.Kind())
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")

	byEmail, err := s.FindUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)
	assert.Equal(t, "alice", byEmail.Username)
	assert.NotEmpty(t, byEmail.PasswordHash)

	byName, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	byID, err := s.FindUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", byID.Email)

	_, err = s.FindUserByEmail(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, repository.IsNotFound(err))
	var repoErr *repository.Error
	assert.True(t, errors.As(err, &repoErr))

	_, err = s.InsertUser(ctx, &domain.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, repository.IsDuplicate(err), "duplicate email: %v", err)

	_, err = s.InsertUser(ctx, &domain.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
	require.Error(t, err)
	assert.True(t, repository.IsDuplicate(err), "duplicate username: %v", err)
}

func testFiles(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")
	bob := CreateUser(t, s, "bob")
	base := time.Now().Add(-time.Hour)

	older := &domain.File{UserID: alice.ID, Filename: "1-a.png", OriginalName: "a.png", Size: 10, MimeType: "image/png", Path: "/cloud/user_1/1-a.png", CreatedAt: base}
	newer := &domain.File{UserID: alice.ID, Filename: "2-b.pdf", OriginalName: "b.pdf", Size: 20, MimeType: "application/pdf", Path: "/cloud/user_1/2-b.pdf", CreatedAt: base.Add(time.Minute)}
	_, err := s.InsertFile(ctx, older)
	require.NoError(t, err)
	_, err = s.InsertFile(ctx, newer)
	require.NoError(t, err)

	files, err := s.FindFilesByUserID(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "2-b.pdf", files[0].Filename)
	assert.Equal(t, "application/pdf", files[0].MimeType)

	empty, err := s.FindFilesByUserID(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	got, err := s.FindFileByID(ctx, older.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), got.Size)
	assert.Equal(t, "a.png", got.OriginalName)

	_, err = s.FindFileByID(ctx, older.ID, bob.ID)
	assert.True(t, repository.IsNotFound(err))

	byName, err := s.FindFileByFilename(ctx, "2-b.pdf", alice.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, byName.ID)

	_, err = s.FindFileByFilename(ctx, "2-b.pdf", bob.ID)
	assert.True(t, repository.IsNotFound(err))

	_, err = s.InsertFile(ctx, &domain.File{UserID: alice.ID, Filename: "1-a.png", OriginalName: "dup", Size: 1, Path: "p"})
	assert.True(t, repository.IsDuplicate(err), "duplicate filename: %v", err)

	n, err := s.DeleteFile(ctx, older.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteFile(ctx, older.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteFile(ctx, older.ID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testQuota(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")

	_, err := s.FindStorageByUserID(ctx, alice.ID)
	assert.True(t, repository.IsNotFound(err))

	_, err = s.InsertStorage(ctx, alice.ID, 1000, 0)
	require.NoError(t, err)

	_, err = s.InsertStorage(ctx, alice.ID, 1000, 0)
	assert.True(t, repository.IsDuplicate(err), "duplicate allocation: %v", err)

	used := func() int64 {
		st, err := s.FindStorageByUserID(ctx, alice.ID)
		require.NoError(t, err)
		return st.UsedSpace
	}

	n, err := s.IncrementStorageUsed(ctx, alice.ID, 600)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(600), used())

	n, err = s.IncrementStorageUsed(ctx, alice.ID, 500)
	require.NoError(t, err)
	assert.Zero(t, n, "reservation beyond total must be rejected")
	assert.Equal(t, int64(600), used())

	n, err = s.IncrementStorageUsed(ctx, alice.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "reservation up to exactly total is allowed")
	assert.Equal(t, int64(1000), used())

	n, err = s.DecrementStorageUsed(ctx, alice.ID, 300)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(700), used())

	n, err = s.DecrementStorageUsed(ctx, alice.ID, 5000)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(0), used(), "decrement floors at zero")

	n, err = s.UpdateStorageUsed(ctx, alice.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(500), used())

	n, err = s.UpdateStorageUsed(ctx, alice.ID, 2000)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(500), used())

	n, err = s.IncrementStorageUsed(ctx, alice.ID+999, 1)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DecrementStorageUsed(ctx, alice.ID+999, 1)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testQuotaConcurrent(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")
	_, err := s.InsertStorage(ctx, alice.ID, 1000, 0)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		errs     []error
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := s.IncrementStorageUsed(ctx, alice.ID, 200)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			accepted += int(n)
		}()
	}
	wg.Wait()

	require.Empty(t, errs)
	assert.Equal(t, 5, accepted)

	st, err := s.FindStorageByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), st.UsedSpace)
}

func testActivities(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 25; i++ {
		_, err := s.InsertActivity(ctx, &domain.Activity{
			UserID:    alice.ID,
			Action:    "action",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	withMeta := &domain.Activity{
		UserID:    alice.ID,
		Action:    "Uploaded file: a.png",
		Metadata:  datatypes.JSON(`{"file_id":1,"size":10}`),
		CreatedAt: base.Add(time.Minute),
	}
	_, err := s.InsertActivity(ctx, withMeta)
	require.NoError(t, err)

	list, err := s.FindActivitiesByUserID(ctx, alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, list, repository.DefaultActivityLimit)
	assert.Equal(t, "Uploaded file: a.png", list[0].Action)
	assert.JSONEq(t, `{"file_id":1,"size":10}`, string(list[0].Metadata))
	assert.True(t, !list[1].CreatedAt.Before(list[2].CreatedAt))

	limited, err := s.FindActivitiesByUserID(ctx, alice.ID, 5)
	require.NoError(t, err)
	assert.Len(t, limited, 5)
}

func testNotifications(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")
	bob := CreateUser(t, s, "bob")
	base := time.Now().Add(-time.Hour)

	var ids []int64
	for i, msg := range []string{"first", "second", "third"} {
		n := &domain.Notification{UserID: alice.ID, Message: msg, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		id, err := s.InsertNotification(ctx, n)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	bobsID, err := s.InsertNotification(ctx, &domain.Notification{UserID: bob.ID, Message: "bob", Type: domain.NotificationWarning, Category: domain.CategoryTeam})
	require.NoError(t, err)

	list, err := s.FindNotificationsByUserID(ctx, alice.ID, repository.NotificationQuery{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].Message)
	assert.Equal(t, domain.NotificationInfo, list[0].Type)
	assert.Equal(t, domain.CategoryGeneral, list[0].Category)
	assert.False(t, list[0].IsRead)

	page, err := s.FindNotificationsByUserID(ctx, alice.ID, repository.NotificationQuery{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "second", page[0].Message)

	n, err := s.MarkNotificationAsRead(ctx, ids[2], alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.MarkNotificationAsRead(ctx, bobsID, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "cannot mark another user's notification")

	unread, err := s.FindNotificationsByUserID(ctx, alice.ID, repository.NotificationQuery{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 2)
	assert.Equal(t, "second", unread[0].Message)

	count, err := s.CountUnreadNotifications(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	n, err = s.MarkAllNotificationsAsRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = s.MarkAllNotificationsAsRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	count, err = s.CountUnreadNotifications(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	bobCount, err := s.CountUnreadNotifications(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), bobCount)

	n, err = s.DeleteNotification(ctx, ids[0], alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = s.DeleteNotification(ctx, ids[0], alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteNotifications(ctx, []int64{ids[1], bobsID}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "bulk delete is scoped to the owner")

	n, err = s.DeleteNotifications(ctx, nil, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteAllNotifications(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	bobs, err := s.FindNotificationsByUserID(ctx, bob.ID, repository.NotificationQuery{})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	assert.Equal(t, domain.NotificationWarning, bobs[0].Type)
	assert.Equal(t, domain.CategoryTeam, bobs[0].Category)
}

func testTeams(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")
	bob := CreateUser(t, s, "bob")
	carol := CreateUser(t, s, "carol")

	team := &domain.Team{Name: "Design", Description: "design team", CreatedBy: alice.ID}
	teamID, err := s.InsertTeam(ctx, team)
	require.NoError(t, err)

	_, err = s.InsertTeamMember(ctx, &domain.TeamMember{TeamID: teamID, UserID: alice.ID, Role: domain.TeamRoleAdmin})
	require.NoError(t, err)
	_, err = s.InsertTeamMember(ctx, &domain.TeamMember{TeamID: teamID, UserID: bob.ID})
	require.NoError(t, err)

	_, err = s.InsertTeamMember(ctx, &domain.TeamMember{TeamID: teamID, UserID: bob.ID})
	assert.True(t, repository.IsDuplicate(err), "duplicate membership: %v", err)

	got, err := s.FindTeamByID(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, "Design", got.Name)

	summaries, err := s.FindTeamsByUserID(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, teamID, summaries[0].ID)
	assert.Equal(t, int64(2), summaries[0].MemberCount)
	assert.Equal(t, "alice", summaries[0].CreatorName)

	none, err := s.FindTeamsByUserID(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	created, err := s.FindTeamsCreatedBy(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, created, 1)

	member, err := s.FindTeamMember(ctx, teamID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TeamRoleMember, member.Role)

	_, err = s.FindTeamMember(ctx, teamID, carol.ID)
	assert.True(t, repository.IsNotFound(err))

	views, err := s.FindTeamMembersByUserID(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, views, 2)
	usernames := []string{views[0].Username, views[1].Username}
	assert.ElementsMatch(t, []string{"alice", "bob"}, usernames)
	for _, v := range views {
		assert.Equal(t, "Design", v.TeamName)
		assert.Equal(t, teamID, v.TeamID)
		if v.Username == "alice" {
			assert.Equal(t, domain.TeamRoleAdmin, v.Role)
			assert.Equal(t, "alice@example.com", v.Email)
		}
	}

	isAdmin, err := s.CheckTeamAdmin(ctx, teamID, alice.ID)
	require.NoError(t, err)
	assert.True(t, isAdmin)
	isAdmin, err = s.CheckTeamAdmin(ctx, teamID, bob.ID)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	isOwner, err := s.CheckTeamOwner(ctx, teamID, alice.ID)
	require.NoError(t, err)
	assert.True(t, isOwner)
	isOwner, err = s.CheckTeamOwner(ctx, teamID, bob.ID)
	require.NoError(t, err)
	assert.False(t, isOwner)

	n, err := s.RemoveTeamMember(ctx, teamID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	n, err = s.RemoveTeamMember(ctx, teamID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = s.DeleteTeam(ctx, teamID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.FindTeamByID(ctx, teamID)
	assert.True(t, repository.IsNotFound(err))
	_, err = s.FindTeamMember(ctx, teamID, alice.ID)
	assert.True(t, repository.IsNotFound(err), "memberships are removed with the team")

	n, err = s.DeleteTeam(ctx, teamID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testStats(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")
	_, err := s.InsertStorage(ctx, alice.ID, 1000, 300)
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i, f := range []struct {
		name string
		mime string
		size int64
	}{
		{"1.png", "image/png", 100},
		{"2.png", "image/png", 300},
		{"3.pdf", "application/pdf", 50},
	} {
		_, err := s.InsertFile(ctx, &domain.File{
			UserID: alice.ID, Filename: f.name, OriginalName: f.name, Size: f.size,
			MimeType: f.mime, Path: "/cloud/" + f.name, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	stats, err := s.GetUserStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stats.Username)
	assert.Equal(t, int64(1000), stats.TotalSpace)
	assert.Equal(t, int64(300), stats.UsedSpace)
	assert.Equal(t, int64(700), stats.AvailableSpace)
	assert.InDelta(t, 30.0, stats.UsagePercentage, 0.001)
	assert.Equal(t, int64(3), stats.FileCount)
	assert.Equal(t, int64(450), stats.TotalFileSize)
	assert.InDelta(t, 150.0, stats.AvgFileSize, 0.001)
	require.NotNil(t, stats.LastUpload)

	_, err = s.GetUserStats(ctx, alice.ID+999)
	assert.True(t, repository.IsNotFound(err))

	types, err := s.GetFileTypeStats(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, "image/png", types[0].Type)
	assert.Equal(t, int64(2), types[0].Count)
	assert.Equal(t, int64(400), types[0].TotalSize)
	assert.InDelta(t, 200.0, types[0].AvgSize, 0.001)
	assert.Equal(t, "application/pdf", types[1].Type)

	now := time.Now()
	for _, at := range []time.Time{now, now.Add(-time.Minute), now.Add(-48 * time.Hour), now.Add(-30 * 24 * time.Hour)} {
		_, err := s.InsertActivity(ctx, &domain.Activity{UserID: alice.ID, Action: "x", CreatedAt: at})
		require.NoError(t, err)
	}
	days, err := s.GetRecentActivity(ctx, alice.ID, 7)
	require.NoError(t, err)
	var total int64
	for _, d := range days {
		total += d.Count
	}
	assert.Equal(t, int64(3), total)
	assert.GreaterOrEqual(t, len(days), 2)
	assert.True(t, days[0].Date >= days[len(days)-1].Date, "newest day first")
}

func testCleanup(t *testing.T, s repository.Store) {
	ctx := context.Background()
	alice := CreateUser(t, s, "alice")
	now := time.Now()

	old := now.Add(-40 * 24 * time.Hour)
	readOld := &domain.Notification{UserID: alice.ID, Message: "read old", CreatedAt: old}
	_, err := s.InsertNotification(ctx, readOld)
	require.NoError(t, err)
	_, err = s.MarkNotificationAsRead(ctx, readOld.ID, alice.ID)
	require.NoError(t, err)
	_, err = s.InsertNotification(ctx, &domain.Notification{UserID: alice.ID, Message: "unread old", CreatedAt: old})
	require.NoError(t, err)
	recent := &domain.Notification{UserID: alice.ID, Message: "read recent", CreatedAt: now}
	_, err = s.InsertNotification(ctx, recent)
	require.NoError(t, err)
	_, err = s.MarkNotificationAsRead(ctx, recent.ID, alice.ID)
	require.NoError(t, err)

	n, err := s.CleanupOldNotifications(ctx, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := s.FindNotificationsByUserID(ctx, alice.ID, repository.NotificationQuery{})
	require.NoError(t, err)
	assert.Len(t, left, 2)

	_, err = s.InsertActivity(ctx, &domain.Activity{UserID: alice.ID, Action: "old", CreatedAt: now.Add(-100 * 24 * time.Hour)})
	require.NoError(t, err)
	_, err = s.InsertActivity(ctx, &domain.Activity{UserID: alice.ID, Action: "new", CreatedAt: now})
	require.NoError(t, err)

	n, err = s.CleanupOldActivities(ctx, now.Add(-90*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	acts, err := s.FindActivitiesByUserID(ctx, alice.ID, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "new", acts[0].Action)
}

func testWithTxCommits(t *testing.T, s repository.Store) {
	ctx := context.Background()
	var userID int64
	err := s.WithTx(ctx, func(tx repository.Store) error {
		u := &domain.User{Username: "txuser", Email: "tx@example.com", PasswordHash: "x"}
		id, err := tx.InsertUser(ctx, u)
		if err != nil {
			return err
		}
		userID = id
		_, err = tx.InsertStorage(ctx, id, 1000, 0)
		return err
	})
	require.NoError(t, err)

	_, err = s.FindUserByID(ctx, userID)
	require.NoError(t, err)
	_, err = s.FindStorageByUserID(ctx, userID)
	require.NoError(t, err)
}
