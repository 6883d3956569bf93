package files

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zyboard/internal/domain"
	"zyboard/internal/logger"
	"zyboard/internal/metrics"
	"zyboard/internal/objectstore/objectstoretest"
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
	objects  *objectstoretest.Memory
	recorder *mockRecorder
	notifier *mockNotifier
	userID   int64
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	store := sqlitetest.New(t)
	u := storetest.CreateUser(t, store, "alice")
	objects := objectstoretest.New()
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return &fixture{
		svc:      NewService(store, objects, rec, notifier, metrics.New(), cfg, logger.Discard()),
		store:    store,
		objects:  objects,
		recorder: rec,
		notifier: notifier,
		userID:   u.ID,
	}
}

func defaultConfig() Config {
	return Config{MaxUploadSize: 1 << 20, DefaultQuota: 1000}
}

func textUpload(name string, size int) UploadInput {
	return UploadInput{
		OriginalName: name,
		Size:         int64(size),
		Body:         strings.NewReader(strings.Repeat("a", size)),
	}
}

func (f *fixture) used(t *testing.T) int64 {
	t.Helper()
	alloc, err := f.store.FindStorageByUserID(context.Background(), f.userID)
	require.NoError(t, err)
	return alloc.UsedSpace
}

func TestUpload_Success(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	file, err := f.svc.Upload(ctx, f.userID, textUpload("notes.txt", 100))
	require.NoError(t, err)

	assert.NotZero(t, file.ID)
	assert.Equal(t, "notes.txt", file.OriginalName)
	assert.Equal(t, "text/plain", file.MimeType)
	assert.Regexp(t, `^\d+-[0-9a-f-]{36}\.txt$`, file.Filename)
	assert.Equal(t, "/cloud/user_"+itoa(f.userID)+"/"+file.Filename, file.Path)
	assert.True(t, f.objects.Has(f.userID, file.Filename))
	assert.Equal(t, int64(100), f.used(t))

	f.recorder.AssertCalled(t, "Record", mock.Anything, f.userID, "Uploaded file: notes.txt", mock.Anything)
	f.notifier.AssertCalled(t, "Notify", mock.Anything, f.userID, mock.Anything, domain.NotificationSuccess, domain.CategoryUpload)
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t, Config{MaxUploadSize: 50, DefaultQuota: 1000})
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 0))
	assert.ErrorIs(t, err, ErrEmptyFile)

	_, err = f.svc.Upload(ctx, f.userID, textUpload("a.txt", 51))
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = f.svc.Upload(ctx, f.userID, textUpload("a.exe", 10))
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)

	elf := append([]byte("\x7fELF\x02\x01\x01\x00"), bytes.Repeat([]byte{0}, 40)...)
	_, err = f.svc.Upload(ctx, f.userID, UploadInput{OriginalName: "photo.png", Size: int64(len(elf)), Body: bytes.NewReader(elf)})
	assert.ErrorIs(t, err, ErrFileTypeNotAllowed)

	assert.Zero(t, f.objects.Len())
}

func TestUpload_QuotaExceededMutatesNothing(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 900))
	require.NoError(t, err)

	_, err = f.svc.Upload(ctx, f.userID, textUpload("b.txt", 200))
	require.ErrorIs(t, err, ErrQuotaExceeded)
	var qe *QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, int64(200), qe.Requested)
	assert.Equal(t, int64(100), qe.Available)

	assert.Equal(t, int64(900), f.used(t))
	assert.Equal(t, 1, f.objects.Len())
	list, err := f.svc.List(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUpload_ExactFitIsAccepted(t *testing.T) {
	f := newFixture(t, defaultConfig())

	_, err := f.svc.Upload(context.Background(), f.userID, textUpload("full.txt", 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), f.used(t))
}

func TestUpload_ConcurrentReservations(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, rejected int
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Upload(ctx, f.userID, textUpload("c.txt", 300))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrQuotaExceeded):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, ok)
	assert.Equal(t, 5, rejected)
	assert.Equal(t, int64(900), f.used(t))
}

func TestUpload_StorageFailureReleasesReservation(t *testing.T) {
	f := newFixture(t, defaultConfig())
	f.objects.SetUploadErr(errors.New("507 insufficient storage"))

	_, err := f.svc.Upload(context.Background(), f.userID, textUpload("a.txt", 100))
	require.ErrorIs(t, err, ErrStorageWrite)

	assert.Zero(t, f.used(t))
	list, err := f.svc.List(context.Background(), f.userID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

// failingInsert makes InsertFile fail while delegating everything else.
type failingInsert struct {
	repository.Store
}

func (failingInsert) InsertFile(context.Context, *domain.File) (int64, error) {
	return 0, &repository.Error{Op: "insert file", Err: errors.New("disk I/O error")}
}

func TestUpload_MetadataFailureCompensates(t *testing.T) {
	f := newFixture(t, defaultConfig())
	svc := NewService(failingInsert{f.store}, f.objects, f.recorder, f.notifier, metrics.New(), defaultConfig(), logger.Discard())

	_, err := svc.Upload(context.Background(), f.userID, textUpload("a.txt", 100))
	require.ErrorIs(t, err, ErrMetadataWrite)

	assert.Zero(t, f.objects.Len())
	assert.Zero(t, f.used(t))
	f.recorder.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpload_SideEffectFailureDoesNotFailUpload(t *testing.T) {
	store := sqlitetest.New(t)
	u := storetest.CreateUser(t, store, "bob")
	rec := &mockRecorder{}
	rec.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))
	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("db down"))
	svc := NewService(store, objectstoretest.New(), rec, notifier, metrics.New(), defaultConfig(), logger.Discard())

	file, err := svc.Upload(context.Background(), u.ID, textUpload("a.txt", 10))
	require.NoError(t, err)
	assert.NotZero(t, file.ID)
	rec.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	file, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 100))
	require.NoError(t, err)

	other := storetest.CreateUser(t, f.store, "mallory")
	_, err = f.svc.Delete(ctx, other.ID, file.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
	assert.True(t, f.objects.Has(f.userID, file.Filename))

	deleted, err := f.svc.Delete(ctx, f.userID, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, deleted.ID)
	assert.False(t, f.objects.Has(f.userID, file.Filename))
	assert.Zero(t, f.used(t))
	f.notifier.AssertCalled(t, "Notify", mock.Anything, f.userID, mock.Anything, domain.NotificationInfo, domain.CategoryDelete)

	_, err = f.svc.Delete(ctx, f.userID, file.ID)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDelete_StorageFailureKeepsRow(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	file, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 100))
	require.NoError(t, err)

	f.objects.DeleteErr = errors.New("503")
	_, err = f.svc.Delete(ctx, f.userID, file.ID)
	require.ErrorIs(t, err, ErrStorageDelete)

	_, err = f.store.FindFileByID(ctx, file.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.used(t))
}

func TestDelete_FloorsUsedSpace(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	file, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 100))
	require.NoError(t, err)

	// Drifted counter lower than the file size.
	_, err = f.store.UpdateStorageUsed(ctx, f.userID, 40)
	require.NoError(t, err)

	_, err = f.svc.Delete(ctx, f.userID, file.ID)
	require.NoError(t, err)
	assert.Zero(t, f.used(t))
}

// failingDecrement makes DecrementStorageUsed fail, also inside WithTx.
type failingDecrement struct {
	repository.Store
}

func (failingDecrement) DecrementStorageUsed(context.Context, int64, int64) (int64, error) {
	return 0, &repository.Error{Op: "decrement storage", Err: errors.New("database is locked")}
}

func (s failingDecrement) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(failingDecrement{tx})
	})
}

func TestDelete_ReleaseFailureKeepsRow(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	file, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 100))
	require.NoError(t, err)

	svc := NewService(failingDecrement{f.store}, f.objects, f.recorder, f.notifier, metrics.New(), defaultConfig(), logger.Discard())
	_, err = svc.Delete(ctx, f.userID, file.ID)
	require.ErrorIs(t, err, ErrMetadataDelete)
	assert.NotErrorIs(t, err, ErrFileNotFound)

	_, err = f.store.FindFileByID(ctx, file.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.used(t))
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, f.userID, mock.Anything, domain.NotificationInfo, domain.CategoryDelete)
}

// sequentialDeleteFailure behaves like a backend without transactions
// whose row delete fails after the space was released.
type sequentialDeleteFailure struct {
	repository.Store
}

func (sequentialDeleteFailure) DeleteFile(context.Context, int64, int64) (int64, error) {
	return 0, &repository.Error{Op: "delete file", Err: errors.New("connection reset")}
}

func (s sequentialDeleteFailure) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := fn(s); err != nil {
		return fmt.Errorf("%w: %w", repository.ErrNoRollback, err)
	}
	return nil
}

func TestDelete_RestoresSpaceWithoutRollback(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	file, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 100))
	require.NoError(t, err)

	svc := NewService(sequentialDeleteFailure{f.store}, f.objects, f.recorder, f.notifier, metrics.New(), defaultConfig(), logger.Discard())
	_, err = svc.Delete(ctx, f.userID, file.ID)
	require.ErrorIs(t, err, ErrMetadataDelete)

	_, err = f.store.FindFileByID(ctx, file.ID, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), f.used(t))
}

func TestUpload_QuotaRejectionLogsCurrentAvailable(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	svc := NewService(f.store, f.objects, f.recorder, f.notifier, metrics.New(), defaultConfig(), log)

	_, err := svc.Upload(ctx, f.userID, textUpload("a.txt", 900))
	require.NoError(t, err)
	_, err = f.store.UpdateStorageUsed(ctx, f.userID, 950)
	require.NoError(t, err)

	_, err = svc.Upload(ctx, f.userID, textUpload("b.txt", 200))
	var qe *QuotaError
	require.True(t, errors.As(err, &qe))
	assert.Equal(t, int64(50), qe.Available)
	assert.Contains(t, buf.String(), "upload rejected by quota")
	assert.Contains(t, buf.String(), "available=50")
}

func TestDownload(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	file, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 5))
	require.NoError(t, err)

	dl, err := f.svc.Download(ctx, f.userID, file.Filename)
	require.NoError(t, err)
	body, err := io.ReadAll(dl.Body)
	require.NoError(t, err)
	_ = dl.Body.Close()
	assert.Equal(t, "aaaaa", string(body))
	f.recorder.AssertCalled(t, "Record", mock.Anything, f.userID, "Downloaded file: a.txt", mock.Anything)

	_, err = f.svc.Download(ctx, f.userID, "missing.txt")
	assert.ErrorIs(t, err, ErrFileNotFound)

	other := storetest.CreateUser(t, f.store, "eve")
	_, err = f.svc.Download(ctx, other.ID, file.Filename)
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestDownload_RowWithoutObject(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()
	file, err := f.svc.Upload(ctx, f.userID, textUpload("a.txt", 5))
	require.NoError(t, err)
	require.NoError(t, f.objects.Delete(ctx, f.userID, file.Filename))

	_, err = f.svc.Download(ctx, f.userID, file.Filename)
	assert.ErrorIs(t, err, ErrFileNotFound)
	f.recorder.AssertNotCalled(t, "Record", mock.Anything, f.userID, "Downloaded file: a.txt", mock.Anything)
}

func TestStorageInfo_CreatesAllocationLazily(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	info, err := f.svc.StorageInfo(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, StorageInfo{TotalSpace: 1000, AvailableSpace: 1000}, *info)

	_, err = f.svc.Upload(ctx, f.userID, textUpload("a.txt", 250))
	require.NoError(t, err)
	info, err = f.svc.StorageInfo(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, int64(250), info.UsedSpace)
	assert.Equal(t, int64(750), info.AvailableSpace)
	assert.InDelta(t, 25.0, info.UsagePercent, 0.001)
	assert.Equal(t, int64(1), info.FileCount)
}

func TestEnsureAllocation_Idempotent(t *testing.T) {
	f := newFixture(t, defaultConfig())
	ctx := context.Background()

	a, err := f.svc.EnsureAllocation(ctx, f.userID)
	require.NoError(t, err)
	b, err := f.svc.EnsureAllocation(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
}
