package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decky-localsend/deckysend/internal/gateway"
	"github.com/decky-localsend/deckysend/internal/models"
	"github.com/decky-localsend/deckysend/internal/notify"
	"github.com/decky-localsend/deckysend/internal/store"
)

type fakeShareGateway struct {
	createFn   func(files map[string]gateway.ShareFileMeta, pin string, autoAccept bool) (*gateway.ShareResult, error)
	closeCalls []string
	closeErr   error
}

func (f *fakeShareGateway) CreateShareSession(_ context.Context, files map[string]gateway.ShareFileMeta, pin string, autoAccept bool) (*gateway.ShareResult, error) {
	if f.createFn == nil {
		return &gateway.ShareResult{SessionID: "sh-1", DownloadURL: "http://10.0.0.2:53317/d/sh-1"}, nil
	}
	return f.createFn(files, pin, autoAccept)
}

func (f *fakeShareGateway) CloseShareSession(_ context.Context, sessionID string) error {
	f.closeCalls = append(f.closeCalls, sessionID)
	return f.closeErr
}

func newShareFixture() (*ShareService, *store.Store, *fakeShareGateway) {
	st := store.New(nil)
	gw := &fakeShareGateway{}
	svc := NewShareService(st, gw, notify.NewNotifier(false))
	return svc, st, gw
}

func TestCreateShareStagesOnlyDiskItems(t *testing.T) {
	svc, st, gw := newShareFixture()

	var gotFiles map[string]gateway.ShareFileMeta
	gw.createFn = func(files map[string]gateway.ShareFileMeta, pin string, autoAccept bool) (*gateway.ShareResult, error) {
		gotFiles = files
		require.Equal(t, "4321", pin)
		require.True(t, autoAccept)
		return &gateway.ShareResult{SessionID: "sh-1", DownloadURL: "http://x/d/sh-1"}, nil
	}

	file := models.NewRegularFile("/tmp/a.bin", 9)
	st.SetPendingShare([]models.Item{
		file,
		models.NewInlineText("", "text cannot be shared"),
	})

	sess, err := svc.CreateShare(context.Background(), ShareOptions{PIN: "4321", AutoAccept: true})
	require.NoError(t, err)
	require.Equal(t, "sh-1", sess.SessionID)

	require.Len(t, gotFiles, 1, "text items are excluded from shares")
	require.Equal(t, "file:///tmp/a.bin", gotFiles[file.ID()].FileURL)

	require.Len(t, st.ShareSessions(), 1)
	require.Empty(t, st.PendingShare(), "staging area is consumed")
}

func TestCreateShareWithNothingStaged(t *testing.T) {
	svc, st, _ := newShareFixture()
	st.SetPendingShare([]models.Item{models.NewInlineText("", "only text")})

	_, err := svc.CreateShare(context.Background(), ShareOptions{})
	require.ErrorIs(t, err, ErrNothingToShare)
}

func TestCloseShareDropsSessionEvenOnBackendError(t *testing.T) {
	svc, st, gw := newShareFixture()
	gw.closeErr = errors.New("backend gone")
	st.AddShareSession(models.ShareSession{SessionID: "sh-1", CreatedAt: time.Now()})

	err := svc.CloseShare(context.Background(), "sh-1")
	require.Error(t, err)
	require.Empty(t, st.ShareSessions(), "session dropped locally regardless")
}

func TestExpireSessionsClosesOnlyExpired(t *testing.T) {
	svc, st, gw := newShareFixture()
	now := time.Now()
	st.AddShareSession(models.ShareSession{SessionID: "old", CreatedAt: now.Add(-2 * time.Hour)})
	st.AddShareSession(models.ShareSession{SessionID: "fresh", CreatedAt: now.Add(-10 * time.Minute)})

	svc.ExpireSessions(context.Background(), now)

	require.Equal(t, []string{"old"}, gw.closeCalls)
	sessions := st.ShareSessions()
	require.Len(t, sessions, 1)
	require.Equal(t, "fresh", sessions[0].SessionID)
}

func TestShareSweepStartStop(t *testing.T) {
	svc, _, _ := newShareFixture()
	svc.Start()
	svc.Start() // second start is a no-op
	svc.Stop()
	svc.Stop() // second stop is a no-op
}
