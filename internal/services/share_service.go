package services

import (
	"context"
	"sync"
	"time"

	"github.com/decky-localsend/deckysend/internal/gateway"
	"github.com/decky-localsend/deckysend/internal/logging"
	"github.com/decky-localsend/deckysend/internal/models"
	"github.com/decky-localsend/deckysend/internal/notify"
	"github.com/decky-localsend/deckysend/internal/store"
)

// ShareService manages reverse-transfer (download link) sessions: creation
// from the staged items, tracking, and expiry. Sessions live for one hour;
// an expiry sweep runs every second while the service is started.
type ShareService struct {
	store    *store.Store
	gateway  ShareGateway
	notifier *notify.Notifier
	logger   *logging.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewShareService wires a share service.
func NewShareService(st *store.Store, gw ShareGateway, notifier *notify.Notifier) *ShareService {
	return &ShareService{
		store:    st,
		gateway:  gw,
		notifier: notifier,
		logger:   logging.NewLogger("share"),
	}
}

// CreateShare opens a share session hosting the staged items and returns it.
// Text items are excluded; only on-disk content can be served for download.
func (s *ShareService) CreateShare(ctx context.Context, opts ShareOptions) (*models.ShareSession, error) {
	staged := s.store.PendingShare()
	if len(staged) == 0 {
		staged = s.store.Queue()
	}

	files := make(map[string]gateway.ShareFileMeta)
	for _, item := range staged {
		switch it := item.(type) {
		case *models.RegularFile:
			files[it.ID()] = gateway.ShareFileMeta{
				ID:       it.ID(),
				FileName: it.Name,
				Size:     it.Size,
				FileURL:  "file://" + it.Path,
			}
		case *models.FolderBundle:
			files[it.ID()] = gateway.ShareFileMeta{
				ID:       it.ID(),
				FileName: it.Name,
				FileURL:  "file://" + it.Path,
			}
		}
	}
	if len(files) == 0 {
		return nil, ErrNothingToShare
	}

	result, err := s.gateway.CreateShareSession(ctx, files, opts.PIN, opts.AutoAccept)
	if err != nil {
		return nil, err
	}

	sess := models.ShareSession{
		SessionID:   result.SessionID,
		DownloadURL: result.DownloadURL,
		CreatedAt:   time.Now(),
	}
	s.store.AddShareSession(sess)
	s.store.SetPendingShare(nil)
	s.logger.Info().Str("session", sess.SessionID).Str("url", sess.DownloadURL).Msg("Share session created")
	return &sess, nil
}

// CloseShare ends a share session. The backend close is best-effort; the
// session is dropped locally either way.
func (s *ShareService) CloseShare(ctx context.Context, sessionID string) error {
	err := s.gateway.CloseShareSession(ctx, sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("Backend close failed, dropping session locally")
	}
	s.store.RemoveShareSession(sessionID)
	return err
}

// Start launches the expiry sweep. Calling Start on a started service is a
// no-op.
func (s *ShareService) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.sweep(ctx, s.done)
}

// Stop halts the expiry sweep and waits for it to exit.
func (s *ShareService) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *ShareService) sweep(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.ExpireSessions(ctx, now)
		}
	}
}

// ExpireSessions closes every tracked session past its TTL. Exposed for
// tests; the sweep calls it once per tick.
func (s *ShareService) ExpireSessions(ctx context.Context, now time.Time) {
	for _, sess := range s.store.ShareSessions() {
		if !sess.Expired(now) {
			continue
		}
		s.logger.Info().Str("session", sess.SessionID).Msg("Share session expired")
		if err := s.gateway.CloseShareSession(ctx, sess.SessionID); err != nil {
			s.logger.Warn().Err(err).Str("session", sess.SessionID).Msg("Backend close failed for expired session")
		}
		s.store.RemoveShareSession(sess.SessionID)
		s.notifier.ShareLinkExpired()
	}
}
