package services

import (
	"context"
	"time"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/gateway"
	"github.com/decky-localsend/deckysend/internal/logging"
	"github.com/decky-localsend/deckysend/internal/models"
	"github.com/decky-localsend/deckysend/internal/notify"
	"github.com/decky-localsend/deckysend/internal/store"
)

// DefaultSafetyTimeout bounds how long a send with non-text items waits for
// the backend's terminal progress report before completing on its own.
const DefaultSafetyTimeout = 15 * time.Second

// SendService runs the outbound transfer workflow: session negotiation,
// sequential text pushes, the batch transfer, result reconciliation, and the
// deferred completion race against the backend's authoritative progress
// events.
type SendService struct {
	store         *store.Store
	gateway       Gateway
	bus           *events.Bus
	notifier      *notify.Notifier
	prompter      Prompter
	safetyTimeout time.Duration
	logger        *logging.Logger
}

// NewSendService wires a send service. prompter may be nil; PIN challenges
// then fail instead of prompting. A non-positive safetyTimeout falls back to
// DefaultSafetyTimeout.
func NewSendService(st *store.Store, gw Gateway, bus *events.Bus, notifier *notify.Notifier, prompter Prompter, safetyTimeout time.Duration) *SendService {
	if safetyTimeout <= 0 {
		safetyTimeout = DefaultSafetyTimeout
	}
	return &SendService{
		store:         st,
		gateway:       gw,
		bus:           bus,
		notifier:      notifier,
		prompter:      prompter,
		safetyTimeout: safetyTimeout,
		logger:        logging.NewLogger("send"),
	}
}

// Send transfers every queued item to the target device and returns the
// device it resolved. With opts.Device set, that device is used and becomes
// the new selection; otherwise the store's current selection is used.
//
// Text items are pushed sequentially, one explicit upload per item. All
// other items go out in a single batch call whose result is reconciled into
// per-item progress. An accepted batch containing folders, or leaving items
// unreported, keeps the session open: the backend's terminal progress
// report or the safety timeout completes it, whichever clears the session
// first.
func (s *SendService) Send(ctx context.Context, opts SendOptions) (*models.Device, error) {
	if s.store.Uploading() {
		return nil, ErrSendInFlight
	}

	queue := s.store.Queue()
	if len(queue) == 0 {
		return nil, ErrNoItemsQueued
	}

	device := opts.Device
	if device != nil {
		s.store.SelectDevice(device)
	} else {
		device = s.store.SelectedDevice()
	}
	if device == nil {
		return nil, ErrNoDeviceSelected
	}

	s.store.SetUploading(true)
	defer s.store.SetUploading(false)

	var (
		texts    []*models.InlineText
		folders  []*models.FolderBundle
		regulars []*models.RegularFile
	)
	for _, item := range queue {
		switch it := item.(type) {
		case *models.InlineText:
			texts = append(texts, it)
		case *models.FolderBundle:
			folders = append(folders, it)
		case *models.RegularFile:
			regulars = append(regulars, it)
		}
	}

	entries := make([]models.UploadProgressEntry, 0, len(queue))
	for _, item := range queue {
		entries = append(entries, models.UploadProgressEntry{
			FileID:   item.ID(),
			FileName: item.FileName(),
			Status:   models.StatusPending,
		})
	}
	s.store.SetUploadProgress(entries)
	s.store.SetSendStats(models.SendStats{TotalFiles: len(queue)})

	prep, err := s.prepare(ctx, device, opts.PIN, texts, folders, regulars)
	if err != nil {
		return device, s.abort(device, err)
	}

	// A 204 means the receiver handled everything during negotiation and no
	// transfer step follows.
	if prep.NoTransferNeeded {
		for _, item := range queue {
			s.store.UpdateEntry(item.ID(), models.StatusDone, "")
		}
		s.syncStats()
		s.store.ClearQueue()
		s.finishLocal("", events.OutcomeSuccess)
		return device, nil
	}

	sessionID := prep.SessionID
	s.store.SetCurrentSession(sessionID)
	s.store.MarkAllUploading()
	// The issued tokens are the negotiated transfer plan; the receiver may
	// have declined items, so the token count is the denominator.
	s.store.SetSendStats(models.SendStats{TotalFiles: len(prep.Tokens)})
	s.bus.Publish(&events.SendStartedEvent{
		BaseEvent: events.BaseEvent{EventType: events.EventSendStarted, Time: time.Now()},
		SessionID: sessionID,
		ItemCount: len(queue),
	})

	s.logger.Info().
		Str("session", sessionID).
		Str("device", device.DisplayName()).
		Int("items", len(queue)).
		Msg("Upload session opened")

	for _, text := range texts {
		token, ok := prep.Tokens[text.ID()]
		if !ok {
			s.store.UpdateEntry(text.ID(), models.StatusError, "no transfer token issued")
			continue
		}
		if err := s.gateway.UploadText(ctx, sessionID, text.ID(), token, []byte(text.Content)); err != nil {
			s.logger.Warn().Err(err).Str("item", text.ID()).Msg("Text upload failed")
			s.store.UpdateEntry(text.ID(), models.StatusError, err.Error())
		} else {
			s.store.UpdateEntry(text.ID(), models.StatusDone, "")
		}
		s.syncStats()
		s.publishProgress(sessionID)
	}

	hasBatch := len(folders)+len(regulars) > 0
	batchAccepted := false
	if hasBatch {
		batchAccepted = s.runBatch(ctx, sessionID, prep.Tokens, folders, regulars)
		s.publishProgress(sessionID)
	}

	allDone, anyError := s.progressOutcome()

	// An accepted batch with folders never completes here, even though the
	// folder entries are already marked done: the backend is still moving
	// the folder contents and owns the outcome. The same goes for any item
	// the batch result left unreported. The backend's terminal
	// send_progress event normally completes the session; the timer is the
	// fallback when that event never arrives, and ClearSessionIf makes the
	// two paths race safely.
	if batchAccepted && (len(folders) > 0 || !allDone) {
		s.scheduleSafetyCompletion(sessionID)
		return device, nil
	}

	// Text-only sends and batch transport failures are settled: every
	// entry is terminal and no backend report is coming for them.
	if s.store.ClearSessionIf(sessionID) {
		if allDone && !anyError {
			s.store.ClearQueue()
			s.finishLocal(sessionID, events.OutcomeSuccess)
		} else {
			s.finishLocal(sessionID, events.OutcomePartial)
		}
	}

	return device, nil
}

// prepare negotiates the upload session, handling the PIN challenge: on a
// 401 the user is prompted once and the negotiation retried with the
// answer.
func (s *SendService) prepare(ctx context.Context, device *models.Device, pin string, texts []*models.InlineText, folders []*models.FolderBundle, regulars []*models.RegularFile) (*gateway.PrepareResult, error) {
	files := make(map[string]gateway.FileMeta, len(texts)+len(regulars))
	for _, f := range regulars {
		files[f.ID()] = gateway.FileMeta{
			ID:      f.ID(),
			FileURL: "file://" + f.Path,
		}
	}
	for _, t := range texts {
		files[t.ID()] = gateway.FileMeta{
			ID:       t.ID(),
			FileName: t.Name,
			Size:     int64(len(t.Content)),
			FileType: "text/plain",
		}
	}
	var folderPaths []string
	for _, f := range folders {
		folderPaths = append(folderPaths, f.Path)
	}

	req := gateway.PrepareRequest{
		TargetFingerprint: device.Fingerprint,
		Files:             files,
		Folders:           folderPaths,
		PIN:               pin,
	}

	prep, err := s.gateway.PrepareUpload(ctx, req)
	if !gateway.IsAuthRequired(err) {
		return prep, err
	}

	s.notifier.PinRequired("")
	if s.prompter == nil {
		return nil, ErrPinRequired
	}
	answered, perr := s.prompter.PromptPIN(ctx)
	if perr != nil || answered == "" {
		return nil, ErrPinRequired
	}

	req.PIN = answered
	prep, err = s.gateway.PrepareUpload(ctx, req)
	if gateway.IsAuthRequired(err) {
		return nil, ErrPinRequired
	}
	return prep, err
}

// runBatch performs the batch transfer and reconciles its result into the
// per-item entries. It returns false when the batch itself was not
// delivered; per-item failures inside an accepted batch are recorded on the
// entries only.
func (s *SendService) runBatch(ctx context.Context, sessionID string, tokens map[string]string, folders []*models.FolderBundle, regulars []*models.RegularFile) bool {
	var batchFiles []gateway.BatchFile
	for _, f := range regulars {
		batchFiles = append(batchFiles, gateway.BatchFile{
			FileID:  f.ID(),
			Token:   tokens[f.ID()],
			FileURL: "file://" + f.Path,
		})
	}
	var folderPaths []string
	for _, f := range folders {
		folderPaths = append(folderPaths, f.Path)
	}

	result, err := s.gateway.UploadBatch(ctx, gateway.BatchRequest{
		SessionID: sessionID,
		Files:     batchFiles,
		Folders:   folderPaths,
	})
	if err != nil {
		// Transport failure: no per-item information exists, every non-text
		// item is failed.
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("Batch upload failed")
		for _, f := range folders {
			s.store.UpdateEntry(f.ID(), models.StatusError, err.Error())
		}
		for _, f := range regulars {
			s.store.UpdateEntry(f.ID(), models.StatusError, err.Error())
		}
		s.syncStats()
		return false
	}

	// Folder entries complete on any accepted batch. The backend expands
	// folders server-side, so their per-file outcomes never map back to the
	// bundle entry.
	for _, f := range folders {
		s.store.UpdateEntry(f.ID(), models.StatusDone, "")
	}

	switch {
	case result.HasDetail:
		reported := make(map[string]gateway.ItemResult, len(result.PerItem))
		for _, r := range result.PerItem {
			reported[r.FileID] = r
		}
		for _, f := range regulars {
			r, found := reported[f.ID()]
			switch {
			case !found:
				// Unreported items stay in flight; the authoritative
				// progress stream or the safety timeout settles them.
			case r.Success:
				s.store.UpdateEntry(f.ID(), models.StatusDone, "")
			default:
				msg := r.Error
				if msg == "" {
					msg = "transfer failed"
				}
				s.store.UpdateEntry(f.ID(), models.StatusError, msg)
			}
		}
	case !result.Partial:
		// A plain 200 without detail means everything went through.
		for _, f := range regulars {
			s.store.UpdateEntry(f.ID(), models.StatusDone, "")
		}
	}

	s.syncStats()
	return true
}

// scheduleSafetyCompletion arms the fallback timer for a session left open
// for the backend to complete.
func (s *SendService) scheduleSafetyCompletion(sessionID string) {
	time.AfterFunc(s.safetyTimeout, func() {
		if !s.store.ClearSessionIf(sessionID) {
			return
		}
		s.logger.Warn().Str("session", sessionID).Msg("No terminal progress report from backend, completing on timeout")
		s.store.ForceUploadingDone()
		s.syncStats()

		allDone, anyError := s.progressOutcome()
		if allDone && !anyError {
			s.store.ClearQueue()
			s.finishLocal(sessionID, events.OutcomeSuccess)
		} else {
			s.finishLocal(sessionID, events.OutcomePartial)
		}
	})
}

// Cancel aborts the active outbound session. The backend is told on a
// best-effort basis; local state is cleaned up regardless. The backend's
// cancellation echo is suppressed so the user is not notified about their
// own action.
func (s *SendService) Cancel(ctx context.Context) error {
	sessionID := s.store.CurrentSessionID()
	if sessionID == "" {
		return ErrNoActiveSession
	}

	s.store.MarkSelfCancelled()
	if err := s.gateway.CancelUpload(ctx, sessionID); err != nil {
		s.logger.Warn().Err(err).Str("session", sessionID).Msg("Backend cancel failed, cleaning up locally")
	}

	if s.store.ClearSessionIf(sessionID) {
		s.store.ForceAllError("cancelled")
		s.store.SetUploading(false)
		s.bus.Publish(&events.SendFinishedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventSendFinished, Time: time.Now()},
			SessionID: sessionID,
			Outcome:   events.OutcomeCancelled,
		})
		s.notifier.UploadCancelled("")
	}
	return nil
}

// abort fails the whole send before or during negotiation: every entry goes
// to error, the session (if any) is dropped, and the failure is surfaced.
func (s *SendService) abort(device *models.Device, err error) error {
	s.logger.Error().Err(err).Str("device", device.DisplayName()).Msg("Send aborted")
	s.store.ForceAllError(err.Error())
	s.store.ClearSession()
	s.bus.Publish(&events.SendFinishedEvent{
		BaseEvent:   events.BaseEvent{EventType: events.EventSendFinished, Time: time.Now()},
		Outcome:     events.OutcomeFailed,
		FailedCount: len(s.store.UploadProgress()),
	})
	s.notifier.UploadFailed(device.DisplayName(), err.Error())
	return err
}

// finishLocal publishes the terminal event and notification for a send that
// completed on this side. The session must already be cleared by the caller
// (via ClearSessionIf) so the backend's late reports are ignored.
func (s *SendService) finishLocal(sessionID string, outcome events.SendOutcome) {
	done, failed := s.progressCounts()
	s.bus.Publish(&events.SendFinishedEvent{
		BaseEvent:    events.BaseEvent{EventType: events.EventSendFinished, Time: time.Now()},
		SessionID:    sessionID,
		Outcome:      outcome,
		SuccessCount: done,
		FailedCount:  failed,
	})

	device := s.store.SelectedDevice()
	alias := "device"
	if device != nil {
		alias = device.DisplayName()
	}
	switch outcome {
	case events.OutcomeSuccess:
		s.notifier.UploadComplete(alias, done)
	case events.OutcomePartial:
		s.notifier.UploadPartial(alias, done, failed)
	}
}

func (s *SendService) publishProgress(sessionID string) {
	stats := s.store.SendStats()
	s.bus.Publish(&events.SendProgressEvent{
		BaseEvent:      events.BaseEvent{EventType: events.EventSendProgress, Time: time.Now()},
		SessionID:      sessionID,
		TotalFiles:     stats.TotalFiles,
		CompletedCount: stats.CompletedCount,
	})
}

// syncStats recomputes the completed counter from the per-item entries.
// TotalFiles stays as negotiated.
func (s *SendService) syncStats() {
	stats := s.store.SendStats()
	done := 0
	for _, e := range s.store.UploadProgress() {
		if e.Status == models.StatusDone {
			done++
		}
	}
	stats.CompletedCount = done
	s.store.SetSendStats(stats)
}

// progressOutcome reports whether every entry is terminal and whether any
// entry failed.
func (s *SendService) progressOutcome() (allDone, anyError bool) {
	allDone = true
	for _, e := range s.store.UploadProgress() {
		switch e.Status {
		case models.StatusError:
			anyError = true
		case models.StatusDone:
		default:
			allDone = false
		}
	}
	return allDone, anyError
}

func (s *SendService) progressCounts() (done, failed int) {
	for _, e := range s.store.UploadProgress() {
		switch e.Status {
		case models.StatusDone:
			done++
		case models.StatusError:
			failed++
		}
	}
	return done, failed
}
