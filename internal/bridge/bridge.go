// Package bridge turns backend push notifications into store mutations,
// desktop notifications, and bus events. It is the single consumer of the
// backend event stream.
package bridge

import (
	"sync"
	"time"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/logging"
	"github.com/decky-localsend/deckysend/internal/models"
	"github.com/decky-localsend/deckysend/internal/notify"
	"github.com/decky-localsend/deckysend/internal/store"
)

// Bridge dispatches decoded backend events. One Dispatch call handles one
// event completely; the listener feeds events in arrival order.
type Bridge struct {
	store    *store.Store
	bus      *events.Bus
	notifier *notify.Notifier
	logger   *logging.Logger

	mu     sync.Mutex
	in     chan events.BackendEvent
	done   chan struct{}
	closed bool
}

// NewBridge wires a bridge.
func NewBridge(st *store.Store, bus *events.Bus, notifier *notify.Notifier) *Bridge {
	return &Bridge{
		store:    st,
		bus:      bus,
		notifier: notifier,
		logger:   logging.NewLogger("bridge"),
		in:       make(chan events.BackendEvent, 64),
	}
}

// In returns the channel the listener writes decoded events to.
func (b *Bridge) In() chan<- events.BackendEvent {
	return b.in
}

// Start launches the dispatch loop. Calling Start twice is a no-op.
func (b *Bridge) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done != nil {
		return
	}
	b.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		for ev := range b.in {
			b.Dispatch(ev)
		}
	}(b.done)
}

// Stop closes the input channel and waits for the loop to drain.
func (b *Bridge) Stop() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	done := b.done
	close(b.in)
	b.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Dispatch routes one backend event. The switch is exhaustive over the
// event union; unknown wire tags arrive as Generic.
func (b *Bridge) Dispatch(ev events.BackendEvent) {
	switch e := ev.(type) {
	case events.DeviceDiscovered:
		b.store.UpsertDevice(e.Device)
	case events.DeviceUpdated:
		b.store.UpsertDevice(e.Device)
	case events.ConfirmReceive:
		b.handleConfirmReceive(e)
	case events.ConfirmDownload:
		b.handleConfirmDownload(e)
	case events.PinRequired:
		b.notifier.PinRequired(e.Message)
		b.bus.PublishNotification("PIN Required", e.Message)
	case events.UploadStart:
		b.handleUploadStart(e)
	case events.UploadProgress:
		b.store.UpdateReceive(e.SessionID, e.CompletedCount, e.CurrentFileName)
	case events.UploadEnd:
		b.handleUploadEnd(e)
	case events.UploadCancelled:
		b.handleUploadCancelled(e)
	case events.SendProgress:
		b.handleSendProgress(e)
	case events.Info:
		// Informational chatter stays out of the user's face.
		b.logger.Debug().Str("title", e.Title).Str("message", e.Message).Msg("Backend info")
	case events.Generic:
		b.logger.Warn().Str("tag", e.EventTag).Msg("Unrecognized backend event")
		b.notifier.Generic(e.Title, e.Message)
	}
}

func (b *Bridge) handleConfirmReceive(e events.ConfirmReceive) {
	if e.SessionID == "" {
		b.logger.Error().Msg("Receive confirmation without a session id, cannot act on it")
		return
	}
	b.notifier.ReceiveRequest(e.Sender, e.Title, e.Message)
	b.bus.PublishNotification(e.Title, e.Message)
}

func (b *Bridge) handleConfirmDownload(e events.ConfirmDownload) {
	if e.SessionID == "" || e.ClientKey == "" {
		b.logger.Error().Msg("Download confirmation without session id or client key, cannot act on it")
		return
	}
	b.notifier.DownloadRequest(e.Title, e.Message)
	b.bus.PublishNotification(e.Title, e.Message)
}

func (b *Bridge) handleUploadStart(e events.UploadStart) {
	b.store.StartReceive(models.ReceiveProgress{
		SessionID:       e.SessionID,
		TotalFiles:      e.TotalFiles,
		CurrentFileName: e.FileName,
	})
	b.logger.Info().Str("session", e.SessionID).Str("sender", e.Sender).Int("files", e.TotalFiles).Msg("Inbound session opened")
}

func (b *Bridge) handleUploadEnd(e events.UploadEnd) {
	b.store.EndReceive(e.SessionID)
	b.notifier.ReceiveComplete(e.Title, e.Message)
	b.bus.PublishNotification(e.Title, e.Message)
}

// handleUploadCancelled ends whichever session the cancellation names. A
// cancellation echoing this side's own Cancel call is swallowed: the user
// already knows.
func (b *Bridge) handleUploadCancelled(e events.UploadCancelled) {
	if b.store.ConsumeSelfCancelled() {
		b.store.EndReceive(e.SessionID)
		return
	}

	b.store.EndReceive(e.SessionID)

	if e.SessionID != "" && b.store.ClearSessionIf(e.SessionID) {
		b.store.ForceAllError("cancelled by peer")
		b.store.SetUploading(false)
		b.bus.Publish(&events.SendFinishedEvent{
			BaseEvent: events.BaseEvent{EventType: events.EventSendFinished, Time: time.Now()},
			SessionID: e.SessionID,
			Outcome:   events.OutcomeCancelled,
		})
	}
	b.notifier.UploadCancelled(e.Message)
	b.bus.PublishNotification("Transfer Cancelled", e.Message)
}

// handleSendProgress applies the backend's authoritative view of the
// outbound session. Reports for any session other than the current one are
// stale and dropped.
func (b *Bridge) handleSendProgress(e events.SendProgress) {
	current := b.store.CurrentSessionID()
	if current == "" || e.SessionID != current {
		b.logger.Debug().Str("session", e.SessionID).Msg("Dropping progress report for inactive session")
		return
	}

	if e.FileID != "" {
		switch e.Status {
		case "uploading":
			b.store.UpdateEntry(e.FileID, models.StatusUploading, "")
		case "done":
			b.store.UpdateEntry(e.FileID, models.StatusDone, "")
		case "error":
			msg := e.Error
			if msg == "" {
				msg = "transfer failed"
			}
			b.store.UpdateEntry(e.FileID, models.StatusError, msg)
		}
	}

	if e.TotalFiles > 0 {
		b.store.SetSendStats(models.SendStats{TotalFiles: e.TotalFiles, CompletedCount: e.CompletedCount})
		b.bus.Publish(&events.SendProgressEvent{
			BaseEvent:      events.BaseEvent{EventType: events.EventSendProgress, Time: time.Now()},
			SessionID:      e.SessionID,
			TotalFiles:     e.TotalFiles,
			CompletedCount: e.CompletedCount,
		})
	}

	// A session-level terminal report completes the send, unless the safety
	// timeout got there first. Backends that never send an explicit terminal
	// status still complete via the aggregate count reaching the total, even
	// when that count rides on the final per-item report.
	terminal := e.FileID == "" && (e.Status == "done" || e.Status == "error")
	if !terminal && e.TotalFiles > 0 && e.CompletedCount == e.TotalFiles {
		terminal = true
		e.Status = "done"
	}
	if terminal {
		b.completeSend(e)
	}
}

func (b *Bridge) completeSend(e events.SendProgress) {
	if !b.store.ClearSessionIf(e.SessionID) {
		return
	}

	if e.Status == "done" {
		// The backend settled every outstanding item. Entries still marked
		// uploading are folder contents and unreported files; the terminal
		// report is authoritative, so they are done.
		b.store.ForceUploadingDone()
	} else {
		msg := e.Error
		if msg == "" {
			msg = "transfer failed"
		}
		// Only in-flight entries fail. Items already confirmed done keep
		// their terminal state.
		b.store.ForceUploadingError(msg)
	}

	var done, failed int
	for _, entry := range b.store.UploadProgress() {
		switch entry.Status {
		case models.StatusDone:
			done++
		case models.StatusError:
			failed++
		}
	}
	outcome := events.OutcomeSuccess
	switch {
	case failed > 0 && done > 0:
		outcome = events.OutcomePartial
	case failed > 0:
		outcome = events.OutcomeFailed
	}
	if outcome == events.OutcomeSuccess {
		b.store.ClearQueue()
	}
	b.store.SetUploading(false)

	b.bus.Publish(&events.SendFinishedEvent{
		BaseEvent:    events.BaseEvent{EventType: events.EventSendFinished, Time: time.Now()},
		SessionID:    e.SessionID,
		Outcome:      outcome,
		SuccessCount: done,
		FailedCount:  failed,
	})

	device := b.store.SelectedDevice()
	alias := "device"
	if device != nil {
		alias = device.DisplayName()
	}
	switch outcome {
	case events.OutcomeSuccess:
		b.notifier.UploadComplete(alias, done)
	case events.OutcomePartial:
		b.notifier.UploadPartial(alias, done, failed)
	case events.OutcomeFailed:
		b.notifier.UploadFailed(alias, e.Error)
	}
	b.logger.Info().Str("session", e.SessionID).Str("outcome", string(outcome)).Int("done", done).Int("failed", failed).Msg("Send completed by backend report")
}
