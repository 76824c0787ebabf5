// Package store holds the shared application state: discovered devices, the
// send queue, per-item upload progress, receive-side progress, favorites, and
// share sessions. The upload orchestrator and the notification bridge are the
// only writers; presentation layers read snapshots and subscribe to change
// events on the bus.
package store

import (
	"sync"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/models"
)

// Store is the mutex-guarded state container. It is constructed once and
// injected into collaborators; there is no package-level instance.
type Store struct {
	mu  sync.RWMutex
	bus *events.Bus

	devices        []models.Device
	selectedDevice *models.Device
	queue          []models.Item

	uploading        bool
	uploadProgress   []models.UploadProgressEntry
	sendStats        models.SendStats
	currentSessionID string

	receiveProgress *models.ReceiveProgress

	favorites     []models.FavoriteDevice
	shareSessions []models.ShareSession
	pendingShare  []models.Item

	backendRunning bool
	selfCancelled  bool
}

// New creates an empty store. The bus may be nil for tests that do not care
// about change notifications.
func New(bus *events.Bus) *Store {
	return &Store{bus: bus}
}

func (s *Store) notify(field string) {
	if s.bus != nil {
		s.bus.PublishStoreChanged(field)
	}
}

// Devices returns a copy of the known device list.
func (s *Store) Devices() []models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Device, len(s.devices))
	copy(out, s.devices)
	return out
}

// SetDevices replaces the device list, e.g. after a scan.
func (s *Store) SetDevices(devices []models.Device) {
	s.mu.Lock()
	s.devices = append([]models.Device(nil), devices...)
	s.mu.Unlock()
	s.notify("devices")
}

// UpsertDevice updates a device in place when its fingerprint is already
// known, otherwise appends it. When the selected device matches, its cached
// fields are refreshed too.
func (s *Store) UpsertDevice(d models.Device) {
	s.mu.Lock()
	found := false
	for i := range s.devices {
		if s.devices[i].Fingerprint != "" && s.devices[i].Fingerprint == d.Fingerprint {
			s.devices[i] = d
			found = true
			break
		}
	}
	if !found {
		s.devices = append(s.devices, d)
	}
	if s.selectedDevice != nil && s.selectedDevice.Fingerprint == d.Fingerprint {
		dd := d
		s.selectedDevice = &dd
	}
	s.mu.Unlock()
	s.notify("devices")
}

// SelectedDevice returns the selected device, or nil.
func (s *Store) SelectedDevice() *models.Device {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedDevice == nil {
		return nil
	}
	d := *s.selectedDevice
	return &d
}

// SelectDevice sets (or clears, with nil) the selected device.
func (s *Store) SelectDevice(d *models.Device) {
	s.mu.Lock()
	if d == nil {
		s.selectedDevice = nil
	} else {
		dd := *d
		s.selectedDevice = &dd
	}
	s.mu.Unlock()
	s.notify("selectedDevice")
}

// Queue returns a copy of the send queue.
func (s *Store) Queue() []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, len(s.queue))
	copy(out, s.queue)
	return out
}

// AddItem appends an item to the queue. Adding an item whose dedup key
// matches an existing entry is a no-op; the return value reports whether the
// queue changed.
func (s *Store) AddItem(item models.Item) bool {
	s.mu.Lock()
	for _, existing := range s.queue {
		if existing.DedupKey() == item.DedupKey() {
			s.mu.Unlock()
			return false
		}
	}
	s.queue = append(s.queue, item)
	s.mu.Unlock()
	s.notify("queue")
	return true
}

// RemoveItem removes the queue entry with the given id, if present.
func (s *Store) RemoveItem(id string) {
	s.mu.Lock()
	filtered := s.queue[:0]
	for _, item := range s.queue {
		if item.ID() != id {
			filtered = append(filtered, item)
		}
	}
	s.queue = filtered
	s.mu.Unlock()
	s.notify("queue")
}

// ClearQueue empties the send queue.
func (s *Store) ClearQueue() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
	s.notify("queue")
}

// Uploading reports whether a send is in flight.
func (s *Store) Uploading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uploading
}

// SetUploading flips the in-flight flag.
func (s *Store) SetUploading(v bool) {
	s.mu.Lock()
	s.uploading = v
	s.mu.Unlock()
	s.notify("uploading")
}

// UploadProgress returns a copy of the per-item progress entries.
func (s *Store) UploadProgress() []models.UploadProgressEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UploadProgressEntry, len(s.uploadProgress))
	copy(out, s.uploadProgress)
	return out
}

// SetUploadProgress replaces the progress entry list. Entries are created
// once per send and only mutated afterwards.
func (s *Store) SetUploadProgress(entries []models.UploadProgressEntry) {
	s.mu.Lock()
	s.uploadProgress = append([]models.UploadProgressEntry(nil), entries...)
	s.mu.Unlock()
	s.notify("uploadProgress")
}

// UpdateEntry sets the status (and error message) of one entry. Terminal
// states are sticky: a done or error entry ignores non-terminal updates, so
// late or re-ordered writes cannot regress an item.
func (s *Store) UpdateEntry(fileID string, status models.UploadStatus, errMsg string) {
	s.mu.Lock()
	changed := false
	for i := range s.uploadProgress {
		if s.uploadProgress[i].FileID != fileID {
			continue
		}
		if s.uploadProgress[i].Status.Terminal() && !status.Terminal() {
			break
		}
		s.uploadProgress[i].Status = status
		s.uploadProgress[i].Error = errMsg
		changed = true
		break
	}
	s.mu.Unlock()
	if changed {
		s.notify("uploadProgress")
	}
}

// MarkAllUploading transitions every pending entry to uploading.
func (s *Store) MarkAllUploading() {
	s.mu.Lock()
	for i := range s.uploadProgress {
		if s.uploadProgress[i].Status == models.StatusPending {
			s.uploadProgress[i].Status = models.StatusUploading
		}
	}
	s.mu.Unlock()
	s.notify("uploadProgress")
}

// ForceAllError marks every entry as failed with the given message. Used on
// whole-operation aborts.
func (s *Store) ForceAllError(msg string) {
	s.mu.Lock()
	for i := range s.uploadProgress {
		s.uploadProgress[i].Status = models.StatusError
		s.uploadProgress[i].Error = msg
	}
	s.mu.Unlock()
	s.notify("uploadProgress")
}

// ForceUploadingDone flips every entry still in uploading to done and
// returns how many were flipped. This resolves folder-upload entries whose
// per-file identities the backend never reports.
func (s *Store) ForceUploadingDone() int {
	s.mu.Lock()
	n := 0
	for i := range s.uploadProgress {
		if s.uploadProgress[i].Status == models.StatusUploading {
			s.uploadProgress[i].Status = models.StatusDone
			n++
		}
	}
	s.mu.Unlock()
	if n > 0 {
		s.notify("uploadProgress")
	}
	return n
}

// ForceUploadingError fails every entry still in flight with the given
// message and returns how many were failed. Entries already done or errored
// keep their terminal state.
func (s *Store) ForceUploadingError(msg string) int {
	s.mu.Lock()
	n := 0
	for i := range s.uploadProgress {
		switch s.uploadProgress[i].Status {
		case models.StatusDone, models.StatusError:
		default:
			s.uploadProgress[i].Status = models.StatusError
			s.uploadProgress[i].Error = msg
			n++
		}
	}
	s.mu.Unlock()
	if n > 0 {
		s.notify("uploadProgress")
	}
	return n
}

// SendStats returns the aggregate send counters.
func (s *Store) SendStats() models.SendStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sendStats
}

// SetSendStats overwrites the aggregate send counters.
func (s *Store) SetSendStats(stats models.SendStats) {
	s.mu.Lock()
	s.sendStats = stats
	s.mu.Unlock()
	s.notify("sendStats")
}

// CurrentSessionID returns the active outbound session id, or "".
func (s *Store) CurrentSessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSessionID
}

// SetCurrentSession records the active outbound session id.
func (s *Store) SetCurrentSession(sessionID string) {
	s.mu.Lock()
	s.currentSessionID = sessionID
	s.mu.Unlock()
	s.notify("currentSession")
}

// ClearSessionIf clears the active session only when it still equals
// sessionID, and reports whether it cleared. Whoever clears first wins; the
// loser's clear becomes a no-op. Send stats are reset together with the
// session.
func (s *Store) ClearSessionIf(sessionID string) bool {
	s.mu.Lock()
	if s.currentSessionID == "" || s.currentSessionID != sessionID {
		s.mu.Unlock()
		return false
	}
	s.currentSessionID = ""
	s.sendStats = models.SendStats{}
	s.mu.Unlock()
	s.notify("currentSession")
	return true
}

// ClearSession unconditionally clears the active session and send stats.
func (s *Store) ClearSession() {
	s.mu.Lock()
	s.currentSessionID = ""
	s.sendStats = models.SendStats{}
	s.mu.Unlock()
	s.notify("currentSession")
}

// ReceiveProgress returns the tracked inbound progress, or nil.
func (s *Store) ReceiveProgress() *models.ReceiveProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.receiveProgress == nil {
		return nil
	}
	rp := *s.receiveProgress
	return &rp
}

// StartReceive begins tracking an inbound session, superseding any previous
// one.
func (s *Store) StartReceive(rp models.ReceiveProgress) {
	s.mu.Lock()
	s.receiveProgress = &rp
	s.mu.Unlock()
	s.notify("receiveProgress")
}

// UpdateReceive advances inbound progress. Events for a session other than
// the tracked one are ignored.
func (s *Store) UpdateReceive(sessionID string, completed int, currentFile string) {
	s.mu.Lock()
	if s.receiveProgress == nil || s.receiveProgress.SessionID != sessionID {
		s.mu.Unlock()
		return
	}
	s.receiveProgress.CompletedCount = completed
	if currentFile != "" {
		s.receiveProgress.CurrentFileName = currentFile
	}
	s.mu.Unlock()
	s.notify("receiveProgress")
}

// EndReceive clears inbound progress when the session matches.
func (s *Store) EndReceive(sessionID string) {
	s.mu.Lock()
	if s.receiveProgress == nil || s.receiveProgress.SessionID != sessionID {
		s.mu.Unlock()
		return
	}
	s.receiveProgress = nil
	s.mu.Unlock()
	s.notify("receiveProgress")
}

// Favorites returns a copy of the favorites list.
func (s *Store) Favorites() []models.FavoriteDevice {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FavoriteDevice, len(s.favorites))
	copy(out, s.favorites)
	return out
}

// SetFavorites replaces the favorites list.
func (s *Store) SetFavorites(favorites []models.FavoriteDevice) {
	s.mu.Lock()
	s.favorites = append([]models.FavoriteDevice(nil), favorites...)
	s.mu.Unlock()
	s.notify("favorites")
}

// ShareSessions returns a copy of the active share sessions.
func (s *Store) ShareSessions() []models.ShareSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ShareSession, len(s.shareSessions))
	copy(out, s.shareSessions)
	return out
}

// AddShareSession tracks a newly created share session.
func (s *Store) AddShareSession(sess models.ShareSession) {
	s.mu.Lock()
	s.shareSessions = append(s.shareSessions, sess)
	s.mu.Unlock()
	s.notify("shareSessions")
}

// RemoveShareSession drops a share session by id.
func (s *Store) RemoveShareSession(sessionID string) {
	s.mu.Lock()
	filtered := s.shareSessions[:0]
	for _, sess := range s.shareSessions {
		if sess.SessionID != sessionID {
			filtered = append(filtered, sess)
		}
	}
	s.shareSessions = filtered
	s.mu.Unlock()
	s.notify("shareSessions")
}

// PendingShare returns the items staged for the next share session.
func (s *Store) PendingShare() []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Item, len(s.pendingShare))
	copy(out, s.pendingShare)
	return out
}

// SetPendingShare stages items for the next share session.
func (s *Store) SetPendingShare(items []models.Item) {
	s.mu.Lock()
	s.pendingShare = append([]models.Item(nil), items...)
	s.mu.Unlock()
	s.notify("pendingShare")
}

// BackendRunning reports the cached backend running flag.
func (s *Store) BackendRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backendRunning
}

// SetBackendRunning updates the backend running flag. A true-to-false
// transition resets backend-owned caches: favorites, share sessions, pending
// share items, and inbound progress.
func (s *Store) SetBackendRunning(running bool) {
	s.mu.Lock()
	wasRunning := s.backendRunning
	s.backendRunning = running
	if wasRunning && !running {
		s.favorites = nil
		s.shareSessions = nil
		s.pendingShare = nil
		s.receiveProgress = nil
	}
	s.mu.Unlock()
	s.notify("backendRunning")
}

// MarkSelfCancelled sets the one-shot marker used to suppress the backend's
// cancellation echo after a user-initiated cancel.
func (s *Store) MarkSelfCancelled() {
	s.mu.Lock()
	s.selfCancelled = true
	s.mu.Unlock()
}

// ConsumeSelfCancelled reads and clears the suppression marker.
func (s *Store) ConsumeSelfCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.selfCancelled
	s.selfCancelled = false
	return v
}

// ResetAll restores the store to its initial state.
func (s *Store) ResetAll() {
	s.mu.Lock()
	s.devices = nil
	s.selectedDevice = nil
	s.queue = nil
	s.uploading = false
	s.uploadProgress = nil
	s.sendStats = models.SendStats{}
	s.currentSessionID = ""
	s.receiveProgress = nil
	s.favorites = nil
	s.shareSessions = nil
	s.pendingShare = nil
	s.selfCancelled = false
	s.mu.Unlock()
	s.notify("reset")
}
