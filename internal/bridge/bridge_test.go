package bridge

import (
	"sync"
	"testing"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/models"
	"github.com/decky-localsend/deckysend/internal/notify"
	"github.com/decky-localsend/deckysend/internal/store"
)

// notifyRecorder captures delivered notifications.
type notifyRecorder struct {
	mu     sync.Mutex
	titles []string
}

func (r *notifyRecorder) record(title, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
	return nil
}

func (r *notifyRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.titles)
}

func (r *notifyRecorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.titles) == 0 {
		return ""
	}
	return r.titles[len(r.titles)-1]
}

func newTestBridge() (*Bridge, *store.Store, *notifyRecorder) {
	bus := events.NewBus(64)
	st := store.New(bus)
	rec := &notifyRecorder{}
	notifier := notify.NewNotifier(true)
	notifier.SetSender(rec.record)
	return NewBridge(st, bus, notifier), st, rec
}

func TestDispatchDeviceEventsUpsert(t *testing.T) {
	b, st, _ := newTestBridge()

	b.Dispatch(events.DeviceDiscovered{Device: models.Device{Fingerprint: "fp1", Alias: "Deck"}})
	b.Dispatch(events.DeviceUpdated{Device: models.Device{Fingerprint: "fp1", Alias: "Deck Renamed"}})

	devices := st.Devices()
	if len(devices) != 1 {
		t.Fatalf("device count = %d, want 1", len(devices))
	}
	if devices[0].Alias != "Deck Renamed" {
		t.Errorf("alias = %q", devices[0].Alias)
	}
}

func TestDispatchReceiveLifecycle(t *testing.T) {
	b, st, _ := newTestBridge()

	b.Dispatch(events.UploadStart{SessionID: "in-1", TotalFiles: 3, FileName: "a.jpg", Sender: "Phone"})
	rp := st.ReceiveProgress()
	if rp == nil || rp.TotalFiles != 3 {
		t.Fatalf("receive not started: %+v", rp)
	}

	b.Dispatch(events.UploadProgress{SessionID: "in-1", CompletedCount: 2, CurrentFileName: "b.jpg"})
	if st.ReceiveProgress().CompletedCount != 2 {
		t.Error("progress not applied")
	}

	// Progress for a stale session must not leak into the tracked one.
	b.Dispatch(events.UploadProgress{SessionID: "in-old", CompletedCount: 99})
	if st.ReceiveProgress().CompletedCount != 2 {
		t.Error("stale progress applied")
	}

	b.Dispatch(events.UploadEnd{SessionID: "in-1", Title: "Done"})
	if st.ReceiveProgress() != nil {
		t.Error("receive not ended")
	}
}

func TestDispatchConfirmWithoutSessionIsLocalError(t *testing.T) {
	b, _, rec := newTestBridge()

	b.Dispatch(events.ConfirmReceive{Sender: "Phone", Title: "Incoming"})
	if rec.count() != 0 {
		t.Error("confirmation without session id must not notify")
	}

	b.Dispatch(events.ConfirmReceive{SessionID: "s1", Sender: "Phone", Title: "Incoming"})
	if rec.count() != 1 {
		t.Error("valid confirmation should notify")
	}
}

func TestDispatchSelfCancelledIsSuppressed(t *testing.T) {
	b, st, rec := newTestBridge()
	st.MarkSelfCancelled()

	b.Dispatch(events.UploadCancelled{SessionID: "s1", Message: "cancelled"})
	if rec.count() != 0 {
		t.Error("own cancellation echo must be suppressed")
	}

	// The next cancellation is someone else's and must surface.
	b.Dispatch(events.UploadCancelled{SessionID: "s2", Message: "peer gone"})
	if rec.count() != 1 {
		t.Error("peer cancellation should notify")
	}
}

func TestDispatchPeerCancellationEndsSession(t *testing.T) {
	b, st, _ := newTestBridge()
	st.SetCurrentSession("s1")
	st.SetUploading(true)
	st.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusUploading},
	})

	b.Dispatch(events.UploadCancelled{SessionID: "s1"})

	if st.CurrentSessionID() != "" {
		t.Error("session not cleared")
	}
	if st.Uploading() {
		t.Error("uploading flag not cleared")
	}
	if st.UploadProgress()[0].Status != models.StatusError {
		t.Error("in-flight entries must be failed")
	}
}

func TestDispatchSendProgressStaleSessionDropped(t *testing.T) {
	b, st, _ := newTestBridge()
	st.SetCurrentSession("s-current")
	st.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusUploading},
	})

	b.Dispatch(events.SendProgress{SessionID: "s-old", FileID: "f1", Status: "done"})

	if st.UploadProgress()[0].Status != models.StatusUploading {
		t.Error("stale report must not touch progress")
	}
	if st.CurrentSessionID() != "s-current" {
		t.Error("stale report must not clear the session")
	}
}

func TestDispatchSendProgressPerItemAndAggregate(t *testing.T) {
	b, st, _ := newTestBridge()
	st.SetCurrentSession("s1")
	st.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusUploading},
		{FileID: "f2", Status: models.StatusUploading},
	})

	b.Dispatch(events.SendProgress{SessionID: "s1", FileID: "f1", Status: "done"})
	b.Dispatch(events.SendProgress{SessionID: "s1", TotalFiles: 2, CompletedCount: 1})

	if st.UploadProgress()[0].Status != models.StatusDone {
		t.Error("per-item update not applied")
	}
	stats := st.SendStats()
	if stats.TotalFiles != 2 || stats.CompletedCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if st.CurrentSessionID() != "s1" {
		t.Error("non-terminal report must keep the session open")
	}
}

func TestDispatchTerminalSendProgressCompletesSend(t *testing.T) {
	b, st, rec := newTestBridge()
	st.AddItem(models.NewRegularFile("/tmp/a", 1))
	st.SetCurrentSession("s1")
	st.SetUploading(true)
	st.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusDone},
		{FileID: "f2", Status: models.StatusUploading},
	})

	b.Dispatch(events.SendProgress{SessionID: "s1", Status: "done", TotalFiles: 2, CompletedCount: 2})

	if st.CurrentSessionID() != "" {
		t.Error("terminal report must clear the session")
	}
	for _, e := range st.UploadProgress() {
		if e.Status != models.StatusDone {
			t.Errorf("entry %s = %s, want done", e.FileID, e.Status)
		}
	}
	if len(st.Queue()) != 0 {
		t.Error("fully successful send must clear the queue")
	}
	if st.Uploading() {
		t.Error("uploading flag not cleared")
	}
	if rec.count() != 1 {
		t.Error("completion should notify once")
	}

	// A duplicate terminal report is a no-op.
	b.Dispatch(events.SendProgress{SessionID: "s1", Status: "done"})
	if rec.count() != 1 {
		t.Error("duplicate terminal report must not notify again")
	}
}

func TestDispatchFinalPerItemReportWithFullCountCompletes(t *testing.T) {
	b, st, _ := newTestBridge()
	st.SetCurrentSession("s1")
	st.SetUploading(true)
	st.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusUploading},
		{FileID: "folder1", Status: models.StatusUploading},
	})

	// The last report carries both the final file and the full aggregate.
	// The count reaching the total is terminal even on a per-item report.
	b.Dispatch(events.SendProgress{SessionID: "s1", FileID: "f1", Status: "done", TotalFiles: 2, CompletedCount: 2})

	if st.CurrentSessionID() != "" {
		t.Error("full aggregate count must complete the send")
	}
	for _, e := range st.UploadProgress() {
		if e.Status != models.StatusDone {
			t.Errorf("entry %s = %s, want done", e.FileID, e.Status)
		}
	}
	if st.Uploading() {
		t.Error("uploading flag not cleared")
	}
}

func TestDispatchTerminalErrorPreservesDoneEntries(t *testing.T) {
	b, st, rec := newTestBridge()
	st.AddItem(models.NewRegularFile("/tmp/a", 1))
	st.SetCurrentSession("s1")
	st.SetUploading(true)
	st.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "text1", Status: models.StatusDone},
		{FileID: "f2", Status: models.StatusUploading},
	})

	b.Dispatch(events.SendProgress{SessionID: "s1", Status: "error", Error: "receiver vanished"})

	entries := st.UploadProgress()
	if entries[0].Status != models.StatusDone {
		t.Errorf("done entry reversed to %s", entries[0].Status)
	}
	if entries[1].Status != models.StatusError || entries[1].Error != "receiver vanished" {
		t.Errorf("in-flight entry = %+v", entries[1])
	}
	if got := rec.last(); got != "Send Incomplete" {
		t.Errorf("notification = %q, want partial outcome", got)
	}
}

func TestDispatchTerminalErrorReport(t *testing.T) {
	b, st, _ := newTestBridge()
	st.AddItem(models.NewRegularFile("/tmp/a", 1))
	st.SetCurrentSession("s1")
	st.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusUploading},
	})

	b.Dispatch(events.SendProgress{SessionID: "s1", Status: "error", Error: "receiver vanished"})

	entry := st.UploadProgress()[0]
	if entry.Status != models.StatusError || entry.Error != "receiver vanished" {
		t.Errorf("entry = %+v", entry)
	}
	if len(st.Queue()) != 1 {
		t.Error("failed send must keep the queue")
	}
}

func TestDispatchInfoIsSilent(t *testing.T) {
	b, _, rec := newTestBridge()
	b.Dispatch(events.Info{Title: "chatty", Message: "backend says hi"})
	if rec.count() != 0 {
		t.Error("info events must not notify")
	}
}
