package store

import (
	"testing"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/models"
)

func TestAddItemIsIdempotent(t *testing.T) {
	s := New(nil)

	first := models.NewRegularFile("/tmp/report.pdf", 100)
	if !s.AddItem(first) {
		t.Fatal("first add should change the queue")
	}

	// Same path, different item id: must be rejected.
	dup := models.NewRegularFile("/tmp/report.pdf", 100)
	if s.AddItem(dup) {
		t.Error("duplicate path add should be a no-op")
	}
	if len(s.Queue()) != 1 {
		t.Errorf("queue length = %d, want 1", len(s.Queue()))
	}

	// Different path is a different item.
	if !s.AddItem(models.NewRegularFile("/tmp/other.pdf", 100)) {
		t.Error("distinct path add should change the queue")
	}
}

func TestAddItemTextDedupByNameAndContent(t *testing.T) {
	s := New(nil)

	s.AddItem(models.NewInlineText("note.txt", "hello"))
	if s.AddItem(models.NewInlineText("note.txt", "hello")) {
		t.Error("identical text should be deduplicated")
	}
	if !s.AddItem(models.NewInlineText("note.txt", "different")) {
		t.Error("same name with different content is a new item")
	}
	if !s.AddItem(models.NewInlineText("other.txt", "hello")) {
		t.Error("same content with different name is a new item")
	}
}

func TestRemoveItem(t *testing.T) {
	s := New(nil)
	item := models.NewRegularFile("/tmp/a", 1)
	s.AddItem(item)
	s.AddItem(models.NewRegularFile("/tmp/b", 1))

	s.RemoveItem(item.ID())
	queue := s.Queue()
	if len(queue) != 1 {
		t.Fatalf("queue length = %d, want 1", len(queue))
	}
	if queue[0].DedupKey() != "file:/tmp/b" {
		t.Errorf("wrong item removed: %s", queue[0].DedupKey())
	}
}

func TestUpsertDeviceByFingerprint(t *testing.T) {
	s := New(nil)
	s.UpsertDevice(models.Device{Fingerprint: "fp1", Alias: "Old Name", IPAddress: "10.0.0.1"})
	s.UpsertDevice(models.Device{Fingerprint: "fp2", Alias: "Other"})

	s.UpsertDevice(models.Device{Fingerprint: "fp1", Alias: "New Name", IPAddress: "10.0.0.9"})

	devices := s.Devices()
	if len(devices) != 2 {
		t.Fatalf("device count = %d, want 2", len(devices))
	}
	if devices[0].Alias != "New Name" || devices[0].IPAddress != "10.0.0.9" {
		t.Errorf("device not updated in place: %+v", devices[0])
	}
}

func TestUpsertDeviceRefreshesSelection(t *testing.T) {
	s := New(nil)
	s.UpsertDevice(models.Device{Fingerprint: "fp1", Alias: "Deck"})
	s.SelectDevice(&models.Device{Fingerprint: "fp1", Alias: "Deck"})

	s.UpsertDevice(models.Device{Fingerprint: "fp1", Alias: "Renamed Deck"})

	sel := s.SelectedDevice()
	if sel == nil || sel.Alias != "Renamed Deck" {
		t.Errorf("selected device not refreshed: %+v", sel)
	}
}

func TestUpdateEntryTerminalIsSticky(t *testing.T) {
	s := New(nil)
	s.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusUploading},
	})

	s.UpdateEntry("f1", models.StatusDone, "")
	s.UpdateEntry("f1", models.StatusUploading, "")

	entries := s.UploadProgress()
	if entries[0].Status != models.StatusDone {
		t.Errorf("done entry regressed to %s", entries[0].Status)
	}

	// Terminal-to-terminal is still allowed only via explicit force paths,
	// not UpdateEntry.
	s.UpdateEntry("f1", models.StatusError, "boom")
	if s.UploadProgress()[0].Status != models.StatusError {
		t.Error("terminal-to-terminal update should apply")
	}
}

func TestForceUploadingDone(t *testing.T) {
	s := New(nil)
	s.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusUploading},
		{FileID: "f2", Status: models.StatusError, Error: "x"},
		{FileID: "f3", Status: models.StatusUploading},
		{FileID: "f4", Status: models.StatusDone},
	})

	if n := s.ForceUploadingDone(); n != 2 {
		t.Errorf("flipped %d entries, want 2", n)
	}
	for _, e := range s.UploadProgress() {
		if e.FileID == "f2" && e.Status != models.StatusError {
			t.Error("error entry must survive force-done")
		}
		if e.FileID != "f2" && e.Status != models.StatusDone {
			t.Errorf("entry %s = %s, want done", e.FileID, e.Status)
		}
	}
}

func TestForceUploadingErrorPreservesTerminalEntries(t *testing.T) {
	s := New(nil)
	s.SetUploadProgress([]models.UploadProgressEntry{
		{FileID: "f1", Status: models.StatusDone},
		{FileID: "f2", Status: models.StatusUploading},
		{FileID: "f3", Status: models.StatusError, Error: "rejected"},
	})

	if n := s.ForceUploadingError("receiver vanished"); n != 1 {
		t.Errorf("failed %d entries, want 1", n)
	}
	entries := s.UploadProgress()
	if entries[0].Status != models.StatusDone {
		t.Error("done entry must survive force-error")
	}
	if entries[1].Status != models.StatusError || entries[1].Error != "receiver vanished" {
		t.Errorf("in-flight entry = %+v", entries[1])
	}
	if entries[2].Error != "rejected" {
		t.Error("existing error message must not be overwritten")
	}
}

func TestClearSessionIfFirstWriterWins(t *testing.T) {
	s := New(nil)
	s.SetCurrentSession("sess-1")
	s.SetSendStats(models.SendStats{TotalFiles: 3, CompletedCount: 1})

	if !s.ClearSessionIf("sess-1") {
		t.Fatal("first clear should win")
	}
	if s.ClearSessionIf("sess-1") {
		t.Error("second clear must be a no-op")
	}
	if s.CurrentSessionID() != "" {
		t.Error("session not cleared")
	}
	if s.SendStats() != (models.SendStats{}) {
		t.Error("send stats not reset with the session")
	}
}

func TestClearSessionIfIgnoresOtherSessions(t *testing.T) {
	s := New(nil)
	s.SetCurrentSession("sess-2")
	if s.ClearSessionIf("sess-1") {
		t.Error("clear for a different session must not apply")
	}
	if s.CurrentSessionID() != "sess-2" {
		t.Error("active session was disturbed")
	}
}

func TestReceiveProgressSessionGuard(t *testing.T) {
	s := New(nil)
	s.StartReceive(models.ReceiveProgress{SessionID: "in-1", TotalFiles: 5})

	s.UpdateReceive("in-other", 3, "x.bin")
	if rp := s.ReceiveProgress(); rp.CompletedCount != 0 {
		t.Error("update for a different session must be ignored")
	}

	s.UpdateReceive("in-1", 2, "a.bin")
	rp := s.ReceiveProgress()
	if rp.CompletedCount != 2 || rp.CurrentFileName != "a.bin" {
		t.Errorf("update not applied: %+v", rp)
	}

	s.EndReceive("in-other")
	if s.ReceiveProgress() == nil {
		t.Error("end for a different session must be ignored")
	}
	s.EndReceive("in-1")
	if s.ReceiveProgress() != nil {
		t.Error("receive progress should be cleared")
	}
}

func TestBackendStopClearsBackendOwnedState(t *testing.T) {
	s := New(nil)
	s.SetBackendRunning(true)
	s.SetFavorites([]models.FavoriteDevice{{Fingerprint: "fp", Alias: "A"}})
	s.AddShareSession(models.ShareSession{SessionID: "sh-1"})
	s.SetPendingShare([]models.Item{models.NewRegularFile("/tmp/a", 1)})
	s.StartReceive(models.ReceiveProgress{SessionID: "in-1"})

	s.SetBackendRunning(false)

	if len(s.Favorites()) != 0 || len(s.ShareSessions()) != 0 || len(s.PendingShare()) != 0 {
		t.Error("backend-owned caches must be cleared on stop")
	}
	if s.ReceiveProgress() != nil {
		t.Error("receive progress must be cleared on stop")
	}
}

func TestConsumeSelfCancelledIsOneShot(t *testing.T) {
	s := New(nil)
	if s.ConsumeSelfCancelled() {
		t.Error("marker should start unset")
	}
	s.MarkSelfCancelled()
	if !s.ConsumeSelfCancelled() {
		t.Error("marker should be set once")
	}
	if s.ConsumeSelfCancelled() {
		t.Error("marker must clear after consumption")
	}
}

func TestStoreMutationsPublishChangeEvents(t *testing.T) {
	bus := events.NewBus(16)
	s := New(bus)
	ch := bus.Subscribe(events.EventStoreChanged)

	s.AddItem(models.NewRegularFile("/tmp/a", 1))

	select {
	case ev := <-ch:
		sc, ok := ev.(*events.StoreChangedEvent)
		if !ok {
			t.Fatalf("unexpected event type %T", ev)
		}
		if sc.Field != "queue" {
			t.Errorf("field = %q, want queue", sc.Field)
		}
	default:
		t.Fatal("no change event published")
	}
}
