package notify

import (
	"strings"
	"testing"
)

func TestNotifierRespectsEnabledFlag(t *testing.T) {
	n := NewNotifier(false)
	sent := 0
	n.SetSender(func(title, message string) error {
		sent++
		return nil
	})

	n.UploadComplete("Deck", 3)
	if sent != 0 {
		t.Error("disabled notifier must not send")
	}

	n.SetEnabled(true)
	n.UploadComplete("Deck", 3)
	if sent != 1 {
		t.Errorf("sent = %d, want 1", sent)
	}
}

func TestUploadPartialReportsBothCounts(t *testing.T) {
	n := NewNotifier(true)
	var got string
	n.SetSender(func(_, message string) error {
		got = message
		return nil
	})

	n.UploadPartial("Deck", 3, 2)
	if !strings.Contains(got, "Success: 3") || !strings.Contains(got, "Failed: 2") {
		t.Errorf("message = %q, want both counts", got)
	}
}

func TestNotifierTruncatesLongValues(t *testing.T) {
	n := NewNotifier(true)
	var gotMessage string
	n.SetSender(func(title, message string) error {
		gotMessage = message
		return nil
	})

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	n.UploadFailed("Deck", string(long))

	if len(gotMessage) > 160 {
		t.Errorf("message not truncated, len = %d", len(gotMessage))
	}
}
