package bridge

import (
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/decky-localsend/deckysend/internal/events"
	"github.com/decky-localsend/deckysend/internal/store"
)

func TestListenerDeliversDecodedEvents(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "notify.sock")
	sink := make(chan events.BackendEvent, 16)
	st := store.New(nil)

	ln := NewListener(socketPath, sink, st)
	if err := ln.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer ln.Stop()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// One valid line, one malformed line, then another valid line: the
	// malformed one is skipped, not fatal.
	payload := `{"type":"device_discovered","alias":"Deck","fingerprint":"fp1"}` + "\n" +
		`{broken` + "\n" +
		`{"type":"pin_required","message":"enter pin"}` + "\n"
	if _, err := conn.Write([]byte(payload)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	first := waitEvent(t, sink)
	if d, ok := first.(events.DeviceDiscovered); !ok || d.Device.Alias != "Deck" {
		t.Errorf("first event = %#v", first)
	}

	second := waitEvent(t, sink)
	if _, ok := second.(events.PinRequired); !ok {
		t.Errorf("second event = %#v", second)
	}

	if !st.BackendRunning() {
		t.Error("a connected backend must flip the running flag")
	}
}

func TestListenerStopClearsRunningFlag(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "notify.sock")
	sink := make(chan events.BackendEvent, 1)
	st := store.New(nil)

	ln := NewListener(socketPath, sink, st)
	if err := ln.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	conn.Close()

	ln.Stop()
	if st.BackendRunning() {
		t.Error("stop must clear the running flag")
	}
}

func waitEvent(t *testing.T, sink <-chan events.BackendEvent) events.BackendEvent {
	t.Helper()
	select {
	case ev := <-sink:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event delivered")
		return nil
	}
}
