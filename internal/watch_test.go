package internal

import (
	"context"
	"os"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ImportsNewRecord(t *testing.T) {
	cfg := testConfig(t)
	lib := testLibrary(t)
	inbox := cfg.Watch.Inbox
	if err := os.MkdirAll(inbox, 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lib.Watch(ctx, "inbox", inbox) }()

	time.Sleep(100 * time.Millisecond)
	writeRecord(t, inbox, "game.usi", "7g7f 3c3d\n")
	writeRecord(t, inbox, "notes.txt", "7g7f\n")

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		hits, _ := lib.Search("3c3d", 0)
		return len(hits) == 1
	}, "record not imported by watcher")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}

	boxes, err := lib.ListBoxes()
	if err != nil {
		t.Fatal(err)
	}
	if len(boxes) != 1 || boxes[0].Tapes != 1 {
		t.Errorf("Expected one tape in the inbox box, got %+v", boxes)
	}
}
