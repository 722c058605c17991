package tokenstore

import (
	"context"
	"testing"
	"time"
)

func TestWatcherReportsReplacement(t *testing.T) {
	store := newTestFileStore(t, t.TempDir())
	path, err := store.Path()
	if err != nil {
		t.Fatalf("Path: %v", err)
	}

	w, err := NewWatcher(path)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func() { changed <- struct{}{} })
	}()

	if err := store.Write(ctx, "abc123"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported after write")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
