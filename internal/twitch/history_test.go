package twitch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/florianilch/tokencatch/internal/tokenstore"
)

func newTestHistory(t *testing.T) (*History, string) {
	t.Helper()
	root := t.TempDir()
	resolver, err := tokenstore.NewResolver(tokenstore.StrategyStatic, tokenstore.Namespace, root)
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	history, err := NewHistory(resolver)
	if err != nil {
		t.Fatalf("NewHistory: %v", err)
	}
	return history, filepath.Join(root, tokenstore.Namespace, HistoryFileName)
}

func TestHistoryMissingIsEmpty(t *testing.T) {
	history, path := newTestHistory(t)

	entries, err := history.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v, want none", entries)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Load created the history file: %v", err)
	}
}

func TestHistoryAddNewestFirst(t *testing.T) {
	history, path := newTestHistory(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"Clip1", "Clip2", "Clip3"} {
		entry := Entry{ID: id, EditURL: "https://clips.twitch.tv/" + id + "/edit", Channel: "caffeine", CreatedAt: now.Add(time.Duration(i) * time.Minute)}
		if err := history.Add(ctx, entry); err != nil {
			t.Fatalf("Add(%s): %v", id, err)
		}
	}

	entries, err := history.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if len(ids) != 3 || ids[0] != "Clip3" || ids[2] != "Clip1" {
		t.Errorf("ids = %v, want newest first", ids)
	}
	if !entries[0].CreatedAt.Equal(now.Add(2 * time.Minute)) {
		t.Errorf("created at = %v", entries[0].CreatedAt)
	}

	if got, err := history.Path(); err != nil || got != path {
		t.Errorf("Path() = %q, %v, want %q", got, err, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %04o, want 0600", perm)
	}
}

func TestHistoryClear(t *testing.T) {
	history, _ := newTestHistory(t)
	ctx := context.Background()

	if err := history.Add(ctx, Entry{ID: "Clip1", CreatedAt: time.Now()}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := history.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	entries, err := history.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("entries = %v after Clear", entries)
	}
}

func TestHistoryCorrupt(t *testing.T) {
	history, path := newTestHistory(t)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := history.Load(context.Background()); err == nil {
		t.Error("Load accepted a corrupt history")
	}
	if err := history.Add(context.Background(), Entry{ID: "Clip1"}); err == nil {
		t.Error("Add overwrote a corrupt history")
	}
}
