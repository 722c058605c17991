package twitch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/florianilch/tokencatch/internal/tokenstore"
)

// HistoryFileName is stored next to the token file.
const HistoryFileName = "history.json"

// Entry is a created clip as recorded in the history.
type Entry struct {
	ID            string    `json:"id"`
	EditURL       string    `json:"edit_url"`
	Channel       string    `json:"channel_name"`
	BroadcasterID string    `json:"broadcaster_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// History is the list of created clips, newest first.
type History struct {
	file *tokenstore.FileStore

	// guards read-modify-write cycles; the file store only serializes writes
	mu sync.Mutex
}

// NewHistory creates a History in the directory yielded by resolver.
func NewHistory(resolver tokenstore.Resolver) (*History, error) {
	file, err := tokenstore.NewFileStore(resolver, HistoryFileName)
	if err != nil {
		return nil, err
	}
	return &History{file: file}, nil
}

// Path returns the current location of the history file.
func (h *History) Path() (string, error) {
	return h.file.Path()
}

// Load returns all entries, newest first. A missing history is empty.
func (h *History) Load(ctx context.Context) ([]Entry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load(ctx)
}

// Add records entry as the newest clip.
func (h *History) Add(ctx context.Context, entry Entry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries, err := h.load(ctx)
	if err != nil {
		return err
	}
	return h.save(ctx, append([]Entry{entry}, entries...))
}

// Clear removes all entries.
func (h *History) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.save(ctx, []Entry{})
}

func (h *History) load(ctx context.Context) ([]Entry, error) {
	data, err := h.file.Read(ctx)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading clip history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, fmt.Errorf("decoding clip history: %w", err)
	}
	return entries, nil
}

func (h *History) save(ctx context.Context, entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding clip history: %w", err)
	}
	if err := h.file.Write(ctx, string(data)); err != nil {
		return fmt.Errorf("writing clip history: %w", err)
	}
	return nil
}
