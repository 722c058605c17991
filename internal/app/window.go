package app

import (
	"log/slog"
	"sync"

	"github.com/florianilch/tokencatch/internal/tray"
)

// statusWindow stands in for the host shell's main window. The process renders
// no window of its own, so visibility is tracked and logged only.
type statusWindow struct {
	mu      sync.Mutex
	visible bool
}

func newStatusWindow() *statusWindow {
	return &statusWindow{visible: true}
}

func (w *statusWindow) locate() (tray.Window, error) {
	return w, nil
}

func (w *statusWindow) Show() error {
	w.setVisible(true)
	return nil
}

func (w *statusWindow) Hide() error {
	w.setVisible(false)
	return nil
}

func (w *statusWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *statusWindow) setVisible(visible bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.visible != visible {
		slog.Info("window visibility changed", "visible", visible)
	}
	w.visible = visible
}
