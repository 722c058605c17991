package tray

import (
	"errors"
	"log/slog"
	"sync"
)

// State is the visibility of the main window as seen by the tray.
type State int

const (
	StateVisible State = iota
	StateHidden
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateVisible:
		return "visible"
	case StateHidden:
		return "hidden"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Menu item identifiers.
const (
	MenuQuit = "quit"
	MenuHide = "hide"
)

// ErrWindowNotFound is returned by a WindowLocator when the main window is gone.
var ErrWindowNotFound = errors.New("main window not found")

// Window is the host shell's main window.
type Window interface {
	Show() error
	Hide() error
}

// WindowLocator looks up the main window. Lookups may fail at any time, for
// example while the host shell is tearing the window down.
type WindowLocator func() (Window, error)

// Controller owns the tray-driven window lifecycle. Construct one per process
// and hand it to the host's event dispatch.
type Controller struct {
	locate WindowLocator
	onQuit func()
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	quitOnce sync.Once
}

// NewController creates a Controller for a window that starts out visible.
// onQuit runs once, on the first Quit.
func NewController(locate WindowLocator, onQuit func(), logger *slog.Logger) (*Controller, error) {
	if locate == nil {
		return nil, errors.New("missing window locator")
	}
	if onQuit == nil {
		return nil, errors.New("missing quit callback")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Controller{
		locate: locate,
		onQuit: onQuit,
		logger: logger.With("component", "tray"),
		state:  StateVisible,
	}, nil
}

// State returns the current window state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CloseRequested hides the window instead of closing it. It always returns true:
// the host must prevent the close and keep the process running.
func (c *Controller) CloseRequested() bool {
	c.transition("close requested", StateHidden, Window.Hide)
	return true
}

// MenuItemClicked dispatches a tray menu click. Unknown ids are ignored.
func (c *Controller) MenuItemClicked(id string) {
	switch id {
	case MenuQuit:
		c.quit()
	case MenuHide:
		c.transition("hide clicked", StateHidden, Window.Hide)
	default:
		c.logger.Debug("ignoring unknown menu item", "id", id)
	}
}

// Activated handles a click or double click on the tray icon.
func (c *Controller) Activated() {
	c.transition("icon activated", StateVisible, Window.Show)
}

func (c *Controller) quit() {
	c.mu.Lock()
	c.state = StateTerminated
	c.mu.Unlock()

	c.quitOnce.Do(func() {
		c.logger.Info("quit requested")
		c.onQuit()
	})
}

// transition applies action to the window and records the new state.
// A missing window or failed action is logged and leaves the state unchanged.
func (c *Controller) transition(event string, to State, action func(Window) error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateTerminated {
		c.logger.Debug("ignoring tray event after quit", "event", event)
		return
	}

	window, err := c.locate()
	if err == nil && window == nil {
		err = ErrWindowNotFound
	}
	if err != nil {
		c.logger.Warn("window lookup failed", "event", event, "error", err)
		return
	}

	if err := action(window); err != nil {
		c.logger.Warn("window action failed", "event", event, "state", to, "error", err)
		return
	}

	if c.state != to {
		c.logger.Debug("window state changed", "event", event, "from", c.state, "to", to)
	}
	c.state = to
}
