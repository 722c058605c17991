//go:build !notray

package tray

import (
	"context"

	"github.com/energye/systray"
)

// HasGUI reports whether this build hosts a real tray icon.
func HasGUI() bool {
	return true
}

// Run hosts the tray icon for c and blocks until ctx is done.
// Choosing Quit runs the controller's quit callback, which is expected to cancel ctx.
//
// On macOS this must be called from the main goroutine.
func Run(ctx context.Context, c *Controller, opts Options) error {
	opts = opts.withDefaults()

	stop := context.AfterFunc(ctx, systray.Quit)
	defer stop()

	systray.Run(func() {
		setup(c, opts)
		// ctx may have ended before the loop was ready to be stopped
		if ctx.Err() != nil {
			systray.Quit()
		}
	}, func() {
		c.logger.Debug("tray host exited")
	})

	return nil
}

// setup builds the icon and menu: Quit, separator, Hide.
func setup(c *Controller, opts Options) {
	systray.SetIcon(iconData)
	systray.SetTitle(opts.Title)
	systray.SetTooltip(opts.Tooltip)

	systray.SetOnClick(func(menu systray.IMenu) {
		c.Activated()
	})
	systray.SetOnDClick(func(menu systray.IMenu) {
		c.Activated()
	})
	systray.SetOnRClick(func(menu systray.IMenu) {
		menu.ShowMenu()
	})

	quit := systray.AddMenuItem("Quit", "Quit "+opts.Title)
	quit.Click(func() {
		c.MenuItemClicked(MenuQuit)
	})

	systray.AddSeparator()

	hide := systray.AddMenuItem("Hide", "Hide the window")
	hide.Click(func() {
		c.MenuItemClicked(MenuHide)
	})

	c.logger.Debug("tray icon ready")
}
