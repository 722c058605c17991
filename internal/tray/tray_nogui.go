//go:build notray

package tray

import "context"

// HasGUI reports whether this build hosts a real tray icon.
func HasGUI() bool {
	return false
}

// Run blocks until ctx is done. Builds tagged notray have no tray icon;
// the controller is still driven by whatever host calls it.
func Run(ctx context.Context, c *Controller, opts Options) error {
	c.logger.Info("tray icon not available in this build", "title", opts.withDefaults().Title)
	<-ctx.Done()
	return nil
}
