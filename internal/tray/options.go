package tray

// Options configures the tray icon.
type Options struct {
	// Title shown next to the icon where the platform supports it.
	Title string
	// Tooltip shown when hovering the icon.
	Tooltip string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = "tokencatch"
	}
	if o.Tooltip == "" {
		o.Tooltip = o.Title
	}
	return o
}
