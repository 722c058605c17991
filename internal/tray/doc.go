// Package tray keeps the process resident behind a system tray icon.
//
// Closing the main window hides it, the tray menu offers Quit and Hide, and
// clicking the icon shows the window again. The window itself belongs to the
// host shell and is reached through a [WindowLocator].
package tray
