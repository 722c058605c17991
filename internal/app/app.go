package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/florianilch/tokencatch/internal/authorize"
	"github.com/florianilch/tokencatch/internal/capture"
	"github.com/florianilch/tokencatch/internal/tokenstore"
	"github.com/florianilch/tokencatch/internal/tray"
)

// App orchestrates the capture listener and the tray lifecycle.
type App struct {
	cfg     *Config
	store   tokenstore.TokenStore
	capture *capture.Server
	tray    *tray.Controller

	quitCh  chan struct{}
	started atomic.Bool

	// openURL opens the authorization URL when authorize.open_on_start is set
	openURL func(context.Context, string) error
}

// New creates a new App instance.
func New(cfg *Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// No I/O here; the store creates its directory on first write
	store, err := cfg.Store.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}

	captureServer, err := capture.New(store, capture.WithCORS(cfg.Server.CORS == CORSModePermissive))
	if err != nil {
		return nil, fmt.Errorf("failed to create capture listener: %w", err)
	}

	a := &App{
		cfg:     cfg,
		store:   store,
		capture: captureServer,
		quitCh:  make(chan struct{}),
		openURL: authorize.Open,
	}

	window := newStatusWindow()
	controller, err := tray.NewController(window.locate, func() { close(a.quitCh) }, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to create tray controller: %w", err)
	}
	a.tray = controller

	return a, nil
}

// Tray returns the controller the host shell dispatches window and tray events to.
func (a *App) Tray() *tray.Controller {
	return a.tray
}

// Addr returns the bound capture listener address, or an empty string before Start.
func (a *App) Addr() string {
	return a.capture.Addr()
}

// RedirectURL returns the configured redirect URL, or the callback page on the
// bound listener port. Empty while a dynamic port is not bound yet.
func (a *App) RedirectURL() string {
	if a.cfg.Authorize.RedirectURL != "" {
		return a.cfg.Authorize.RedirectURL
	}

	_, portStr, err := net.SplitHostPort(a.capture.Addr())
	if err != nil {
		return ""
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return ""
	}
	return CallbackURL(uint16(port))
}

// Start spawns the capture listener and runs the tray host until ctx is done or
// Quit is chosen from the tray. It may only be called once.
// Uses errgroup for runtime error monitoring and shutdown function collection for coordinated cleanup.
func (a *App) Start(ctx context.Context) error {
	if !a.started.CompareAndSwap(false, true) {
		return errors.New("app already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(runCtx)

	address := a.cfg.Server.Address()
	var shutdownFuncs []func(context.Context) error

	// Startup phase: Start services
	slog.InfoContext(gCtx, "starting capture listener", "address", address, "cors", a.cfg.Server.CORS)
	captureErrCh, err := a.capture.Start(gCtx, address)
	if err != nil {
		return fmt.Errorf("capture listener startup failed: %w", err)
	}
	shutdownFuncs = append(shutdownFuncs, a.capture.Shutdown)

	// Monitor runtime errors - errgroup cancels context on first error
	g.Go(func() error {
		select {
		case err := <-captureErrCh:
			if err != nil {
				slog.ErrorContext(gCtx, "capture listener runtime error", "error", err)
				return fmt.Errorf("capture listener: %w", err)
			}
			return nil
		case <-gCtx.Done():
			return nil
		}
	})

	// Quit from the tray ends the run
	g.Go(func() error {
		select {
		case <-a.quitCh:
			slog.InfoContext(gCtx, "quit requested from tray")
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	slog.InfoContext(gCtx, "application ready", "address", a.capture.Addr(), "redirect_url", a.RedirectURL())
	a.announceAuthorization(gCtx)

	// The tray host owns the foreground until the run ends
	if a.cfg.Tray.Headless {
		<-gCtx.Done()
	} else if err := tray.Run(gCtx, a.tray, tray.Options{Title: a.cfg.Tray.Title, Tooltip: a.cfg.Tray.Tooltip}); err != nil {
		slog.ErrorContext(gCtx, "tray host failed, continuing without tray", "error", err)
	}

	runtimeErr := g.Wait()

	slog.InfoContext(gCtx, "shutting down services")

	// Shutdown phase: Stop all services
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Shutdown.Timeout)
	defer shutdownCancel()

	var errs []error
	if runtimeErr != nil {
		errs = append(errs, fmt.Errorf("runtime: %w", runtimeErr))
	}

	for i := len(shutdownFuncs) - 1; i >= 0; i-- {
		if err := shutdownFuncs[i](shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "service shutdown failed", "error", err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	slog.Info("application stopped")
	return nil
}

// announceAuthorization logs the authorization URL for the bound listener and
// opens it if configured. Without a client id there is nothing to authorize.
func (a *App) announceAuthorization(ctx context.Context) {
	if a.cfg.Authorize.ClientID == "" {
		return
	}

	authURL, state := authorize.URL(authorize.Options{
		ClientID:    a.cfg.Authorize.ClientID,
		RedirectURL: a.RedirectURL(),
		Scopes:      a.cfg.Authorize.Scopes,
	})
	slog.InfoContext(ctx, "authorization URL", "url", authURL, "state", state)

	if !a.cfg.Authorize.OpenOnStart {
		return
	}
	if err := a.openURL(context.WithoutCancel(ctx), authURL); err != nil {
		slog.WarnContext(ctx, "failed to open browser", "error", err)
	}
}
