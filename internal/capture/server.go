package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/florianilch/tokencatch/internal/tokenstore"
)

// Option configures a Server.
type Option func(*config)

type config struct {
	cors   bool
	logger *slog.Logger
}

// WithCORS toggles permissive CORS headers and the catch-all preflight route.
func WithCORS(enabled bool) Option {
	return func(c *config) {
		c.cors = enabled
	}
}

// WithLogger sets the logger used for request logs. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Server is the loopback capture listener.
type Server struct {
	handler http.Handler

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Compile-time check that Server implements http.Handler
var _ http.Handler = (*Server)(nil)

// New creates a capture listener persisting tokens to store.
func New(store tokenstore.TokenStore, opts ...Option) (*Server, error) {
	if store == nil {
		return nil, errors.New("missing token store")
	}

	cfg := config{
		cors:   true,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+CapturePath, &CaptureHandler{Store: store})
	mux.HandleFunc("GET "+CallbackPath, callback)
	if cfg.cors {
		mux.HandleFunc("OPTIONS /", preflight)
	}
	// Anything else, including OPTIONS with CORS disabled, is an unknown route.
	mux.HandleFunc("/", http.NotFound)

	middlewares := []func(http.Handler) http.Handler{
		stripQuery,
		Logging(cfg.logger),
		restoreQuery,
		RequestID,
	}
	if cfg.cors {
		middlewares = append(middlewares, CORS)
	}
	middlewares = append(middlewares, Recovery)

	return &Server{handler: applyMiddlewares(mux, middlewares...)}, nil
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Start starts the HTTP server in the background and returns immediately.
// Returns a channel for runtime errors and a startup error if any.
//
// Startup errors (port in use, permission denied) are returned immediately.
// Runtime errors (network failures during operation) are sent to the error channel.
//
// The caller is responsible for calling Shutdown() to stop the server.
func (s *Server) Start(ctx context.Context, address string) (<-chan error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return nil, errors.New("capture listener already started")
	}

	// Startup phase: Create listener synchronously to catch port-in-use errors immediately
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", address, err)
	}

	server := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       90 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
	s.server = server
	s.listener = listener

	errCh := make(chan error, 1)

	go func() {
		err := server.Serve(listener)
		// Only report error if not from graceful shutdown
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	return errCh, nil
}

// Addr returns the bound listener address, or an empty string before Start.
// Useful when listening on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown performs graceful shutdown of the HTTP server.
// Returns error if shutdown fails or times out.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.mu.Unlock()

	if server == nil {
		return nil
	}

	if err := server.Shutdown(ctx); err != nil {
		// Graceful shutdown failed - force close
		_ = server.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}
