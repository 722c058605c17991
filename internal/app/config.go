package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/user"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/florianilch/tokencatch/internal/capture"
	"github.com/florianilch/tokencatch/internal/observability"
	"github.com/florianilch/tokencatch/internal/tokenstore"
	"github.com/florianilch/tokencatch/internal/twitch"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TokenStorageType represents the different storage types supported for captured tokens.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
)

// CORSMode controls the CORS behavior of the capture listener.
type CORSMode string

const (
	CORSModePermissive CORSMode = "permissive"
	CORSModeDisabled   CORSMode = "disabled"
)

// Default configuration values
const (
	DefaultConfigLogFormat       = LogFormatText
	DefaultConfigLogExporter     = observability.ExporterNone
	DefaultConfigServerHost      = "127.0.0.1"
	DefaultConfigServerPort      = 8000
	DefaultConfigServerCORS      = CORSModePermissive
	DefaultConfigShutdownTimeout = 5 * time.Second
	DefaultConfigStoreBackend    = TokenStorageTypeFile
	DefaultConfigStoreResolver   = tokenstore.StrategyOS
	DefaultConfigTrayTitle       = "tokencatch"
	DefaultConfigTwitchAPIURL    = twitch.DefaultBaseURL
	DefaultConfigTwitchCooldown  = 10 * time.Second
)

// LogConfig holds log destination settings beyond level and format.
type LogConfig struct {
	// File enables a rotating log file instead of stderr.
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `json:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `json:"max_age_days" validate:"gte=0"`
	Compress   bool   `json:"compress"`

	// Exporter forwards records through OpenTelemetry instead of the local handler.
	Exporter observability.Exporter `json:"exporter" validate:"oneof=none stdout otlp-grpc otlp-http"`
	Endpoint string                 `json:"endpoint,omitempty"`
	Insecure bool                   `json:"insecure"`
}

// ServerConfig holds capture listener configuration.
type ServerConfig struct {
	Host string   `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16   `json:"port"` // 0 binds a free port; range 0-65535 handled by uint16 type
	CORS CORSMode `json:"cors" validate:"oneof=permissive disabled"`
}

// Address returns host:port for listening.
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// StoreConfig describes where captured tokens are persisted.
type StoreConfig struct {
	Backend TokenStorageType `json:"backend" validate:"required,oneof=file keyring"`

	// File backend: how the config root is located, and the namespace appended to it
	Resolver  tokenstore.Strategy `json:"resolver" validate:"oneof=os xdg static"`
	Dir       string              `json:"dir,omitempty"` // config root for the static resolver
	Namespace string              `json:"namespace" validate:"required,excludesall=/\\"`

	// Keyring backend: user identifier
	KeyringUser string `json:"keyring_user,omitempty"`
}

// NewResolver creates the resolver for the namespaced config directory.
// Clip history lives there regardless of the token backend.
func (s *StoreConfig) NewResolver() (tokenstore.Resolver, error) {
	return tokenstore.NewResolver(s.Resolver, s.Namespace, s.Dir)
}

// NewTokenStore creates a TokenStore from the store configuration.
func (s *StoreConfig) NewTokenStore() (tokenstore.TokenStore, error) {
	switch s.Backend {
	case TokenStorageTypeFile:
		resolver, err := s.NewResolver()
		if err != nil {
			return nil, err
		}
		return tokenstore.NewFileStore(resolver, tokenstore.TokenFileName)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(s.Namespace, s.KeyringUser)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", s.Backend)
	}
}

// TrayConfig holds tray icon configuration.
type TrayConfig struct {
	// Headless runs the listener without a tray icon.
	Headless bool   `json:"headless"`
	Title    string `json:"title"`
	Tooltip  string `json:"tooltip,omitempty"`
}

// AuthorizeConfig holds the provider settings used to build the authorization URL.
type AuthorizeConfig struct {
	ClientID string `json:"client_id,omitempty"`
	// RedirectURL defaults to the listener's callback page. Left empty when
	// server.port is 0 and derived from the bound address at runtime.
	RedirectURL string   `json:"redirect_url,omitempty" validate:"omitempty,url"`
	Scopes      []string `json:"scopes,omitempty"`
	// OpenOnStart opens the authorization URL in the browser once the listener is up.
	OpenOnStart bool `json:"open_on_start"`
}

// TwitchConfig holds the channel clips are created for and Helix API settings.
// The client id is shared with AuthorizeConfig, since Helix only accepts
// tokens together with the client id they were issued to.
type TwitchConfig struct {
	Channel       string        `json:"channel,omitempty"`
	BroadcasterID string        `json:"broadcaster_id,omitempty" validate:"omitempty,numeric"`
	Cooldown      time.Duration `json:"cooldown" validate:"gte=0"`
	APIURL        string        `json:"api_url" validate:"url"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level      `json:"log_level"`
	LogFormat LogFormat       `json:"log_format" validate:"oneof=text json"`
	Log       LogConfig       `json:"log"`
	Server    ServerConfig    `json:"server"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
	Store     StoreConfig     `json:"store"`
	Tray      TrayConfig      `json:"tray"`
	Authorize AuthorizeConfig `json:"authorize"`
	Twitch    TwitchConfig    `json:"twitch"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{Server: ServerConfig{Port: DefaultConfigServerPort}}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
// Server.Port is left alone: 0 is a valid setting, and loaders seed
// DefaultConfigServerPort when no source sets it.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Log.Exporter == "" {
		c.Log.Exporter = DefaultConfigLogExporter
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultConfigServerHost
	}
	if c.Server.CORS == "" {
		c.Server.CORS = DefaultConfigServerCORS
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}
	if c.Store.Backend == "" {
		c.Store.Backend = DefaultConfigStoreBackend
	}
	if c.Store.Resolver == "" {
		c.Store.Resolver = DefaultConfigStoreResolver
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = tokenstore.Namespace
	}
	if c.Tray.Title == "" {
		c.Tray.Title = DefaultConfigTrayTitle
	}
	if c.Authorize.RedirectURL == "" && c.Server.Port != 0 {
		c.Authorize.RedirectURL = CallbackURL(c.Server.Port)
	}
	if c.Twitch.APIURL == "" {
		c.Twitch.APIURL = DefaultConfigTwitchAPIURL
	}
	if c.Twitch.Cooldown == 0 {
		c.Twitch.Cooldown = DefaultConfigTwitchCooldown
	}

	// Dynamic defaults based on storage type
	if c.Store.Backend == TokenStorageTypeKeyring && c.Store.KeyringUser == "" {
		currentUser, err := user.Current()
		if err != nil {
			return fmt.Errorf("store.keyring_user required (auto-detect failed: %w)", err)
		}
		c.Store.KeyringUser = currentUser.Username
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if !isLoopback(c.Server.Host) {
		return fmt.Errorf("server.host %q is not a loopback address", c.Server.Host)
	}

	switch c.Store.Backend {
	case TokenStorageTypeFile:
		if c.Store.Resolver == tokenstore.StrategyStatic && c.Store.Dir == "" {
			return errors.New("store.dir required for the static resolver")
		}
	case TokenStorageTypeKeyring:
		if c.Store.KeyringUser == "" {
			return errors.New("store.keyring_user required for keyring storage")
		}
	}

	return nil
}

// CallbackURL returns the listener's callback page on the given port.
// Providers only accept plain http redirects to localhost.
func CallbackURL(port uint16) string {
	return fmt.Sprintf("http://localhost:%d%s", port, capture.CallbackPath)
}

// isLoopback reports whether host names the local machine only.
func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
