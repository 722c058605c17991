package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/adrg/xdg"
)

const (
	// Namespace is the application segment appended to every config root.
	Namespace = "dev.florianilch.tokencatch"

	// TokenFileName is the fixed name of the token file inside the config directory.
	TokenFileName = "token.txt"
)

// Strategy selects how the platform config root is located.
type Strategy string

const (
	// StrategyOS uses os.UserConfigDir: $XDG_CONFIG_HOME or ~/.config on Linux,
	// ~/Library/Application Support on macOS, %AppData% on Windows.
	StrategyOS Strategy = "os"
	// StrategyXDG follows the XDG base directory layout on every platform.
	StrategyXDG Strategy = "xdg"
	// StrategyStatic uses a fixed, explicitly configured root.
	StrategyStatic Strategy = "static"
)

// Resolver yields the namespaced config directory holding the token file.
type Resolver interface {
	Dir() (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func() (string, error)

// Dir calls f.
func (f ResolverFunc) Dir() (string, error) {
	return f()
}

// xdgMu guards the package-level state of the xdg module, which Reload rewrites.
var xdgMu sync.Mutex

// NewResolver returns a Resolver for the given strategy. The namespace segment is
// appended to the config root; root is only used by StrategyStatic.
//
// Resolvers read the environment on every call and never cache a result.
func NewResolver(strategy Strategy, namespace, root string) (Resolver, error) {
	if namespace == "" {
		return nil, errors.New("namespace cannot be empty")
	}

	switch strategy {
	case StrategyOS:
		return ResolverFunc(func() (string, error) {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return "", fmt.Errorf("locating user config directory: %w", err)
			}
			return filepath.Join(configDir, namespace), nil
		}), nil
	case StrategyXDG:
		return ResolverFunc(func() (string, error) {
			xdgMu.Lock()
			defer xdgMu.Unlock()

			xdg.Reload()
			if xdg.ConfigHome == "" {
				return "", errors.New("locating XDG config home: empty path")
			}
			return filepath.Join(xdg.ConfigHome, namespace), nil
		}), nil
	case StrategyStatic:
		if root == "" {
			return nil, errors.New("static strategy requires a root directory")
		}
		dir := filepath.Join(root, namespace)
		return ResolverFunc(func() (string, error) {
			return dir, nil
		}), nil
	default:
		return nil, fmt.Errorf("unsupported resolver strategy: %s", strategy)
	}
}
