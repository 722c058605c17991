package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokencatch/internal/app"
	"github.com/florianilch/tokencatch/internal/tokenstore"
)

// envPrefix is stripped from environment variables during config loading (e.g., TOKENCATCH_SERVER__PORT → server.port)
const envPrefix = "TOKENCATCH_"

// configFileName is looked up in the config directory when no --config is given.
const configFileName = "config.toml"

// loadConfig loads application configuration from various sources with precedence:
// seeded defaults → config file → environment variables → CLI flags → command overrides → defaults
func loadConfig(configPath string, cmd *cli.Command, environFunc func() []string, overrides map[string]any) (*app.Config, error) {
	k := koanf.New(".")

	// 0. Seed defaults whose zero value is meaningful (port 0 binds a free port)
	seeded := map[string]any{"server.port": app.DefaultConfigServerPort}
	if err := k.Load(confmap.Provider(seeded, "."), nil); err != nil {
		return nil, fmt.Errorf("loading seeded defaults: %w", err)
	}

	// 1. Load from config file, explicit or discovered next to the token file
	if configPath == "" {
		configPath = discoverConfigFile()
	}
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	// 2. Load from environment variables
	envProvider := env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			stripped := strings.TrimPrefix(key, envPrefix)
			nested := strings.ToLower(strings.ReplaceAll(stripped, "__", "."))
			return nested, value
		},
		EnvironFunc: environFunc,
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment variables: %w", err)
	}

	// 3. Load from CLI flags if provided
	if cmd != nil {
		flagValues := extractAndTransformFlags(cmd)
		if err := k.Load(confmap.Provider(flagValues, "."), nil); err != nil {
			return nil, fmt.Errorf("loading CLI flags: %w", err)
		}
	}

	// 4. Values a command fixes regardless of other sources
	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return nil, fmt.Errorf("loading command overrides: %w", err)
		}
	}

	config := &app.Config{}
	if err := k.UnmarshalWithConf("", config, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := config.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("applying defaults: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// discoverConfigFile returns the default config file path if it exists.
func discoverConfigFile() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	path := filepath.Join(configDir, tokenstore.Namespace, configFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// extractAndTransformFlags transforms CLI flag names to match config structure.
// Includes parent flags. Examples: --server--port → server.port, --store--keyring-user → store.keyring_user
func extractAndTransformFlags(cmd *cli.Command) map[string]any {
	values := make(map[string]any)

	// FlagNames() includes flags from parent commands (via lineage)
	for _, name := range cmd.FlagNames() {
		// Skip unset flags to preserve precedence from earlier config sources
		if !cmd.IsSet(name) {
			continue
		}

		if value := cmd.Value(name); value != nil {
			key := strings.ReplaceAll(name, "--", ".")
			key = strings.ReplaceAll(key, "-", "_")
			values[key] = value
		}
	}

	return values
}
