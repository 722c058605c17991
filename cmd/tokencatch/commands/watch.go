package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokencatch/internal/tokenstore"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "report each time a new token is captured",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ, nil)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			store, err := fileStore(cfg)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			path, err := store.Path()
			if err != nil {
				return err
			}

			watcher, err := tokenstore.NewWatcher(path)
			if err != nil {
				return err
			}

			out := cmd.Root().Writer
			_, _ = fmt.Fprintf(out, "watching %s\n", path)
			return watcher.Run(ctx, func() {
				_, _ = fmt.Fprintf(out, "%s token updated\n", time.Now().Format(time.RFC3339))
			})
		},
	}
}
