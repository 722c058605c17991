package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokencatch/internal/app"
	"github.com/florianilch/tokencatch/internal/authorize"
)

func authorizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "authorize",
		Usage: "print the provider authorization URL that redirects to the listener",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "authorize--client-id",
				Usage: "OAuth client id",
			},
			&cli.StringFlag{
				Name:  "authorize--redirect-url",
				Usage: "redirect URL registered with the provider (default: the listener's callback page)",
			},
			&cli.StringSliceFlag{
				Name:  "authorize--scopes",
				Usage: "scopes to request",
			},
			&cli.IntFlag{
				Name:  "server--port",
				Usage: "port of the running listener, used for the default redirect URL",
				Value: int(app.DefaultConfigServerPort),
			},
			&cli.BoolFlag{
				Name:  "open",
				Usage: "open the URL in the default browser",
			},
		},
		Action: authorizeAction,
	}
}

func authorizeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Authorize.ClientID == "" {
		return errors.New("authorize.client_id is required")
	}
	if cfg.Authorize.RedirectURL == "" {
		// A listener on a dynamic port logs its URL on start instead
		return errors.New("authorize.redirect_url is required when server.port is 0")
	}

	u, state := authorize.URL(authorize.Options{
		ClientID:    cfg.Authorize.ClientID,
		RedirectURL: cfg.Authorize.RedirectURL,
		Scopes:      cfg.Authorize.Scopes,
	})

	if _, err := fmt.Fprintln(cmd.Root().Writer, u); err != nil {
		return err
	}
	// The callback page shows the state it received for comparison
	if _, err := fmt.Fprintf(cmd.Root().ErrWriter, "state: %s\n", state); err != nil {
		return err
	}

	if cmd.Bool("open") {
		if err := authorize.Open(ctx, u); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
	}
	return nil
}
