package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/florianilch/tokencatch/internal/app"
	"github.com/florianilch/tokencatch/internal/twitch"
)

func twitchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "authorize--client-id",
			Usage: "OAuth client id the stored token was issued to",
		},
		&cli.StringFlag{
			Name:  "twitch--api-url",
			Usage: "Helix API root",
			Value: app.DefaultConfigTwitchAPIURL,
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "print the user the stored token belongs to",
		Flags:  twitchFlags(),
		Action: whoamiAction,
	}
}

func clipCommand() *cli.Command {
	return &cli.Command{
		Name:  "clip",
		Usage: "clip the configured channel's live stream and record it in the history",
		Flags: append(twitchFlags(),
			&cli.StringFlag{
				Name:  "twitch--channel",
				Usage: "channel login to clip",
			},
			&cli.StringFlag{
				Name:  "twitch--broadcaster-id",
				Usage: "broadcaster id, skips the channel lookup",
			},
			&cli.DurationFlag{
				Name:  "twitch--cooldown",
				Usage: "minimum time between clips",
				Value: app.DefaultConfigTwitchCooldown,
			},
		),
		Action: clipAction,
	}
}

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list created clips, newest first",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "delete all recorded clips",
			},
		},
		Action: historyAction,
	}
}

// twitchClient builds a Helix client over the stored token.
func twitchClient(ctx context.Context, cfg *app.Config) (*twitch.Client, error) {
	if cfg.Authorize.ClientID == "" {
		return nil, errors.New("authorize.client_id is required")
	}

	store, err := cfg.Store.NewTokenStore()
	if err != nil {
		return nil, fmt.Errorf("failed to create token store: %w", err)
	}
	token, err := store.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("no stored token, run authorize first: %w", err)
	}

	return twitch.NewStaticClient(cfg.Authorize.ClientID, token, twitch.WithBaseURL(cfg.Twitch.APIURL))
}

func clipHistory(cfg *app.Config) (*twitch.History, error) {
	resolver, err := cfg.Store.NewResolver()
	if err != nil {
		return nil, err
	}
	return twitch.NewHistory(resolver)
}

func whoamiAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := twitchClient(ctx, cfg)
	if err != nil {
		return err
	}
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("looking up current user: %w", err)
	}

	_, err = fmt.Fprintf(cmd.Root().Writer, "%s (%s)\n", user.Login, user.ID)
	return err
}

func clipAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	client, err := twitchClient(ctx, cfg)
	if err != nil {
		return err
	}
	history, err := clipHistory(cfg)
	if err != nil {
		return err
	}
	clipper, err := twitch.NewClipper(client, history, cfg.Twitch.Cooldown)
	if err != nil {
		return err
	}

	entry, err := clipper.Clip(ctx, twitch.Target{
		Channel:       cfg.Twitch.Channel,
		BroadcasterID: cfg.Twitch.BroadcasterID,
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.Root().Writer, entry.EditURL)
	return err
}

func historyAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	history, err := clipHistory(cfg)
	if err != nil {
		return err
	}

	if cmd.Bool("clear") {
		return history.Clear(ctx)
	}

	entries, err := history.Load(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.Root().Writer, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.CreatedAt.Local().Format(time.DateTime), e.Channel, e.ID, e.EditURL)
	}
	return tw.Flush()
}
