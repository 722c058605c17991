package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "print the stored token (masked on a terminal) or its location",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "path",
				Usage: "print the token file path only",
			},
			&cli.BoolFlag{
				Name:  "reveal",
				Usage: "print the token even when writing to a terminal",
			},
		},
		Action: tokenAction,
	}
}

func tokenAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd.String("config"), cmd, os.Environ, nil)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.Root().Writer

	if cmd.Bool("path") {
		store, err := fileStore(cfg)
		if err != nil {
			return fmt.Errorf("token --path: %w", err)
		}
		path, err := store.Path()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, path)
		return err
	}

	store, err := cfg.Store.NewTokenStore()
	if err != nil {
		return fmt.Errorf("failed to create token store: %w", err)
	}
	token, err := store.Read(ctx)
	if err != nil {
		return fmt.Errorf("no stored token: %w", err)
	}

	if isTerminal(out) && !cmd.Bool("reveal") {
		_, err = fmt.Fprintf(out, "token stored (%d characters), use --reveal to print it\n", len(token))
		return err
	}
	_, err = io.WriteString(out, token)
	return err
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
