package main

import (
	"context"
	"errors"
	"fmt"

	"othello-live/internal/companion"
	"othello-live/internal/config"
	"othello-live/internal/game"
	"othello-live/internal/session"

	"github.com/urfave/cli/v3"
)

func selfplay(_ context.Context, cmd *cli.Command) error {
	depth := cmd.Int("depth")
	if depth < 1 {
		return fmt.Errorf("depth must be at least 1, got %d", depth)
	}
	w := cmd.Root().Writer

	g := game.NewGame()
	for !g.Over() {
		turn := g.Turn()
		m, err := companion.Suggest(g, depth)
		if err != nil {
			return fmt.Errorf("ply %d: %w", g.Ply(), err)
		}
		if _, err := g.Place(m.X, m.Y, turn); err != nil {
			return fmt.Errorf("ply %d: %w", g.Ply(), err)
		}
		fmt.Fprintf(w, "%d. %s (%d, %d)\n%s\n", g.Ply(), turn, m.X, m.Y, g.Render())
	}

	black, white := g.Score()
	if winner, ok := g.Winner(); ok {
		fmt.Fprintf(w, "%s wins %d-%d\n", winner, black, white)
	} else {
		fmt.Fprintf(w, "draw %d-%d\n", black, white)
	}
	return nil
}

func issueToken(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.SessionKey == "" {
		return errors.New("OTHELLO_SESSION_KEY is not set")
	}
	token, err := session.NewJWT(cfg.SessionKey).Issue(cmd.String("user"), cmd.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	fmt.Fprintln(cmd.Root().Writer, token)
	return nil
}
