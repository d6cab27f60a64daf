package main

import (
	"context"
	"fmt"
	"os"
	"time"

	// swagger packages
	_ "othello-live/docs"

	"github.com/urfave/cli/v3"
)

// @title Othello Live API
// @version 1.0
// @description Live Othello rooms over websockets, plus the companion move search.
// @contact.name Backend Team
// @securityDefinitions.apikey SessionToken
// @in header
// @name Authorization
// @BasePath /
func main() {
	cmd := &cli.Command{
		Name:   "othello-live",
		Usage:  "serve live Othello rooms",
		Flags:  serveFlags(),
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP and websocket server (default)",
				Flags:  serveFlags(),
				Action: serve,
			},
			{
				Name:  "selfplay",
				Usage: "let the companion play both sides and print the game",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "depth", Value: 6, Usage: "search depth"},
				},
				Action: selfplay,
			},
			{
				Name:  "token",
				Usage: "issue a signed session token (needs OTHELLO_SESSION_KEY)",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "user id to sign"},
					&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour, Usage: "token lifetime"},
				},
				Action: issueToken,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
