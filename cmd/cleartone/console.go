package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Mavwarf/cleartone/internal/console"
)

func consoleCommand() *cli.Command {
	return &cli.Command{
		Name:  "console",
		Usage: "Interactive keyboard audiometer",
		Flags: []cli.Flag{logFlag},
		Action: func(c *cli.Context) error {
			sess, err := newSession(c, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			ctx, stop := signalContext(c.Context)
			defer stop()
			return console.Run(ctx, os.Stdin, os.Stdout, sess.disp, sess.cfg.MaxDB)
		},
	}
}
