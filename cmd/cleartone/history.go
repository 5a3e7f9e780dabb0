package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Mavwarf/cleartone/internal/eventlog"
)

func historyCommand() *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show or prune the audit log",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: 20, Usage: "entries to show, 0 for all"},
		},
		Action: historyShow,
		Subcommands: []*cli.Command{
			{
				Name:  "clean",
				Usage: "Remove entries older than the retention window",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Usage: "days to keep (default log_retention_days)"},
				},
				Action: historyClean,
			},
			{
				Name:   "clear",
				Usage:  "Remove every entry",
				Action: historyClear,
			},
		},
	}
}

// withStore opens the configured audit log for the duration of fn.
func withStore(c *cli.Context, fn func(eventlog.Store, int) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, cfg.LogRetentionDays)
}

func historyShow(c *cli.Context) error {
	return withStore(c, func(s eventlog.Store, _ int) error {
		events, err := s.Recent(c.Int("limit"))
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Printf("No entries in %s\n", s.Path())
			return nil
		}
		printEvents(os.Stdout, events)
		return nil
	})
}

func historyClean(c *cli.Context) error {
	return withStore(c, func(s eventlog.Store, retention int) error {
		days := c.Int("days")
		if days <= 0 {
			days = retention
		}
		n, err := s.Clean(days)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d entries (kept last %d days).\n", n, days)
		return nil
	})
}

func historyClear(c *cli.Context) error {
	return withStore(c, func(s eventlog.Store, _ int) error {
		if err := s.Clear(); err != nil {
			return err
		}
		fmt.Println("Audit log cleared.")
		return nil
	})
}

// printEvents writes events oldest first so the newest ends up nearest the
// prompt.
func printEvents(w io.Writer, events []eventlog.Event) {
	for i := len(events) - 1; i >= 0; i-- {
		fmt.Fprintln(w, formatEvent(events[i]))
	}
}

func formatEvent(e eventlog.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-7s %-9s", e.Time.Local().Format("2006-01-02 15:04:05"), e.Source, e.Command)
	switch {
	case e.Path != "":
		fmt.Fprintf(&b, " %s %s %.1f dB", e.Path, e.Channel, e.LevelDB)
	case e.Frequency > 0:
		fmt.Fprintf(&b, " %.0f Hz %.1f dB %s %d ms", e.Frequency, e.LevelDB, e.Channel, e.DurationMs)
	}
	if e.OK {
		b.WriteString("  ok")
	} else {
		fmt.Fprintf(&b, "  %s: %s", e.ErrorKind, e.Message)
	}
	return b.String()
}
