package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Mavwarf/cleartone/internal/config"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect the configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Check the config file and print the effective calibration",
				Action: func(c *cli.Context) error {
					p, err := config.FindPath(c.String("config"))
					switch {
					case errors.Is(err, config.ErrNotFound):
						fmt.Println("No config file found; using defaults.")
					case err != nil:
						return err
					default:
						fmt.Printf("Config: %s\n", p)
					}
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					fmt.Println(describeConfig(cfg))
					return nil
				},
			},
		},
	}
}

func describeConfig(cfg config.Config) string {
	mqtt := "disabled"
	if cfg.MQTT.Broker != "" {
		mqtt = cfg.MQTT.Broker + " (prefix " + cfg.MQTT.TopicPrefix + ")"
	}
	return fmt.Sprintf("sample rate %d Hz, ceiling %.1f dB, safety margin %.2f, max duration %d ms\nhttp %s, mqtt %s",
		cfg.SampleRate, cfg.MaxDB, cfg.SafetyMargin, cfg.MaxDurationMs, cfg.HTTP.Listen, mqtt)
}
