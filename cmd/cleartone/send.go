package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Mavwarf/cleartone/internal/command"
	"github.com/Mavwarf/cleartone/internal/config"
	"github.com/Mavwarf/cleartone/internal/httpapi"
	"github.com/Mavwarf/cleartone/internal/mqtt"
)

func sendCommand() *cli.Command {
	return &cli.Command{
		Name:      "send",
		Usage:     "Send a command to a remote cleartone over MQTT or HTTP",
		ArgsUsage: "<command> [key=value...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker URL (overrides mqtt.broker)"},
			&cli.StringFlag{Name: "http", Usage: "base URL of a cleartone server; sends over HTTP instead of MQTT"},
		},
		Action: runSend,
	}
}

func runSend(c *cli.Context) error {
	if c.NArg() < 1 {
		return errors.New("expected a command name")
	}
	name := c.Args().First()
	kind, ok := command.ParseKind(name)
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	args, err := parseArgs(c.Args().Tail())
	if err != nil {
		return err
	}
	// Catch argument errors locally before they reach the remote.
	if _, err := command.Decode(kind.String(), args); err != nil {
		return err
	}
	if base := c.String("http"); base != "" {
		res, err := httpapi.NewClient(base).Call(c.Context, kind.String(), args)
		if err != nil {
			return err
		}
		if err := resultErr(res); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil
	}

	body, err := json.Marshal(args)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if v := c.String("broker"); v != "" {
		cfg.MQTT.Broker = v
	}
	if cfg.MQTT.Broker == "" {
		return errors.New("no MQTT broker configured (set mqtt.broker, --broker or --http)")
	}
	opts := mqttOptions(cfg.MQTT)
	opts.ClientID += "-send"
	topic := mqtt.CommandTopic(opts.TopicPrefix, kind.String())
	if err := mqtt.Publish(opts, topic, body, false); err != nil {
		return err
	}
	fmt.Printf("Published %s to %s\n", body, topic)
	return nil
}

// parseArgs turns key=value pairs into a command argument object. Values
// that parse as numbers are sent as numbers.
func parseArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q is not key=value", p)
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			args[k] = f
		} else {
			args[k] = v
		}
	}
	return args, nil
}

func mqttOptions(o config.MQTTOptions) mqtt.Options {
	return mqtt.Options{
		Broker:      o.Broker,
		ClientID:    o.ClientID,
		TopicPrefix: o.TopicPrefix,
		Username:    o.Username,
		Password:    o.Password,
		QoS:         o.QoS,
	}
}
