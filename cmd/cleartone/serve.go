package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Mavwarf/cleartone/internal/httpapi"
	"github.com/Mavwarf/cleartone/internal/mqtt"
)

const shutdownTimeout = 5 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Accept commands over HTTP and, if a broker is configured, MQTT",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "listen", Usage: "HTTP listen address (overrides http.listen)"},
			&cli.StringFlag{Name: "broker", Usage: "MQTT broker URL (overrides mqtt.broker)"},
			logFlag,
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	sess, err := newSession(c, true)
	if err != nil {
		return err
	}
	defer sess.Close()
	cfg, logger := sess.cfg, sess.logger
	if v := c.String("listen"); v != "" {
		cfg.HTTP.Listen = v
	}
	if v := c.String("broker"); v != "" {
		cfg.MQTT.Broker = v
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	api := &httpapi.Server{
		Dispatcher:    sess.disp,
		Status:        sess.engine.Status,
		History:       sess.store,
		Calibration:   cfg.Calibration(),
		SampleRate:    cfg.SampleRate,
		MaxDurationMs: cfg.MaxDurationMs,
		CORSOrigins:   cfg.HTTP.CORSOrigins,
		Logger:        logger,
	}
	srv := &http.Server{
		Addr:              cfg.HTTP.Listen,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.MQTT.Broker != "" {
		l, err := mqtt.Listen(ctx, mqttOptions(cfg.MQTT), sess.disp, logger.Named("mqtt"))
		if err != nil {
			return err
		}
		defer l.Close()
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("http listening", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
