package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Mavwarf/cleartone/internal/audio"
	"github.com/Mavwarf/cleartone/internal/command"
	"github.com/Mavwarf/cleartone/internal/config"
	"github.com/Mavwarf/cleartone/internal/playback"
	"github.com/Mavwarf/cleartone/internal/tone"
)

var logFlag = &cli.BoolFlag{
	Name:  "log",
	Usage: "record commands in the audit log even if the config does not",
}

func toneFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{Name: "frequency", Aliases: []string{"f"}, Value: tone.DefaultFrequency, Usage: "tone frequency in Hz"},
		&cli.Float64Flag{Name: "level", Aliases: []string{"l"}, Value: tone.DefaultLevelDB, Usage: "level in dB relative to the calibration ceiling"},
		&cli.StringFlag{Name: "channel", Value: "left", Usage: "left, right or both"},
		&cli.IntFlag{Name: "duration", Aliases: []string{"d"}, Value: tone.DefaultDurationMs, Usage: "duration in milliseconds"},
	}
}

// toneRequest builds a validated request from the tone flags.
func toneRequest(c *cli.Context) (tone.Request, error) {
	ch, err := tone.ParseChannel(c.String("channel"))
	if err != nil {
		return tone.Request{}, err
	}
	req := tone.Request{
		Frequency:  c.Float64("frequency"),
		LevelDB:    c.Float64("level"),
		Channel:    ch,
		DurationMs: c.Int("duration"),
	}
	return req, req.Validate()
}

func toneCommand() *cli.Command {
	return &cli.Command{
		Name:   "tone",
		Usage:  "Play a calibrated sine tone and wait for it to finish",
		Flags:  append(toneFlags(), logFlag),
		Action: runTone,
	}
}

func runTone(c *cli.Context) error {
	req, err := toneRequest(c)
	if err != nil {
		return err
	}
	sess, err := newSession(c, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signalContext(c.Context)
	defer stop()

	res := sess.disp.Dispatch(ctx, command.Command{Kind: command.PlayTone, Tone: &req}, "cli")
	if err := resultErr(res); err != nil {
		return err
	}
	fmt.Printf("%.0f Hz  %.1f dB  %s  %d ms\n", req.Frequency, req.LevelDB, req.Channel, req.DurationMs)
	waitTone(ctx, sess.engine, time.Duration(req.DurationMs)*time.Millisecond)
	return nil
}

// waitTone returns once the tone slot stops playing, the nominal duration
// plus a short drain has passed, or ctx is done.
func waitTone(ctx context.Context, e *playback.Engine, d time.Duration) {
	deadline := time.NewTimer(d + 500*time.Millisecond)
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
			if _, st := e.Status(); !st.Playing && time.Since(started) >= d {
				return
			}
		}
	}
}

func fileCommand() *cli.Command {
	return &cli.Command{
		Name:      "file",
		Usage:     "Loop a WAV or MP3 file at a calibrated level on one channel until interrupted",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "level", Aliases: []string{"l"}, Value: tone.DefaultLevelDB, Usage: "level in dB relative to the calibration ceiling"},
			&cli.StringFlag{Name: "channel", Value: "left", Usage: "left, right or both"},
			logFlag,
		},
		Action: runFile,
	}
}

func runFile(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("file path required")
	}
	ch, err := tone.ParseChannel(c.String("channel"))
	if err != nil {
		return err
	}
	sess, err := newSession(c, false)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx, stop := signalContext(c.Context)
	defer stop()

	req := playback.FileRequest{Path: path, Channel: ch, LevelDB: c.Float64("level")}
	if err := resultErr(sess.disp.Dispatch(ctx, command.Command{Kind: command.PlayFile, File: &req}, "cli")); err != nil {
		return err
	}
	fmt.Printf("Looping %s on %s at %.1f dB. Press Ctrl-C to stop.\n", path, ch, req.LevelDB)
	<-ctx.Done()
	return resultErr(sess.disp.Dispatch(context.Background(), command.Command{Kind: command.StopFile}, "cli"))
}

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Write a calibrated tone to a WAV file without playing it",
		Flags: append(toneFlags(),
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Value: "tone.wav", Usage: "output file, - for stdout"},
		),
		Action: runRender,
	}
}

func runRender(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	req, err := toneRequest(c)
	if err != nil {
		return err
	}

	out := c.String("output")
	if out == "-" {
		return renderTone(os.Stdout, cfg, req)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := renderTone(f, cfg, req); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", out)
	return nil
}

// renderTone applies the same duration ceiling as playback, then writes
// the tone as stereo WAV.
func renderTone(w io.Writer, cfg config.Config, req tone.Request) error {
	if cfg.MaxDurationMs > 0 && req.DurationMs > cfg.MaxDurationMs {
		return fmt.Errorf("%w: %d ms (max %d ms)", tone.ErrDurationTooLarge, req.DurationMs, cfg.MaxDurationMs)
	}
	buf, err := cfg.Calibration().Generate(req, cfg.SampleRate)
	if err != nil {
		return err
	}
	return audio.EncodeWAV(w, buf.Samples, buf.SampleRate, 2)
}

func levelCommand() *cli.Command {
	return &cli.Command{
		Name:      "level",
		Usage:     "Show the gain, amplitude and peak sample for a dB level",
		ArgsUsage: "<dB>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("expected exactly one level in dB")
			}
			db, err := strconv.ParseFloat(c.Args().First(), 64)
			if err != nil {
				return fmt.Errorf("invalid level %q", c.Args().First())
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			fmt.Println(describeLevel(cfg.Calibration(), db))
			return nil
		},
	}
}

func describeLevel(cal tone.Calibration, db float64) string {
	amp := cal.Amplitude(db)
	return fmt.Sprintf("%.1f dB: gain %.6f  amplitude %.6f  peak %d / %d",
		db, cal.Gain(db), amp, int(amp*tone.FullScale), tone.FullScale)
}
