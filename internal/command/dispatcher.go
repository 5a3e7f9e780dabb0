package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Mavwarf/cleartone/internal/eventlog"
	"github.com/Mavwarf/cleartone/internal/metrics"
	"github.com/Mavwarf/cleartone/internal/playback"
	"github.com/Mavwarf/cleartone/internal/tone"
)

// Dispatcher runs commands against the playback sinks. It is safe for
// concurrent use when the sinks are.
type Dispatcher struct {
	Files         playback.FileSink
	Tones         playback.ToneSink
	SampleRate    int
	MaxDurationMs int            // 0 = only the generator's own ceiling
	Log           eventlog.Store // optional audit log
	Logger        *zap.Logger
}

// Call decodes and dispatches a named call in one step. Decode failures
// are recorded like any other failure.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any, source string) Result {
	cmd, err := Decode(name, args)
	if err != nil {
		res := Failure(err)
		d.record(Command{}, name, source, res, 0)
		return res
	}
	return d.Dispatch(ctx, cmd, source)
}

// CallJSON is Call for a JSON object body.
func (d *Dispatcher) CallJSON(ctx context.Context, name string, body []byte, source string) Result {
	cmd, err := DecodeJSON(name, body)
	if err != nil {
		res := Failure(err)
		d.record(Command{}, name, source, res, 0)
		return res
	}
	return d.Dispatch(ctx, cmd, source)
}

// Dispatch executes cmd. source tags the audit entry ("http", "mqtt", ...).
func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command, source string) Result {
	start := time.Now()
	err := d.run(ctx, cmd)
	res := Success()
	if err != nil {
		res = Failure(err)
	}
	d.record(cmd, cmd.Kind.String(), source, res, time.Since(start))
	return res
}

func (d *Dispatcher) run(ctx context.Context, cmd Command) error {
	switch cmd.Kind {
	case PlayFile:
		if cmd.File == nil {
			return Errorf(InvalidArgument, "File path and amplitude are required")
		}
		return d.Files.PlayFile(ctx, *cmd.File)
	case StopFile:
		return d.Files.StopFile()
	case PlayTone:
		if cmd.Tone == nil {
			return Errorf(InvalidArgument, "missing tone request")
		}
		if err := d.checkLimit(*cmd.Tone); err != nil {
			return err
		}
		if err := d.Tones.PlayTone(ctx, *cmd.Tone); err != nil {
			return err
		}
		if n, err := tone.NumSamples(cmd.Tone.DurationMs, d.sampleRate()); err == nil {
			metrics.SamplesGeneratedTotal.Add(float64(n))
		}
		return nil
	case StopTone:
		return d.Tones.StopTone()
	}
	return Errorf(NotImplemented, "unknown command %s", cmd.Kind)
}

// checkLimit applies the configured duration ceiling before any buffer is
// allocated.
func (d *Dispatcher) checkLimit(req tone.Request) error {
	if d.MaxDurationMs > 0 && req.DurationMs > d.MaxDurationMs {
		return Errorf(AllocationLimitExceeded, "duration too large: %d ms (max %d ms)", req.DurationMs, d.MaxDurationMs)
	}
	if _, err := tone.NumSamples(req.DurationMs, d.sampleRate()); err != nil {
		return Errorf(AllocationLimitExceeded, "%v", err)
	}
	return nil
}

func (d *Dispatcher) sampleRate() int {
	if d.SampleRate > 0 {
		return d.SampleRate
	}
	return tone.DefaultSampleRate
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d *Dispatcher) record(cmd Command, name, source string, res Result, took time.Duration) {
	outcome := "ok"
	if !res.OK {
		outcome = string(res.Error.Kind)
	}
	label := metricLabel(name)
	metrics.CommandsTotal.WithLabelValues(label, outcome).Inc()
	metrics.CommandLatency.WithLabelValues(label).Observe(float64(took.Microseconds()) / 1000)

	fields := []zap.Field{zap.String("command", name), zap.String("source", source), zap.Duration("took", took)}
	if res.OK {
		d.logger().Debug("command dispatched", fields...)
	} else {
		d.logger().Warn("command failed", append(fields,
			zap.String("kind", string(res.Error.Kind)),
			zap.String("message", res.Error.Message))...)
	}

	if d.Log == nil {
		return
	}
	e := eventlog.Event{Command: name, Source: source, OK: res.OK}
	if res.Error != nil {
		e.ErrorKind, e.Message = string(res.Error.Kind), res.Error.Message
	}
	if cmd.Tone != nil {
		e.Frequency, e.LevelDB = cmd.Tone.Frequency, cmd.Tone.LevelDB
		e.Channel, e.DurationMs = cmd.Tone.Channel.String(), cmd.Tone.DurationMs
	}
	if cmd.File != nil {
		e.Path, e.LevelDB, e.Channel = cmd.File.Path, cmd.File.LevelDB, cmd.File.Channel.String()
	}
	if err := d.Log.Log(e); err != nil {
		d.logger().Error("audit log write failed", zap.Error(err))
	}
}

// metricLabel bounds the command label to the known kinds. Names arrive
// from HTTP paths and MQTT topics, so anything else shares one series.
func metricLabel(name string) string {
	if k, ok := ParseKind(name); ok {
		return k.String()
	}
	return "unknown"
}
