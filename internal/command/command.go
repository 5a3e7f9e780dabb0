// Package command decodes named calls into typed commands and runs them
// against the playback sinks. Transports (HTTP, MQTT, CLI) share it.
package command

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Mavwarf/cleartone/internal/playback"
	"github.com/Mavwarf/cleartone/internal/tone"
)

// Kind names a dispatchable command.
type Kind int

const (
	PlayFile Kind = iota + 1
	StopFile
	PlayTone
	StopTone
)

var kindNames = map[Kind]string{
	PlayFile: "playFile",
	StopFile: "stopFile",
	PlayTone: "playTone",
	StopTone: "stopTone",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Kinds lists every command in a stable order.
func Kinds() []Kind {
	return []Kind{PlayFile, StopFile, PlayTone, StopTone}
}

// ParseKind accepts the wire name ("playTone") case-insensitively, with
// or without dashes ("play-tone").
func ParseKind(name string) (Kind, bool) {
	n := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	for k, s := range kindNames {
		if strings.ToLower(s) == n {
			return k, true
		}
	}
	return 0, false
}

// Command is a decoded call. Exactly one payload is set for the play
// commands; stop commands carry none.
type Command struct {
	Kind Kind
	File *playback.FileRequest
	Tone *tone.Request
}

// Decode builds a Command from a call name and loosely-typed arguments,
// applying defaults and validating required fields. Argument names match
// the mobile host: filePath, channel, amplitude (dB), frequency, duration.
func Decode(name string, args map[string]any) (Command, error) {
	kind, ok := ParseKind(name)
	if !ok {
		return Command{}, Errorf(NotImplemented, "unknown command %q", name)
	}
	switch kind {
	case PlayFile:
		return decodePlayFile(args)
	case PlayTone:
		return decodePlayTone(args)
	}
	return Command{Kind: kind}, nil
}

// DecodeJSON is Decode for a JSON object body. An empty body means no
// arguments.
func DecodeJSON(name string, body []byte) (Command, error) {
	args := map[string]any{}
	if len(strings.TrimSpace(string(body))) > 0 {
		if err := json.Unmarshal(body, &args); err != nil {
			return Command{}, Errorf(InvalidArgument, "arguments must be a JSON object: %v", err)
		}
	}
	return Decode(name, args)
}

func decodePlayFile(args map[string]any) (Command, error) {
	path, hasPath, err := stringArg(args, "filePath")
	if err != nil {
		return Command{}, err
	}
	level, hasLevel, err := numberArg(args, "amplitude")
	if err != nil {
		return Command{}, err
	}
	if !hasPath || path == "" || !hasLevel {
		return Command{}, Errorf(InvalidArgument, "File path and amplitude are required")
	}
	ch, err := channelArg(args)
	if err != nil {
		return Command{}, err
	}
	return Command{Kind: PlayFile, File: &playback.FileRequest{Path: path, Channel: ch, LevelDB: level}}, nil
}

func decodePlayTone(args map[string]any) (Command, error) {
	req := tone.DefaultRequest()

	if f, ok, err := numberArg(args, "frequency"); err != nil {
		return Command{}, err
	} else if ok {
		req.Frequency = f
	}
	if lvl, ok, err := numberArg(args, "amplitude"); err != nil {
		return Command{}, err
	} else if ok {
		req.LevelDB = lvl
	}
	if d, ok, err := numberArg(args, "duration"); err != nil {
		return Command{}, err
	} else if ok {
		if d != math.Trunc(d) || d < 0 || d > math.MaxInt32 {
			return Command{}, Errorf(InvalidArgument, "duration must be a non-negative integer number of milliseconds")
		}
		req.DurationMs = int(d)
	}
	ch, err := channelArg(args)
	if err != nil {
		return Command{}, err
	}
	req.Channel = ch

	if err := req.Validate(); err != nil {
		return Command{}, Errorf(InvalidArgument, "%v", err)
	}
	return Command{Kind: PlayTone, Tone: &req}, nil
}

// numberArg reads a numeric argument. JSON numbers and Go numeric types
// are accepted; a string or other type is InvalidArgument, and a present
// null counts as missing.
func numberArg(args map[string]any, key string) (float64, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false, Errorf(InvalidArgument, "%s must be a number", key)
		}
		f = x
	default:
		return 0, false, Errorf(InvalidArgument, "%s must be a number, got %T", key, v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false, Errorf(InvalidArgument, "%s must be finite", key)
	}
	return f, true, nil
}

func stringArg(args map[string]any, key string) (string, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, Errorf(InvalidArgument, "%s must be a string, got %T", key, v)
	}
	return s, true, nil
}

func channelArg(args map[string]any) (tone.Channel, error) {
	s, _, err := stringArg(args, "channel")
	if err != nil {
		return tone.Left, err
	}
	ch, err := tone.ParseChannel(strings.ToLower(s))
	if err != nil {
		return tone.Left, Errorf(InvalidArgument, "%v", err)
	}
	return ch, nil
}

// errorKindOf maps an execution error to its reported kind. Anything not
// recognized came from a sink.
func errorKindOf(err error) ErrorKind {
	var ce *Error
	switch {
	case errors.As(err, &ce):
		return ce.Kind
	case errors.Is(err, tone.ErrDurationTooLarge):
		return AllocationLimitExceeded
	case errors.Is(err, tone.ErrInvalidFrequency),
		errors.Is(err, tone.ErrInvalidDuration),
		errors.Is(err, tone.ErrInvalidSampleRate):
		return InvalidArgument
	}
	return PlaybackError
}
