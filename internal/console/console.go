// Package console is an interactive keyboard audiometer for a terminal.
package console

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/Mavwarf/cleartone/internal/command"
)

const help = "up/down level  left/right frequency  l/r/b channel  space play  s stop  q quit"

// Dispatcher runs a decoded command. *command.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command, source string) command.Result
}

// Run puts in into raw mode and drives d from the keyboard until q,
// Ctrl-C or ctx is done. Any tone still playing is stopped on exit.
func Run(ctx context.Context, in *os.File, out io.Writer, d Dispatcher, maxLevel float64) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("console: stdin is not a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("console: cannot enter raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	done := make(chan struct{})
	defer close(done)
	keys := readKeys(in, done)

	l := &loop{d: d, out: out, state: NewState(maxLevel)}
	fmt.Fprintf(out, "cleartone console  %s\r\n", help)
	l.render("")
	defer l.stop(context.Background())

	for {
		select {
		case <-ctx.Done():
			fmt.Fprint(out, "\r\n")
			return nil
		case b, ok := <-keys:
			if !ok || !l.key(ctx, decodeKey(b)) {
				fmt.Fprint(out, "\r\n")
				return nil
			}
		}
	}
}

// readKeys forwards each read from in until a read fails or done is
// closed. The channel is closed when reading stops.
func readKeys(in io.Reader, done <-chan struct{}) <-chan []byte {
	keys := make(chan []byte, 1)
	go func() {
		defer close(keys)
		buf := make([]byte, 8)
		for {
			select {
			case <-done:
				return
			default:
			}
			n, err := in.Read(buf)
			if n > 0 {
				select {
				case keys <- append([]byte(nil), buf[:n]...):
				case <-done:
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return keys
}

type loop struct {
	d     Dispatcher
	out   io.Writer
	state State
}

// key applies k and reports whether the loop should continue.
func (l *loop) key(ctx context.Context, k Key) bool {
	var act Action
	l.state, act = l.state.Apply(k)
	msg := ""
	switch act {
	case ActionQuit:
		return false
	case ActionPlay:
		req := l.state.Request()
		msg = outcome(l.d.Dispatch(ctx, command.Command{Kind: command.PlayTone, Tone: &req}, "console"), "playing")
	case ActionStop:
		msg = outcome(l.d.Dispatch(ctx, command.Command{Kind: command.StopTone}, "console"), "stopped")
	}
	l.render(msg)
	return true
}

func (l *loop) stop(ctx context.Context) {
	l.d.Dispatch(ctx, command.Command{Kind: command.StopTone}, "console")
}

func (l *loop) render(msg string) {
	fmt.Fprintf(l.out, "\r\033[K%s  %s", l.state, msg)
}

func outcome(res command.Result, ok string) string {
	if res.OK {
		return ok
	}
	return fmt.Sprintf("%s: %s", res.Error.Kind, res.Error.Message)
}
