package command

import "fmt"

// ErrorKind is the machine-readable failure class sent to callers.
type ErrorKind string

const (
	InvalidArgument         ErrorKind = "INVALID_ARGUMENT"
	AllocationLimitExceeded ErrorKind = "ALLOCATION_LIMIT_EXCEEDED"
	PlaybackError           ErrorKind = "PLAYBACK_ERROR"
	NotImplemented          ErrorKind = "NOT_IMPLEMENTED"
)

// Error pairs a kind with a human-readable message.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf builds an *Error.
func Errorf(kind ErrorKind, format string, a ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

// Result is the outcome of one dispatched command.
type Result struct {
	OK    bool   `json:"ok"`
	Error *Error `json:"error,omitempty"`
}

// Success is the OK result.
func Success() Result { return Result{OK: true} }

// Failure wraps err as a Result, classifying it if it is not already an
// *Error.
func Failure(err error) Result {
	if ce, ok := err.(*Error); ok {
		return Result{Error: ce}
	}
	return Result{Error: &Error{Kind: errorKindOf(err), Message: err.Error()}}
}
