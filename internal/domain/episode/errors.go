package episode

import (
	"errors"
	"fmt"
)

// Kind classifies failures the way the CLI reports them.
type Kind int

const (
	KindConfiguration Kind = iota + 1
	KindPrecondition
	KindGeneration
	KindIO
	KindResourceNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "ConfigurationError"
	case KindPrecondition:
		return "PreconditionError"
	case KindGeneration:
		return "GenerationFailure"
	case KindIO:
		return "IOFailure"
	case KindResourceNotFound:
		return "ResourceNotFoundError"
	default:
		return "UnknownError"
	}
}

// Error is a classified failure. Hint, when set, tells the user what to run
// or fix next.
type Error struct {
	Kind Kind
	Op   string
	Err  error
	Hint string
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg += ": " + e.Op
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err (or anything it wraps) is an *Error of kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// HintOf returns the hint attached to the first *Error in err's chain.
func HintOf(err error) string {
	var target *Error
	if errors.As(err, &target) {
		return target.Hint
	}
	return ""
}

func Configuration(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

func Precondition(op string, err error) error {
	return &Error{Kind: KindPrecondition, Op: op, Err: err}
}

func Generation(op string, err error) error {
	return &Error{Kind: KindGeneration, Op: op, Err: err}
}

func IO(op string, err error) error {
	return &Error{Kind: KindIO, Op: op, Err: err}
}

// NotFound builds a ResourceNotFoundError with a hint naming the command
// that produces the missing resource.
func NotFound(op, hint string, format string, args ...any) error {
	return &Error{Kind: KindResourceNotFound, Op: op, Err: fmt.Errorf(format, args...), Hint: hint}
}
