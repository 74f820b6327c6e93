package capture

import (
	"errors"
	"fmt"
)

// Kind classifies session failures into a closed set so callers can
// branch on the category instead of matching error strings.
type Kind int

const (
	// KindConfiguration covers bad input caught before any I/O happens.
	KindConfiguration Kind = iota
	// KindBind covers a local socket that could not be opened.
	KindBind
	// KindStorage covers an output file that could not be created,
	// written, or flushed.
	KindStorage
	// KindTransport covers a non-timeout socket failure during receive.
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindBind:
		return "bind"
	case KindStorage:
		return "storage"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is the structured failure carried by a session. Idle receive
// timeouts never surface as an Error; they are absorbed by the loop.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("capture %s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
