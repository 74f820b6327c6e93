package control

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidEndpoint reports a bad host/port before any request is made.
	ErrInvalidEndpoint = errors.New("invalid camera endpoint")

	// ErrPresetNotFound reports a failed catalog lookup; no load request
	// has been issued when this is returned.
	ErrPresetNotFound = errors.New("preset not found")
)

// CommandError reports a camera command that did not succeed, either
// because the request never completed or because the camera answered
// with a non-success status. Callers decide whether to retry.
type CommandError struct {
	Path   string
	Status int
	Err    error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("camera command %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("camera command %s: unexpected status %d", e.Path, e.Status)
}

func (e *CommandError) Unwrap() error { return e.Err }

// PreconditionError reports a refused mode switch, e.g. enabling wired
// USB while webcam mode is active. The conflicting request is never sent.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s refused: %s", e.Op, e.Reason)
}
