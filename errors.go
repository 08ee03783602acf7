package devserve

import (
	"errors"
	"fmt"
)

var (
	// ErrPortBusy marks a port whose occupant could not be terminated.
	// It is a warning: the start attempt proceeds and a bind failure in
	// the child, if any, is the authoritative error.
	ErrPortBusy = errors.New("port is busy and could not be reclaimed")

	// ErrShutdownTimeout notes that a process ignored the graceful
	// signal for the whole stop timeout and was killed.
	ErrShutdownTimeout = errors.New("graceful shutdown timed out")
)

// SpawnError is returned when the operating system could not create the
// child for a process. It is fatal to the run.
type SpawnError struct {
	Name string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("could not start process '%s': %v", e.Name, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// UnexpectedExitError describes a running process that exited without
// being asked to stop.
type UnexpectedExitError struct {
	Name     string
	PID      int
	ExitCode int
	Err      error
}

func (e *UnexpectedExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("process '%s' [pid=%d] exited unexpectedly (exit code %d): %v", e.Name, e.PID, e.ExitCode, e.Err)
	}
	return fmt.Sprintf("process '%s' [pid=%d] exited unexpectedly (exit code %d)", e.Name, e.PID, e.ExitCode)
}

func (e *UnexpectedExitError) Unwrap() error { return e.Err }
