// Package executor holds the platform capability that the supervisor uses to
// drive a single child process: start it with a combined output stream,
// signal it gracefully or forcefully, and wait for it to exit.
package executor

import "io"

// Executor is the OS handle for one managed child. Implementations are not
// required to be safe for concurrent use except that Terminate and Kill may
// be called while another goroutine is blocked in Wait.
type Executor interface {
	// Start spawns the child. The combined stdout/stderr stream is
	// available from Output once Start returns without error.
	Start() error
	// Output returns the read side of the child's combined output. The
	// stream reaches end-of-file when every writer (the child and any
	// descendants that inherited it) has gone away.
	Output() io.ReadCloser
	// PID is the child's process id, or -1 before Start.
	PID() int
	// Terminate asks the child to exit.
	Terminate() error
	// Kill forcibly ends the child.
	Kill() error
	// Wait blocks until the child exits. It must be called exactly once.
	Wait() error
	// ExitCode is the child's exit status, or -1 if it has not exited or
	// was ended by a signal.
	ExitCode() int
}
