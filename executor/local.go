package executor

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

type local struct {
	cmd    *exec.Cmd
	output *os.File
}

// NewLocal builds an Executor for a process on the local machine. The
// environment is used verbatim; callers merge os.Environ themselves.
func NewLocal(args []string, dir string, env []string) Executor {
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	setSysProcAttr(cmd)
	return &local{cmd: cmd}
}

func (e *local) Start() error {
	if e.cmd.Process != nil {
		return errors.New("process is already started")
	}

	reader, writer, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("problem creating output pipe: %w", err)
	}

	e.cmd.Stdout = writer
	e.cmd.Stderr = writer

	err = e.cmd.Start()
	// the child holds its own copy of the write side.
	_ = writer.Close()
	if err != nil {
		_ = reader.Close()
		return err
	}

	e.output = reader
	return nil
}

func (e *local) Output() io.ReadCloser {
	if e.output == nil {
		return nil
	}
	return e.output
}

func (e *local) PID() int {
	if e.cmd.Process == nil {
		return -1
	}
	return e.cmd.Process.Pid
}

func (e *local) Terminate() error {
	if e.cmd.Process == nil {
		return errors.New("cannot signal an unstarted process")
	}
	return terminate(e.cmd.Process)
}

func (e *local) Kill() error {
	if e.cmd.Process == nil {
		return errors.New("cannot kill an unstarted process")
	}
	if err := e.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

func (e *local) Wait() error { return e.cmd.Wait() }

func (e *local) ExitCode() int {
	if e.cmd.ProcessState == nil {
		return -1
	}
	return e.cmd.ProcessState.ExitCode()
}
