//go:build windows

package executor

import (
	"errors"
	"os"
	"os/exec"
)

func setSysProcAttr(cmd *exec.Cmd) {}

// terminate falls back to Kill because Windows cannot deliver an
// interrupt to a process that does not share our console.
func terminate(p *os.Process) error {
	if err := p.Signal(os.Interrupt); err != nil {
		if err := p.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return err
		}
	}
	return nil
}
