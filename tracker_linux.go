package devserve

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/containerd/cgroups"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/tychoish/emt"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/message"
)

const (
	// defaultSubsystem is where tracked processes are added. The freezer
	// subsystem is only used as a place to group processes.
	defaultSubsystem = cgroups.Freezer
)

// linuxProcessTracker puts every child in a cgroup; descendants inherit
// the membership, so Cleanup also reaches grandchildren that outlived
// their parent and still hold a port. Cgroups require admin privileges.
// Without them the tracker does nothing.
type linuxProcessTracker struct {
	*processTrackerBase
	cgroup cgroups.Cgroup
}

// NewProcessTracker creates a cgroup for all tracked processes if
// supported.
func NewProcessTracker(name string) (ProcessTracker, error) {
	tracker := &linuxProcessTracker{
		processTrackerBase: &processTrackerBase{Name: name},
	}
	if err := tracker.setDefaultCgroupIfInvalid(); err != nil {
		grip.Debug(message.WrapErrorf(err, "could not initialize process tracker named '%s' with cgroup", name))
	}

	return tracker, nil
}

// validCgroup returns true if the cgroup is non-nil and not deleted.
func (t *linuxProcessTracker) validCgroup() bool {
	return t.cgroup != nil && t.cgroup.State() != cgroups.Deleted
}

func (t *linuxProcessTracker) setDefaultCgroupIfInvalid() error {
	if t.validCgroup() {
		return nil
	}

	cgroup, err := cgroups.New(cgroups.V1, cgroups.StaticPath("/"+t.Name), &specs.LinuxResources{})
	if err != nil {
		return fmt.Errorf("could not create default cgroup: %w", err)
	}
	t.cgroup = cgroup

	return nil
}

// Add adds the process's PID to the cgroup if cgroups are available,
// creating the cgroup again if a previous Cleanup deleted it.
func (t *linuxProcessTracker) Add(info ProcessInfo) error {
	if err := t.setDefaultCgroupIfInvalid(); err != nil {
		grip.Debug(message.WrapErrorf(err, "not tracking process '%s' with pid '%d'", info.Name, info.PID))
		return nil
	}

	proc := cgroups.Process{Subsystem: defaultSubsystem, Pid: info.PID}
	if err := t.cgroup.Add(proc); err != nil {
		return fmt.Errorf("failed to add process '%s' with pid '%d' to cgroup: %w", info.Name, info.PID, err)
	}
	return nil
}

func (t *linuxProcessTracker) listCgroupPIDs() ([]int, error) {
	if !t.validCgroup() {
		return nil, nil
	}

	procs, err := t.cgroup.Processes(defaultSubsystem, false)
	if err != nil {
		return nil, fmt.Errorf("could not list tracked PIDs: %w", err)
	}

	pids := make([]int, 0, len(procs))
	for _, proc := range procs {
		pids = append(pids, proc.Pid)
	}
	return pids, nil
}

// Cleanup kills every process left in the cgroup and deletes it. Using
// the tracker again creates a new cgroup.
func (t *linuxProcessTracker) Cleanup() error {
	if !t.validCgroup() {
		return nil
	}

	pids, err := t.listCgroupPIDs()
	if err != nil {
		return fmt.Errorf("could not find tracked processes: %w", err)
	}

	catcher := emt.NewBasicCatcher()
	for _, pid := range pids {
		if err := cleanupProcess(pid); err != nil {
			catcher.Errorf("error while cleaning up process with pid '%d': %w", pid, err)
		}
	}

	catcher.Add(t.cgroup.Delete())
	return catcher.Resolve()
}

// cleanupProcess kills the process given by its PID. A process that has
// already exited is not an error.
func cleanupProcess(pid int) error {
	if err := syscall.Kill(pid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("sending sigkill to process with PID '%d': %w", pid, err)
	}
	return nil
}
