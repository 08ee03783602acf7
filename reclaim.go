package devserve

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/shirou/gopsutil/net"
	"github.com/shirou/gopsutil/process"
	"github.com/tychoish/fun/erc"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/message"
)

// PortReclaimer frees a TCP port by terminating whatever currently listens
// on it. Implementations never fail the caller: the report carries a
// warning at most.
type PortReclaimer interface {
	Reclaim(ctx context.Context, port int) ReclaimReport
}

// ReclaimReport describes one reclaim attempt. Err, when set, wraps
// ErrPortBusy.
type ReclaimReport struct {
	Port       int
	Terminated []int
	Err        error
}

// NewPortReclaimer returns the reclaimer for the current platform. It scans
// the system's TCP sockets and force-kills every process that listens on
// the requested port, except the calling process.
func NewPortReclaimer() PortReclaimer {
	return &socketReclaimer{self: int32(os.Getpid())}
}

type socketReclaimer struct {
	self int32
}

func (r *socketReclaimer) Reclaim(ctx context.Context, port int) ReclaimReport {
	report := ReclaimReport{Port: port}
	if port <= 0 {
		return report
	}

	pids, err := r.listeners(ctx, port)
	if err != nil {
		grip.Debug(message.WrapError(err, message.Fields{
			"message": "could not list port occupants",
			"port":    port,
		}))
		return report
	}

	catcher := &erc.Collector{}
	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			// gone between the scan and now
			continue
		}

		if err := proc.KillWithContext(ctx); err != nil {
			catcher.Add(fmt.Errorf("pid %d: %w", pid, err))
			continue
		}
		report.Terminated = append(report.Terminated, int(pid))
	}

	if err := catcher.Resolve(); err != nil {
		report.Err = fmt.Errorf("port %d: %w: %v", port, ErrPortBusy, err)
		grip.Warning(message.WrapError(err, message.Fields{
			"message":    "could not reclaim port",
			"port":       port,
			"terminated": report.Terminated,
		}))
	}

	return report
}

func (r *socketReclaimer) listeners(ctx context.Context, port int) ([]int32, error) {
	conns, err := net.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, errors.Wrap(err, "problem listing tcp connections")
	}

	seen := map[int32]struct{}{}
	out := []int32{}
	for _, conn := range conns {
		if conn.Laddr.Port != uint32(port) || conn.Status != "LISTEN" {
			continue
		}
		if conn.Pid <= 0 || conn.Pid == r.self {
			continue
		}
		if _, ok := seen[conn.Pid]; ok {
			continue
		}
		seen[conn.Pid] = struct{}{}
		out = append(out, conn.Pid)
	}

	return out, nil
}
