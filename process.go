package devserve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tychoish/devserve/executor"
	"github.com/tychoish/devserve/options"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/message"
	"github.com/tychoish/grip/recovery"
)

// ExecutorResolver builds the OS handle for a process.
type ExecutorResolver func(args []string, dir string, env []string) executor.Executor

// ProcessInfo is a snapshot of a managed process.
type ProcessInfo struct {
	Name     string    `json:"name" yaml:"name"`
	Args     []string  `json:"args" yaml:"args"`
	Port     int       `json:"port,omitempty" yaml:"port,omitempty"`
	PID      int       `json:"pid" yaml:"pid"`
	State    State     `json:"state" yaml:"state"`
	Crashed  bool      `json:"crashed" yaml:"crashed"`
	ExitCode int       `json:"exit_code" yaml:"exit_code"`
	StartAt  time.Time `json:"start_at" yaml:"start_at"`
	EndAt    time.Time `json:"end_at" yaml:"end_at"`
}

type processConfig struct {
	reporter     Reporter
	sink         LineSink
	reclaimer    PortReclaimer
	resolver     ExecutorResolver
	env          []string
	reclaimGrace time.Duration
	stopTimeout  time.Duration
}

// Process is one supervised command. It owns the OS handle of its child
// while the child is alive, and the goroutine streaming the child's
// output.
type Process struct {
	opts options.Process
	args []string
	conf processConfig

	mu      sync.RWMutex
	state   State
	exec    executor.Executor
	info    ProcessInfo
	exitErr error
	started chan struct{}
	exited  chan struct{}
	drained chan struct{}
	done    chan struct{}
}

func newProcess(opts options.Process, conf processConfig) (*Process, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid process options: %w", err)
	}
	args, err := opts.Resolve()
	if err != nil {
		return nil, err
	}

	if conf.sink == nil {
		conf.sink = conf.reporter
	}

	return &Process{
		opts:    opts,
		args:    args,
		conf:    conf,
		started: make(chan struct{}),
		exited:  make(chan struct{}),
		drained: make(chan struct{}),
		done:    make(chan struct{}),
		info: ProcessInfo{
			Name:     opts.Name,
			Args:     args,
			Port:     opts.Port,
			ExitCode: -1,
		},
	}, nil
}

func (p *Process) Name() string { return p.opts.Name }

func (p *Process) Port() int { return p.opts.Port }

func (p *Process) Options() options.Process { return p.opts }

func (p *Process) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Process) Info() ProcessInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	info := p.info
	info.State = p.state
	return info
}

// Start reclaims the process's port, spawns the child and begins
// streaming its output. Spawn failures are returned as *SpawnError.
func (p *Process) Start(ctx context.Context) error {
	name := p.opts.Name

	p.mu.Lock()
	if p.state != Pending {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("cannot start process '%s' in state %s", name, state)
	}
	exec := p.conf.resolver(p.args, p.opts.WorkingDirectory, p.conf.env)
	p.state = Starting
	p.exec = exec
	p.mu.Unlock()

	if p.opts.Port > 0 {
		p.reclaim(ctx)
		if err := sleep(ctx, p.conf.reclaimGrace); err != nil {
			p.abandon()
			return fmt.Errorf("start of '%s' interrupted: %w", name, err)
		}
	}

	p.conf.reporter.Info("starting %s ...", name)

	if err := exec.Start(); err != nil {
		p.abandon()
		return &SpawnError{Name: name, Err: err}
	}

	p.mu.Lock()
	p.info.PID = exec.PID()
	p.info.StartAt = time.Now()
	p.state = Running
	close(p.started)
	p.mu.Unlock()

	go func() {
		defer close(p.drained)
		StreamOutput(exec.Output(), name, p.conf.sink)
	}()
	go p.transition(exec)

	grip.Debug(message.Fields{
		"message": "started process",
		"process": name,
		"pid":     exec.PID(),
		"port":    p.opts.Port,
		"args":    p.args,
		"dir":     p.opts.WorkingDirectory,
	})

	if p.opts.Port > 0 {
		p.conf.reporter.Success("%s started (port %d)", name, p.opts.Port)
	} else {
		p.conf.reporter.Success("%s started (pid %d)", name, exec.PID())
	}
	for _, url := range p.opts.URLs {
		p.conf.reporter.Info("%s: %s", name, url)
	}

	return nil
}

func (p *Process) transition(exec executor.Executor) {
	defer recovery.LogStackTraceAndContinue("process wait", p.opts.Name)

	err := exec.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	defer close(p.exited)

	p.exitErr = err
	p.info.EndAt = time.Now()
	p.info.ExitCode = exec.ExitCode()
}

// abandon marks a process that never got a live child as stopped.
func (p *Process) abandon() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = Stopped
	p.exec = nil
	close(p.started)
	close(p.done)
}

// Exited reports whether the child has exited, without blocking.
func (p *Process) Exited() bool {
	select {
	case <-p.exited:
		return true
	default:
		return false
	}
}

// Wait blocks until the child exits or ctx is done. It returns the exit
// code and the error from the OS wait, if any.
func (p *Process) Wait(ctx context.Context) (int, error) {
	if p.State() == Pending {
		return -1, errors.New("process has not been started")
	}

	select {
	case <-ctx.Done():
		return -1, ctx.Err()
	case <-p.exited:
	case <-p.done:
		// a stopped process that was spawned has always exited
		if !p.Exited() {
			return -1, fmt.Errorf("process '%s' was never spawned", p.opts.Name)
		}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.info.ExitCode, p.exitErr
}

// Drained is closed once the child's output stream has been consumed to
// its end.
func (p *Process) Drained() <-chan struct{} { return p.drained }

// checkExit moves a running process whose child has exited to Stopped and
// describes the exit. It returns nil when there is nothing to report.
func (p *Process) checkExit() *UnexpectedExitError {
	if !p.Exited() {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != Running {
		return nil
	}

	p.state = Stopped
	p.exec = nil
	p.info.Crashed = true
	close(p.done)

	return &UnexpectedExitError{
		Name:     p.opts.Name,
		PID:      p.info.PID,
		ExitCode: p.info.ExitCode,
		Err:      p.exitErr,
	}
}

// Stop shuts the process down, escalating from a graceful signal to a
// kill, and then reclaims its port. Stopping a process that is already
// stopped, or was never started, is a no-op. A process that is starting
// is stopped once its start completes.
func (p *Process) Stop(ctx context.Context) error {
	name := p.opts.Name

	p.mu.Lock()
	switch p.state {
	case Pending:
		p.state = Stopped
		close(p.started)
		close(p.done)
		p.mu.Unlock()
		return nil
	case Stopped:
		p.mu.Unlock()
		return nil
	case Starting:
		p.mu.Unlock()
		select {
		case <-p.started:
			return p.Stop(ctx)
		case <-ctx.Done():
			return fmt.Errorf("waiting for '%s' to finish starting: %w", name, ctx.Err())
		}
	case Stopping:
		done := p.done
		p.mu.Unlock()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("waiting for '%s' to stop: %w", name, ctx.Err())
		}
	}

	p.state = Stopping
	exec := p.exec
	p.mu.Unlock()

	p.conf.reporter.Info("stopping %s ...", name)
	shutdown(ctx, name, exec, p.exited, p.conf.stopTimeout, p.conf.reporter)
	p.reclaim(ctx)

	p.mu.Lock()
	p.state = Stopped
	p.exec = nil
	close(p.done)
	code := p.info.ExitCode
	p.mu.Unlock()

	if code < 0 {
		p.conf.reporter.Success("%s stopped (terminated by signal)", name)
	} else {
		p.conf.reporter.Success("%s stopped (exit code %d)", name, code)
	}
	return nil
}

func (p *Process) reclaim(ctx context.Context) {
	if p.opts.Port <= 0 {
		return
	}

	report := p.conf.reclaimer.Reclaim(ctx, p.opts.Port)
	if len(report.Terminated) > 0 {
		p.conf.reporter.Info("port %d: terminated %d process(es) %v", report.Port, len(report.Terminated), report.Terminated)
	}
	if report.Err != nil {
		p.conf.reporter.Warning("%s: %v", p.opts.Name, report.Err)
	}
}

func sleep(ctx context.Context, dur time.Duration) error {
	if dur <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
