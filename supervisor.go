package devserve

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tychoish/devserve/options"
	"github.com/tychoish/fun/erc"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/message"
	"github.com/tychoish/grip/recovery"
)

// Supervisor starts a fixed, ordered set of processes, watches them for
// unexpected exits and shuts all of them down together.
type Supervisor struct {
	conf SupervisorOptions

	mu     sync.Mutex
	state  SupervisorState
	procs  []*Process
	byName map[string]*Process
}

// NewSupervisor applies the option providers in order and validates the
// result.
func NewSupervisor(opts ...SupervisorOptionProvider) (*Supervisor, error) {
	conf := &SupervisorOptions{}
	for _, op := range opts {
		if err := op(conf); err != nil {
			return nil, fmt.Errorf("problem applying supervisor option: %w", err)
		}
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return &Supervisor{
		conf:   *conf,
		byName: map[string]*Process{},
	}, nil
}

func (s *Supervisor) ID() string { return s.conf.ID }

func (s *Supervisor) State() SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Processes returns the managed processes in start order.
func (s *Supervisor) Processes() []*Process {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Process, len(s.procs))
	copy(out, s.procs)
	return out
}

func (s *Supervisor) Get(name string) (*Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	proc, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("process '%s' does not exist", name)
	}
	return proc, nil
}

// Start builds a process for every spec and starts them one at a time in
// the given order, so a process may rely on the ones before it having
// started. If any start fails, everything already started is shut down
// and the start error is returned.
func (s *Supervisor) Start(ctx context.Context, specs []options.Process) error {
	s.mu.Lock()
	if s.state != Idle || len(s.procs) > 0 {
		s.mu.Unlock()
		return errors.New("supervisor has already been started")
	}
	if len(specs) == 0 {
		s.mu.Unlock()
		return errors.New("no processes to supervise")
	}
	if err := options.ValidateProcesses(specs); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("invalid process set: %w", err)
	}

	for _, spec := range specs {
		proc, err := newProcess(spec, s.processConfig(spec))
		if err != nil {
			s.procs = nil
			s.byName = map[string]*Process{}
			s.mu.Unlock()
			return err
		}
		s.procs = append(s.procs, proc)
		s.byName[spec.Name] = proc
	}
	procs := s.procs
	s.state = Launching
	s.mu.Unlock()

	grip.Debug(message.Fields{
		"message":    "starting processes",
		"supervisor": s.conf.ID,
		"count":      len(procs),
	})

	for idx, proc := range procs {
		err := proc.Start(ctx)
		if err == nil && s.conf.Tracker != nil {
			if terr := s.conf.Tracker.Add(proc.Info()); terr != nil {
				grip.Warning(message.WrapError(terr, "problem adding process to tracker"))
			}
		}

		if err == nil && proc.opts.Settle > 0 && idx < len(procs)-1 {
			s.conf.Reporter.Info("waiting %s for %s to settle", proc.opts.Settle, proc.Name())
			err = sleep(ctx, proc.opts.Settle)
		}

		if err != nil {
			s.conf.Reporter.Error("%v", err)
			return errors.Join(err, s.ShutdownAll(context.WithoutCancel(ctx)))
		}
	}

	s.mu.Lock()
	s.state = Supervising
	s.mu.Unlock()

	return nil
}

func (s *Supervisor) processConfig(spec options.Process) processConfig {
	sink := LineSink(s.conf.Reporter)
	if sender := s.conf.Loggers.Get(spec.Name); sender != nil {
		sink = teeSink{s.conf.Reporter, senderSink{sender: sender}}
	}

	return processConfig{
		reporter:     s.conf.Reporter,
		sink:         sink,
		reclaimer:    s.conf.Reclaimer,
		resolver:     s.conf.ExecutorResolver,
		reclaimGrace: s.conf.Policy.ReclaimGrace,
		stopTimeout:  s.conf.Policy.StopTimeout,
		env: spec.ResolveEnvironment(s.conf.Policy.Environment, map[string]string{
			RunEnvironID:       s.conf.ID,
			ProcessEnvironName: spec.Name,
		}),
	}
}

// Run polls the processes until ctx is done, reporting every process
// that exits on its own. Exits are not retried and do not affect the
// other processes. However Run returns, every process has been shut down.
func (s *Supervisor) Run(ctx context.Context) (err error) {
	s.mu.Lock()
	if s.state != Supervising {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot run supervisor in state %s", state)
	}
	s.mu.Unlock()

	defer func() {
		err = recovery.HandlePanicWithError(recover(), err, "supervisor poll loop")
		err = errors.Join(err, s.ShutdownAll(context.WithoutCancel(ctx)))
	}()

	ticker := time.NewTicker(s.conf.Policy.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.conf.Reporter.Info("shutting down ...")
			return nil
		case <-ticker.C:
			if running := s.poll(); running == 0 && s.conf.Policy.ExitWhenAllStopped {
				s.conf.Reporter.Info("all processes have exited")
				return nil
			}
		}
	}
}

// poll reports processes that exited since the last poll and returns the
// number still running.
func (s *Supervisor) poll() int {
	running := 0
	for _, proc := range s.Processes() {
		if exit := proc.checkExit(); exit != nil {
			s.conf.Reporter.Error("%s exited unexpectedly (exit code %d)", exit.Name, exit.ExitCode)
			grip.Warning(message.WrapError(exit, message.Fields{
				"supervisor": s.conf.ID,
				"process":    exit.Name,
			}))
			continue
		}
		if proc.State() == Running {
			running++
		}
	}
	return running
}

// ShutdownAll stops every process, waits briefly for their output to be
// drained, then reclaims the port of every process that was spawned once
// more and cleans up the tracker. One process failing to stop does not
// prevent the others from being stopped. It is safe to call more than
// once.
func (s *Supervisor) ShutdownAll(ctx context.Context) error {
	s.mu.Lock()
	procs := make([]*Process, len(s.procs))
	copy(procs, s.procs)
	s.state = ShuttingDown
	s.mu.Unlock()

	catcher := &erc.Collector{}
	for idx := len(procs) - 1; idx >= 0; idx-- {
		catcher.Add(procs[idx].Stop(ctx))
	}

	s.awaitDrained(ctx, procs)

	for _, proc := range procs {
		// ports of processes that never spawned were never ours
		if proc.Port() <= 0 || proc.Info().StartAt.IsZero() {
			continue
		}
		report := s.conf.Reclaimer.Reclaim(ctx, proc.Port())
		if len(report.Terminated) > 0 {
			s.conf.Reporter.Info("port %d: terminated leftover process(es) %v", report.Port, report.Terminated)
		}
		if report.Err != nil {
			s.conf.Reporter.Warning("%v", report.Err)
		}
	}

	if s.conf.Tracker != nil {
		if err := s.conf.Tracker.Cleanup(); err != nil {
			grip.Warning(message.WrapError(err, "process tracker did not clean up all processes successfully"))
		}
	}

	s.mu.Lock()
	s.state = Idle
	s.mu.Unlock()

	return catcher.Resolve()
}

// awaitDrained waits up to the stop timeout for the output of spawned
// processes to be consumed. Descendants that inherited a child's output
// can keep its stream open after the child itself has exited.
func (s *Supervisor) awaitDrained(ctx context.Context, procs []*Process) {
	ctx, cancel := context.WithTimeout(ctx, s.conf.Policy.StopTimeout)
	defer cancel()

	for _, proc := range procs {
		if proc.Info().StartAt.IsZero() {
			continue
		}
		select {
		case <-proc.Drained():
		case <-ctx.Done():
			grip.Debug(message.Fields{
				"message":    "output still open after shutdown",
				"supervisor": s.conf.ID,
				"process":    proc.Name(),
			})
		}
	}
}
