package options

import (
	"fmt"
	"strings"
	"time"

	"github.com/tychoish/fun/erc"
)

const (
	// ModeAll selects every configured process.
	ModeAll = "all"

	DefaultReclaimGrace = 500 * time.Millisecond
	DefaultStopTimeout  = 5 * time.Second
	DefaultPollInterval = time.Second

	// DefaultSettle is the pause after the default API server starts.
	DefaultSettle = 2 * time.Second

	DefaultEnvFile    = ".env"
	DefaultConfigFile = "devserve.yaml"
	// DefaultLogFile holds the copy of a default process's output.
	DefaultLogFile = "devserve.log"
)

// Supervisor is the policy and process set for one supervisor run.
type Supervisor struct {
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// ReclaimGrace is the pause between reclaiming a port and starting
	// the process that will bind it.
	ReclaimGrace time.Duration `json:"reclaim_grace,omitempty" yaml:"reclaim_grace,omitempty"`
	// StopTimeout bounds the wait after the graceful signal before the
	// process is killed.
	StopTimeout  time.Duration `json:"stop_timeout,omitempty" yaml:"stop_timeout,omitempty"`
	PollInterval time.Duration `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`

	EnvFile     string            `json:"env_file,omitempty" yaml:"env_file,omitempty"`
	Environment map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// KeepLogs disables truncating process log files at startup.
	KeepLogs bool `json:"keep_logs,omitempty" yaml:"keep_logs,omitempty"`
	// ExitWhenAllStopped ends supervision once every process has exited
	// on its own instead of waiting for an interrupt.
	ExitWhenAllStopped bool `json:"exit_when_all_stopped,omitempty" yaml:"exit_when_all_stopped,omitempty"`

	Processes []Process `json:"processes" yaml:"processes"`
}

// Validate fills in defaults and checks the process set. Names must be
// unique and no two processes may claim the same port.
func (conf *Supervisor) Validate() error {
	if conf.Mode == "" {
		conf.Mode = ModeAll
	}
	if conf.ReclaimGrace == 0 {
		conf.ReclaimGrace = DefaultReclaimGrace
	}
	if conf.StopTimeout == 0 {
		conf.StopTimeout = DefaultStopTimeout
	}
	if conf.PollInterval == 0 {
		conf.PollInterval = DefaultPollInterval
	}
	if conf.Environment == nil {
		conf.Environment = map[string]string{}
	}

	catcher := &erc.Collector{}
	erc.When(catcher, conf.ReclaimGrace < 0, "reclaim grace cannot be negative")
	erc.When(catcher, conf.StopTimeout < 0, "stop timeout cannot be negative")
	erc.When(catcher, conf.PollInterval < 0, "poll interval cannot be negative")
	catcher.Add(ValidateProcesses(conf.Processes))

	return catcher.Resolve()
}

// Select returns the processes chosen by Mode, in declared order.
func (conf *Supervisor) Select() ([]Process, error) {
	out := []Process{}
	for _, proc := range conf.Processes {
		if proc.Selected(conf.Mode) {
			out = append(out, proc)
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("mode '%s' does not select any process (known: %s)", conf.Mode, strings.Join(conf.Modes(), ", "))
	}

	return out, nil
}

// Modes lists every mode that selects at least one process.
func (conf *Supervisor) Modes() []string {
	seen := map[string]struct{}{ModeAll: {}}
	out := []string{ModeAll}
	add := func(m string) {
		key := strings.ToLower(m)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, m)
	}

	for _, proc := range conf.Processes {
		add(proc.Name)
		for _, g := range proc.Groups {
			add(g)
		}
	}
	return out
}

// ValidateProcesses validates each process and the set as a whole.
func ValidateProcesses(procs []Process) error {
	catcher := &erc.Collector{}
	names := map[string]struct{}{}
	ports := map[int]string{}

	for idx := range procs {
		proc := &procs[idx]
		catcher.Add(proc.Validate())

		if _, ok := names[proc.Name]; ok {
			catcher.Add(fmt.Errorf("process name '%s' is not unique", proc.Name))
		}
		names[proc.Name] = struct{}{}

		if proc.Port == 0 {
			continue
		}
		if owner, ok := ports[proc.Port]; ok {
			catcher.Add(fmt.Errorf("port %d is claimed by both '%s' and '%s'", proc.Port, owner, proc.Name))
			continue
		}
		ports[proc.Port] = proc.Name
	}

	return catcher.Resolve()
}
