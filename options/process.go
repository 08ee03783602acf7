package options

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/tychoish/fun/erc"
)

// Process describes one managed process.
type Process struct {
	Name    string   `json:"name" yaml:"name"`
	Command string   `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string `json:"args,omitempty" yaml:"args,omitempty"`

	WorkingDirectory string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	Port             int               `json:"port,omitempty" yaml:"port,omitempty"`
	Environment      map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Settle delays the start of the next process in order, for
	// processes that take a moment to become reachable.
	Settle time.Duration `json:"settle,omitempty" yaml:"settle,omitempty"`
	// Groups are additional mode names that select this process.
	Groups []string `json:"groups,omitempty" yaml:"groups,omitempty"`
	// LogFile receives a copy of the process's output.
	LogFile string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
	// ClearFiles are removed at startup along with LogFile, for logs the
	// process writes itself.
	ClearFiles []string `json:"clear_files,omitempty" yaml:"clear_files,omitempty"`
	URLs       []string `json:"urls,omitempty" yaml:"urls,omitempty"`
}

// Validate checks that the process can be started. It does not touch the
// file system: a missing working directory is reported when the process
// is spawned.
func (opts *Process) Validate() error {
	catcher := &erc.Collector{}
	erc.When(catcher, strings.TrimSpace(opts.Name) == "", "process must have a name")
	erc.When(catcher, opts.Port < 0 || opts.Port > 65535, fmt.Sprintf("port %d for '%s' is out of range", opts.Port, opts.Name))
	erc.When(catcher, opts.Settle < 0, fmt.Sprintf("settle delay for '%s' cannot be negative", opts.Name))

	if _, err := opts.Resolve(); err != nil {
		catcher.Add(err)
	}

	return catcher.Resolve()
}

// Resolve returns the argv for the process. Args take precedence over
// Command, which is split with shell quoting rules but never run through a
// shell.
func (opts *Process) Resolve() ([]string, error) {
	if len(opts.Args) > 0 {
		if opts.Args[0] == "" {
			return nil, fmt.Errorf("process '%s' has an empty executable", opts.Name)
		}
		return opts.Args, nil
	}

	if strings.TrimSpace(opts.Command) == "" {
		return nil, fmt.Errorf("process '%s' must specify a command", opts.Name)
	}

	args, err := shlex.Split(opts.Command)
	if err != nil {
		return nil, fmt.Errorf("problem parsing command for '%s': %w", opts.Name, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("process '%s' must specify a command", opts.Name)
	}

	return args, nil
}

// Selected reports whether the mode chooses this process.
func (opts *Process) Selected(mode string) bool {
	if mode == "" || strings.EqualFold(mode, ModeAll) || strings.EqualFold(mode, opts.Name) {
		return true
	}
	for _, g := range opts.Groups {
		if strings.EqualFold(mode, g) {
			return true
		}
	}
	return false
}

// ResolveEnvironment builds the child's environment: the current process's
// environment, then shared, then the process's own variables, then extra.
// Later sources win.
func (opts *Process) ResolveEnvironment(shared map[string]string, extra map[string]string) []string {
	merged := map[string]string{}
	order := []string{}
	set := func(k, v string) {
		if _, ok := merged[k]; !ok {
			order = append(order, k)
		}
		merged[k] = v
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		set(k, v)
	}

	for _, src := range []map[string]string{shared, opts.Environment, extra} {
		keys := make([]string, 0, len(src))
		for k := range src {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			set(k, src[k])
		}
	}

	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+merged[k])
	}
	return out
}
