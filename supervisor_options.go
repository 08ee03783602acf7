package devserve

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tychoish/devserve/executor"
	"github.com/tychoish/devserve/options"
	"github.com/tychoish/fun"
)

const (
	// RunEnvironID is set in every child's environment to the
	// supervisor's id.
	RunEnvironID = "DEVSERVE_RUN_ID"
	// ProcessEnvironName is set in every child's environment to the
	// managed process's name.
	ProcessEnvironName = "DEVSERVE_PROCESS"
)

// SupervisorOptions configures a Supervisor. Zero values are replaced by
// defaults in Validate.
type SupervisorOptions struct {
	ID     string
	Policy options.Supervisor

	Reporter         Reporter
	Reclaimer        PortReclaimer
	Tracker          ProcessTracker
	Loggers          LoggingCache
	ExecutorResolver ExecutorResolver
}

func (conf *SupervisorOptions) Validate() error {
	if conf.ID == "" {
		conf.ID = uuid.New().String()
	}
	if err := conf.Policy.Validate(); err != nil {
		return fmt.Errorf("invalid supervisor policy: %w", err)
	}
	if conf.Reporter == nil {
		conf.Reporter = defaultReporter()
	}
	if conf.Reclaimer == nil {
		conf.Reclaimer = NewPortReclaimer()
	}
	if conf.Loggers == nil {
		conf.Loggers = NewLoggingCache()
	}
	if conf.ExecutorResolver == nil {
		conf.ExecutorResolver = executor.NewLocal
	}
	return nil
}

type SupervisorOptionProvider = fun.OptionProvider[*SupervisorOptions]

func SupervisorOptionWithID(id string) SupervisorOptionProvider {
	return func(conf *SupervisorOptions) error { conf.ID = id; return nil }
}

func SupervisorOptionWithPolicy(policy options.Supervisor) SupervisorOptionProvider {
	return func(conf *SupervisorOptions) error { conf.Policy = policy; return nil }
}

func SupervisorOptionWithReporter(r Reporter) SupervisorOptionProvider {
	return func(conf *SupervisorOptions) error { conf.Reporter = r; return nil }
}

func SupervisorOptionWithReclaimer(r PortReclaimer) SupervisorOptionProvider {
	return func(conf *SupervisorOptions) error { conf.Reclaimer = r; return nil }
}

func SupervisorOptionWithTracker(t ProcessTracker) SupervisorOptionProvider {
	return func(conf *SupervisorOptions) error { conf.Tracker = t; return nil }
}

func SupervisorOptionWithLoggingCache(c LoggingCache) SupervisorOptionProvider {
	return func(conf *SupervisorOptions) error { conf.Loggers = c; return nil }
}

func SupervisorOptionWithEnvVar(name, value string) SupervisorOptionProvider {
	return func(conf *SupervisorOptions) error {
		if conf.Policy.Environment == nil {
			conf.Policy.Environment = map[string]string{}
		}
		conf.Policy.Environment[name] = value
		return nil
	}
}
