package testutil

import (
	"os"
	"time"

	"github.com/tychoish/devserve/options"
)

// HelperEnv is the environment variable that switches a test binary into
// one of its helper process modes.
const HelperEnv = "DEVSERVE_TEST_HELPER"

// HelperProcess creates the options to re-run the current test binary as
// a helper process in the given mode, with extra arguments for the mode.
func HelperProcess(name, mode string, args ...string) options.Process {
	return options.Process{
		Name:        name,
		Args:        append([]string{os.Args[0], "-test.run=^$"}, args...),
		Environment: map[string]string{HelperEnv: mode},
	}
}

// MissingExecutableProcess creates the options for a process whose
// executable does not exist.
func MissingExecutableProcess(name string) options.Process {
	return options.Process{
		Name: name,
		Args: []string{"devserve-test-no-such-executable"},
	}
}

// FastPolicy returns supervisor settings with the delays shortened for
// tests.
func FastPolicy() options.Supervisor {
	return options.Supervisor{
		ReclaimGrace: time.Millisecond,
		StopTimeout:  2 * time.Second,
		PollInterval: 20 * time.Millisecond,
	}
}
