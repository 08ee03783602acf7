package options

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/tychoish/fun/assert"
	"github.com/tychoish/fun/assert/check"
)

func TestProcessOptions(t *testing.T) {
	t.Run("Validate", func(t *testing.T) {
		for _, test := range []struct {
			id         string
			opts       Process
			shouldFail bool
		}{
			{
				id:   "Command",
				opts: Process{Name: "web", Command: "npm run dev", Port: 3000},
			},
			{
				id:   "Args",
				opts: Process{Name: "api", Args: []string{"python", "-m", "uvicorn"}},
			},
			{
				id:         "MissingName",
				opts:       Process{Command: "npm run dev"},
				shouldFail: true,
			},
			{
				id:         "MissingCommand",
				opts:       Process{Name: "web"},
				shouldFail: true,
			},
			{
				id:         "BlankCommand",
				opts:       Process{Name: "web", Command: "   "},
				shouldFail: true,
			},
			{
				id:         "EmptyExecutable",
				opts:       Process{Name: "web", Args: []string{""}},
				shouldFail: true,
			},
			{
				id:         "UnbalancedQuotes",
				opts:       Process{Name: "web", Command: `echo "hi`},
				shouldFail: true,
			},
			{
				id:         "NegativePort",
				opts:       Process{Name: "web", Command: "npm", Port: -1},
				shouldFail: true,
			},
			{
				id:         "PortTooLarge",
				opts:       Process{Name: "web", Command: "npm", Port: 70000},
				shouldFail: true,
			},
			{
				id:         "NegativeSettle",
				opts:       Process{Name: "web", Command: "npm", Settle: -time.Second},
				shouldFail: true,
			},
		} {
			t.Run(test.id, func(t *testing.T) {
				err := test.opts.Validate()
				if test.shouldFail {
					check.Error(t, err)
				} else {
					check.NotError(t, err)
				}
			})
		}
	})
	t.Run("Resolve", func(t *testing.T) {
		t.Run("ArgsWin", func(t *testing.T) {
			opts := Process{Name: "api", Command: "ignored", Args: []string{"python", "app.py"}}
			args, err := opts.Resolve()
			assert.NotError(t, err)
			check.EqualItems(t, []string{"python", "app.py"}, args)
		})
		t.Run("CommandIsSplit", func(t *testing.T) {
			opts := Process{Name: "web", Command: `npm run dev -- --host "0.0.0.0"`}
			args, err := opts.Resolve()
			assert.NotError(t, err)
			check.EqualItems(t, []string{"npm", "run", "dev", "--", "--host", "0.0.0.0"}, args)
		})
	})
	t.Run("Selected", func(t *testing.T) {
		opts := Process{Name: "api", Groups: []string{"backend"}}
		check.True(t, opts.Selected(""))
		check.True(t, opts.Selected(ModeAll))
		check.True(t, opts.Selected("ALL"))
		check.True(t, opts.Selected("api"))
		check.True(t, opts.Selected("Backend"))
		check.True(t, !opts.Selected("frontend"))
		check.True(t, !opts.Selected("web"))
	})
	t.Run("ResolveEnvironment", func(t *testing.T) {
		t.Setenv("DEVSERVE_OPTIONS_TEST", "inherited")

		opts := Process{
			Name:        "api",
			Environment: map[string]string{"OWN": "own", "SHARED": "overridden"},
		}
		env := opts.ResolveEnvironment(
			map[string]string{"SHARED": "shared", "DEVSERVE_OPTIONS_TEST": "shared"},
			map[string]string{"EXTRA": "extra", "OWN": "extra"},
		)

		vars := map[string]string{}
		for _, kv := range env {
			k, v, _ := strings.Cut(kv, "=")
			vars[k] = v
		}

		check.Equal(t, "shared", vars["DEVSERVE_OPTIONS_TEST"])
		check.Equal(t, "overridden", vars["SHARED"])
		check.Equal(t, "extra", vars["OWN"])
		check.Equal(t, "extra", vars["EXTRA"])
		check.Equal(t, os.Getenv("PATH"), vars["PATH"])
		check.True(t, len(env) == len(vars))
	})
}
