package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/tychoish/devserve"
	"github.com/tychoish/devserve/console"
	"github.com/tychoish/devserve/options"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/message"
	"github.com/tychoish/grip/send"
	"github.com/urfave/cli"
)

// Serve creates a cli.Command that starts the configured processes and
// supervises them until interrupted.
func Serve() cli.Command {
	return cli.Command{
		Name:      ServeCommand,
		Usage:     "start the development servers and stream their output",
		ArgsUsage: "[all|<process>|<group>]",
		Flags: append(configFlags(),
			cli.BoolFlag{
				Name:  noColorFlagName,
				Usage: "disable colored status markers",
			},
			cli.StringSliceFlag{
				Name:  envFlagName + ", e",
				Usage: "set KEY=VALUE in every process's environment (repeatable)",
			},
		),
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c)
			if err != nil {
				return err
			}

			specs, err := conf.Select()
			if err != nil {
				return err
			}

			if err := conf.LoadEnvironment(); err != nil {
				return err
			}

			opts := []devserve.SupervisorOptionProvider{devserve.SupervisorOptionWithPolicy(*conf)}
			for _, kv := range c.StringSlice(envFlagName) {
				key, value, ok := strings.Cut(kv, "=")
				if !ok || key == "" {
					return fmt.Errorf("invalid --%s value '%s', expected KEY=VALUE", envFlagName, kv)
				}
				opts = append(opts, devserve.SupervisorOptionWithEnvVar(key, value))
			}

			palette := console.DetectPalette(c.App.Writer)
			if c.Bool(noColorFlagName) {
				palette = console.NewPalette(false)
			}
			sender := send.WrapWriterPlain(c.App.Writer)
			sender.SetName("devserve")
			if err := sender.SetLevel(send.LevelInfo{Default: level.Info, Threshold: level.Info}); err != nil {
				return err
			}
			reporter := console.NewReporter(sender, palette)

			loggers := openLogFiles(specs, !conf.KeepLogs, reporter)
			defer func() {
				grip.Warning(message.WrapError(loggers.Clear(context.Background()), "problem closing log files"))
			}()

			id := uuid.New().String()
			tracker, err := devserve.NewProcessTracker("devserve-" + id)
			if err != nil {
				return err
			}

			sup, err := devserve.NewSupervisor(append(opts,
				devserve.SupervisorOptionWithID(id),
				devserve.SupervisorOptionWithReporter(reporter),
				devserve.SupervisorOptionWithTracker(tracker),
				devserve.SupervisorOptionWithLoggingCache(loggers),
			)...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reporter.Banner("devserve: development servers")
			if err := sup.Start(ctx, specs); err != nil {
				return err
			}
			reporter.Banner("development servers are running", "press Ctrl+C to stop")

			return sup.Run(ctx)
		},
	}
}

// openLogFiles clears old logs when truncate is set and opens the log file
// of every process that has one. A log file that cannot be opened is
// reported and skipped.
func openLogFiles(specs []options.Process, truncate bool, reporter *console.Reporter) devserve.LoggingCache {
	cache := devserve.NewLoggingCache()
	cleared := 0

	for _, spec := range specs {
		if truncate {
			removed, err := spec.ClearLogs()
			cleared += removed
			if err != nil {
				reporter.Warning("%s: %v", spec.Name, err)
			}
		}

		opts := spec.LogOutput(truncate)
		if opts == nil {
			continue
		}

		sender, removed, err := opts.Configure()
		if removed {
			cleared++
		}
		if err != nil {
			reporter.Warning("%s: output will not be logged to %s: %v", spec.Name, opts.Filename, err)
			continue
		}

		if err := cache.Put(spec.Name, sender); err != nil {
			grip.Warning(message.WrapError(err, message.Fields{
				"message": "problem caching log file sender",
				"process": spec.Name,
			}))
			_ = sender.Close()
		}
	}

	if cleared > 0 {
		reporter.Info("cleared %d log file(s)", cleared)
	}

	return cache
}
