// Package cli provides the command line interface for the development
// process supervisor.
package cli

import (
	"fmt"

	"github.com/tychoish/devserve/options"
	"github.com/tychoish/grip"
	"github.com/tychoish/grip/level"
	"github.com/tychoish/grip/message"
	"github.com/urfave/cli"
)

const (
	ServeCommand = "serve"
	ListCommand  = "list"

	configFlagName  = "config"
	envFileFlagName = "env-file"
	debugFlagName   = "debug"
	noColorFlagName = "no-color"
	envFlagName     = "env"

	configEnvVar = "DEVSERVE_CONFIG"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   configFlagName + ", c",
			Value:  options.DefaultConfigFile,
			EnvVar: configEnvVar,
			Usage:  "path to the process configuration; the built-in api/web layout is used when the default file is absent",
		},
		cli.StringFlag{
			Name:  envFileFlagName,
			Usage: "env file whose variables are passed to every process (default: .env next to the config)",
		},
		cli.BoolFlag{
			Name:  debugFlagName,
			Usage: "log supervisor internals",
		},
	}
}

// loadConfig reads the configuration named by the flags and applies the
// mode given as the first positional argument.
func loadConfig(c *cli.Context) (*options.Supervisor, error) {
	if c.Bool(debugFlagName) {
		setLogThreshold(level.Debug)
	} else {
		setLogThreshold(level.Warning)
	}

	conf, err := options.LoadConfig(c.String(configFlagName), !c.IsSet(configFlagName))
	if err != nil {
		return nil, err
	}

	if path := c.String(envFileFlagName); path != "" {
		conf.EnvFile = path
	}
	if mode := c.Args().First(); mode != "" {
		conf.Mode = mode
	}
	if c.NArg() > 1 {
		return nil, fmt.Errorf("expected at most one mode, got %d arguments", c.NArg())
	}

	return conf, nil
}

// setLogThreshold controls which internal diagnostics reach the global
// grip sender. Operator-facing output goes through the console reporter
// and is not affected.
func setLogThreshold(p level.Priority) {
	sender := grip.Sender()
	info := sender.Level()
	info.Threshold = p
	grip.Warning(message.WrapError(sender.SetLevel(info), "problem setting log threshold"))
}
