package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/tychoish/devserve/options"
	"github.com/urfave/cli"
)

// List creates a cli.Command that prints the processes a mode selects.
func List() cli.Command {
	return cli.Command{
		Name:      ListCommand,
		Usage:     "show the processes that serve would start",
		ArgsUsage: "[all|<process>|<group>]",
		Flags:     configFlags(),
		Action: func(c *cli.Context) error {
			conf, err := loadConfig(c)
			if err != nil {
				return err
			}

			specs, err := conf.Select()
			if err != nil {
				return err
			}

			writeProcessTable(tabby.NewCustom(tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)), specs)
			return nil
		},
	}
}

func writeProcessTable(table *tabby.Tabby, specs []options.Process) {
	table.AddHeader("NAME", "PORT", "DIRECTORY", "COMMAND", "GROUPS")
	for _, spec := range specs {
		port := "-"
		if spec.Port > 0 {
			port = fmt.Sprint(spec.Port)
		}

		command := spec.Command
		if len(spec.Args) > 0 {
			command = strings.Join(spec.Args, " ")
		}

		table.AddLine(spec.Name, port, spec.WorkingDirectory, command, strings.Join(spec.Groups, ","))
	}
	table.Print()
}
