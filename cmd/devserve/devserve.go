package main

import (
	"os"

	dcli "github.com/tychoish/devserve/cli"
	"github.com/tychoish/grip"
	"github.com/urfave/cli"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		grip.Error(err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "devserve"
	app.Usage = "Run the project's development servers together."
	app.Commands = []cli.Command{
		dcli.Serve(),
		dcli.List(),
	}
	return app
}
