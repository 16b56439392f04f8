// Command grimoire runs the admin notification pipeline and its HTTP surface.
package main

import (
	"log"
	"os"

	"github.com/urfave/cli/v2"
)

const serviceName = "grimoire"

func main() {
	app := &cli.App{
		Name:  serviceName,
		Usage: "admin notifications, likes and user stats for the item catalogue",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "force debug logging regardless of APP_ENV",
				EnvVars: []string{"GRIMOIRE_DEBUG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			emitCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
