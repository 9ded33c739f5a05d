/*
Flowdash is a dashboard backend that triggers workflow webhooks and reports
spreadsheet-backed status counts.

Usage:

	flowdash [global options] command [command options]

Commands are:

	serve          run the HTTP server (default)
	trigger        dispatch one operation and print the result
	categories     print the category list
	status         print the status counts
	hash-password  print a bcrypt hash for DASHBOARD_PASSWORD_HASH
	check-config   checks whether the config is valid
	help, h        Shows a list of commands or help for one command

Configuration is read from environment variables and the optional YAML file
named by FLOWDASH_CONFIG_FILE.
*/
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtorcivia/flowdash/internal/server"
)

// Overwritten with current tag when released
var Version = "1.0.0"

func main() {
	server.Version = Version
	app := &cli.App{
		Name:    "flowdash",
		Usage:   "workflow trigger dashboard",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to a YAML config file",
				EnvVars: []string{"FLOWDASH_CONFIG_FILE"},
			},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serveAction,
			},
			{
				Name:      "trigger",
				Usage:     "dispatch one operation and print the result",
				ArgsUsage: "operation",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "category for create_idea",
					},
					&cli.StringFlag{
						Name:  "payload",
						Usage: "JSON object sent as the request body",
					},
				},
				Action: triggerAction,
			},
			{
				Name:   "categories",
				Usage:  "print the category list",
				Action: categoriesAction,
			},
			{
				Name:   "status",
				Usage:  "print the status counts",
				Action: statusAction,
			},
			{
				Name:      "hash-password",
				Usage:     "print a bcrypt hash for DASHBOARD_PASSWORD_HASH",
				ArgsUsage: "password",
				Action:    hashPasswordAction,
			},
			{
				Name:   "check-config",
				Usage:  "checks whether the config is valid",
				Action: checkConfigAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
