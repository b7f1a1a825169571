// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand handles configuration bootstrap.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create a config file from the embedded template",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// serveCommand runs the broker HTTP service.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the session broker HTTP service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles authentication operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Authorize with MyAnimeList via the browser",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "no-browser",
						Usage: "Print the authorize URL instead of opening a browser",
					},
					&cli.IntFlag{
						Name:  "timeout",
						Usage: "Seconds to wait for the callback",
						Value: 300,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "logout",
				Usage: "Remove a session and its tokens",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "session"},
				},
				Action: r.AuthLogout,
			},
		},
	}
}

// sessionsCommand inspects persisted sessions.
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "sessions",
		Aliases: []string{"sess"},
		Usage:   "List persisted sessions",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.Sessions,
	}
}

// listCommand fetches a session's completed list.
func listCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "Fetch a session's completed list",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "List kind (anime or manga)",
				Value:   "anime",
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Bypass the cache and refetch from MyAnimeList",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
				Value: true,
			},
		},
		Action: r.List,
	}
}

// exportCommand renders a tiered list to a file or stdout.
func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a session's tiered list",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "session"},
		},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "List kind (anime or manga)",
				Value:   "anime",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format (json, csv, markdown)",
				Value:   "json",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: stdout)",
			},
			&cli.BoolFlag{
				Name:  "refresh",
				Usage: "Bypass the cache and refetch from MyAnimeList",
			},
		},
		Action: r.Export,
	}
}

// warmCommand refreshes cached lists in bulk.
func warmCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "warm",
		Usage: "Refresh the cached lists of every session",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "kind",
				Aliases: []string{"k"},
				Usage:   "Limit to one list kind (anime or manga)",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent workers",
				Value: 3,
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Job dispatches per second",
				Value: 1,
			},
		},
		Action: r.Warm,
	}
}

// tuiCommand returns the top-level TUI command for interactive list browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch interactive browser for cached lists",
		Action:  r.TUI,
	}
}
