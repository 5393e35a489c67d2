// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize local state",
		Commands: []*cli.Command{
			{
				Name:  "database",
				Usage: "Create the config file if missing and run database migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "login",
		Usage:  "Sign in through the backend in a browser",
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Forget the stored credential",
		Action: r.Logout,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show credential and backend status",
		Action: r.Status,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List playlists",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Playlists,
	}
}

func tracksCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tracks",
		Usage: "List the tracks of a playlist",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "id",
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, csv or markdown",
				Value:   "text",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Tracks,
	}
}

func playCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "play",
		Usage: "Start a track on a device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "track",
				Aliases:  []string{"t"},
				Usage:    "Track ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "device",
				Aliases:  []string{"d"},
				Usage:    "Device ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "playlist",
				Aliases:  []string{"p"},
				Usage:    "Playlist ID used as the playback context",
				Required: true,
			},
		},
		Action: r.Play,
	}
}

func pauseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "pause",
		Usage:  "Pause playback",
		Action: r.Pause,
	}
}

func resumeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "resume",
		Usage: "Resume playback on a device",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "device",
				Aliases:  []string{"d"},
				Usage:    "Device ID",
				Required: true,
			},
		},
		Action: r.Resume,
	}
}

func seekCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "seek",
		Usage: "Move the playback position",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:     "position",
				Usage:    "Position in milliseconds",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "device",
				Aliases:  []string{"d"},
				Usage:    "Device ID",
				Required: true,
			},
		},
		Action: r.Seek,
	}
}

func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"kiosk", "ui"},
		Usage:   "Launch the kiosk interface",
		Action:  r.TUI,
	}
}
