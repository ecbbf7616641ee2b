// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// downloadFlags returns a fresh flag set shared by download and tui.
func downloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "mode",
			Aliases: []string{"m"},
			Usage:   "Track source: takeout or liked",
			Sources: cli.EnvVars("YMDE_MODE"),
		},
		&cli.StringFlag{
			Name:    "output-dir",
			Aliases: []string{"o"},
			Usage:   "Library root directory",
			Sources: cli.EnvVars("YMDE_OUTPUT_DIR"),
		},
		&cli.StringFlag{
			Name:    "audio-format",
			Usage:   "Audio format (m4a, mp3, opus, flac)",
			Sources: cli.EnvVars("YMDE_AUDIO_FORMAT"),
		},
		&cli.StringFlag{
			Name:    "quality",
			Usage:   "Audio quality passed to the fetcher (0 is best)",
			Sources: cli.EnvVars("YMDE_QUALITY"),
		},
		&cli.IntFlag{
			Name:    "concurrency",
			Aliases: []string{"j"},
			Usage:   "Number of parallel download workers",
			Sources: cli.EnvVars("YMDE_CONCURRENCY"),
		},
		&cli.BoolFlag{
			Name:    "prefer-youtube-music",
			Usage:   "Rewrite source URLs to the music host",
			Sources: cli.EnvVars("YMDE_PREFER_YOUTUBE_MUSIC"),
		},
		&cli.BoolFlag{
			Name:    "write-m3u",
			Usage:   "Write one .m3u8 file per playlist",
			Sources: cli.EnvVars("YMDE_WRITE_M3U"),
		},
		&cli.StringFlag{
			Name:    "rate-limit",
			Usage:   "Transfer ceiling such as 500K or 2M, none to disable",
			Sources: cli.EnvVars("YMDE_RATE_LIMIT"),
		},
		&cli.StringFlag{
			Name:    "sleep",
			Usage:   "Seconds between job starts per worker: N or MIN,MAX",
			Sources: cli.EnvVars("YMDE_SLEEP"),
		},
		&cli.FloatFlag{
			Name:    "max-starts",
			Usage:   "Global ceiling on job starts per second, 0 for none",
			Sources: cli.EnvVars("YMDE_MAX_STARTS"),
		},
		&cli.StringFlag{
			Name:    "cookies",
			Usage:   "Netscape cookies file for authenticated requests",
			Sources: cli.EnvVars("YMDE_COOKIES"),
		},
		&cli.BoolFlag{
			Name:    "strip-suffix",
			Usage:   "Strip the configured suffix from playlist names",
			Sources: cli.EnvVars("YMDE_STRIP_SUFFIX"),
		},
		&cli.BoolFlag{
			Name:    "trim",
			Usage:   "Remove non-music segments after each fetch",
			Sources: cli.EnvVars("YMDE_TRIM"),
		},
		&cli.BoolFlag{
			Name:    "fallback",
			Usage:   "Search for a replacement when a source is unavailable",
			Sources: cli.EnvVars("YMDE_FALLBACK"),
		},
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "Resolve and deduplicate without fetching or writing",
			Sources: cli.EnvVars("YMDE_DRY_RUN"),
		},
		&cli.BoolFlag{
			Name:  "like",
			Usage: "Mark placed and skipped tracks as Jellyfin favorites after the run",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Write the summary to a file (.json, .md, .csv or .txt)",
		},
	}
}

// downloadCommand runs the download engine over a playlist source
func downloadCommand(r *Runner) *cli.Command {
	flags := append(downloadFlags(), &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show the interactive progress view",
	})

	return &cli.Command{
		Name:    "download",
		Aliases: []string{"dl"},
		Usage:   "Download playlists into the library",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags:  flags,
		Action: r.Download,
	}
}

// tuiCommand is download with the interactive view forced on
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Browse playlists and run downloads in the terminal UI",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "path"},
		},
		Flags:  downloadFlags(),
		Action: r.TUI,
	}
}

func indexCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "index",
		Usage: "Scan the library and report what the dedup index would hold",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Library root (defaults to library.root)",
			},
			&cli.BoolFlag{
				Name:  "entries",
				Usage: "List every indexed entry",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Index,
	}
}

func likeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "like",
		Usage: "Mark library or playlist tracks as Jellyfin favorites",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "library",
				Aliases: []string{"l"},
				Usage:   "Mark every track found under this library root",
			},
			&cli.StringFlag{
				Name:  "playlist-json",
				Usage: "Mark the tracks of one playlist JSON document",
			},
			&cli.StringFlag{
				Name:    "jellyfin-url",
				Usage:   "Jellyfin server URL",
				Sources: cli.EnvVars("JELLYFIN_URL"),
			},
			&cli.StringFlag{
				Name:    "jellyfin-api-key",
				Usage:   "Jellyfin API key",
				Sources: cli.EnvVars("JELLYFIN_API_KEY"),
			},
		},
		Action: r.Like,
	}
}

// historyCommand reads stored runs
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect previous runs",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List runs, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "Only runs of this source mode",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryList,
			},
			{
				Name:  "show",
				Usage: "Show one run and its job results by id or sequence number",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "run"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "failed",
						Usage: "Only failed jobs",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.HistoryShow,
			},
		},
	}
}

func exportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export remote playlists as takeout JSON",
		Commands: []*cli.Command{
			{
				Name:  "liked",
				Usage: "Export the account's liked music (requires cookies)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "cookies",
						Usage:   "Netscape cookies file",
						Sources: cli.EnvVars("YMDE_COOKIES"),
					},
					&cli.StringFlag{
						Name:    "out-dir",
						Aliases: []string{"o"},
						Usage:   "Directory for the playlist JSON",
						Value:   ".",
					},
					&cli.StringFlag{
						Name:  "name",
						Usage: "Playlist name (defaults to source.liked_name)",
					},
				},
				Action: r.ExportLiked,
			},
		},
	}
}

func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert playlist formats",
		Commands: []*cli.Command{
			{
				Name:  "csv",
				Usage: "Write a playlist JSON next to every CSV under a path",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "path"},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "remove-videos-suffix",
						Usage: "Strip the configured suffix from playlist names",
					},
					&cli.StringFlag{
						Name:  "suffix",
						Usage: "Suffix to strip (defaults to source.suffix)",
					},
				},
				Action: r.ConvertCSV,
			},
		},
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create configuration, database and cookies files",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config.toml populated with defaults",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Where to write the config file",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize the run history database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:  "cookies",
				Usage: "Convert a browser \"Copy as cURL\" capture into a cookies file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "File containing the cURL command",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Cookies file to write (defaults to download.cookies)",
					},
				},
				Action: r.SetupCookies,
			},
		},
	}
}
