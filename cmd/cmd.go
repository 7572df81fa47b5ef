// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func platformFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "source-platform",
			Usage: "Only include source tracks from this platform",
		},
		&cli.StringFlag{
			Name:  "target-platform",
			Usage: "Only include matches onto this platform",
		},
	}
}

func catalogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "source",
			Aliases:  []string{"s"},
			Usage:    "Path to the source catalog file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "dest",
			Aliases:  []string{"d"},
			Usage:    "Path to the destination catalog file",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "source-playlist",
			Usage:    "Source playlist ID",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "dest-playlist",
			Usage:    "Destination playlist ID",
			Required: true,
		},
	}
}

func limitFlag(value int) cli.Flag {
	return &cli.IntFlag{
		Name:  "limit",
		Usage: "Maximum number of rows to return (0 for all)",
		Value: value,
	}
}

// setupCommand handles setup operations for the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Write a default config if missing, initialize the database and run migrations",
				Action: r.SetupDatabase,
			},
		},
	}
}

// matchCommand handles scoring and playlist matching
func matchCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "match",
		Usage: "Score tracks and match playlists between catalogs",
		Commands: []*cli.Command{
			{
				Name:  "score",
				Usage: "Score a candidate track against a source track",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "source-title",
						Usage:    "Source track title",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "source-artist",
						Usage: "Source track artist (repeatable)",
					},
					&cli.StringFlag{
						Name:  "source-album",
						Usage: "Source track album",
					},
					&cli.StringFlag{
						Name:     "target-title",
						Usage:    "Candidate track title",
						Required: true,
					},
					&cli.StringSliceFlag{
						Name:  "target-artist",
						Usage: "Candidate track artist (repeatable)",
					},
					&cli.StringFlag{
						Name:  "target-album",
						Usage: "Candidate track album",
					},
				}, jsonFlags()...),
				Action: r.MatchScore,
			},
			{
				Name:  "run",
				Usage: "Match a playlist onto another catalog and add accepted tracks",
				Flags: append(catalogFlags(),
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Write the destination catalog back with added tracks",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.MatchRun,
			},
			{
				Name:  "diff",
				Usage: "Compare two playlists and show missing and extra tracks",
				Flags: append(catalogFlags(),
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.MatchDiff,
			},
			{
				Name:  "sync",
				Usage: "Match a playlist onto another catalog and copy its details",
				Flags: append(catalogFlags(),
					&cli.BoolFlag{
						Name:  "prune",
						Usage: "Remove destination tracks that are not in the source playlist",
					},
					&cli.BoolFlag{
						Name:  "save",
						Usage: "Write the destination catalog back with the changes",
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				),
				Action: r.MatchSync,
			},
		},
	}
}

// matchesCommand handles stored match operations
func matchesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "matches",
		Usage: "Inspect and verify stored matches",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List stored matches",
				Flags: append(append(platformFlags(), jsonFlags()...),
					&cli.BoolFlag{
						Name:  "verified",
						Usage: "Only show manually verified matches",
					},
					&cli.BoolFlag{
						Name:  "unverified",
						Usage: "Only show matches that have not been verified",
					},
					&cli.FloatFlag{
						Name:  "below",
						Usage: "Only show matches with confidence below this value",
					},
					limitFlag(50),
				),
				Action: r.MatchesList,
			},
			{
				Name:  "verify",
				Usage: "Mark a stored match as manually verified",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "unset",
						Usage: "Clear the verification flag instead",
					},
				},
				Action: r.MatchesVerify,
			},
			{
				Name:  "history",
				Usage: "Show every saved version of a match",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "platform",
						Usage:    "Source track platform",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Source track platform ID",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "target-platform",
						Usage:    "Target platform",
						Required: true,
					},
				}, jsonFlags()...),
				Action: r.MatchesHistory,
			},
		},
	}
}

// failuresCommand handles failed match records
func failuresCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "failures",
		Usage: "Inspect failed match attempts",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List failed match attempts",
				Flags:  append(append(platformFlags(), jsonFlags()...), limitFlag(50)),
				Action: r.FailuresList,
			},
		},
	}
}

// statsCommand prints match store counts
func statsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show match store statistics",
		Flags:  jsonFlags(),
		Action: r.Stats,
	}
}

// reportCommand writes a match report directory
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Write matches.csv, failures.csv and README.md to a directory",
		Flags: append(platformFlags(),
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"o"},
				Usage:   "Output directory",
				Value:   "report",
			},
			&cli.StringFlag{
				Name:  "title",
				Usage: "Report title",
				Value: "Match Report",
			},
		),
		Action: r.Report,
	}
}

// reviewCommand returns the top-level TUI command for verifying matches.
func reviewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "review",
		Aliases: []string{"tui", "ui"},
		Usage:   "Review unverified matches interactively",
		Flags: append(platformFlags(),
			limitFlag(0),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file used while the TUI owns the terminal",
				Value: "./tmp/tunematch-review.log",
			},
		),
		Action: r.Review,
	}
}
