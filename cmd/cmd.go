// submodule cmd contains command definitions
package main

import (
	"fmt"
	"strings"

	"github.com/desertthunder/uidx/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func reportFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "only-unfinished",
			Usage: "Only redirect tracks without any recorded replay (overrides report.only_unfinished)",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   fmt.Sprintf("Report format: %s (overrides report.format)", formatNames()),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the report to a file instead of stdout",
		},
	}
}

func formatNames() string {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// runCommand fetches new tracks and reports duplicates
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Bring the UId table up to date and print redirects for duplicate UIds",
		Description: "Redirects are ordered by the smallest track id of each group, then by UId, so the\n" +
			"report is deterministic; it does not follow the order in which UIds were discovered.",
		Flags:  append([]cli.Flag{configFlag()}, reportFlags()...),
		Action: r.Run,
	}
}

// syncCommand only fetches
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "sync",
		Usage:  "Bring the UId table up to date without reporting",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Sync,
	}
}

// reportCommand reports from persisted state without touching the network for pagination
func reportCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "report",
		Usage:  "Print redirects for duplicate UIds in the saved UId table",
		Flags:  append([]cli.Flag{configFlag()}, reportFlags()...),
		Action: r.Report,
	}
}

func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Summarize the saved UId table",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Status,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List recorded runs (requires history.enabled)",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of runs to show",
				Value:   20,
			},
			&cli.StringFlag{
				Name:  "id",
				Usage: "Show a single run by id",
			},
		},
		Action: r.History,
	}
}

// setupCommand writes the config file and initializes the database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "setup",
		Usage:  "Create config.toml and run database migrations",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Setup,
	}
}

// browseCommand returns the interactive duplicate browser.
func browseCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "browse",
		Aliases: []string{"tui", "ui"},
		Usage:   "Browse duplicate UIds of the saved UId table interactively",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Where logs go while the TUI is running",
				Value: "./tmp/uidx-browse.log",
			},
		},
		Action: r.Browse,
	}
}
