package main

import (
	"fmt"
	"os"

	dbcmd "github.com/dtnitsch/release-scraper/internal/db"
	"github.com/dtnitsch/release-scraper/internal/extract"
	"github.com/dtnitsch/release-scraper/pkg/help"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "release-scraper",
		Usage: "Resolve every download button of a release page to its real file URL",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Log debug output"},
			&cli.StringFlag{Name: "db", Usage: "Run history database path (default: next to the binary)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "extract",
				Usage:  "Load the downloads page and capture every download URL",
				Action: extract.ExtractAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config file"},
					&cli.StringFlag{Name: "url", Usage: "Downloads page URL"},
					&cli.StringFlag{Name: "output-dir", Aliases: []string{"o"}, Usage: "Directory for result files"},
					&cli.StringFlag{Name: "prefix", Usage: "Result file name prefix"},
					&cli.StringFlag{Name: "format", Usage: "Result file format: json or yaml"},
					&cli.StringFlag{Name: "platform", Usage: "Platform for the latest projection"},
					&cli.IntFlag{Name: "retries", Usage: "Extra attempts per link"},
					&cli.BoolFlag{Name: "reload-between-sections", Usage: "Reload the page before each version section"},
					&cli.BoolFlag{Name: "headed", Usage: "Show the browser window"},
					&cli.StringFlag{Name: "snapshot", Usage: "Replay against a saved HTML file instead of a live browser"},
					&cli.BoolFlag{Name: "static", Usage: "Fetch the page over plain HTTP instead of a browser (links must carry their URLs)"},
					&cli.DurationFlag{Name: "cache-ttl", Usage: "Reuse a --static page fetched within this duration"},
					&cli.StringFlag{Name: "cache-dir", Value: ".release-scraper-cache", Usage: "Page cache directory for --static"},
					&cli.StringFlag{Name: "save-snapshot", Usage: "Save the loaded page HTML to this path"},
					&cli.BoolFlag{Name: "no-db", Usage: "Do not record the run"},
				},
			},
			{
				Name:   "runs",
				Usage:  "List recorded runs",
				Action: dbcmd.RunsAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum runs to show (0 for all)"},
				},
			},
			{
				Name:      "run",
				Usage:     "Show details for a run (latest if no ID given)",
				ArgsUsage: "[id]",
				Action:    dbcmd.RunAction,
			},
			{
				Name:   "latest",
				Usage:  "Print the latest downloads from the newest successful run",
				Action: dbcmd.LatestAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "platform", Value: "linux", Usage: "Platform to show"},
					&cli.StringFlag{Name: "filter", Usage: `Selection such as "platform:linux|macos,version:1.2.0" (overrides --platform)`},
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick start guide",
				Action: func(c *cli.Context) error {
					fmt.Print(help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
}
