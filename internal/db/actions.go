package db

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dtnitsch/release-scraper/pkg/projector"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func RunsAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Println("No runs found")
		return nil
	}

	t := newTable()
	t.AppendHeader(table.Row{"ID", "Started", "Age", "Source", "Status", "Success", "Failed", "Latest", "Error"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.RunID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			humanize.Time(r.StartedAt),
			r.Source,
			r.Status,
			r.SuccessCount,
			r.FailCount,
			orDash(r.LatestVersion.String),
			orDash(r.ErrorKind.String),
		})
	}
	t.Render()

	fmt.Printf("\nTotal: %d runs\n", len(runs))
	fmt.Printf("\nTip: Use 'release-scraper run <id>' to see details\n")

	return nil
}

// RunAction shows details for a specific run
func RunAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	runID, err := GetRunIDOrLatest(c, database)
	if err != nil {
		return err
	}

	run, err := database.GetRun(runID)
	if err != nil {
		return fmt.Errorf("failed to get run: %w", err)
	}
	versions, err := database.GetRunEntries(runID)
	if err != nil {
		return fmt.Errorf("failed to get run entries: %w", err)
	}
	failures, err := database.GetRunFailures(runID)
	if err != nil {
		return fmt.Errorf("failed to get run failures: %w", err)
	}

	fmt.Printf("Run %d\n", run.RunID)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Target:      %s\n", run.TargetURL)
	if run.PageTitle.Valid {
		fmt.Printf("Title:       %s\n", run.PageTitle.String)
	}
	fmt.Printf("Started:     %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	if run.FinishedAt.Valid {
		fmt.Printf("Duration:    %s\n", run.FinishedAt.Time.Sub(run.StartedAt).Round(100 * time.Millisecond))
	}
	fmt.Printf("Source:      %s\n", run.Source)
	fmt.Printf("Status:      %s\n", run.Status)
	fmt.Printf("Links:       %d success, %d failed, %d sections\n",
		run.SuccessCount, run.FailCount, run.SectionCount)
	if run.ErrorKind.Valid {
		fmt.Printf("Error:       [%s] %s\n", run.ErrorKind.String, run.ErrorMessage.String)
	}
	if run.ContentHash.Valid {
		fmt.Printf("Snapshot:    sha256 %s\n", run.ContentHash.String)
	}

	if versions.Len() > 0 {
		fmt.Printf("\nVersions (%d):\n", versions.Len())
		t := newTable()
		t.AppendHeader(table.Row{"Version", "Platform", "Description", "File"})
		for _, v := range versions.Keys() {
			entries, _ := versions.Get(v)
			for _, e := range entries {
				t.AppendRow(table.Row{v, e.Platform, e.Description, e.Filename})
			}
		}
		t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
		t.Render()
	}

	if len(failures) > 0 {
		fmt.Printf("\nFailed links (%d):\n", len(failures))
		fmt.Println(strings.Repeat("-", 60))
		for i, f := range failures {
			fmt.Printf("%2d. [%s] %s section %d link %d: %s\n",
				i+1, f.Category, f.Version, f.Section+1, f.Link+1, f.Marker)
		}
	}

	return nil
}

// LatestAction prints the latest downloads of the newest run that produced
// data, optionally narrowed by --platform or --filter.
func LatestAction(c *cli.Context) error {
	database, err := openDB(c)
	if err != nil {
		return err
	}
	defer database.Close()

	run, err := database.LatestSuccessfulRun()
	if notFound(err) {
		fmt.Fprintln(os.Stderr, "No successful runs found. Run 'release-scraper extract' first")
		return cli.Exit("", 1)
	}
	if err != nil {
		return fmt.Errorf("failed to get latest run: %w", err)
	}

	versions, err := database.GetRunEntries(run.RunID)
	if err != nil {
		return fmt.Errorf("failed to get run entries: %w", err)
	}

	filter := c.String("filter")
	if filter == "" {
		filter = "version:latest,platform:" + c.String("platform")
	}
	strategy, err := projector.ParseStrategy(filter)
	if err != nil {
		return fmt.Errorf("invalid filter: %w", err)
	}

	selected := projector.Apply(versions, strategy)
	if selected.Len() == 0 {
		fmt.Fprintf(os.Stderr, "Run %d has no entries matching %q\n", run.RunID, filter)
		return cli.Exit("", 1)
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(selected)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
