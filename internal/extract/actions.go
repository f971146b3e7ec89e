package extract

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dtnitsch/release-scraper/internal/common"
	"github.com/dtnitsch/release-scraper/models"
	"github.com/dtnitsch/release-scraper/pkg/browser"
	"github.com/dtnitsch/release-scraper/pkg/caching"
	dbpkg "github.com/dtnitsch/release-scraper/pkg/db"
	"github.com/dtnitsch/release-scraper/pkg/extractor"
	"github.com/dtnitsch/release-scraper/pkg/fetcher"
	"github.com/dtnitsch/release-scraper/pkg/manifest"
	"github.com/dtnitsch/release-scraper/pkg/projector"
	"github.com/dtnitsch/release-scraper/pkg/storage"
	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
)

func ExtractAction(c *cli.Context) error {
	logger := common.NewLogger(c.Bool("quiet"), c.Bool("verbose"))

	config, err := models.LoadConfig(c.String("config"))
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitFailure)
	}
	if err := overridesFromFlags(c).Apply(config); err != nil {
		logger.Error("invalid configuration", "error", err)
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitFailure)
	}

	var session browser.Session
	source := "browser"
	switch {
	case c.String("snapshot") != "":
		session = browser.NewSnapshotFile(c.String("snapshot"))
		source = "snapshot"
	case c.Bool("static"):
		f, err := newStaticFetcher(c, config, logger)
		if err != nil {
			logger.Error("failed to set up page cache", "error", err)
			return cli.Exit(fmt.Sprintf("Error: %v", err), ExitFailure)
		}
		session = browser.NewSnapshot(f.Fetch)
		source = "static"
	default:
		session, err = browser.NewPlaywright(logger, browser.PlaywrightOptions{
			Headless:      config.Headless,
			UserAgent:     config.UserAgent,
			LaunchTimeout: config.BrowserLaunchTimeout.Std(),
		})
		if err != nil {
			logger.Error("failed to launch browser", "error", err)
			return cli.Exit(fmt.Sprintf("Error: %v", err), ExitFailure)
		}
	}

	recorder := openRecorder(c, logger, config.TargetURL, source)
	defer recorder.close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := extractor.New(session, config, logger)
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Warn("failed to close browser", "error", err)
		}
	}()

	logger.Info("Starting extraction", "url", config.TargetURL, "source", source, "retries", config.RetryCount)
	agg, runErr := engine.Run(ctx)
	status, code := Outcome(agg, runErr)

	result := dbpkg.RunOutcome{Status: status, ErrorKind: errorKind(runErr), OutputDir: config.OutputDir}
	if runErr != nil {
		result.ErrorMessage = runErr.Error()
	}
	if agg != nil {
		result.PageTitle = agg.PageTitle
		result.SectionCount = agg.SectionCount
		result.VersionCount = agg.Versions.Len()
		result.SuccessCount = agg.SuccessCount
		result.FailCount = agg.FailCount
		if latest, ok := projector.LatestVersion(agg.Versions); ok {
			result.LatestVersion = latest
		}
		result.ContentHash = saveSnapshot(c.String("save-snapshot"), session, logger)
	}

	if status == dbpkg.StatusFailed {
		recorder.finish(result, nil)
		fmt.Fprintf(os.Stderr, "Extraction failed: %v\n", runErr)
		return cli.Exit("", code)
	}
	if status == dbpkg.StatusNoData {
		recorder.finish(result, agg)
		fmt.Fprintln(os.Stderr, "No download data was extracted; no files written")
		return cli.Exit("", code)
	}

	store := storage.New(config.OutputDir)
	summary, err := manifest.WriteResults(store, agg, manifest.Options{
		Prefix:   config.OutputPrefix,
		Format:   config.OutputFormat,
		Platform: config.Platform,
	})
	if err != nil {
		logger.Error("failed to write results", "error", err)
		result.Status = dbpkg.StatusFailed
		result.ErrorMessage = err.Error()
		recorder.finish(result, agg)
		return cli.Exit(fmt.Sprintf("Error: %v", err), ExitFailure)
	}
	recorder.finish(result, agg)

	printSummary(summary, store, agg)
	if code != ExitOK {
		return cli.Exit("", code)
	}
	return nil
}

func overridesFromFlags(c *cli.Context) Overrides {
	var o Overrides
	if c.IsSet("url") {
		v := c.String("url")
		o.URL = &v
	}
	if c.IsSet("output-dir") {
		v := c.String("output-dir")
		o.OutputDir = &v
	}
	if c.IsSet("prefix") {
		v := c.String("prefix")
		o.Prefix = &v
	}
	if c.IsSet("format") {
		v := c.String("format")
		o.Format = &v
	}
	if c.IsSet("platform") {
		v := c.String("platform")
		o.Platform = &v
	}
	if c.IsSet("retries") {
		v := c.Int("retries")
		o.Retries = &v
	}
	if c.IsSet("reload-between-sections") {
		v := c.Bool("reload-between-sections")
		o.ReloadBetweenSections = &v
	}
	if c.IsSet("headed") {
		v := c.Bool("headed")
		o.Headed = &v
	}
	return o
}

func newStaticFetcher(c *cli.Context, config *models.ExtractConfig, logger *slog.Logger) (*fetcher.Fetcher, error) {
	opts := []fetcher.Option{fetcher.WithLogger(logger)}
	if ttl := c.Duration("cache-ttl"); ttl > 0 {
		cache, err := caching.NewCache(c.String("cache-dir"), ttl, config.UserAgent)
		if err != nil {
			return nil, err
		}
		opts = append(opts, fetcher.WithCache(cache))
	}
	return fetcher.NewFetcher(config.UserAgent, config.PageLoadTimeout.Std(), opts...), nil
}

// saveSnapshot writes the current page HTML to path and returns its hash.
func saveSnapshot(path string, session browser.Session, logger *slog.Logger) string {
	if path == "" {
		return ""
	}
	html, err := session.Content()
	if err != nil {
		logger.Warn("failed to read page content for snapshot", "error", err)
		return ""
	}
	data := []byte(html)
	if err := storage.New("").SaveFile(path, data); err != nil {
		logger.Warn("failed to save snapshot", "path", path, "error", err)
		return ""
	}
	logger.Info("Saved page snapshot", "path", path, "size_bytes", len(data))
	return common.ContentHash(data)
}

func printSummary(summary *manifest.SummaryManifest, store *storage.Storage, agg *models.AggregateResult) {
	fmt.Printf("Extracted %d downloads across %d versions (%d failed)\n",
		agg.SuccessCount, agg.Versions.Len(), agg.FailCount)
	if summary.LatestVersion != "" {
		fmt.Printf("Latest version: %s (%d %s entries)\n",
			summary.LatestVersion, summary.PlatformEntries, summary.Platform)
	}
	for _, f := range summary.Files {
		fmt.Printf("  %-9s %s (%s)\n", f.Kind, store.Path(f.Name), humanize.Bytes(uint64(f.SizeBytes)))
	}
	fmt.Printf("Summary manifest saved to: %s\n", store.Path(manifest.ManifestFile))
}

// recorder writes the run into the history database. A missing database
// only disables recording.
type recorder struct {
	db     *dbpkg.DB
	runID  int64
	logger *slog.Logger
}

func openRecorder(c *cli.Context, logger *slog.Logger, targetURL, source string) *recorder {
	r := &recorder{logger: logger}
	if c.Bool("no-db") {
		return r
	}

	database, err := dbpkg.Open(c.String("db"))
	if err != nil {
		logger.Warn("run history disabled", "error", err)
		return r
	}
	runID, err := database.InsertRun(targetURL, source, time.Now())
	if err != nil {
		logger.Warn("failed to record run start", "error", err)
		_ = database.Close()
		return r
	}
	r.db, r.runID = database, runID
	logger.Debug("Recording run", "run_id", runID, "db", database.Path())
	return r
}

func (r *recorder) finish(o dbpkg.RunOutcome, agg *models.AggregateResult) {
	if r.db == nil {
		return
	}
	var errs []error
	if agg != nil {
		errs = append(errs, r.db.InsertEntries(r.runID, agg.Versions), r.db.InsertFailures(r.runID, agg.Failures))
	}
	errs = append(errs, r.db.FinishRun(r.runID, o))
	if err := errors.Join(errs...); err != nil {
		r.logger.Warn("failed to record run", "run_id", r.runID, "error", err)
		return
	}
	r.logger.Info("Run recorded", "run_id", r.runID, "status", o.Status)
}

func (r *recorder) close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}
