// Package extractor drives a browser session over a release downloads page
// and resolves every download button to the file URL its click requests.
//
// Work is strictly serial: one section at a time, one link at a time, one
// outstanding request observation at a time. The request predicate matches
// on URL only, so concurrent clicks could not be told apart.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/dtnitsch/release-scraper/pkg/browser"
	"github.com/dtnitsch/release-scraper/pkg/pagemeta"
)

// Engine runs extractions against one session.
type Engine struct {
	session browser.Session
	config  *models.ExtractConfig
	logger  *slog.Logger

	// sleep blocks for d or until ctx is done. Replaced in tests.
	sleep  func(ctx context.Context, d time.Duration) error
	closed bool
}

// New returns an Engine. The session is owned by the caller, except that a
// critical error closes it on a best-effort basis.
func New(session browser.Session, config *models.ExtractConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		session: session,
		config:  config,
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Close closes the session once. Later calls are no-ops.
func (e *Engine) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	return e.session.Close()
}

// Run loads the page, walks every version section and returns the aggregate.
//
// Page-level failures (navigation, readiness, section discovery) abort with
// an *Error and no result. A run where nothing resolved returns the
// aggregate together with ErrNoDataExtracted.
func (e *Engine) Run(ctx context.Context) (result *models.AggregateResult, err error) {
	agg := models.NewAggregateResult(e.config.TargetURL)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("A critical error occurred", "error", r)
			e.closeAfterCritical()
			result, err = nil, newError(KindCriticalError, fmt.Sprint(r), nil)
		}
	}()

	if err := e.load(ctx, false); err != nil {
		return nil, e.abort(ctx, err)
	}
	agg.PageTitle = e.pageTitle()

	sectionCount, err := e.sections().Count()
	if err != nil {
		return nil, e.abort(ctx, newError(KindSectionCountFailure, "failed to count version sections", err))
	}
	e.logger.Info("Found version sections", "count", sectionCount)
	if sectionCount == 0 {
		return nil, e.abort(ctx, newError(KindNoSectionsFound, "no download version sections found", nil))
	}
	agg.SectionCount = sectionCount

	for i := 0; i < sectionCount; i++ {
		e.logger.Info("Starting section", "section", i+1, "of", sectionCount)

		if e.config.ReloadBetweenSections && i > 0 {
			if err := e.load(ctx, true); err != nil {
				if ctx.Err() != nil {
					return nil, e.abort(ctx, err)
				}
				e.logger.Error("Reload failed, skipping section", "section", i+1, "error", err)
				e.failUncountedLinks(i, 0, -1, agg)
				continue
			}
		}

		if err := e.processSectionSafe(ctx, i, agg); err != nil {
			return nil, e.abort(ctx, err)
		}
	}

	agg.Duration = time.Since(agg.StartedAt)
	e.logger.Info("All sections processed",
		"success", agg.SuccessCount,
		"failed", agg.FailCount,
		"versions", agg.Versions.Len(),
		"duration_seconds", agg.Duration.Seconds())

	if agg.IsEmpty() {
		e.logger.Warn("No download data was successfully extracted")
		return agg, ErrNoDataExtracted
	}
	return agg, nil
}

// processSectionSafe runs one section and contains any fault to it: links
// not yet processed when the fault hit are counted as failed.
func (e *Engine) processSectionSafe(ctx context.Context, index int, agg *models.AggregateResult) (err error) {
	report := &SectionReport{Index: index, LinkCount: -1}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Error processing links within section", "section", index+1, "error", r)
			e.failUncountedLinks(index, report.Processed, report.LinkCount, agg)
			err = nil
		}
	}()
	return e.ProcessSection(ctx, index, agg, report)
}

// failUncountedLinks adds links from processed onward to the fail counter.
// knownCount < 0 means the link count is unknown and is re-counted here; if
// that fails too nothing is counted.
func (e *Engine) failUncountedLinks(section, processed, knownCount int, agg *models.AggregateResult) {
	count := knownCount
	if count < 0 {
		n, err := e.countLinksFallback(section)
		if err != nil {
			e.logger.Warn("Could not count links of failed section", "section", section+1, "error", err)
			return
		}
		count = n
	}
	if remaining := count - processed; remaining > 0 {
		agg.FailCount += remaining
	}
}

// countLinksFallback counts a section's links through freshly resolved
// locators, after the primary count has failed.
func (e *Engine) countLinksFallback(section int) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("panic while counting links: %v", r)
		}
	}()
	return e.links(section).Count()
}

func (e *Engine) load(ctx context.Context, reload bool) error {
	action := "Loading"
	if reload {
		action = "Reloading"
	}
	e.logger.Info(action+" page", "url", e.config.TargetURL)

	var err error
	if reload {
		err = e.session.Reload(ctx, e.config.PageLoadTimeout.Std())
	} else {
		err = e.session.Navigate(ctx, e.config.TargetURL, e.config.PageLoadTimeout.Std())
	}
	if err != nil {
		return newError(KindLoadTimeout, fmt.Sprintf("%s page %s failed", action, e.config.TargetURL), err)
	}

	// Attachment to the DOM is the readiness signal, not the response body.
	if err := e.sections().First().WaitFor(browser.StateAttached, e.config.ElementWaitTimeout.Std()); err != nil {
		return newError(KindReadinessTimeout, "waiting for download section container timed out", err)
	}
	e.logger.Info("Download section container present")

	return e.sleep(ctx, e.config.SettleDelay.Std())
}

func (e *Engine) pageTitle() string {
	html, err := e.session.Content()
	if err != nil {
		e.logger.Warn("Failed to snapshot page content", "error", err)
		return ""
	}
	title, err := pagemeta.Title(html, e.config.TargetURL)
	if err != nil {
		e.logger.Warn("Failed to extract page title", "error", err)
		return ""
	}
	return title
}

// abort converts a cancelled context into a critical error and closes the
// session for critical errors.
func (e *Engine) abort(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		err = newError(KindCriticalError, "run cancelled", ctx.Err())
	}
	if IsKind(err, KindCriticalError) {
		e.closeAfterCritical()
	}
	e.logger.Error("Extraction aborted", "error", err)
	return err
}

func (e *Engine) closeAfterCritical() {
	e.logger.Info("Attempting to close browser after critical error")
	if err := e.Close(); err != nil {
		e.logger.Warn("Error closing browser during error handling", "error", err)
	}
}

// Locators are rebuilt from the page root on every call.

func (e *Engine) sections() browser.ElementSet {
	return e.session.Locate(e.config.SectionSelector)
}

func (e *Engine) section(index int) browser.Element {
	return e.sections().Nth(index)
}

func (e *Engine) links(section int) browser.ElementSet {
	return e.section(section).Locate(e.config.LinkSelector)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
