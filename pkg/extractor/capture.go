package extractor

import (
	"context"
	"fmt"
	"time"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/dtnitsch/release-scraper/pkg/browser"
	"github.com/dtnitsch/release-scraper/pkg/filename"
)

// LinkCoord addresses the Nth link of the Mth section. It is resolved
// through the session on every attempt, never cached as an element.
type LinkCoord struct {
	Section int
	Link    int

	// Version and Total only label log lines.
	Version string
	Total   int
}

// State is a step of the link capture state machine:
//
//	Idle -> FetchingText -> AwaitingRequest -> Succeeded
//	                  \              \-> FailedAttempt -> Idle (retry) | Exhausted
//	                   \-> FailedAttempt
type State int

const (
	StateIdle State = iota
	StateFetchingText
	StateAwaitingRequest
	StateSucceeded
	StateFailedAttempt
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetchingText:
		return "fetching_text"
	case StateAwaitingRequest:
		return "awaiting_request"
	case StateSucceeded:
		return "succeeded"
	case StateFailedAttempt:
		return "failed_attempt"
	case StateExhausted:
		return "exhausted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Outcome is the final result of capturing one link: Succeeded with a
// resolved entry, or Exhausted with marker url and filename.
type Outcome struct {
	State    State
	Entry    models.DownloadEntry
	Category Category // category of the last failed attempt
	Attempts int
	Err      error // error of the last failed attempt
}

func (o Outcome) Succeeded() bool { return o.State == StateSucceeded }

// attemptResult is the tagged result of a single try.
type attemptResult struct {
	state    State // StateSucceeded or StateFailedAttempt
	url      string
	category Category
	err      error
}

// CaptureLink runs up to RetryCount+1 attempts for one link. It returns an
// error only when ctx is cancelled; every other failure is absorbed into
// the Outcome.
func (e *Engine) CaptureLink(ctx context.Context, coord LinkCoord) (Outcome, error) {
	started := time.Now()
	retries := e.config.RetryCount
	entry := models.DownloadEntry{
		Platform:    fmt.Sprintf("Unknown_Platform_%d", coord.Link+1),
		Description: fmt.Sprintf("Unknown_Description_%d", coord.Link+1),
	}
	log := e.logger.With("version", coord.Version, "link", coord.Link+1, "of", coord.Total)

	var last attemptResult
	for n := 0; n <= retries; n++ {
		if n > 0 {
			log.Info("Retrying link", "attempt", n, "retries", retries)
			if err := e.sleep(ctx, time.Duration(n)*e.config.RetryBackoff.Std()); err != nil {
				return Outcome{}, err
			}
		}

		last = e.attempt(ctx, coord, n, &entry)
		if err := ctx.Err(); err != nil {
			return Outcome{}, err
		}

		if last.state == StateSucceeded {
			entry.URL = last.url
			entry.Filename = filename.FromURL(last.url)
			log.Info("Captured download request", "attempt", n, "url", last.url,
				"duration_seconds", time.Since(started).Seconds())
			return Outcome{State: StateSucceeded, Entry: entry, Attempts: n + 1}, nil
		}

		log.Warn("Link attempt failed", "attempt", n, "category", last.category,
			"kind", last.category.Kind(), "platform", entry.Platform, "error", last.err)
	}

	marker := Marker(last.category, retries)
	entry.URL = marker
	entry.Filename = marker
	log.Error("Link failed after retries", "category", last.category, "attempts", retries+1,
		"duration_seconds", time.Since(started).Seconds())
	return Outcome{
		State:    StateExhausted,
		Entry:    entry,
		Category: last.category,
		Attempts: retries + 1,
		Err:      last.err,
	}, nil
}

// attempt performs one wait-read-arm-click-capture pass. Labels read
// successfully are written to entry even if a later step fails.
func (e *Engine) attempt(ctx context.Context, coord LinkCoord, n int, entry *models.DownloadEntry) (result attemptResult) {
	state := StateIdle
	defer func() {
		if r := recover(); r != nil {
			result = attemptResult{
				state:    StateFailedAttempt,
				category: CategoryOuterError,
				err:      fmt.Errorf("panic in state %s: %v", state, r),
			}
		}
	}()

	fail := func(c Category, err error) attemptResult {
		return attemptResult{state: StateFailedAttempt, category: c, err: err}
	}

	link := e.links(coord.Section).Nth(coord.Link)

	state = StateFetchingText
	if err := link.WaitFor(browser.StateVisible, e.config.ElementVisibleTimeout.Std()); err != nil {
		return fail(CategoryTextFetch, fmt.Errorf("link not visible: %w", err))
	}
	labels := link.Locate(e.config.LabelSelector)
	platform, err := labels.Nth(0).InnerText(e.config.TextFetchTimeout.Std())
	if err != nil {
		return fail(CategoryTextFetch, fmt.Errorf("failed to read platform: %w", err))
	}
	description, err := labels.Nth(1).InnerText(e.config.TextFetchTimeout.Std())
	if err != nil {
		return fail(CategoryTextFetch, fmt.Errorf("failed to read description: %w", err))
	}
	entry.Platform, entry.Description = platform, description
	if n == 0 {
		e.logger.Info("Processing link", "version", coord.Version, "link", coord.Link+1,
			"platform", platform, "description", description)
	}

	// The observer is armed inside ExpectRequest before the click runs; the
	// request can fire before Click returns.
	state = StateAwaitingRequest
	e.logger.Debug("Waiting for request", "link", coord.Link+1, "attempt", n)
	req, err := e.session.ExpectRequest(ctx, e.config.IsDownloadURL, e.config.RequestWaitTimeout.Std(), func() error {
		return link.Click(e.config.ClickTimeout.Std())
	})
	if err != nil {
		if browser.IsTimeout(err) {
			return fail(CategoryClickOrRequestTimeout, err)
		}
		return fail(CategoryCaptureException, err)
	}

	return attemptResult{state: StateSucceeded, url: req.URL()}
}
