package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightOptions configures a Chromium session.
type PlaywrightOptions struct {
	Headless      bool
	UserAgent     string
	LaunchTimeout time.Duration
}

// Playwright is a Session backed by a headless Chromium page.
type Playwright struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	logger  *slog.Logger
}

// NewPlaywright starts the Playwright driver, launches Chromium and opens one page.
func NewPlaywright(logger *slog.Logger, opts PlaywrightOptions) (*Playwright, error) {
	logger.Info("Starting Playwright")
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	logger.Info("Launching browser", "engine", "chromium", "headless", opts.Headless)
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Timeout:  millis(opts.LaunchTimeout),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", wrapErr(err))
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	browserContext, err := browser.NewContext(contextOpts)
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	page, err := browserContext.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &Playwright{pw: pw, browser: browser, page: page, logger: logger}, nil
}

func (s *Playwright) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeout),
	})
	return wrapErr(err)
}

func (s *Playwright) Reload(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeout),
	})
	return wrapErr(err)
}

func (s *Playwright) Locate(selector string) ElementSet {
	return pwLocator{loc: s.page.Locator(selector)}
}

func (s *Playwright) ExpectRequest(ctx context.Context, match func(url string) bool, timeout time.Duration, trigger func() error) (Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var triggerErr error
	req, err := s.page.ExpectRequest(func(url string) bool {
		return match(url)
	}, func() error {
		triggerErr = trigger()
		return triggerErr
	}, playwright.PageExpectRequestOptions{Timeout: millis(timeout)})
	if triggerErr != nil {
		return nil, triggerErr
	}
	if err != nil {
		return nil, wrapErr(err)
	}
	return req, nil
}

func (s *Playwright) Content() (string, error) {
	html, err := s.page.Content()
	return html, wrapErr(err)
}

// Close closes the browser if it is still connected and stops the driver.
func (s *Playwright) Close() error {
	var errs []error
	if s.browser != nil && s.browser.IsConnected() {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}
	return errors.Join(errs...)
}

// pwLocator adapts a playwright.Locator to both ElementSet and Element.
type pwLocator struct {
	loc playwright.Locator
}

func (l pwLocator) Count() (int, error) {
	n, err := l.loc.Count()
	return n, wrapErr(err)
}

func (l pwLocator) Nth(i int) Element { return pwLocator{loc: l.loc.Nth(i)} }

func (l pwLocator) First() Element { return pwLocator{loc: l.loc.First()} }

func (l pwLocator) Locate(selector string) ElementSet {
	return pwLocator{loc: l.loc.Locator(selector)}
}

func (l pwLocator) WaitFor(state State, timeout time.Duration) error {
	opts := playwright.LocatorWaitForOptions{Timeout: millis(timeout)}
	switch state {
	case StateAttached:
		opts.State = playwright.WaitForSelectorStateAttached
	default:
		opts.State = playwright.WaitForSelectorStateVisible
	}
	return wrapErr(l.loc.WaitFor(opts))
}

func (l pwLocator) InnerText(timeout time.Duration) (string, error) {
	text, err := l.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: millis(timeout)})
	return text, wrapErr(err)
}

func (l pwLocator) Click(timeout time.Duration) error {
	return wrapErr(l.loc.Click(playwright.LocatorClickOptions{
		Timeout:     millis(timeout),
		NoWaitAfter: playwright.Bool(true),
	}))
}

// wrapErr maps Playwright timeouts onto ErrTimeout so callers never import playwright.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}

func millis(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}
