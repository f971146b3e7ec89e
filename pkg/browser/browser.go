// Package browser defines the capability set the extractor needs from a
// browser automation driver, plus two implementations: a live Playwright
// session and an offline session over a saved HTML snapshot.
//
// Element handles are never cached by callers. An ElementSet or Element is a
// lazy locator that re-resolves against the current document on every call,
// so a reload does not leave stale references behind.
package browser

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is wrapped by every error caused by an expired wait.
var ErrTimeout = errors.New("browser: timeout")

// State is an element state that WaitFor can block on.
type State string

const (
	StateAttached State = "attached"
	StateVisible  State = "visible"
)

// Session is one page in one browser session.
type Session interface {
	// Navigate loads url and returns once the DOM content is loaded.
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// Reload reloads the current page. Previously resolved elements become invalid.
	Reload(ctx context.Context, timeout time.Duration) error
	// Locate returns a lazy set of elements matching selector in the page.
	Locate(selector string) ElementSet
	// ExpectRequest arms an observer for the next outgoing request whose URL
	// satisfies match, then runs trigger. It returns the first matching
	// request or an error wrapping ErrTimeout if none arrives in time.
	// If trigger fails its error is returned unchanged.
	ExpectRequest(ctx context.Context, match func(url string) bool, timeout time.Duration, trigger func() error) (Request, error)
	// Content returns the current serialized DOM.
	Content() (string, error)
	Close() error
}

// ElementSet is a lazy, re-resolvable set of elements.
type ElementSet interface {
	Count() (int, error)
	Nth(i int) Element
	First() Element
}

// Element is a lazy reference to one element of a set, by position.
type Element interface {
	WaitFor(state State, timeout time.Duration) error
	InnerText(timeout time.Duration) (string, error)
	// Click clicks the element without waiting for any navigation it starts.
	Click(timeout time.Duration) error
	// Locate returns elements matching selector inside this element.
	Locate(selector string) ElementSet
}

// Request is an observed outgoing network request.
type Request interface {
	URL() string
}

// IsTimeout reports whether err was caused by an expired wait.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
