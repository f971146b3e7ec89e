package extractor

import (
	"errors"
	"fmt"
)

// Kind classifies extraction failures.
type Kind string

const (
	KindLoadTimeout         Kind = "LoadTimeout"
	KindReadinessTimeout    Kind = "ReadinessTimeout"
	KindSectionCountFailure Kind = "SectionCountFailure"
	KindNoSectionsFound     Kind = "NoSectionsFound"
	KindCriticalError       Kind = "CriticalError"

	// Recovered inside a section; never returned from Run.
	KindTitleFetchFailure Kind = "TitleFetchFailure"
	KindLinkCountFailure  Kind = "LinkCountFailure"

	// Retried per link, then recorded as a failure marker.
	KindLinkTextFetchFailure  Kind = "LinkTextFetchFailure"
	KindClickOrRequestTimeout Kind = "ClickOrRequestTimeout"
	KindCaptureException      Kind = "CaptureException"
	KindOuterLinkError        Kind = "OuterLinkError"
)

// ErrNoDataExtracted is returned when a run completes but no link resolved.
// It is a terminal outcome, not a crash.
var ErrNoDataExtracted = errors.New("no successful download data extracted")

// Error is a run-aborting failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// Category is the failure category of one link attempt. Its string form is
// what ends up in failure markers.
type Category string

const (
	CategoryTextFetch             Category = "text-fetch"
	CategoryClickOrRequestTimeout Category = "click/request-timeout"
	CategoryCaptureException      Category = "capture-exception"
	CategoryOuterError            Category = "outer-error"
)

func (c Category) Kind() Kind {
	switch c {
	case CategoryTextFetch:
		return KindLinkTextFetchFailure
	case CategoryClickOrRequestTimeout:
		return KindClickOrRequestTimeout
	case CategoryCaptureException:
		return KindCaptureException
	default:
		return KindOuterLinkError
	}
}

// Marker is the placeholder stored in url and filename for an exhausted link.
func Marker(c Category, retries int) string {
	return fmt.Sprintf("%s (retried %d times)", c, retries)
}
