package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Snapshot is a browserless Session over a static HTML document, read from
// a saved file, memory or a plain HTTP fetch.
//
// Clicking an element emits a request for its data-download-url attribute,
// or its href resolved against the page URL. Nothing renders asynchronously,
// so every wait either succeeds immediately or fails with ErrTimeout.
type Snapshot struct {
	load    Loader
	doc     *goquery.Document
	baseURL *url.URL

	armed   func(string) bool
	matched string
}

// Loader returns the document for a page URL.
type Loader func(ctx context.Context, pageURL string) ([]byte, error)

// NewSnapshot returns a Snapshot that calls load on every Navigate and Reload.
func NewSnapshot(load Loader) *Snapshot {
	return &Snapshot{load: load}
}

// NewSnapshotFile returns a Snapshot that reads path on every Navigate and Reload.
func NewSnapshotFile(path string) *Snapshot {
	return NewSnapshot(func(context.Context, string) ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot: %w", err)
		}
		return data, nil
	})
}

// NewSnapshotHTML returns a Snapshot over an in-memory document.
func NewSnapshotHTML(html string) *Snapshot {
	return NewSnapshot(func(context.Context, string) ([]byte, error) { return []byte(html), nil })
}

func (s *Snapshot) Navigate(ctx context.Context, rawURL string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	base, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid page URL: %w", err)
	}
	s.baseURL = base
	return s.parse(ctx)
}

func (s *Snapshot) Reload(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.doc == nil {
		return fmt.Errorf("reload before navigate")
	}
	return s.parse(ctx)
}

func (s *Snapshot) parse(ctx context.Context) error {
	data, err := s.load(ctx, s.baseURL.String())
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}
	s.doc = doc
	return nil
}

func (s *Snapshot) Locate(selector string) ElementSet {
	return snapshotSet{s: s, selector: selector, parent: func() (*goquery.Selection, error) {
		if s.doc == nil {
			return nil, fmt.Errorf("no document loaded")
		}
		return s.doc.Selection, nil
	}}
}

func (s *Snapshot) ExpectRequest(ctx context.Context, match func(url string) bool, _ time.Duration, trigger func() error) (Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.armed = match
	s.matched = ""
	defer func() { s.armed = nil }()

	if err := trigger(); err != nil {
		return nil, err
	}
	if s.matched == "" {
		return nil, fmt.Errorf("%w: no matching request observed", ErrTimeout)
	}
	return snapshotRequest(s.matched), nil
}

func (s *Snapshot) Content() (string, error) {
	if s.doc == nil {
		return "", fmt.Errorf("no document loaded")
	}
	return s.doc.Html()
}

func (s *Snapshot) Close() error { return nil }

// emit delivers a request to the armed observer, if any. Only the first
// matching request is kept.
func (s *Snapshot) emit(target string) {
	if s.armed != nil && s.matched == "" && s.armed(target) {
		s.matched = target
	}
}

func (s *Snapshot) resolve(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	if s.baseURL == nil {
		return u.String()
	}
	return s.baseURL.ResolveReference(u).String()
}

type snapshotRequest string

func (r snapshotRequest) URL() string { return string(r) }

type snapshotSet struct {
	s        *Snapshot
	selector string
	parent   func() (*goquery.Selection, error)
}

func (set snapshotSet) resolve() (*goquery.Selection, error) {
	parent, err := set.parent()
	if err != nil {
		return nil, err
	}
	return parent.Find(set.selector), nil
}

func (set snapshotSet) Count() (int, error) {
	sel, err := set.resolve()
	if err != nil {
		return 0, err
	}
	return sel.Length(), nil
}

func (set snapshotSet) Nth(i int) Element { return snapshotElement{set: set, index: i} }

func (set snapshotSet) First() Element { return snapshotElement{set: set, index: 0} }

type snapshotElement struct {
	set   snapshotSet
	index int
}

func (e snapshotElement) resolve() (*goquery.Selection, error) {
	sel, err := e.set.resolve()
	if err != nil {
		return nil, err
	}
	if e.index < 0 || e.index >= sel.Length() {
		return nil, fmt.Errorf("%w: %q[%d] not attached", ErrTimeout, e.set.selector, e.index)
	}
	return sel.Eq(e.index), nil
}

func (e snapshotElement) WaitFor(state State, _ time.Duration) error {
	sel, err := e.resolve()
	if err != nil {
		return err
	}
	if state == StateVisible && hidden(sel) {
		return fmt.Errorf("%w: %q[%d] not visible", ErrTimeout, e.set.selector, e.index)
	}
	return nil
}

func (e snapshotElement) InnerText(_ time.Duration) (string, error) {
	sel, err := e.resolve()
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(sel.Text()), " "), nil
}

func (e snapshotElement) Click(_ time.Duration) error {
	sel, err := e.resolve()
	if err != nil {
		return err
	}
	if hidden(sel) {
		return fmt.Errorf("%w: %q[%d] not visible", ErrTimeout, e.set.selector, e.index)
	}
	if target, ok := sel.Attr("data-download-url"); ok && target != "" {
		e.set.s.emit(e.set.s.resolve(target))
		return nil
	}
	if href, ok := sel.Attr("href"); ok && href != "" {
		e.set.s.emit(e.set.s.resolve(href))
	}
	return nil
}

func (e snapshotElement) Locate(selector string) ElementSet {
	return snapshotSet{s: e.set.s, selector: selector, parent: e.resolve}
}

// hidden approximates visibility for static markup.
func hidden(sel *goquery.Selection) bool {
	for node := sel; node.Length() > 0; node = node.Parent() {
		if _, ok := node.Attr("hidden"); ok {
			return true
		}
		style, _ := node.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return true
		}
	}
	return false
}
