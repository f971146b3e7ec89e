package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtnitsch/release-scraper/models"
	"github.com/dtnitsch/release-scraper/pkg/browser"
)

// behavior is what a fake link does on one attempt.
type behavior int

const (
	ok          behavior = iota
	hiddenLink           // never becomes visible
	noRequest            // click lands, nothing is requested
	clickFails           // click returns a non-timeout error
	clickPanics          // click panics
)

type fakeLink struct {
	platform    string
	description string
	url         string
	script      []behavior // per attempt; the last entry repeats
}

type fakeSection struct {
	heading      string
	headingPanic bool
	headingErr   bool
	countErr     bool
	countFails   int // link counts that fail before counting works
	links        []fakeLink
}

type fakeSession struct {
	cfg      *models.ExtractConfig
	sections []fakeSection

	navigateErr   error
	reloadErr     error
	notReady      bool
	emptyButReady bool // readiness passes although no section matches
	sectionsErr   bool
	navigatePanic bool

	// onClick runs before every click is handled.
	onClick func()

	attempts   map[[2]int]int
	linkCounts map[int]int
	events     []string
	armed    func(string) bool
	captured string
	closed   int
	reloads  int
}

func newFakeSession(cfg *models.ExtractConfig, sections ...fakeSection) *fakeSession {
	return &fakeSession{
		cfg:        cfg,
		sections:   sections,
		attempts:   make(map[[2]int]int),
		linkCounts: make(map[int]int),
	}
}

func timeoutErr(what string) error {
	return fmt.Errorf("%w: %s", browser.ErrTimeout, what)
}

func (s *fakeSession) Navigate(ctx context.Context, url string, _ time.Duration) error {
	if s.navigatePanic {
		panic("browser crashed")
	}
	s.events = append(s.events, "navigate")
	return s.navigateErr
}

func (s *fakeSession) Reload(ctx context.Context, _ time.Duration) error {
	s.reloads++
	s.events = append(s.events, "reload")
	return s.reloadErr
}

func (s *fakeSession) Locate(selector string) browser.ElementSet {
	if selector != s.cfg.SectionSelector {
		panic("unexpected page selector " + selector)
	}
	return fakeSet{s: s, kind: "sections"}
}

func (s *fakeSession) ExpectRequest(ctx context.Context, match func(string) bool, _ time.Duration, trigger func() error) (browser.Request, error) {
	s.events = append(s.events, "arm")
	s.armed, s.captured = match, ""
	defer func() { s.armed = nil }()

	if err := trigger(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.captured == "" {
		return nil, timeoutErr("waiting for request")
	}
	return fakeRequest(s.captured), nil
}

func (s *fakeSession) Content() (string, error) {
	return "<html><head><title>Downloads</title></head><body><p>page</p></body></html>", nil
}

func (s *fakeSession) Close() error {
	s.closed++
	return nil
}

type fakeRequest string

func (r fakeRequest) URL() string { return string(r) }

type fakeSet struct {
	s    *fakeSession
	kind string // sections, heading, links, labels
	sec  int
	link int
}

func (set fakeSet) Count() (int, error) {
	switch set.kind {
	case "sections":
		if set.s.sectionsErr {
			return 0, errors.New("detached frame")
		}
		return len(set.s.sections), nil
	case "links":
		sec := set.s.sections[set.sec]
		set.s.linkCounts[set.sec]++
		if sec.countErr || set.s.linkCounts[set.sec] <= sec.countFails {
			return 0, errors.New("count failed")
		}
		return len(sec.links), nil
	case "labels":
		return 2, nil
	}
	return 1, nil
}

func (set fakeSet) Nth(i int) browser.Element {
	return fakeElement{set: set, index: i}
}

func (set fakeSet) First() browser.Element { return set.Nth(0) }

type fakeElement struct {
	set   fakeSet
	index int
}

func (e fakeElement) session() *fakeSession { return e.set.s }

func (e fakeElement) link() (fakeLink, behavior) {
	l := e.session().sections[e.set.sec].links[e.set.link]
	n := e.session().attempts[[2]int{e.set.sec, e.set.link}] - 1
	if len(l.script) == 0 {
		return l, ok
	}
	if n >= len(l.script) {
		n = len(l.script) - 1
	}
	return l, l.script[n]
}

func (e fakeElement) WaitFor(state browser.State, _ time.Duration) error {
	s := e.session()
	switch e.set.kind {
	case "sections":
		if s.notReady || (e.index >= len(s.sections) && !s.emptyButReady) {
			return timeoutErr("section")
		}
	case "heading":
		sec := s.sections[e.set.sec]
		if sec.headingPanic {
			panic("heading vanished")
		}
		if sec.headingErr {
			return timeoutErr("heading")
		}
	case "links":
		key := [2]int{e.set.sec, e.index}
		s.attempts[key]++
		e.set.link = e.index
		if _, b := e.link(); b == hiddenLink {
			return timeoutErr("link visible")
		}
	}
	return nil
}

func (e fakeElement) InnerText(_ time.Duration) (string, error) {
	s := e.session()
	switch e.set.kind {
	case "heading":
		return s.sections[e.set.sec].heading, nil
	case "labels":
		l, _ := e.link()
		if e.index == 0 {
			return l.platform, nil
		}
		return l.description, nil
	}
	return "", errors.New("no text")
}

func (e fakeElement) Click(_ time.Duration) error {
	s := e.session()
	s.events = append(s.events, "click")
	if s.onClick != nil {
		s.onClick()
	}
	e.set.link = e.index
	l, b := e.link()
	switch b {
	case clickFails:
		return errors.New("element detached")
	case clickPanics:
		panic("click exploded")
	case noRequest:
		return nil
	}
	if s.armed == nil {
		return errors.New("click before observer armed")
	}
	if s.armed(l.url) {
		s.captured = l.url
	}
	return nil
}

func (e fakeElement) Locate(selector string) browser.ElementSet {
	s := e.session()
	switch {
	case e.set.kind == "sections" && selector == s.cfg.HeadingSelector:
		return fakeSet{s: s, kind: "heading", sec: e.index}
	case e.set.kind == "sections" && selector == s.cfg.LinkSelector:
		return fakeSet{s: s, kind: "links", sec: e.index}
	case e.set.kind == "links" && selector == s.cfg.LabelSelector:
		return fakeSet{s: s, kind: "labels", sec: e.set.sec, link: e.index}
	}
	panic(fmt.Sprintf("unexpected selector %q on %s", selector, e.set.kind))
}
