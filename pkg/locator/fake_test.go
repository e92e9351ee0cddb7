package locator

import (
	"fmt"
	"sync"
	"time"

	"github.com/entrhq/vigil/pkg/browser"
)

// fakeElement is an in-memory Element for resolver tests.
type fakeElement struct {
	mu           sync.Mutex
	visible      bool
	enabled      bool
	text         string
	tag          string
	attrs        map[string]string
	visibleAfter int // queries to report hidden before becoming visible
	visibleCalls int
	clicks       int
}

func newFakeElement() *fakeElement {
	return &fakeElement{visible: true, enabled: true, tag: "button"}
}

func (e *fakeElement) Visible() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.visibleAfter > 0 {
		e.visibleCalls++
		if e.visibleCalls <= e.visibleAfter {
			return false, nil
		}
		return true, nil
	}
	return e.visible, nil
}

func (e *fakeElement) Enabled() (bool, error) { return e.enabled, nil }
func (e *fakeElement) Text() (string, error)  { return e.text, nil }
func (e *fakeElement) Tag() (string, error)   { return e.tag, nil }

func (e *fakeElement) Attribute(name string) (string, error) {
	return e.attrs[name], nil
}

func (e *fakeElement) Click() error {
	e.clicks++
	return nil
}

func (e *fakeElement) Fill(string) error { return nil }

// fakePage is an in-memory Page mapping selector expressions to canned
// element lists and recording the order selectors were tried in.
type fakePage struct {
	mu        sync.Mutex
	selectors map[string][]browser.Element
	failing   map[string]bool // selectors whose query errors
	html      string
	url       string
	queried   []string
}

func newFakePage() *fakePage {
	return &fakePage{
		selectors: make(map[string][]browser.Element),
		failing:   make(map[string]bool),
		html:      "<html><body><button id=\"go\">Go</button></body></html>",
		url:       "https://example.test/",
	}
}

func (p *fakePage) match(selector string, els ...browser.Element) {
	p.selectors[selector] = els
}

func (p *fakePage) Query(selector string) ([]browser.Element, error) {
	p.mu.Lock()
	p.queried = append(p.queried, selector)
	p.mu.Unlock()
	if p.failing[selector] {
		return nil, fmt.Errorf("malformed selector %q", selector)
	}
	return p.selectors[selector], nil
}

// queriedSet returns the distinct selectors tried, in first-seen order.
func (p *fakePage) queriedSet() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, s := range p.queried {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func (p *fakePage) Evaluate(string) (any, error)           { return nil, nil }
func (p *fakePage) Content() (string, error)               { return p.html, nil }
func (p *fakePage) URL() string                            { return p.url }
func (p *fakePage) Navigate(url string) error              { p.url = url; return nil }
func (p *fakePage) OnConsole(func(browser.ConsoleMessage)) {}
func (p *fakePage) OnPageError(func(string))               {}
func (p *fakePage) OnResponse(func(browser.Response))      {}
func (p *fakePage) OnRequestFailed(func(string, string))   {}
func (p *fakePage) Screenshot(string) error                { return nil }

var _ browser.Page = (*fakePage)(nil)

// fastOptions keeps resolver polling cheap in tests.
func fastOptions() Options {
	return Options{
		AttemptTimeout: 20 * time.Millisecond,
		PollInterval:   time.Millisecond,
		SuggestTimeout: 50 * time.Millisecond,
		ContextBytes:   2000,
	}
}
