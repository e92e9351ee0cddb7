package session

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/vigil/pkg/anomaly"
	"github.com/entrhq/vigil/pkg/browser"
	"github.com/entrhq/vigil/pkg/config"
	"github.com/entrhq/vigil/pkg/locator"
	"github.com/entrhq/vigil/pkg/selectordb"
)

type stubElement struct {
	visible bool
	enabled bool
	text    string
	clicks  int
	filled  string
}

func newStubElement() *stubElement {
	return &stubElement{visible: true, enabled: true}
}

func (e *stubElement) Visible() (bool, error)          { return e.visible, nil }
func (e *stubElement) Enabled() (bool, error)          { return e.enabled, nil }
func (e *stubElement) Text() (string, error)           { return e.text, nil }
func (e *stubElement) Tag() (string, error)            { return "button", nil }
func (e *stubElement) Attribute(string) (string, error) { return "", nil }
func (e *stubElement) Click() error                    { e.clicks++; return nil }
func (e *stubElement) Fill(v string) error             { e.filled = v; return nil }

type stubPage struct {
	selectors map[string][]browser.Element
	failing   map[string]bool
	url       string

	console   func(browser.ConsoleMessage)
	pageErr   func(string)
	response  func(browser.Response)
	reqFailed func(url, failure string)
}

func newStubPage() *stubPage {
	return &stubPage{
		selectors: make(map[string][]browser.Element),
		failing:   make(map[string]bool),
		url:       "https://www.example.test/",
	}
}

func (p *stubPage) Query(selector string) ([]browser.Element, error) {
	if p.failing[selector] {
		return nil, fmt.Errorf("malformed selector %q", selector)
	}
	return p.selectors[selector], nil
}

func (p *stubPage) Evaluate(string) (any, error)                 { return nil, nil }
func (p *stubPage) Content() (string, error)                     { return "<html></html>", nil }
func (p *stubPage) URL() string                                  { return p.url }
func (p *stubPage) Navigate(url string) error                    { p.url = url; return nil }
func (p *stubPage) OnConsole(fn func(browser.ConsoleMessage))    { p.console = fn }
func (p *stubPage) OnPageError(fn func(string))                  { p.pageErr = fn }
func (p *stubPage) OnResponse(fn func(browser.Response))         { p.response = fn }
func (p *stubPage) OnRequestFailed(fn func(url, failure string)) { p.reqFailed = fn }
func (p *stubPage) Screenshot(string) error                      { return nil }

var _ browser.Page = (*stubPage)(nil)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	t.Setenv("VIGIL_LOG_DIR", t.TempDir())

	cfg := config.Default()
	cfg.SelectorDBPath = filepath.Join(t.TempDir(), "selectors.json")
	cfg.ReportDir = t.TempDir()
	cfg.AISuggestions = false
	cfg.AttemptTimeoutMS = 30
	cfg.SuggestTimeoutMS = 50
	return cfg
}

// A healed selector from one session becomes the first candidate tried by
// the next session sharing the same database.
func TestSessionHealsAndPersistsAcrossSessions(t *testing.T) {
	cfg := testConfig(t)
	fallbackExpr := `role=button[name="Vehicles"]`

	page := newStubPage()
	page.failing["#nav-vehicles"] = true
	page.selectors[fallbackExpr] = []browser.Element{newStubElement()}

	s, err := New(page, cfg)
	require.NoError(t, err)

	res, err := s.LocateIntent(locator.Intent{
		Name:      "vehicles-nav-button",
		Primary:   "#nav-vehicles",
		Fallbacks: []string{fallbackExpr},
	})
	require.NoError(t, err)
	assert.Equal(t, locator.StrategyFallback, res.Strategy)
	assert.True(t, res.Healed)

	// The healed win is already on disk.
	db, err := selectordb.Open(cfg.SelectorDBPath)
	require.NoError(t, err)
	best, ok := db.Best("vehicles-nav-button")
	require.True(t, ok)
	assert.Equal(t, fallbackExpr, best.Expr)

	// A fresh session resolves straight from the learned candidate.
	page2 := newStubPage()
	page2.failing["#nav-vehicles"] = true
	page2.selectors[fallbackExpr] = []browser.Element{newStubElement()}

	s2, err := New(page2, cfg)
	require.NoError(t, err)

	res2, err := s2.LocateIntent(locator.Intent{
		Name:      "vehicles-nav-button",
		Primary:   "#nav-vehicles",
		Fallbacks: []string{fallbackExpr},
	})
	require.NoError(t, err)
	assert.Equal(t, locator.StrategyPersisted, res2.Strategy)
	assert.False(t, res2.Healed)
}

func TestSessionLocateFailureIsNotFound(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false

	page := newStubPage()
	s, err := New(page, cfg)
	require.NoError(t, err)

	_, err = s.LocateIntent(locator.Intent{
		Name:           "missing",
		Primary:        "#missing",
		SkipPositional: true,
	})

	var notFound *locator.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestSessionNavigate(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false
	cfg.BaseURL = "https://www.example.test/"

	page := newStubPage()
	s, err := New(page, cfg)
	require.NoError(t, err)

	require.NoError(t, s.Navigate("/vehicles"))
	assert.Equal(t, "https://www.example.test/vehicles", page.url)

	require.NoError(t, s.Navigate("https://other.test/page"))
	assert.Equal(t, "https://other.test/page", page.url)
}

func TestSessionClickAndFill(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false

	page := newStubPage()
	button := newStubElement()
	zip := newStubElement()
	page.selectors["#cta"] = []browser.Element{button}
	page.selectors["#zip"] = []browser.Element{zip}

	s, err := New(page, cfg)
	require.NoError(t, err)

	require.NoError(t, s.Click("cta", "#cta"))
	assert.Equal(t, 1, button.clicks)

	require.NoError(t, s.Fill("zip-input", "#zip", "90210"))
	assert.Equal(t, "90210", zip.filled)
}

func TestSessionIsVisible(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false

	page := newStubPage()
	page.selectors["#present"] = []browser.Element{newStubElement()}

	s, err := New(page, cfg)
	require.NoError(t, err)

	assert.True(t, s.IsVisible("present", "#present"))
	assert.False(t, s.IsVisible("absent", "#absent", "#also-absent"))
}

// Blocking is decided purely by classification: a known defect passes, an
// unrecognized critical error fails the run.
func TestSessionBlockingErrors(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false

	page := newStubPage()
	s, err := New(page, cfg)
	require.NoError(t, err)

	page.console(browser.ConsoleMessage{
		Level: "error",
		Text:  "Uncaught (in promise) DOMException: The play() request was interrupted by a call to pause().",
	})
	assert.Empty(t, s.TestBlockingErrors())
	assert.Len(t, s.CriticalAnomalies(), 1)

	page.pageErr("TypeError: Cannot read properties of undefined (reading 'data')")
	blocking := s.TestBlockingErrors()
	require.Len(t, blocking, 1)
	assert.Equal(t, anomaly.CategoryUncategorized, blocking[0].Category)
}

func TestSessionDrainIsolatesPhases(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false

	page := newStubPage()
	s, err := New(page, cfg)
	require.NoError(t, err)

	page.pageErr("phase one failure")
	require.Len(t, s.DrainAnomalies(), 1)
	assert.Empty(t, s.Anomalies())
}

func TestSessionAnomalyDetectionDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false
	cfg.AnomalyDetection = false

	page := newStubPage()
	s, err := New(page, cfg)
	require.NoError(t, err)

	assert.Nil(t, page.pageErr)
	assert.Empty(t, s.Anomalies())
	_, err = s.CollectPerformance()
	assert.Error(t, err)
}

func TestSessionWriteReport(t *testing.T) {
	cfg := testConfig(t)
	cfg.SelfHealing = false

	page := newStubPage()
	s, err := New(page, cfg)
	require.NoError(t, err)

	page.response(browser.Response{Status: 503, URL: "https://d.agkn.com/pixel"})

	path, err := s.WriteReport()
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "third-party")
}
