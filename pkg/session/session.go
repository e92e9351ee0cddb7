// Package session ties one page, one resolver and one anomaly collector
// into the surface a test interacts with: locate elements by logical
// intent, drive them, and at test end ask which collected anomalies are
// allowed to fail the run.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/entrhq/vigil/pkg/anomaly"
	"github.com/entrhq/vigil/pkg/browser"
	"github.com/entrhq/vigil/pkg/config"
	"github.com/entrhq/vigil/pkg/healing"
	"github.com/entrhq/vigil/pkg/locator"
	"github.com/entrhq/vigil/pkg/logging"
	"github.com/entrhq/vigil/pkg/selectordb"
	"github.com/entrhq/vigil/pkg/suggest"
)

// Session is the per-test facade. One session owns one page; resolution and
// collection are sequential within it. Only the selector database is shared
// with parallel sessions.
type Session struct {
	page       browser.Page
	cfg        config.Config
	resolver   *locator.Resolver
	recorder   *healing.Recorder
	collector  *anomaly.Collector
	classifier *anomaly.Classifier
	log        *logging.Logger
}

// Option overrides a collaborator during construction, mainly so the
// framework's own tests can substitute deterministic implementations.
type Option func(*builder)

type builder struct {
	store     locator.Store
	recStore  healing.Store
	suggester locator.Suggester
	registry  *anomaly.Registry
}

// WithStore injects a selector database.
func WithStore(store *selectordb.Store) Option {
	return func(b *builder) {
		b.store = store
		b.recStore = store
	}
}

// WithSuggester injects an AI-suggestion provider.
func WithSuggester(s suggest.Suggester) Option {
	return func(b *builder) {
		b.suggester = s
	}
}

// WithRegistry injects a classification rule registry.
func WithRegistry(r *anomaly.Registry) Option {
	return func(b *builder) {
		b.registry = r
	}
}

// New assembles a session over the given page according to the
// configuration. Collaborators not overridden by options are built from
// config: the selector database at cfg.SelectorDBPath, the OpenAI
// suggestion provider, and the rule registry at cfg.RulesPath (or the
// built-in defaults).
func New(page browser.Page, cfg config.Config, opts ...Option) (*Session, error) {
	log, _ := logging.NewLogger("session")

	b := &builder{}
	for _, opt := range opts {
		opt(b)
	}

	if b.store == nil && cfg.SelfHealing {
		store, err := selectordb.Open(cfg.SelectorDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open selector database: %w", err)
		}
		b.store = store
		b.recStore = store
	}

	if b.suggester == nil && cfg.AISuggestions {
		provider, err := suggest.NewOpenAIProvider("", suggest.WithModel(cfg.AIModel))
		if err != nil {
			// No API key means no AI strategy, not a broken session.
			log.Warnf("AI suggestions disabled: %v", err)
		} else {
			b.suggester = provider
		}
	}

	if b.registry == nil {
		if cfg.RulesPath != "" {
			registry, err := anomaly.LoadRegistry(cfg.RulesPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load rule registry: %w", err)
			}
			b.registry = registry
		} else {
			b.registry = anomaly.DefaultRegistry()
		}
	}

	s := &Session{
		page: page,
		cfg:  cfg,
		log:  log,
		resolver: locator.New(page, b.store, b.suggester, log, locator.Options{
			AttemptTimeout: time.Duration(cfg.AttemptTimeoutMS) * time.Millisecond,
			SuggestTimeout: time.Duration(cfg.SuggestTimeoutMS) * time.Millisecond,
		}),
		classifier: anomaly.NewClassifier(b.registry),
	}
	if b.recStore != nil {
		s.recorder = healing.NewRecorder(b.recStore, log)
	}
	if cfg.AnomalyDetection {
		s.collector = anomaly.NewCollector(page, anomaly.DefaultBudgets(), log)
	}
	return s, nil
}

// Locate resolves a logical element identity to a live handle, walking the
// strategy chain and persisting any healed selector before returning.
func (s *Session) Locate(name, primary string, fallbacks ...string) (browser.Element, error) {
	res, err := s.LocateIntent(locator.Intent{
		Name:      name,
		Primary:   primary,
		Fallbacks: fallbacks,
	})
	if err != nil {
		return nil, err
	}
	return res.Element, nil
}

// LocateIntent resolves a fully-specified intent, giving callers control
// over per-intent safety flags.
func (s *Session) LocateIntent(intent locator.Intent) (*locator.Resolution, error) {
	res, err := s.resolver.Resolve(context.Background(), intent)
	if err != nil {
		return nil, err
	}
	if s.recorder != nil {
		s.recorder.Record(intent.Name, res)
	}
	return res, nil
}

// Navigate loads a path relative to the configured base URL, or an
// absolute URL as-is.
func (s *Session) Navigate(path string) error {
	url := path
	if strings.HasPrefix(path, "/") {
		url = strings.TrimRight(s.cfg.BaseURL, "/") + path
	}
	return s.page.Navigate(url)
}

// Click locates an element and clicks it.
func (s *Session) Click(name, primary string, fallbacks ...string) error {
	el, err := s.Locate(name, primary, fallbacks...)
	if err != nil {
		return err
	}
	return el.Click()
}

// Fill locates an input and replaces its value.
func (s *Session) Fill(name, primary, value string, fallbacks ...string) error {
	el, err := s.Locate(name, primary, fallbacks...)
	if err != nil {
		return err
	}
	return el.Fill(value)
}

// Text locates an element and returns its visible text.
func (s *Session) Text(name, primary string, fallbacks ...string) (string, error) {
	el, err := s.Locate(name, primary, fallbacks...)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// IsVisible reports whether the intent currently resolves to a visible
// element. Resolution failure counts as not visible.
func (s *Session) IsVisible(name, primary string, fallbacks ...string) bool {
	el, err := s.Locate(name, primary, fallbacks...)
	if err != nil {
		return false
	}
	visible, err := el.Visible()
	return err == nil && visible
}

// Screenshot captures the page to the given file path.
func (s *Session) Screenshot(path string) error {
	return s.page.Screenshot(path)
}

// Page exposes the underlying page for operations outside the reliability
// layer's surface.
func (s *Session) Page() browser.Page {
	return s.page
}

// Anomalies returns every anomaly collected so far, in order.
func (s *Session) Anomalies() []anomaly.Anomaly {
	if s.collector == nil {
		return nil
	}
	return s.collector.Anomalies()
}

// DrainAnomalies returns collected anomalies and resets the buffer,
// isolating one logical test phase from the next.
func (s *Session) DrainAnomalies() []anomaly.Anomaly {
	if s.collector == nil {
		return nil
	}
	return s.collector.Drain()
}

// CollectPerformance samples timing metrics, recording budget breaches as
// anomalies.
func (s *Session) CollectPerformance() (map[string]float64, error) {
	if s.collector == nil {
		return nil, fmt.Errorf("anomaly detection is disabled")
	}
	return s.collector.CollectPerformance()
}

// CriticalAnomalies returns all classified critical-severity anomalies.
func (s *Session) CriticalAnomalies() []anomaly.Classified {
	return s.classifier.CriticalAnomalies(s.Anomalies())
}

// TestBlockingErrors returns the anomalies that should fail this test:
// critical anomalies not matching any non-blocking known-issue rule.
func (s *Session) TestBlockingErrors() []anomaly.Classified {
	return s.classifier.TestBlockingErrors(s.Anomalies())
}

// WriteReport classifies everything collected so far and writes a JSON
// report under the configured report directory, returning its path.
func (s *Session) WriteReport() (string, error) {
	classified := s.classifier.Classify(s.Anomalies())
	report := anomaly.BuildReport(classified, s.page.URL())
	path := filepath.Join(s.cfg.ReportDir,
		fmt.Sprintf("anomaly_report_%s.json", time.Now().Format("20060102_150405")))
	if err := report.WriteJSON(path); err != nil {
		return "", err
	}
	return path, nil
}
