package locator

import (
	"context"
	"time"

	"github.com/entrhq/vigil/pkg/browser"
	"github.com/entrhq/vigil/pkg/logging"
	"github.com/entrhq/vigil/pkg/selectordb"
)

// Default timeouts for the resolution chain. Local DOM strategies are kept
// short so a hung query cannot stall a run; the AI strategy carries its own
// longer budget because it round-trips an external service.
const (
	DefaultAttemptTimeout = 2 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond
	DefaultSuggestTimeout = 8 * time.Second
	DefaultContextBytes   = 4000
)

// Store is the subset of the selector database the resolver reads.
type Store interface {
	Best(intent string) (selectordb.Candidate, bool)
}

// Suggester is the AI-suggestion capability: given an intent name and a
// condensed DOM context, return ordered candidate selector expressions.
// Best-effort; an empty list is a valid answer.
type Suggester interface {
	SuggestSelectors(ctx context.Context, intentName, domContext string) ([]string, error)
}

// Options tunes the resolver's timeouts.
type Options struct {
	AttemptTimeout time.Duration
	PollInterval   time.Duration
	SuggestTimeout time.Duration
	ContextBytes   int
}

func (o *Options) applyDefaults() {
	if o.AttemptTimeout == 0 {
		o.AttemptTimeout = DefaultAttemptTimeout
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.SuggestTimeout == 0 {
		o.SuggestTimeout = DefaultSuggestTimeout
	}
	if o.ContextBytes == 0 {
		o.ContextBytes = DefaultContextBytes
	}
}

// Resolver locates elements for logical intents by walking the strategy
// chain in fixed priority order, short-circuiting on the first strategy
// that yields exactly one interactable element.
type Resolver struct {
	page      browser.Page
	store     Store
	suggester Suggester
	log       *logging.Logger
	opts      Options
}

// New creates a resolver over the given page. store and suggester may be
// nil, which disables the persisted and AI strategies respectively.
func New(page browser.Page, store Store, suggester Suggester, log *logging.Logger, opts Options) *Resolver {
	opts.applyDefaults()
	return &Resolver{
		page:      page,
		store:     store,
		suggester: suggester,
		log:       log,
		opts:      opts,
	}
}

// Resolve walks the strategy chain for the intent. It returns the first
// unique, visible, enabled match, or a NotFoundError carrying the complete
// attempt trail once every strategy is exhausted.
func (r *Resolver) Resolve(ctx context.Context, intent Intent) (*Resolution, error) {
	var trail []Attempt
	attempts := 0

	test := func(strategy, selector string, visibleOnly bool) browser.Element {
		attempts++
		el, outcome := r.testCandidate(ctx, intent, selector, visibleOnly)
		if el != nil {
			return el
		}
		trail = append(trail, Attempt{Strategy: strategy, Selector: selector, Outcome: outcome})
		return nil
	}

	finish := func(el browser.Element, selector, strategy string) (*Resolution, error) {
		healed := strategy != StrategyPersisted && strategy != StrategyPrimary
		r.debugf("resolved %q via %s strategy with %q after %d attempts", intent.Name, strategy, selector, attempts)
		return &Resolution{
			Element:  el,
			Selector: selector,
			Strategy: strategy,
			Attempts: attempts,
			Healed:   healed,
		}, nil
	}

	// 1. Highest-success persisted candidate.
	if r.store != nil {
		if best, ok := r.store.Best(intent.Name); ok {
			if el := test(StrategyPersisted, best.Expr, false); el != nil {
				return finish(el, best.Expr, StrategyPersisted)
			}
		}
	}

	// 2. Caller-supplied primary selector.
	if intent.Primary != "" {
		if el := test(StrategyPrimary, intent.Primary, false); el != nil {
			return finish(el, intent.Primary, StrategyPrimary)
		}
	}

	// 3. Caller-supplied fallbacks, in order.
	for _, fb := range intent.Fallbacks {
		if el := test(StrategyFallback, fb, false); el != nil {
			return finish(el, fb, StrategyFallback)
		}
	}

	// 4-6. Derived strategies, evaluated against visible elements only.
	derived := []derivationStrategy{
		{name: StrategySemantic, candidates: semanticCandidates},
		{name: StrategyFuzzy, candidates: fuzzyCandidates},
	}
	if !intent.SkipPositional {
		derived = append(derived, derivationStrategy{name: StrategyPositional, candidates: positionalCandidates})
	}
	for _, strategy := range derived {
		for _, candidate := range strategy.candidates(intent) {
			if el := test(strategy.name, candidate, true); el != nil {
				return finish(el, candidate, strategy.name)
			}
		}
	}

	// 7. External suggestions re-enter the candidate-test loop.
	for _, candidate := range r.suggestCandidates(ctx, intent) {
		if el := test(StrategyAI, candidate, false); el != nil {
			return finish(el, candidate, StrategyAI)
		}
	}

	r.debugf("exhausted all strategies for %q after %d attempts", intent.Name, attempts)
	return nil, &NotFoundError{Intent: intent.Name, Attempts: trail}
}

// testCandidate queries one selector expression, waiting up to the attempt
// timeout for exactly one visible, enabled match. More than one raw match
// is ambiguous and falls through immediately unless the intent opted in to
// deterministic first-match selection.
func (r *Resolver) testCandidate(ctx context.Context, intent Intent, selector string, visibleOnly bool) (browser.Element, string) {
	deadline := time.Now().Add(r.opts.AttemptTimeout)
	outcome := OutcomeNoMatch

	for {
		els, err := r.page.Query(selector)
		if err != nil {
			return nil, OutcomeInvalid
		}

		matches := els
		if visibleOnly {
			matches = filterVisible(els)
		}

		switch {
		case len(matches) == 1:
			if interactable(matches[0]) {
				return matches[0], ""
			}
			outcome = OutcomeNotInteractable
		case len(matches) > 1:
			if intent.TakeFirst {
				if el := firstInteractable(matches); el != nil {
					return el, ""
				}
				outcome = OutcomeNotInteractable
			} else {
				return nil, OutcomeAmbiguous
			}
		}

		if !time.Now().Before(deadline) {
			return nil, outcome
		}
		select {
		case <-ctx.Done():
			return nil, outcome
		case <-time.After(r.opts.PollInterval):
		}
	}
}

// suggestCandidates asks the external suggester for alternatives under its
// own timeout. Any failure degrades to an empty list; suggestion problems
// must never abort a resolution.
func (r *Resolver) suggestCandidates(ctx context.Context, intent Intent) []string {
	if r.suggester == nil {
		return nil
	}

	suggestCtx, cancel := context.WithTimeout(ctx, r.opts.SuggestTimeout)
	defer cancel()

	html, err := r.page.Content()
	if err != nil {
		r.debugf("suggestion skipped for %q: content extraction failed: %v", intent.Name, err)
		return nil
	}
	domContext, err := browser.CondenseHTML(html, r.opts.ContextBytes)
	if err != nil {
		r.debugf("suggestion skipped for %q: %v", intent.Name, err)
		return nil
	}

	candidates, err := r.suggester.SuggestSelectors(suggestCtx, intent.Name, domContext.Elements)
	if err != nil {
		r.debugf("suggestion failed for %q: %v", intent.Name, err)
		return nil
	}
	return candidates
}

func (r *Resolver) debugf(format string, v ...interface{}) {
	if r.log != nil {
		r.log.Debugf(format, v...)
	}
}

func filterVisible(els []browser.Element) []browser.Element {
	var out []browser.Element
	for _, el := range els {
		if visible, err := el.Visible(); err == nil && visible {
			out = append(out, el)
		}
	}
	return out
}

func interactable(el browser.Element) bool {
	visible, err := el.Visible()
	if err != nil || !visible {
		return false
	}
	enabled, err := el.Enabled()
	return err == nil && enabled
}

func firstInteractable(els []browser.Element) browser.Element {
	for _, el := range els {
		if interactable(el) {
			return el
		}
	}
	return nil
}
