// Package locator resolves logical element identities to live DOM handles
// through an ordered chain of fallback strategies, recording which selector
// expressions actually worked so future runs try those first.
package locator

import "github.com/entrhq/vigil/pkg/browser"

// Strategy tags identify which link in the resolution chain produced a
// winning selector. They are persisted alongside learned candidates.
const (
	StrategyPersisted  = "persisted"
	StrategyPrimary    = "primary"
	StrategyFallback   = "fallback"
	StrategySemantic   = "semantic"
	StrategyFuzzy      = "fuzzy"
	StrategyPositional = "positional"
	StrategyAI         = "ai"
)

// Intent is the logical identity of a target element, decoupled from any
// one selector expression. Intents are ephemeral and constructed per call;
// Name keys the selector database.
type Intent struct {
	Name      string
	Primary   string
	Fallbacks []string

	// SkipPositional disables the nth-match structural heuristic for
	// safety-critical elements where a low-confidence guess must never
	// be interacted with.
	SkipPositional bool

	// TakeFirst opts in to deterministic first-match selection when a
	// selector is ambiguous, instead of falling through to the next
	// strategy.
	TakeFirst bool
}

// Resolution is the outcome of one successful locate call. The element
// handle is owned by the calling step for the scope of that step.
type Resolution struct {
	Element  browser.Element
	Selector string
	Strategy string
	Attempts int
	Healed   bool
}
