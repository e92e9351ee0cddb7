package locator

import (
	"fmt"
	"strings"
)

// Attempt records one candidate selector test for the failure trail.
type Attempt struct {
	Strategy string
	Selector string
	Outcome  string // "no-match", "ambiguous", "not-interactable", "invalid"
}

// Attempt outcomes.
const (
	OutcomeNoMatch         = "no-match"
	OutcomeAmbiguous       = "ambiguous"
	OutcomeNotInteractable = "not-interactable"
	OutcomeInvalid         = "invalid"
)

// NotFoundError reports that every strategy in the chain was exhausted for
// an intent. It carries the full attempted-selector trail so failures can
// be triaged without re-executing the test.
type NotFoundError struct {
	Intent   string
	Attempts []Attempt
}

func (e *NotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "element not found for intent %q after %d attempts:", e.Intent, len(e.Attempts))
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  [%s] %s -> %s", a.Strategy, a.Selector, a.Outcome)
	}
	return b.String()
}

// AmbiguousError reports that a selector matched more than one element.
// It is strategy-local: the resolver treats it as a signal to fall through
// to the next strategy, not as a fatal failure.
type AmbiguousError struct {
	Selector string
	Matches  int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("selector %q matched %d elements", e.Selector, e.Matches)
}
