// Package suggest provides the AI-suggestion capability used as the last
// link of the selector resolution chain. Implementations are best-effort
// black boxes: given an intent name and a condensed DOM context they return
// ranked candidate selector expressions, possibly none.
package suggest

import "context"

// Suggester produces ordered candidate selector expressions for an intent.
// An empty slice is a valid answer; callers must treat any error as "no
// candidates" rather than failing their own operation.
type Suggester interface {
	SuggestSelectors(ctx context.Context, intentName, domContext string) ([]string, error)
}

// Static is a deterministic Suggester for tests: it returns a fixed
// candidate list (or error) regardless of input.
type Static struct {
	Candidates []string
	Err        error
}

var _ Suggester = (*Static)(nil)

// SuggestSelectors returns the configured candidates.
func (s *Static) SuggestSelectors(ctx context.Context, intentName, domContext string) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Candidates, nil
}
