// Package healing persists winning selectors back into the selector
// database so future resolutions try them first.
package healing

import (
	"github.com/entrhq/vigil/pkg/locator"
	"github.com/entrhq/vigil/pkg/logging"
)

// Store is the write surface of the selector database.
type Store interface {
	RecordSuccess(intent, expr, strategy string) error
}

// Recorder consumes resolution results and records every win that did not
// come from the persisted best candidate. Persistence happens synchronously
// before the caller proceeds; a write failure is logged and swallowed, the
// resolution itself already succeeded.
type Recorder struct {
	store Store
	log   *logging.Logger
}

// NewRecorder creates a recorder backed by the given store.
func NewRecorder(store Store, log *logging.Logger) *Recorder {
	return &Recorder{store: store, log: log}
}

// Record updates the selector database from a successful resolution.
// Wins via the persisted best candidate leave the record untouched.
func (r *Recorder) Record(intentName string, res *locator.Resolution) {
	if res == nil || res.Strategy == locator.StrategyPersisted {
		return
	}

	if err := r.store.RecordSuccess(intentName, res.Selector, res.Strategy); err != nil {
		if r.log != nil {
			r.log.Warnf("failed to persist selector %q for %q: %v", res.Selector, intentName, err)
		}
		return
	}

	if r.log != nil && res.Healed {
		r.log.Infof("healed %q: learned %q via %s strategy", intentName, res.Selector, res.Strategy)
	}
}
