// Package anomaly captures runtime signals emitted by a page under test and
// separates genuine regressions from known, already-triaged site defects.
// Collection is append-only and classification-free; the classifier applies
// an ordered rule registry at test end with a fail-closed default, so a
// newly-appearing critical error is never silently accepted.
package anomaly

import "time"

// Kind identifies the runtime signal stream an anomaly came from.
type Kind string

const (
	KindConsoleError   Kind = "console-error"
	KindNetworkFailure Kind = "network-failure"
	KindPageError      Kind = "page-error"
	KindPerformance    Kind = "performance"
)

// Severity grades an anomaly. Only critical anomalies can block a test.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Anomaly is one immutable captured runtime signal. Anomalies live for the
// session and are owned exclusively by that session's collector.
type Anomaly struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Severity  Severity       `json:"severity"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	PageURL   string         `json:"page_url"`
	Details   map[string]any `json:"details,omitempty"`
}
