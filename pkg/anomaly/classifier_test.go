package anomaly

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyKnownDefectDoesNotBlock(t *testing.T) {
	classifier := NewClassifier(DefaultRegistry())

	anomalies := []Anomaly{{
		Kind:     KindConsoleError,
		Severity: SeverityCritical,
		Message:  "Console error: Uncaught (in promise) DOMException: The play() request was interrupted by a call to pause().",
	}}

	classified := classifier.Classify(anomalies)
	require.Len(t, classified, 1)
	assert.Equal(t, "known-site-defect", classified[0].Category)
	assert.Equal(t, "video-autoplay", classified[0].Rule)
	assert.False(t, classified[0].Blocking)

	// Still surfaced in the critical view, just not blocking.
	assert.Len(t, classifier.CriticalAnomalies(anomalies), 1)
	assert.Empty(t, classifier.TestBlockingErrors(anomalies))
}

// A warning-severity 503 from a tracking pixel matches its third-party rule
// and stays out of both the critical and blocking views.
func TestClassifyThirdPartyWarning(t *testing.T) {
	classifier := NewClassifier(DefaultRegistry())

	anomalies := []Anomaly{{
		Kind:     KindNetworkFailure,
		Severity: SeverityWarning,
		Message:  "HTTP 503 https://d.agkn.com/pixel",
	}}

	classified := classifier.Classify(anomalies)
	require.Len(t, classified, 1)
	assert.Equal(t, "third-party", classified[0].Category)
	assert.False(t, classified[0].Blocking)

	assert.Empty(t, classifier.CriticalAnomalies(anomalies))
	assert.Empty(t, classifier.TestBlockingErrors(anomalies))
}

// An unmatched critical anomaly blocks: silence in the registry means the
// error is new and must be looked at.
func TestClassifyUnmatchedCriticalFailsClosed(t *testing.T) {
	classifier := NewClassifier(DefaultRegistry())

	anomalies := []Anomaly{{
		Kind:     KindPageError,
		Severity: SeverityCritical,
		Message:  "Page error: TypeError: Cannot read properties of undefined (reading 'data')",
	}}

	classified := classifier.Classify(anomalies)
	require.Len(t, classified, 1)
	assert.Equal(t, CategoryUncategorized, classified[0].Category)
	assert.Empty(t, classified[0].Rule)
	assert.True(t, classified[0].Blocking)

	blocking := classifier.TestBlockingErrors(anomalies)
	require.Len(t, blocking, 1)
	assert.Equal(t, CategoryUncategorized, blocking[0].Category)
}

func TestClassifyUnmatchedNonCriticalNeverBlocks(t *testing.T) {
	classifier := NewClassifier(DefaultRegistry())

	anomalies := []Anomaly{
		{Kind: KindNetworkFailure, Severity: SeverityWarning, Message: "Request failed: https://x.test (net::ERR_TIMED_OUT)"},
		{Kind: KindPerformance, Severity: SeverityInfo, Message: "page-load exceeded budget: 6000ms > 5000ms"},
	}

	for _, cl := range classifier.Classify(anomalies) {
		assert.Equal(t, CategoryUncategorized, cl.Category)
		assert.False(t, cl.Blocking)
	}
}

func TestClassifyBlockingRuleConfinedToCritical(t *testing.T) {
	registry, err := NewRegistry([]Rule{
		{Name: "payment-down", Pattern: "payments.example.com", Category: "upstream", Blocking: true},
	})
	require.NoError(t, err)
	classifier := NewClassifier(registry)

	critical := []Anomaly{{Severity: SeverityCritical, Message: "POST https://payments.example.com failed"}}
	warning := []Anomaly{{Severity: SeverityWarning, Message: "POST https://payments.example.com failed"}}

	assert.True(t, classifier.Classify(critical)[0].Blocking)
	assert.False(t, classifier.Classify(warning)[0].Blocking)
}

func TestClassifyIsDeterministic(t *testing.T) {
	classifier := NewClassifier(DefaultRegistry())

	anomalies := []Anomaly{
		{Severity: SeverityCritical, Message: "Page error: something brand new"},
		{Severity: SeverityWarning, Message: "HTTP 503 https://d.agkn.com/pixel"},
	}

	first := classifier.Classify(anomalies)
	second := classifier.Classify(anomalies)
	assert.Equal(t, first, second)
}

func TestBuildReportTallies(t *testing.T) {
	classifier := NewClassifier(DefaultRegistry())
	classified := classifier.Classify([]Anomaly{
		{Kind: KindConsoleError, Severity: SeverityCritical, Message: "Console error: dealers service returned code 12166"},
		{Kind: KindPageError, Severity: SeverityCritical, Message: "Page error: TypeError: Cannot read properties of null"},
		{Kind: KindNetworkFailure, Severity: SeverityWarning, Message: "HTTP 503 https://d.agkn.com/pixel"},
	})

	report := BuildReport(classified, "https://www.example.test/vehicles")

	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 2, report.BySeverity[SeverityCritical])
	assert.Equal(t, 1, report.ByKind[KindNetworkFailure])
	assert.Equal(t, 1, report.ByCategory[CategoryUncategorized])
	assert.Equal(t, 1, report.ByCategory["known-site-defect"])
	require.Len(t, report.Blocking, 1)
	assert.Equal(t, KindPageError, report.Blocking[0].Kind)
}

func TestReportWriteJSON(t *testing.T) {
	report := BuildReport(nil, "https://www.example.test/")
	path := filepath.Join(t.TempDir(), "reports", "run.json")

	require.NoError(t, report.WriteJSON(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "https://www.example.test/", decoded.PageURL)
}
