package anomaly

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Report summarizes one session's classified anomalies for offline triage.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at"`
	PageURL     string           `json:"page_url"`
	Total       int              `json:"total"`
	ByKind      map[Kind]int     `json:"by_kind"`
	BySeverity  map[Severity]int `json:"by_severity"`
	ByCategory  map[string]int   `json:"by_category"`
	Blocking    []Classified     `json:"blocking"`
	Anomalies   []Classified     `json:"anomalies"`
}

// BuildReport tallies classified anomalies into a report.
func BuildReport(classified []Classified, pageURL string) *Report {
	r := &Report{
		GeneratedAt: time.Now(),
		PageURL:     pageURL,
		Total:       len(classified),
		ByKind:      make(map[Kind]int),
		BySeverity:  make(map[Severity]int),
		ByCategory:  make(map[string]int),
		Anomalies:   classified,
	}
	for _, cl := range classified {
		r.ByKind[cl.Kind]++
		r.BySeverity[cl.Severity]++
		r.ByCategory[cl.Category]++
		if cl.Blocking {
			r.Blocking = append(r.Blocking, cl)
		}
	}
	return r
}

// WriteJSON writes the report to path, creating parent directories.
func (r *Report) WriteJSON(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
