package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/entrhq/vigil/pkg/anomaly"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true).Underline(true)
	intentStyle      = lipgloss.NewStyle().Bold(true)
	strategyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	criticalStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	warningStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	infoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	blockingStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	nonBlockingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	okStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

func severityStyle(s anomaly.Severity) lipgloss.Style {
	switch s {
	case anomaly.SeverityCritical:
		return criticalStyle
	case anomaly.SeverityWarning:
		return warningStyle
	default:
		return infoStyle
	}
}

// printRunReport renders the session outcome: totals, every critical
// anomaly with its triage category, and the blocking set that fails the
// run.
func printRunReport(all []anomaly.Anomaly, critical, blocking []anomaly.Classified) {
	fmt.Println(titleStyle.Render("Anomaly summary"))
	fmt.Printf("collected: %d  critical: %d  test-blocking: %d\n\n", len(all), len(critical), len(blocking))

	if len(critical) > 0 {
		fmt.Println(intentStyle.Render("Critical anomalies"))
		for _, cl := range critical {
			marker := nonBlockingStyle.Render("known")
			if cl.Blocking {
				marker = blockingStyle.Render("BLOCK")
			}
			fmt.Printf("  %s [%s] %s\n", marker, cl.Category, cl.Message)
		}
		fmt.Println()
	}

	for _, a := range all {
		if a.Severity == anomaly.SeverityCritical {
			continue
		}
		fmt.Printf("  %s %s\n", severityStyle(a.Severity).Render(string(a.Severity)), a.Message)
	}

	if len(blocking) == 0 {
		fmt.Println(okStyle.Render("\nNo test-blocking errors."))
	} else {
		fmt.Println(blockingStyle.Render(fmt.Sprintf("\n%d test-blocking error(s).", len(blocking))))
	}
}
