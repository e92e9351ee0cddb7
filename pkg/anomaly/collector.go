package anomaly

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/vigil/pkg/browser"
	"github.com/entrhq/vigil/pkg/logging"
)

// Budgets holds the performance thresholds whose breach is recorded as a
// performance anomaly. All values are milliseconds.
type Budgets struct {
	FirstContentfulPaint   float64
	LargestContentfulPaint float64
	PageLoad               float64
	TimeToFirstByte        float64
}

// DefaultBudgets returns the budgets tuned for the target site.
func DefaultBudgets() Budgets {
	return Budgets{
		FirstContentfulPaint:   1800,
		LargestContentfulPaint: 2500,
		PageLoad:               5000,
		TimeToFirstByte:        800,
	}
}

// Collector subscribes to a page's runtime signal streams for the lifetime
// of a test session and buffers every signal as a typed anomaly. Severity
// follows a fixed mapping; no classification happens at collection time.
type Collector struct {
	mu        sync.Mutex
	page      browser.Page
	budgets   Budgets
	log       *logging.Logger
	anomalies []Anomaly
}

// NewCollector attaches a collector to the page's console, page-error and
// network streams.
func NewCollector(page browser.Page, budgets Budgets, log *logging.Logger) *Collector {
	c := &Collector{
		page:    page,
		budgets: budgets,
		log:     log,
	}
	c.attach()
	return c
}

func (c *Collector) attach() {
	c.page.OnConsole(func(msg browser.ConsoleMessage) {
		switch msg.Level {
		case "error":
			c.record(KindConsoleError, SeverityCritical, "Console error: "+msg.Text, nil)
		case "warning":
			c.record(KindConsoleError, SeverityWarning, "Console warning: "+msg.Text, nil)
		}
	})

	c.page.OnPageError(func(message string) {
		c.record(KindPageError, SeverityCritical, "Page error: "+message, nil)
	})

	c.page.OnResponse(func(resp browser.Response) {
		if resp.Status < 400 {
			return
		}
		severity := SeverityInfo
		if resp.Status >= 500 {
			severity = SeverityWarning
		}
		c.record(KindNetworkFailure, severity,
			fmt.Sprintf("HTTP %d %s", resp.Status, resp.URL),
			map[string]any{"status": resp.Status, "status_text": resp.StatusText})
	})

	c.page.OnRequestFailed(func(url, failure string) {
		c.record(KindNetworkFailure, SeverityWarning,
			fmt.Sprintf("Request failed: %s (%s)", url, failure), nil)
	})
}

// record appends one anomaly. Event handlers run on engine goroutines, so
// the buffer is mutex-guarded even though a session is otherwise sequential.
func (c *Collector) record(kind Kind, severity Severity, message string, details map[string]any) {
	a := Anomaly{
		ID:        uuid.New().String(),
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now(),
		PageURL:   c.page.URL(),
		Details:   details,
	}

	c.mu.Lock()
	c.anomalies = append(c.anomalies, a)
	c.mu.Unlock()

	if c.log != nil && severity == SeverityCritical {
		c.log.Errorf("critical anomaly (%s): %s", kind, message)
	}
}

// performanceProbe reads navigation and paint timing from the page.
const performanceProbe = `() => {
	const nav = performance.getEntriesByType('navigation')[0];
	const paint = performance.getEntriesByType('paint');
	const lcp = performance.getEntriesByType('largest-contentful-paint');
	if (!nav) return null;
	return {
		firstContentfulPaint: paint.find(e => e.name === 'first-contentful-paint')?.startTime || 0,
		largestContentfulPaint: lcp.length ? lcp[lcp.length - 1].startTime : 0,
		loadComplete: nav.loadEventEnd - nav.startTime,
		timeToFirstByte: nav.responseStart - nav.startTime,
	};
}`

// CollectPerformance samples the page's timing metrics and records a
// performance anomaly for every breached budget. Breaches at or beyond
// twice the budget are warnings, the rest are info. Returns the sampled
// metrics.
func (c *Collector) CollectPerformance() (map[string]float64, error) {
	raw, err := c.page.Evaluate(performanceProbe)
	if err != nil {
		return nil, fmt.Errorf("failed to collect performance metrics: %w", err)
	}
	values, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected performance probe result type %T", raw)
	}

	metrics := make(map[string]float64, len(values))
	for name, v := range values {
		if f, ok := toFloat(v); ok {
			metrics[name] = f
		}
	}

	c.checkBudget("first-contentful-paint", metrics["firstContentfulPaint"], c.budgets.FirstContentfulPaint)
	c.checkBudget("largest-contentful-paint", metrics["largestContentfulPaint"], c.budgets.LargestContentfulPaint)
	c.checkBudget("page-load", metrics["loadComplete"], c.budgets.PageLoad)
	c.checkBudget("time-to-first-byte", metrics["timeToFirstByte"], c.budgets.TimeToFirstByte)

	return metrics, nil
}

func (c *Collector) checkBudget(metric string, value, budget float64) {
	if budget <= 0 || value <= budget {
		return
	}
	severity := SeverityInfo
	if value >= 2*budget {
		severity = SeverityWarning
	}
	c.record(KindPerformance, severity,
		fmt.Sprintf("%s exceeded budget: %.0fms > %.0fms", metric, value, budget),
		map[string]any{"metric": metric, "value": value, "budget": budget})
}

// Anomalies returns a copy of the full ordered anomaly list.
func (c *Collector) Anomalies() []Anomaly {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Anomaly, len(c.anomalies))
	copy(out, c.anomalies)
	return out
}

// Len returns the number of buffered anomalies.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.anomalies)
}

// Drain returns the buffered anomalies and resets the buffer, isolating
// logical phases of a test from one another.
func (c *Collector) Drain() []Anomaly {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.anomalies
	c.anomalies = nil
	return out
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
