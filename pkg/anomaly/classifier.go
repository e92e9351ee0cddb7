package anomaly

// Classified is an anomaly with the category and blocking decision the rule
// registry assigned to it.
type Classified struct {
	Anomaly
	Category string `json:"category"`
	Blocking bool   `json:"blocking"`
	Rule     string `json:"rule,omitempty"` // name of the matching rule, "" if none
}

// Classifier partitions collected anomalies using a rule registry.
// Classification is a pure function of (anomaly, registry): no internal
// state, identical inputs always classify identically.
type Classifier struct {
	registry *Registry
}

// NewClassifier creates a classifier over the given registry.
func NewClassifier(registry *Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify assigns each anomaly its category and blocking decision. The
// first matching rule wins; an anomaly matching no rule is uncategorized,
// and an uncategorized critical anomaly blocks (fail-closed). Blocking is
// always confined to critical severity.
func (c *Classifier) Classify(anomalies []Anomaly) []Classified {
	out := make([]Classified, 0, len(anomalies))
	for _, a := range anomalies {
		classified := Classified{Anomaly: a}
		if rule, ok := c.registry.Match(a.Message); ok {
			classified.Category = rule.Category
			classified.Rule = rule.Name
			classified.Blocking = rule.Blocking && a.Severity == SeverityCritical
		} else {
			classified.Category = CategoryUncategorized
			classified.Blocking = a.Severity == SeverityCritical
		}
		out = append(out, classified)
	}
	return out
}

// CriticalAnomalies returns the critical-severity subset, classified.
func (c *Classifier) CriticalAnomalies(anomalies []Anomaly) []Classified {
	var out []Classified
	for _, cl := range c.Classify(anomalies) {
		if cl.Severity == SeverityCritical {
			out = append(out, cl)
		}
	}
	return out
}

// TestBlockingErrors returns the anomalies whose presence fails the test:
// critical anomalies that either matched a blocking rule or matched no
// rule at all.
func (c *Classifier) TestBlockingErrors(anomalies []Anomaly) []Classified {
	var out []Classified
	for _, cl := range c.Classify(anomalies) {
		if cl.Blocking {
			out = append(out, cl)
		}
	}
	return out
}
