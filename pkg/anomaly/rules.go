package anomaly

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gobwas/glob"
	"gopkg.in/yaml.v3"
)

// Match modes for classification rules.
const (
	MatchSubstring = "substring"
	MatchRegex     = "regex"
	MatchGlob      = "glob"
)

// CategoryUncategorized is assigned to anomalies no rule matched. An
// uncategorized critical anomaly always blocks the test.
const CategoryUncategorized = "uncategorized"

// Rule maps a message pattern to a triage category and a blocking flag.
// Rules are maintained by hand, never added at runtime: accepting a new
// site defect is an explicit, reviewable edit to the rule list.
type Rule struct {
	Name     string `yaml:"name"`
	Pattern  string `yaml:"pattern"`
	Mode     string `yaml:"mode,omitempty"` // substring (default), regex or glob
	Category string `yaml:"category"`
	Blocking bool   `yaml:"blocking"`
}

type compiledRule struct {
	rule  Rule
	regex *regexp.Regexp
	glob  glob.Glob
}

// Registry is the ordered, single source of truth for known-issue
// patterns. Matching is case-insensitive and first-match-wins.
type Registry struct {
	rules []compiledRule
}

// NewRegistry compiles an ordered rule list. Rules with empty patterns or
// uncompilable regex/glob expressions are rejected.
func NewRegistry(rules []Rule) (*Registry, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if r.Pattern == "" {
			return nil, fmt.Errorf("rule %d (%s): empty pattern", i, r.Name)
		}
		if r.Category == "" {
			return nil, fmt.Errorf("rule %d (%s): empty category", i, r.Name)
		}
		cr := compiledRule{rule: r}
		switch r.Mode {
		case "", MatchSubstring:
			cr.rule.Mode = MatchSubstring
		case MatchRegex:
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): invalid regex: %w", i, r.Name, err)
			}
			cr.regex = re
		case MatchGlob:
			g, err := glob.Compile(strings.ToLower(r.Pattern))
			if err != nil {
				return nil, fmt.Errorf("rule %d (%s): invalid glob: %w", i, r.Name, err)
			}
			cr.glob = g
		default:
			return nil, fmt.Errorf("rule %d (%s): unknown mode %q", i, r.Name, r.Mode)
		}
		compiled = append(compiled, cr)
	}
	return &Registry{rules: compiled}, nil
}

// LoadRegistry reads an ordered rule list from a YAML file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule registry: %w", err)
	}
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse rule registry: %w", err)
	}
	return NewRegistry(doc.Rules)
}

// DefaultRegistry returns the triaged known-defect list for the target
// site. Each entry corresponds to an open site ticket; none of them blocks
// a test.
func DefaultRegistry() *Registry {
	r, err := NewRegistry([]Rule{
		{Name: "video-autoplay", Pattern: `play\(\).*pause\(\)`, Mode: MatchRegex, Category: "known-site-defect"},
		{Name: "dealer-lookup-12166", Pattern: "12166", Category: "known-site-defect"},
		{Name: "dealer-lookup-12161", Pattern: "12161", Category: "known-site-defect"},
		{Name: "dealer-lookup-dgid", Pattern: "dgid", Category: "known-site-defect"},
		{Name: "third-party-503", Pattern: "http 503", Category: "third-party"},
		{Name: "asset-403", Pattern: "http 403", Category: "third-party"},
		{Name: "waf-captcha", Pattern: "awswaf-captcha", Category: "known-site-defect"},
		{Name: "waf-custom-element", Pattern: "customelementregistry", Category: "known-site-defect"},
		{Name: "mutation-observer", Pattern: "mutationobserver", Category: "known-site-defect"},
	})
	if err != nil {
		// Static rule list; a compile failure is a programming error.
		panic(err)
	}
	return r
}

// Match scans the registry in order and returns the first rule whose
// pattern matches the message, or false if none does.
func (r *Registry) Match(message string) (Rule, bool) {
	lower := strings.ToLower(message)
	for _, cr := range r.rules {
		switch cr.rule.Mode {
		case MatchSubstring:
			if strings.Contains(lower, strings.ToLower(cr.rule.Pattern)) {
				return cr.rule, true
			}
		case MatchRegex:
			if cr.regex.MatchString(message) {
				return cr.rule, true
			}
		case MatchGlob:
			if cr.glob.Match(lower) {
				return cr.rule, true
			}
		}
	}
	return Rule{}, false
}

// Rules returns the registry's rules in evaluation order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	for i, cr := range r.rules {
		out[i] = cr.rule
	}
	return out
}

// Len returns the number of rules.
func (r *Registry) Len() int { return len(r.rules) }
