package locator

import (
	"fmt"
	"regexp"
	"strings"
)

// derivationStrategy generates candidate selector expressions from the
// intent alone. Derived strategies are evaluated against visible elements
// only: they are guesses about what the user can see, so hidden duplicates
// (mobile nav clones, offscreen templates) must not make them ambiguous.
type derivationStrategy struct {
	name       string
	candidates func(intent Intent) []string
}

var (
	textExprPattern    = regexp.MustCompile(`text=["']?([^"'\]]+)["']?`)
	hasTextPattern     = regexp.MustCompile(`:has-text\(["']([^"']+)["']\)`)
	roleNamePattern    = regexp.MustCompile(`role=\w+\[name=["']([^"']+)["']\]`)
	idPattern          = regexp.MustCompile(`#([\w-]+)`)
	classPattern       = regexp.MustCompile(`\.([\w-]+)`)
	ariaLabelPattern   = regexp.MustCompile(`\[aria-label=["']([^"']+)["']\]`)
)

// intentSelectors is every caller-supplied expression for an intent, used
// as raw material for derivations.
func intentSelectors(intent Intent) []string {
	out := make([]string, 0, 1+len(intent.Fallbacks))
	if intent.Primary != "" {
		out = append(out, intent.Primary)
	}
	return append(out, intent.Fallbacks...)
}

// extractText pulls human-visible label text out of the intent's selector
// expressions (text=, :has-text, role name, aria-label forms).
func extractText(intent Intent) []string {
	var texts []string
	seen := make(map[string]bool)
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t != "" && !seen[t] {
			seen[t] = true
			texts = append(texts, t)
		}
	}
	for _, sel := range intentSelectors(intent) {
		for _, re := range []*regexp.Regexp{textExprPattern, hasTextPattern, roleNamePattern, ariaLabelPattern} {
			if m := re.FindStringSubmatch(sel); m != nil {
				add(m[1])
			}
		}
	}
	return texts
}

// semanticCandidates derives accessibility-first alternatives: role with
// accessible name, aria-label, then text-bearing interactive tags. Falls
// back to id and class derivations when the intent carries no label text.
func semanticCandidates(intent Intent) []string {
	var out []string

	for _, text := range extractText(intent) {
		out = append(out,
			fmt.Sprintf("role=button[name=%q]", text),
			fmt.Sprintf("role=link[name=%q]", text),
			fmt.Sprintf("[aria-label=%q]", text),
			fmt.Sprintf("button:has-text(%q)", text),
			fmt.Sprintf("a:has-text(%q)", text),
			fmt.Sprintf("text=%s", text),
		)
	}

	for _, sel := range intentSelectors(intent) {
		if m := idPattern.FindStringSubmatch(sel); m != nil {
			out = append(out, fmt.Sprintf(`[id=%q]`, m[1]))
		}
		if m := classPattern.FindStringSubmatch(sel); m != nil {
			out = append(out, fmt.Sprintf(`[class*=%q]`, m[1]), fmt.Sprintf(`[role][class*=%q]`, m[1]))
		}
	}

	return dedupe(out, intentSelectors(intent))
}

// fuzzyTagFamily is the set of tags a partial-text guess may target.
var fuzzyTagFamily = []string{"a", "button", "label", "span"}

// fuzzyCandidates derives case-insensitive and partial text matches scoped
// to the compatible tag family.
func fuzzyCandidates(intent Intent) []string {
	var out []string
	for _, text := range extractText(intent) {
		out = append(out, fmt.Sprintf("text=/%s/i", regexp.QuoteMeta(text)))
		prefix := text
		if len(prefix) > 10 {
			prefix = prefix[:10]
		}
		for _, tag := range fuzzyTagFamily {
			out = append(out, fmt.Sprintf("%s:has-text(%q)", tag, prefix))
		}
	}
	return dedupe(out, intentSelectors(intent))
}

// positionalBaseTags are tried by the structural nth-match heuristic.
var positionalBaseTags = []string{"button", "a", "input"}

// positionalCandidates derives nth-match guesses inside structurally common
// containers. Lowest confidence in the chain; skipped entirely when the
// intent opts out.
func positionalCandidates(intent Intent) []string {
	containers := []string{"nav", "header", "main", "form"}
	var out []string
	for _, container := range containers {
		for _, tag := range positionalBaseTags {
			out = append(out,
				fmt.Sprintf("%s %s:first-child", container, tag),
				fmt.Sprintf("%s >> nth=0 >> %s", container, tag),
			)
		}
	}
	for _, tag := range positionalBaseTags {
		out = append(out, tag+":first-child", tag+":nth-child(2)")
	}
	return dedupe(out, intentSelectors(intent))
}

// dedupe removes duplicates and any expression already tried by an earlier
// strategy for this intent.
func dedupe(candidates, alreadyTried []string) []string {
	seen := make(map[string]bool, len(alreadyTried))
	for _, s := range alreadyTried {
		seen[s] = true
	}
	out := candidates[:0]
	for _, c := range candidates {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}
