package ingest

import "regexp"

// categoryPatterns classifies an incoming line for the category
// metadata tag, ahead of the processor's own component classifier. Checked
// in order; the first match wins. Patterns match spec.md §4.1 exactly.
var categoryPatterns = []struct {
	name string
	re   *regexp.Regexp
}{
	{"error", regexp.MustCompile(`(?i)error|exception`)},
	{"warning", regexp.MustCompile(`(?i)warn`)},
	{"lifecycle", regexp.MustCompile(`(?i)startup|shutdown`)},
}

// classifyCategory returns the first matching category name, or "general"
// if message matches none of them.
func classifyCategory(message string) string {
	for _, p := range categoryPatterns {
		if p.re.MatchString(message) {
			return p.name
		}
	}
	return "general"
}
