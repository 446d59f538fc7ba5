package extract

import "regexp"

// The classifier is a cheap pre-filter run before any enrichment call.
// Text flagged technical is routed to the guided path, where candidate
// discovery is done by the deterministic generator instead of asking
// the model to find vocabulary inside code.

// classifierRule names one shape that marks text as technical
type classifierRule struct {
	name string
	re   *regexp.Regexp
}

// technicalRules is evaluated in order; the first match decides.
var technicalRules = []classifierRule{
	{name: "sql select", re: regexp.MustCompile(`(?is)\bselect\b.+\bfrom\b`)},
	{name: "sql insert", re: regexp.MustCompile(`(?is)\binsert\b.+\binto\b`)},
	{name: "sql update", re: regexp.MustCompile(`(?is)\bupdate\b.+\bset\b`)},
	{name: "sql delete", re: regexp.MustCompile(`(?is)\bdelete\b.+\bfrom\b`)},
	{name: "indexed access", re: regexp.MustCompile(`\w+\[\d+\]`)},
	{name: "function call", re: regexp.MustCompile(`\w+\.\w+\([^)]*\)`)},
}

// IsTechnical reports whether text looks like code, structured data or
// a query rather than natural-language prose.
func IsTechnical(text string) bool {
	for _, rule := range technicalRules {
		if rule.re.MatchString(text) {
			return true
		}
	}
	return false
}

// TechnicalShape returns the name of the first matching technical rule,
// or an empty string for prose. Used for diagnostics.
func TechnicalShape(text string) string {
	for _, rule := range technicalRules {
		if rule.re.MatchString(text) {
			return rule.name
		}
	}
	return ""
}
