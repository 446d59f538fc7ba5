package extract

import "strings"

// The model can return syntactically valid JSON that is semantically
// useless: items with missing translations. Validation keeps such
// output from being surfaced as success; the orchestrator reacts to a
// rejection by advancing the fallback ladder.

// IsValid reports whether every item in the result is structurally
// complete: non-empty text and a non-empty meaning. An empty result is
// valid; the orchestrator treats it as acceptable but low-confidence.
func IsValid(result *Result) bool {
	if result == nil {
		return false
	}
	for _, w := range result.Words {
		if strings.TrimSpace(w.Word) == "" || strings.TrimSpace(w.Meaning) == "" {
			return false
		}
	}
	for _, s := range result.Sentences {
		if strings.TrimSpace(s.Sentence) == "" || strings.TrimSpace(s.Meaning) == "" {
			return false
		}
	}
	return true
}
