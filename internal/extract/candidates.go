package extract

import (
	"regexp"
	"strings"
)

// Candidate generation is the deterministic bottom rung of the
// extraction ladder: a lexical scan that turns noisy OCR text into
// word and sentence candidates without any network call. It is total
// over any input string.

var (
	wordPattern  = regexp.MustCompile(`\b[A-Za-z]{2,15}\b`)
	vowelPattern = regexp.MustCompile(`[aeiouAEIOU]`)

	sentenceSplitPattern = regexp.MustCompile(`[.!?\n]+`)

	// a fragment made only of word characters, dots, brackets and
	// digits is an identifier or path, not prose
	identifierFragmentPattern = regexp.MustCompile(`^[\w.\[\]]+$`)
)

// exclusionRule names one token shape that disqualifies a raw token
// from producing word candidates.
type exclusionRule struct {
	name string
	re   *regexp.Regexp
}

// tokenExclusions is evaluated in order against each whitespace token.
// Each rule targets a specific non-vocabulary shape seen in scanned
// UI fragments and code snippets.
var tokenExclusions = []exclusionRule{
	{name: "indexed access", re: regexp.MustCompile(`^\w+\[\d+\]`)},       // history[1]
	{name: "method call", re: regexp.MustCompile(`^\w+\.\w+\(`)},          // obj.save()
	{name: "dotted identifier", re: regexp.MustCompile(`^\w+\.\w+`)},      // config.value, e.g.
	{name: "url", re: regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)},    // https://, ftp://
	{name: "numeric or date", re: regexp.MustCompile(`^[\d./:\-]+$`)},     // 2024-01-02, 3.14
	{name: "digit prefix", re: regexp.MustCompile(`^\d+[A-Za-z]`)},        // 2nd, 0xFF
	{name: "digit suffix", re: regexp.MustCompile(`^[A-Za-z][\w-]*\d+$`)}, // utf8, sha256
}

const (
	minSentenceWords = 5
	minSentenceChars = 10
)

// Generate scans text and returns word and sentence candidates, each
// deduplicated in first-seen order and capped at MaxItems. Pure and
// deterministic: no I/O, no side effects.
func Generate(text string) (words []string, sentences []string) {
	return GenerateWords(text), GenerateSentences(text)
}

// GenerateWords extracts vocabulary candidates from text
func GenerateWords(text string) []string {
	seen := make(map[string]struct{})
	var words []string

	for _, token := range strings.Fields(text) {
		if excluded(token) {
			continue
		}
		for _, word := range wordPattern.FindAllString(token, -1) {
			if !vowelPattern.MatchString(word) {
				continue
			}
			if _, ok := seen[word]; ok {
				continue
			}
			seen[word] = struct{}{}
			words = append(words, word)
			if len(words) == MaxItems {
				return words
			}
		}
	}

	return words
}

// GenerateSentences extracts prose sentence candidates from text
func GenerateSentences(text string) []string {
	var sentences []string

	for _, fragment := range sentenceSplitPattern.Split(text, -1) {
		fragment = strings.TrimSpace(fragment)
		if len(fragment) < minSentenceChars {
			continue
		}
		if len(strings.Fields(fragment)) < minSentenceWords {
			continue
		}
		if identifierFragmentPattern.MatchString(fragment) {
			continue
		}
		sentences = append(sentences, fragment)
		if len(sentences) == MaxItems {
			break
		}
	}

	return sentences
}

// excluded reports whether a raw whitespace token matches any of the
// named exclusion shapes.
func excluded(token string) bool {
	for _, rule := range tokenExclusions {
		if rule.re.MatchString(token) {
			return true
		}
	}
	return false
}
