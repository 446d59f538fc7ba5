package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateWords_KeepsProseVocabulary(t *testing.T) {
	words := GenerateWords("The quick brown fox jumps over the lazy dog.")

	assert.Contains(t, words, "quick")
	assert.Contains(t, words, "brown")
	assert.Contains(t, words, "fox")
}

func TestGenerateWords_DeduplicatesFirstSeen(t *testing.T) {
	words := GenerateWords("apple banana apple cherry banana")

	assert.Equal(t, []string{"apple", "banana", "cherry"}, words)
}

func TestGenerateWords_Exclusions(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"indexed access", "history[1].action"},
		{"method call", "session.save()"},
		{"dotted identifier", "config.timeout"},
		{"url", "https://example.com/docs"},
		{"custom scheme url", "ftp://files.example.com"},
		{"date", "2024-01-02"},
		{"decimal", "3.14"},
		{"digit prefix", "2nd"},
		{"digit suffix", "utf8"},
		{"no vowel", "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			words := GenerateWords(tt.token)
			for _, w := range words {
				assert.NotEqual(t, tt.token, w)
			}
			if tt.name == "no vowel" || tt.name == "digit suffix" {
				assert.Empty(t, words)
			}
		})
	}
}

func TestGenerateWords_CapsAtTwenty(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "wordalpha%c ", 'a'+i%26)
	}
	// distinct vocabulary beyond the cap
	text := b.String() + " apple banana cherry mango papaya orange grape lemon melon peach " +
		"plum kiwi guava lychee fig date pear lime berry olive cocoa bean corn leek okra yam"

	words := GenerateWords(text)
	assert.LessOrEqual(t, len(words), MaxItems)
	assert.Len(t, words, MaxItems)
}

func TestGenerateWords_RespectsLengthBounds(t *testing.T) {
	words := GenerateWords("a I extraordinarily-long-token pneumonoultramicroscopic ok hi")

	for _, w := range words {
		assert.GreaterOrEqual(t, len(w), 2)
		assert.LessOrEqual(t, len(w), 15)
	}
}

func TestGenerateSentences_FiltersShortFragments(t *testing.T) {
	text := "Hello there. The quick brown fox jumps over the lazy dog. Too short."

	sentences := GenerateSentences(text)

	assert.Equal(t, []string{"The quick brown fox jumps over the lazy dog"}, sentences)
}

func TestGenerateSentences_SplitsOnTerminatorsAndNewlines(t *testing.T) {
	text := "The first line carries enough words here!\nThe second line also carries enough words here?"

	sentences := GenerateSentences(text)

	assert.Len(t, sentences, 2)
}

func TestGenerateSentences_RejectsIdentifierFragments(t *testing.T) {
	sentences := GenerateSentences("internal.pkg.module[12].handler.value")

	assert.Empty(t, sentences)
}

func TestGenerateSentences_CapsAtTwenty(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 25; i++ {
		fmt.Fprintf(&b, "This is numbered prose sentence number %c in the sample. ", 'a'+i)
	}

	sentences := GenerateSentences(b.String())
	assert.Len(t, sentences, MaxItems)
}

func TestGenerate_Deterministic(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs."

	w1, s1 := Generate(text)
	w2, s2 := Generate(text)

	assert.Equal(t, w1, w2)
	assert.Equal(t, s1, s2)
}
