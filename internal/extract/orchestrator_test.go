package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExtract_DirectTierAccepted(t *testing.T) {
	llm := new(MockCompleter)
	llm.On("Complete", mock.Anything, mock.Anything).
		Return(`{"words": [{"word": "fox", "meaning": "狐狸"}], "sentences": []}`, nil).
		Once()

	orch := NewOrchestrator(NewEnricher(llm))
	result := orch.Extract(context.Background(), "The quick brown fox jumps over the lazy dog.", ModeBoth)

	require.NotNil(t, result)
	assert.Equal(t, TierDirect, result.Tier)
	assert.Equal(t, "fox", result.Words[0].Word)
	llm.AssertNumberOfCalls(t, "Complete", 1)
}

func TestExtract_FallbackGuaranteeWhenModelDown(t *testing.T) {
	llm := new(MockCompleter)
	llm.On("Complete", mock.Anything, mock.Anything).
		Return("", errors.New("upstream unavailable"))

	orch := NewOrchestrator(NewEnricher(llm))
	result := orch.Extract(context.Background(), "The quick brown fox jumps over the lazy dog.", ModeBoth)

	require.NotNil(t, result)
	assert.Equal(t, TierHeuristic, result.Tier)

	var words []string
	for _, w := range result.Words {
		words = append(words, w.Word)
		assert.Equal(t, HeuristicMeaning, w.Meaning)
	}
	assert.Contains(t, words, "quick")
	assert.Contains(t, words, "brown")
	assert.Contains(t, words, "fox")

	require.Len(t, result.Sentences, 1)
	assert.Equal(t, "The quick brown fox jumps over the lazy dog", result.Sentences[0].Sentence)

	// direct tier, then guided tier
	llm.AssertNumberOfCalls(t, "Complete", 2)
}

func TestExtract_TechnicalContentRoutedToGuidedPath(t *testing.T) {
	llm := new(MockCompleter)
	var prompts []string
	llm.On("Complete", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { prompts = append(prompts, args.String(1)) }).
		Return("", errors.New("upstream unavailable"))

	orch := NewOrchestrator(NewEnricher(llm))
	result := orch.Extract(context.Background(), "history[1].action = 'update'", ModeBoth)

	require.NotNil(t, result)
	// the direct tier is skipped entirely for technical content
	llm.AssertNumberOfCalls(t, "Complete", 1)
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "候選單詞")

	for _, w := range result.Words {
		assert.NotEqual(t, "history[1].action", w.Word)
	}
	for _, s := range result.Sentences {
		assert.NotEqual(t, "history[1].action", s.Sentence)
	}
}

func TestExtract_InvalidDirectResultRetriesGuided(t *testing.T) {
	llm := new(MockCompleter)
	// direct reply parses but carries an empty meaning
	llm.On("Complete", mock.Anything, mock.Anything).
		Return(`{"words": [{"word": "fox", "meaning": ""}], "sentences": []}`, nil).
		Once()
	llm.On("Complete", mock.Anything, mock.Anything).
		Return(`{"words": [{"word": "fox", "meaning": "狐狸"}], "sentences": []}`, nil).
		Once()

	orch := NewOrchestrator(NewEnricher(llm))
	result := orch.Extract(context.Background(), "The quick brown fox jumps over the lazy dog.", ModeBoth)

	require.NotNil(t, result)
	assert.Equal(t, TierGuided, result.Tier)
	assert.Equal(t, "狐狸", result.Words[0].Meaning)
	llm.AssertNumberOfCalls(t, "Complete", 2)
}

func TestExtract_EmptyValidResultAccepted(t *testing.T) {
	llm := new(MockCompleter)
	llm.On("Complete", mock.Anything, mock.Anything).
		Return(`{"words": [], "sentences": []}`, nil).
		Once()

	orch := NewOrchestrator(NewEnricher(llm))
	result := orch.Extract(context.Background(), "Short prose without much to extract here.", ModeBoth)

	require.NotNil(t, result)
	assert.Equal(t, TierDirect, result.Tier)
	assert.True(t, result.IsEmpty())
}

func TestExtract_ModeLimitsHeuristicKinds(t *testing.T) {
	llm := new(MockCompleter)
	llm.On("Complete", mock.Anything, mock.Anything).
		Return("", errors.New("upstream unavailable"))

	orch := NewOrchestrator(NewEnricher(llm))
	result := orch.Extract(context.Background(), "The quick brown fox jumps over the lazy dog.", ModeWords)

	require.NotNil(t, result)
	assert.NotEmpty(t, result.Words)
	assert.Empty(t, result.Sentences)
}

func TestExtract_NeverExceedsItemBounds(t *testing.T) {
	llm := new(MockCompleter)
	oversized := "["
	for i := 0; i < 40; i++ {
		if i > 0 {
			oversized += ","
		}
		oversized += `{"word": "fox", "meaning": "狐狸"}`
	}
	oversized += "]"
	llm.On("Complete", mock.Anything, mock.Anything).Return(oversized, nil)

	orch := NewOrchestrator(NewEnricher(llm))
	result := orch.Extract(context.Background(), "Plain prose input for the word mode.", ModeWords)

	require.NotNil(t, result)
	assert.LessOrEqual(t, len(result.Words), MaxItems)
	assert.LessOrEqual(t, len(result.Sentences), MaxItems)
}
