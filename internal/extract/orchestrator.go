package extract

import (
	"context"
	"lexivox/pkg/logger"

	"go.uber.org/zap"
)

// HeuristicMeaning marks items produced without any enrichment call.
// Clients render it as "translation unavailable".
const HeuristicMeaning = "（暫無翻譯）"

// Orchestrator is the top-level extraction policy: classify the input,
// pick a strategy, validate the outcome, and fall back through
// progressively simpler strategies. The ladder is direct-model →
// candidate-guided-model → heuristic-only; each tier is attempted only
// after the previous one failed or was rejected. Extraction therefore
// never fails: the terminal tier is built from the deterministic
// candidate generator alone.
type Orchestrator struct {
	enricher *Enricher
}

func NewOrchestrator(enricher *Enricher) *Orchestrator {
	return &Orchestrator{enricher: enricher}
}

// Extract always returns a best-effort result for text.
func (o *Orchestrator) Extract(ctx context.Context, text string, mode Mode) *Result {
	technical := IsTechnical(text)

	if !technical {
		result, err := o.enricher.EnrichText(ctx, text, mode)
		switch {
		case err != nil:
			logger.Warn("Direct enrichment failed, falling back to guided",
				zap.String("mode", string(mode)),
				zap.Error(err))
		case !IsValid(result):
			logger.Warn("Direct enrichment rejected by validation, falling back to guided",
				zap.String("mode", string(mode)))
		default:
			result.Tier = TierDirect
			o.logAccepted(result)
			return result
		}
	} else {
		logger.Debug("Technical content detected, routing to guided path",
			zap.String("shape", TechnicalShape(text)))
	}

	words, sentences := Generate(text)

	result, err := o.enricher.EnrichCandidates(ctx, words, sentences, mode)
	switch {
	case err != nil:
		logger.Warn("Guided enrichment failed, degrading to heuristic result",
			zap.String("mode", string(mode)),
			zap.Error(err))
	case !IsValid(result):
		logger.Warn("Guided enrichment rejected by validation, degrading to heuristic result",
			zap.String("mode", string(mode)))
	default:
		result.Tier = TierGuided
		o.logAccepted(result)
		return result
	}

	return heuristicResult(words, sentences, mode)
}

// heuristicResult builds items directly from candidate generator
// output with a placeholder meaning marker. No external call.
func heuristicResult(words, sentences []string, mode Mode) *Result {
	result := &Result{Mode: mode, Tier: TierHeuristic}

	if mode.WantsWords() {
		for _, w := range words {
			result.Words = append(result.Words, EnrichedWord{
				Word:    w,
				Meaning: HeuristicMeaning,
			})
		}
	}
	if mode.WantsSentences() {
		for _, s := range sentences {
			result.Sentences = append(result.Sentences, EnrichedSentence{
				Sentence: s,
				Meaning:  HeuristicMeaning,
			})
		}
	}

	result.clamp()
	return result
}

func (o *Orchestrator) logAccepted(result *Result) {
	if result.IsEmpty() {
		logger.Warn("Accepted empty extraction result (low confidence)",
			zap.String("tier", string(result.Tier)),
			zap.String("mode", string(result.Mode)))
		return
	}
	logger.Debug("Extraction result accepted",
		zap.String("tier", string(result.Tier)),
		zap.Int("words", len(result.Words)),
		zap.Int("sentences", len(result.Sentences)))
}
