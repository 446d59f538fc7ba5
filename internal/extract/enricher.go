package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Completer produces a free-form completion for a prompt. Implemented
// by the DeepSeek client; faked in tests.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// EnrichmentError wraps a model transport failure or an unparsable
// reply. The orchestrator consumes it to advance the fallback ladder;
// it is never surfaced as a request failure.
type EnrichmentError struct {
	Stage string
	Err   error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("enrichment %s failed: %v", e.Stage, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// Enricher turns raw text or pre-filtered candidates into annotated
// study items via the language-model collaborator.
type Enricher struct {
	llm Completer
}

func NewEnricher(llm Completer) *Enricher {
	return &Enricher{llm: llm}
}

// EnrichText runs direct-mode enrichment: the model both discovers and
// annotates items from raw text.
func (e *Enricher) EnrichText(ctx context.Context, text string, mode Mode) (*Result, error) {
	return e.enrich(ctx, directPrompt(text, mode), mode)
}

// EnrichCandidates runs guided-mode enrichment: the model only selects
// and annotates items from the generator's candidate lists.
func (e *Enricher) EnrichCandidates(ctx context.Context, words, sentences []string, mode Mode) (*Result, error) {
	return e.enrich(ctx, guidedPrompt(words, sentences, mode), mode)
}

func (e *Enricher) enrich(ctx context.Context, prompt string, mode Mode) (*Result, error) {
	reply, err := e.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, &EnrichmentError{Stage: "completion", Err: err}
	}

	result, err := parseReply(reply, mode)
	if err != nil {
		return nil, &EnrichmentError{Stage: "parse", Err: err}
	}

	return result, nil
}

// parseReply decodes the model's reply into the shape dictated by the
// mode: an array of words, an array of sentences, or an object holding
// both. The reply may arrive wrapped in code-fence markers.
func parseReply(reply string, mode Mode) (*Result, error) {
	payload := stripFences(reply)
	result := &Result{Mode: mode}

	switch mode {
	case ModeWords:
		if err := json.Unmarshal([]byte(payload), &result.Words); err != nil {
			return nil, fmt.Errorf("failed to decode word list: %w", err)
		}
	case ModeSentences:
		if err := json.Unmarshal([]byte(payload), &result.Sentences); err != nil {
			return nil, fmt.Errorf("failed to decode sentence list: %w", err)
		}
	default:
		var both struct {
			Words     []EnrichedWord     `json:"words"`
			Sentences []EnrichedSentence `json:"sentences"`
		}
		if err := json.Unmarshal([]byte(payload), &both); err != nil {
			return nil, fmt.Errorf("failed to decode combined result: %w", err)
		}
		result.Words = both.Words
		result.Sentences = both.Sentences
	}

	result.clamp()
	return result, nil
}

// stripFences removes markdown code-fence markers the model sometimes
// wraps around its JSON payload.
func stripFences(reply string) string {
	reply = strings.ReplaceAll(reply, "```json", "")
	reply = strings.ReplaceAll(reply, "```", "")
	return strings.TrimSpace(reply)
}
