package extract

import "fmt"

// MaxItems bounds how many words and how many sentences a result may
// carry, regardless of input size or what the model returns.
const MaxItems = 20

// Mode selects which candidate kinds are requested and returned.
type Mode string

const (
	ModeWords     Mode = "words"
	ModeSentences Mode = "sentences"
	ModeBoth      Mode = "both"
)

// ParseMode converts a request string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeWords, ModeSentences, ModeBoth:
		return Mode(s), nil
	case "":
		return ModeBoth, nil
	}
	return "", fmt.Errorf("unknown extraction mode: %q", s)
}

// WantsWords reports whether word items are requested
func (m Mode) WantsWords() bool {
	return m == ModeWords || m == ModeBoth
}

// WantsSentences reports whether sentence items are requested
func (m Mode) WantsSentences() bool {
	return m == ModeSentences || m == ModeBoth
}

// Tier identifies which rung of the fallback ladder produced a result
type Tier string

const (
	TierDirect    Tier = "direct"
	TierGuided    Tier = "guided"
	TierHeuristic Tier = "heuristic"
)

// EnrichedWord is one vocabulary item annotated for dictation practice
type EnrichedWord struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic,omitempty"`
	Meaning  string `json:"meaning,omitempty"`
	Example  string `json:"example,omitempty"`
}

// EnrichedSentence is one complete sentence annotated with a translation
type EnrichedSentence struct {
	Sentence string `json:"sentence"`
	Meaning  string `json:"meaning,omitempty"`
}

// Result is the outcome of one extraction request. Item order is the
// importance rank assigned by the producing tier and is never re-sorted.
type Result struct {
	Mode      Mode               `json:"mode"`
	Tier      Tier               `json:"tier"`
	Words     []EnrichedWord     `json:"words,omitempty"`
	Sentences []EnrichedSentence `json:"sentences,omitempty"`
}

// IsEmpty reports whether the result carries no items at all
func (r *Result) IsEmpty() bool {
	return len(r.Words) == 0 && len(r.Sentences) == 0
}

// clamp trims both item lists to the MaxItems bound
func (r *Result) clamp() {
	if len(r.Words) > MaxItems {
		r.Words = r.Words[:MaxItems]
	}
	if len(r.Sentences) > MaxItems {
		r.Sentences = r.Sentences[:MaxItems]
	}
}
