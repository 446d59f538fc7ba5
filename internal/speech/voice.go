package speech

import (
	"github.com/pemistahl/lingua-go"
)

// study material is bilingual: English source text with Chinese
// translations, and either may be sent for synthesis
const chineseVoice = "zh-CN-tao"

// VoicePicker chooses a voice for requests that leave VoiceID unset,
// based on the detected language of the text.
type VoicePicker struct {
	detector lingua.LanguageDetector
	fallback string
}

// NewVoicePicker builds a picker that falls back to fallback (the
// configured default voice) when detection is inconclusive.
func NewVoicePicker(fallback string) *VoicePicker {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.English, lingua.Chinese).
		Build()

	return &VoicePicker{
		detector: detector,
		fallback: fallback,
	}
}

// Pick returns the voice id to use for text
func (p *VoicePicker) Pick(text string) string {
	lang, ok := p.detector.DetectLanguageOf(text)
	if ok && lang == lingua.Chinese {
		return chineseVoice
	}
	return p.fallback
}
