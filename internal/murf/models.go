package murf

// GenerateRequest is the speech/generate request body
type GenerateRequest struct {
	VoiceID string `json:"voice_id"`
	Text    string `json:"text"`
	Rate    int    `json:"rate"`
	Pitch   int    `json:"pitch"`
	Format  string `json:"format"`
}

// GenerateResponse is the speech/generate response body. AudioFile is
// a temporary URL; the file behind it is not guaranteed to stay
// available and must be fetched immediately.
type GenerateResponse struct {
	AudioFile         string  `json:"audioFile"`
	AudioLengthInSecs float64 `json:"audioLengthInSeconds,omitempty"`
	ConsumedCharCount int     `json:"consumedCharacterCount,omitempty"`
}
