package murf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"lexivox/pkg/logger"
	"lexivox/pkg/resilience"

	"go.uber.org/zap"
)

const (
	GenerateURL = "https://api.murf.ai/v1/speech/generate"

	// Murf serves MP3; stored assets carry this format
	AudioFormat = "mp3"
)

// SynthesisError is a transport failure or non-success status from the
// speech collaborator. It carries the upstream status and message and
// surfaces to the caller: there is no fallback for missing audio.
type SynthesisError struct {
	StatusCode int
	Message    string
}

func (e *SynthesisError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("speech synthesis failed: status=%d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("speech synthesis failed: %s", e.Message)
}

type Client struct {
	apiKey   string
	baseURL  string
	client   *http.Client
	fetchCfg *resilience.RetryConfig
}

// NewClient creates a Murf AI text-to-speech client
func NewClient(apiKey string) *Client {
	fetchCfg := resilience.DefaultRetryConfig()
	fetchCfg.InitialInterval = 500 * time.Millisecond
	fetchCfg.MaxInterval = 5 * time.Second

	return &Client{
		apiKey:  apiKey,
		baseURL: GenerateURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		fetchCfg: fetchCfg,
	}
}

// WithBaseURL overrides the API endpoint (tests)
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// Generate synthesizes text and returns the temporary URL of the audio
// file. rate and pitch are in [-50, 50].
func (c *Client) Generate(ctx context.Context, text, voiceID string, rate, pitch int) (string, error) {
	reqBody := GenerateRequest{
		VoiceID: voiceID,
		Text:    text,
		Rate:    rate,
		Pitch:   pitch,
		Format:  "MP3",
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Requesting speech synthesis",
		zap.String("voice_id", voiceID),
		zap.Int("rate", rate),
		zap.Int("pitch", pitch),
		zap.Int("text_length", len(text)))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &SynthesisError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &SynthesisError{Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &SynthesisError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return "", &SynthesisError{Message: fmt.Sprintf("failed to unmarshal response: %v", err)}
	}

	if genResp.AudioFile == "" {
		return "", &SynthesisError{Message: "response carried no audio file URL"}
	}

	return genResp.AudioFile, nil
}

// Fetch downloads the synthesized audio from its temporary URL. The
// URL expires, so the fetch happens right after Generate and retries
// transient failures with backoff.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var data []byte

	err := resilience.RetryWithExponentialBackoff(ctx, c.fetchCfg, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to download audio: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to download audio: status=%d", resp.StatusCode)
		}

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read audio data: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &SynthesisError{Message: err.Error()}
	}

	logger.Debug("Audio downloaded",
		zap.Int("size", len(data)))

	return data, nil
}
