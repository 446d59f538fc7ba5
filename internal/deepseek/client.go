package deepseek

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
	CompletionsURL = "https://api.deepseek.com/chat/completions"

	// enrichment prompts ask for bounded JSON, so modest generation
	// settings are enough
	temperature = 0.3
	maxTokens   = 2000
)

type Client struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	breaker *resilience.CircuitBreaker
}

// NewClient creates a DeepSeek chat-completions client. Repeated
// upstream failures trip the circuit breaker so the extraction ladder
// can fall through without waiting out timeouts on every request.
func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: CompletionsURL,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(5, 30*time.Second),
	}
}

// WithBaseURL overrides the API endpoint (tests)
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// Complete sends prompt as a single user message and returns the raw
// completion text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	var completion string

	err := c.breaker.Execute(func() error {
		var execErr error
		completion, execErr = c.complete(ctx, prompt)
		return execErr
	})
	if err != nil {
		return "", err
	}

	return completion, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	logger.Debug("Requesting completion",
		zap.String("model", c.model),
		zap.Int("prompt_length", len(prompt)))

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion request failed: status=%d, body=%s", resp.StatusCode, string(respBody))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if chatResp.Error != nil {
		return "", fmt.Errorf("completion rejected: %s", chatResp.Error.Message)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}

	return chatResp.Choices[0].Message.Content, nil
}
