package ocrspace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"lexivox/pkg/logger"

	"go.uber.org/zap"
)

const ParseURL = "https://api.ocr.space/parse/image"

// OCRError is an upstream OCR failure or an empty recognition result.
// There is no safe fallback for an unreadable image, so it surfaces to
// the caller as a request failure.
type OCRError struct {
	Message string
}

func (e *OCRError) Error() string {
	return fmt.Sprintf("ocr failed: %s", e.Message)
}

type Client struct {
	apiKey   string
	language string
	baseURL  string
	client   *http.Client
}

// NewClient creates an OCR.space client. language is the recognition
// hint, e.g. "eng" or "chi_sim".
func NewClient(apiKey, language string) *Client {
	return &Client{
		apiKey:   apiKey,
		language: language,
		baseURL:  ParseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithBaseURL overrides the API endpoint (tests)
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// Recognize uploads image bytes and returns the recognized text.
// language overrides the client default when non-empty.
func (c *Client) Recognize(ctx context.Context, image []byte, language string) (string, error) {
	if language == "" {
		language = c.language
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to write image data: %w", err)
	}

	fields := map[string]string{
		"language":          language,
		"detectorientation": "true",
		"scale":             "true",
		"OCREngine":         "2",
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to write form field: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	logger.Debug("Uploading image for recognition",
		zap.Int("size", len(image)),
		zap.String("language", language))

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
		return "", &OCRError{Message: fmt.Sprintf("status=%d, body=%s", resp.StatusCode, string(respBody))}
	}

	var parsed ParseResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if parsed.IsErroredOnProcessing {
		msg := parsed.ErrorMessage.String()
		if msg == "" {
			msg = "unknown OCR error"
		}
		return "", &OCRError{Message: msg}
	}

	if len(parsed.ParsedResults) == 0 {
		return "", &OCRError{Message: "no OCR results found"}
	}

	text := strings.TrimSpace(parsed.ParsedResults[0].ParsedText)
	if text == "" {
		return "", &OCRError{Message: "empty recognition result"}
	}

	logger.Info("Image recognized",
		zap.Int("text_length", len(text)))

	return text, nil
}
