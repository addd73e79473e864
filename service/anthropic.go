package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/model"
)

type AnthropicExtractor struct {
	config     *config.AnthropicConfig
	httpClient *http.Client
}

// AnthropicRequest is the Messages API request body
type AnthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []AnthropicMessage `json:"messages"`
}

type AnthropicMessage struct {
	Role    string             `json:"role"`
	Content []AnthropicContent `json:"content"`
}

type AnthropicContent struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *AnthropicSource `json:"source,omitempty"`
}

type AnthropicSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// AnthropicResponse is the subset of the Messages API response we read
type AnthropicResponse struct {
	Type    string             `json:"type"`
	Content []AnthropicContent `json:"content"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func NewAnthropicExtractor(cfg *config.AnthropicConfig, timeout time.Duration) *AnthropicExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicExtractor{
		config: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Extract sends the document with the extraction prompt and parses the reply
func (s *AnthropicExtractor) Extract(ctx context.Context, pdf []byte) (*model.Extraction, error) {
	reply, err := s.complete(ctx, base64.StdEncoding.EncodeToString(pdf))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return ParseExtractionReply(reply)
}

func (s *AnthropicExtractor) complete(ctx context.Context, encodedPDF string) (string, error) {
	reqBody := AnthropicRequest{
		Model:     s.config.Model,
		MaxTokens: s.config.MaxTokens,
		Messages: []AnthropicMessage{{
			Role: "user",
			Content: []AnthropicContent{
				{
					Type: "document",
					Source: &AnthropicSource{
						Type:      "base64",
						MediaType: "application/pdf",
						Data:      encodedPDF,
					},
				},
				{Type: "text", Text: ExtractionPrompt},
			},
		}},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(s.config.APIURL, "/") + "/v1/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", s.config.APIKey)
	req.Header.Set("anthropic-version", s.config.Version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	var result AnthropicResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || result.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if result.Error != nil {
			msg = result.Error.Message
		}
		return "", fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, msg)
	}

	var text strings.Builder
	for _, c := range result.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}
	return text.String(), nil
}
