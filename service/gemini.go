package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ansher/agreementtracker/config"
	"github.com/ansher/agreementtracker/model"
	"google.golang.org/genai"
)

// GeminiExtractor sends the PDF inline to a Gemini model
type GeminiExtractor struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiExtractor(ctx context.Context, cfg *config.GeminiConfig, timeout time.Duration) (*GeminiExtractor, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GeminiExtractor{client: client, model: model, timeout: timeout}, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, pdf []byte) (*model.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(pdf, "application/pdf"),
			genai.NewPartFromText(ExtractionPrompt),
		}, genai.RoleUser),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: GenAI generate failed: %w", ErrExtraction, err)
	}

	return ParseExtractionReply(result.Text())
}
