package infrastructure

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"adsreporter/internal/domain"
	"adsreporter/pkg/config"
	"adsreporter/pkg/logger"
	"adsreporter/pkg/metrics"
)

const apiGemini = "gemini"

// GeminiGenerator implements domain.TextGenerator with the Gemini API.
type GeminiGenerator struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics
}

var _ domain.TextGenerator = (*GeminiGenerator)(nil)

// NewGeminiGenerator returns nil without error when no API key is set, so
// callers can fall back to the static messages.
func NewGeminiGenerator(ctx context.Context, cfg config.AIConfig, logger *logger.Logger, metrics *metrics.Metrics) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Generate sends prompt as a single user turn with thinking disabled.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0),
		},
	})
	if err != nil {
		g.metrics.RecordExternalAPIFailure(apiGemini, "generate")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	duration := time.Since(start)
	g.metrics.RecordExternalAPICall(apiGemini, "success", duration)

	g.logger.WithContext(ctx).WithFields(map[string]any{
		"model":    g.model,
		"duration": duration,
	}).Debug("Gemini content generated")

	return resp.Text(), nil
}
