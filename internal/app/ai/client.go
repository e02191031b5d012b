// Package ai wraps the Gemini SDK behind a small streaming interface so
// the recommendation pipeline can be driven by any token source.
package ai

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-tripstream/internal/pkg/config"
)

// StreamClient produces model output for a system/user prompt pair.
// StreamGenerate yields text chunks in arrival order; iteration stops on
// the first error. Generate blocks for the full response.
type StreamClient interface {
	StreamGenerate(ctx context.Context, system, user string) iter.Seq2[string, error]
	Generate(ctx context.Context, system, user string) (string, error)
}

// GeminiClient implements StreamClient on google.golang.org/genai.
type GeminiClient struct {
	client *genai.Client
	cfg    config.AIConfig
	logger *zap.Logger
}

func NewGeminiClient(ctx context.Context, cfg config.AIConfig, logger *zap.Logger) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg, logger: logger}, nil
}

func (g *GeminiClient) generateConfig(system string) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](float32(g.cfg.Temperature)),
		MaxOutputTokens: g.cfg.MaxTokens,
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return cfg
}

// StreamGenerate starts a streaming generation and flattens the SDK's
// response iterator into plain text chunks.
func (g *GeminiClient) StreamGenerate(ctx context.Context, system, user string) iter.Seq2[string, error] {
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}
	raw := g.client.Models.GenerateContentStream(ctx, g.cfg.Model, contents, g.generateConfig(system))

	return func(yield func(string, error) bool) {
		for resp, err := range raw {
			if err != nil {
				g.logger.Error("Model stream error", zap.Error(err))
				yield("", err)
				return
			}
			for _, cand := range resp.Candidates {
				if cand.Content == nil {
					continue
				}
				for _, part := range cand.Content.Parts {
					if part.Text == "" {
						continue
					}
					if !yield(part.Text, nil) {
						return
					}
				}
			}
		}
	}
}

// Generate runs a non-streaming generation and returns the concatenated
// text of the first candidate.
func (g *GeminiClient) Generate(ctx context.Context, system, user string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(user, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model, contents, g.generateConfig(system))
	if err != nil {
		return "", fmt.Errorf("model generation failed: %w", err)
	}
	var out string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			out += part.Text
		}
	}
	return out, nil
}
