package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/PabloGalante/noto-agent/internal/config"
	"github.com/PabloGalante/noto-agent/internal/domain"
	"github.com/PabloGalante/noto-agent/internal/observability"
)

// GeminiClient implements domain.Generator on Gemini, through Vertex AI
// or the Gemini API when an API key is configured.
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

var _ domain.Generator = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	cc := &genai.ClientConfig{
		Project:  cfg.GCPProjectID,
		Location: cfg.GCPLocation,
		Backend:  genai.BackendVertexAI,
	}
	if cfg.GeminiAPIKey != "" {
		cc = &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		modelName: cfg.ModelName,
	}, nil
}

// Generate sends one request. The response carries either text or tool calls.
func (g *GeminiClient) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.GenerationResponse, error) {
	log := observability.LoggerFromContext(ctx)

	temp := float32(0.4)
	topP := float32(0.9)
	outputTokens := int32(2048)

	cfg := &genai.GenerateContentConfig{
		// According to official examples, the role here is usually RoleUser, not "system"
		SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		Temperature:       &temp,
		TopP:              &topP,
		MaxOutputTokens:   outputTokens,
	}
	if len(req.Tools) > 0 {
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(req.Tools)}}
	} else if req.JSONOutput {
		// JSON mode cannot be combined with function calling
		cfg.ResponseMIMEType = "application/json"
	}

	res, err := g.client.Models.GenerateContent(ctx, g.modelName, buildContents(req), cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	if fcs := res.FunctionCalls(); len(fcs) > 0 {
		out := &domain.GenerationResponse{}
		for _, fc := range fcs {
			out.ToolCalls = append(out.ToolCalls, domain.ToolCall{ID: fc.ID, Name: fc.Name, Args: fc.Args})
		}
		log.Debug("gemini requested tools", "count", len(out.ToolCalls))
		return out, nil
	}

	text := res.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini returned empty text")
	}
	return &domain.GenerationResponse{Text: text}, nil
}
